package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (c *cli) createAccountCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "Register this device and derive its keys from a password",
		Long: `Registers this device with the sync server. The password never leaves the
device: only a hash derived from it is sent. The keys are stored in the key file.`,
		PreRunE: c.open,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			account, err := c.app.CreateAccount(cmd.Context(), userID, password)
			if err != nil {
				return fmt.Errorf("create account: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("account created"))
			fmt.Fprintf(cmd.OutOrStdout(), "user:   %s\ndevice: %s (%s)\n", account.UserID, account.DeviceID, account.DeviceName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id of the account")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func (c *cli) signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "sign-out",
		Short:   "Forget the account, its keys and the sync state on this device",
		PreRunE: c.openAccount,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("signed out"))
			return nil
		},
	}
}

// readPassword prompts on a terminal and reads a single line otherwise.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
