package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-sync-core/internal/client"
	"github.com/MKhiriev/go-sync-core/internal/config"
	"github.com/MKhiriev/go-sync-core/internal/logger"
	"github.com/MKhiriev/go-sync-core/models"
)

// cli holds what the subcommands share once the root has set it up.
type cli struct {
	flags *config.Flags
	info  models.BuildInfo

	app *client.App
	log *logger.Logger
}

func newRootCmd(info models.BuildInfo) *cobra.Command {
	c := &cli{info: info}

	root := &cobra.Command{
		Use:   "syncctl",
		Short: "Client for the bookmarks, tabs and settings sync engine",
		Long: `syncctl keeps bookmarks, open tabs and settings of this device in sync
with the sync server. Payloads are encrypted on the device before they leave it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.flags = config.BindFlags(root.PersistentFlags())
	cobra.OnFinalize(c.close)

	root.AddCommand(
		c.createAccountCmd(),
		c.signOutCmd(),
		c.sendCmd(),
		c.fetchCmd(),
		c.syncCmd(),
		c.watchCmd(),
		c.versionCmd(),
	)

	return root
}

// open loads the config and opens the app. Commands call it from their
// PreRunE so that version works without a database.
func (c *cli) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.GetClientConfig(c.flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	c.log = logger.NewClientLogger("syncctl", cfg.App.LogFile)

	c.app, err = client.NewApp(cmd.Context(), cfg, c.log)
	if err != nil {
		return err
	}
	return nil
}

// openAccount opens the app and activates the stored account.
func (c *cli) openAccount(cmd *cobra.Command, args []string) error {
	if err := c.open(cmd, args); err != nil {
		return err
	}
	if _, err := c.app.Restore(cmd.Context()); err != nil {
		return fmt.Errorf("restore account (run create-account first): %w", err)
	}
	return nil
}

// close releases the app after any command, failed or not.
func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		c.log.Err(err).Str("func", "cli.close").Msg("failed to close app")
	}
	c.app = nil
}
