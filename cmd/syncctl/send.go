package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-sync-core/internal/service"
	"github.com/MKhiriev/go-sync-core/models"
)

func (c *cli) sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Change a local object and send it to the server",
		Long: `Writes the change locally and sends every pending change of the touched
features. When the server is ahead, remote changes are fetched first.`,
	}

	cmd.AddCommand(c.sendBookmarkCmd(), c.sendTabCmd(), c.sendSettingCmd(), c.sendDeleteCmd())
	return cmd
}

// runSend stages what build adds and sends it.
func (c *cli) runSend(build func(*service.Sender)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		sender := c.app.Engine().Sender()
		build(sender)
		n := sender.Len()

		if err := c.app.Send(cmd.Context(), sender); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("sent %d change(s)", n)))
		return nil
	}
}

func (c *cli) sendBookmarkCmd() *cobra.Command {
	var b models.Bookmark

	cmd := &cobra.Command{
		Use:     "bookmark",
		Short:   "Create or update a bookmark",
		PreRunE: c.openAccount,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSend(func(s *service.Sender) { s.Stage(b) })(cmd, args)
		},
	}
	cmd.Flags().StringVar(&b.ID, "id", "", "Bookmark id")
	cmd.Flags().StringVar(&b.Title, "title", "", "Title")
	cmd.Flags().StringVar(&b.URL, "url", "", "Absolute URL, empty for folders")
	cmd.Flags().BoolVar(&b.IsFolder, "folder", false, "Bookmark is a folder")
	cmd.Flags().BoolVar(&b.IsFavorite, "favorite", false, "Mark as favorite")
	cmd.Flags().StringVar(&b.ParentID, "parent", "", "Parent folder id")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func (c *cli) sendTabCmd() *cobra.Command {
	var tab models.Tab

	cmd := &cobra.Command{
		Use:     "tab",
		Short:   "Create or update an open tab",
		PreRunE: c.openAccount,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSend(func(s *service.Sender) { s.Stage(tab) })(cmd, args)
		},
	}
	cmd.Flags().StringVar(&tab.ID, "id", "", "Tab id")
	cmd.Flags().StringVar(&tab.URL, "url", "", "Absolute URL")
	cmd.Flags().StringVar(&tab.Title, "title", "", "Title")
	cmd.Flags().IntVar(&tab.Index, "index", 0, "Position in the window")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func (c *cli) sendSettingCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "setting KEY VALUE",
		Short:   "Set a synchronized preference",
		Args:    cobra.ExactArgs(2),
		PreRunE: c.openAccount,
		RunE: func(cmd *cobra.Command, args []string) error {
			setting := models.Setting{Key: args[0], Value: args[1]}
			return c.runSend(func(s *service.Sender) { s.Stage(setting) })(cmd, args)
		},
	}
}

func (c *cli) sendDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete FEATURE ID...",
		Short:   "Delete local objects and send the deletions",
		Args:    cobra.MinimumNArgs(2),
		PreRunE: c.openAccount,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := models.ParseFeature(args[0])
			if err != nil {
				return err
			}
			return c.runSend(func(s *service.Sender) {
				for _, id := range args[1:] {
					s.Delete(f, id)
				}
			})(cmd, args)
		},
	}
}
