package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-sync-core/models"
)

func (c *cli) fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [FEATURE...]",
		Short: "Fetch and merge remote changes",
		Long: `Fetches the changes of the given features, or of all features, since the last
fetch and merges them into the local store. Applied changes are listed.`,
		PreRunE: c.openAccount,
		RunE: func(cmd *cobra.Command, args []string) error {
			feats := make([]models.Feature, 0, len(args))
			for _, a := range args {
				f, err := models.ParseFeature(a)
				if err != nil {
					return err
				}
				feats = append(feats, f)
			}

			return c.withEvents(cmd, func() error {
				return c.app.Engine().Fetch(cmd.Context(), feats...)
			})
		},
	}
}

func (c *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "sync",
		Short:   "Fetch remote changes and send pending local ones for every feature",
		PreRunE: c.openAccount,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEvents(cmd, func() error {
				return c.app.Engine().Sync(cmd.Context())
			})
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("syncctl"), c.info)
		},
	}
}
