package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-sync-core/models"
)

// eventBuffer bounds the events a one-shot command collects.
const eventBuffer = 1024

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Sync periodically and print applied changes until interrupted",
		Long: `Runs a sync right away and then every --sync-interval, printing each change
applied from the server. Stops on Ctrl+C.`,
		PreRunE: c.openAccount,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, helpStyle.Render("watching for changes, press Ctrl+C to stop"))

			return c.app.Watch(cmd.Context(), func(ev models.ChangeEvent) {
				fmt.Fprintln(out, renderEvent(time.Now(), ev))
			})
		},
	}
}

// withEvents runs op and prints the changes it applied.
func (c *cli) withEvents(cmd *cobra.Command, op func() error) error {
	sub := c.app.Engine().Subscribe(eventBuffer)
	defer sub.Cancel()

	err := op()

	out := cmd.OutOrStdout()
	n, overflowed := 0, false
drain:
	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				overflowed = true
				break drain
			}
			fmt.Fprintln(out, renderEvent(time.Now(), ev))
			n++
		default:
			break drain
		}
	}
	if overflowed {
		fmt.Fprintln(out, helpStyle.Render("more changes were applied than could be listed"))
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("%d change(s) applied", n)))
	return nil
}
