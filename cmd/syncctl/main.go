// Command syncctl drives the sync engine from the command line: it creates
// the device account, stages and sends local changes, fetches remote ones and
// watches the change feed.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-sync-core/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(buildInfo())
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}

func buildInfo() models.BuildInfo {
	return models.NewBuildInfo(buildVersion, buildDate, buildCommit)
}
