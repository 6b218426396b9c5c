package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/geocoder89/eventprint/internal/observability"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "badgectl",
		Short:         "Render badges and certificates, send labels to printers",
		Version:       version,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log render and delivery details to stderr")

	logger := func(cmd *cobra.Command) *slog.Logger {
		env := "cli"
		if verbose {
			env = "dev"
		}
		return observability.NewLoggerTo(cmd.ErrOrStderr(), env)
	}

	root.AddCommand(newRenderCmd(logger), newSendCmd(logger))
	return root
}
