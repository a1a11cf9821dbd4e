package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hipstershop/k6-harvester/internal/harvester"
)

var cleanFlagKeys = map[string]string{
	"match": "prometheus.clean.matchers",
}

// Delete series from Prometheus and compact the tombstones left behind.
func cleanCmd(app *harvester.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete the configured series from Prometheus. Requires the admin API to be enabled.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app, cleanFlagKeys)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return app.Clean(ctx)
		},
	}

	cmd.Flags().StringArray("match", nil, `Series selector to delete, e.g. '{job="envoy-stats"}'. May be repeated.`)

	return cmd
}
