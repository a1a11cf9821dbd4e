package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/hipstershop/k6-harvester/internal/harvester"
)

// Print the metric tables without running k6 or uploading anything.
// Useful when writing metric definitions.
func queryCmd(app *harvester.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run every metric query and print the resulting tables.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app, nil)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			duration, err := cmd.Flags().GetDuration("duration")
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			return app.Query(ctx, duration)
		},
	}

	cmd.Flags().Duration("duration", 5*time.Minute, "Window substituted for ${DURATION} in queries.")

	return cmd
}
