package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hipstershop/k6-harvester/internal/harvester"
)

var harvestFlagKeys = map[string]string{
	"summary":          "loadTest.summaryPath",
	"storage":          "storage.type",
	"bucket":           "storage.bucket",
	"directory":        "storage.directory",
	"pushgateway-url":  "pushgateway.url",
	"timestamp-layout": "naming.timestampLayout",
	"include-run-id":   "naming.includeRunId",
}

// Upload the results of a k6 run that already finished.
func harvestCmd(app *harvester.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Upload an existing k6 summary and the metrics of the load test that produced it.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app, harvestFlagKeys)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			iteration, err := cmd.Flags().GetInt("iteration")
			if err != nil {
				return err
			}
			duration, err := cmd.Flags().GetDuration("duration")
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			_, err = app.Harvest(ctx, iteration, duration)
			return err
		},
	}

	cmd.Flags().Int("iteration", 1, "Iteration number used in uploaded file names.")
	cmd.Flags().Duration("duration", 0, "How long the load test ran, e.g. 5m. Substituted for ${DURATION} in queries.")
	cmd.Flags().String("summary", "", "k6 summary export to upload.")
	addStorageFlags(cmd)
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}
