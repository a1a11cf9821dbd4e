package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hipstershop/k6-harvester/internal/harvester"
)

var runFlagKeys = map[string]string{
	"iterations":           "iterations",
	"start-iteration":      "startIteration",
	"iteration-interval":   "iterationInterval",
	"harvest-delay":        "harvestDelay",
	"fail-on-test-failure": "failOnTestFailure",
	"script":               "loadTest.scriptPath",
	"summary":              "loadTest.summaryPath",
	"k6":                   "loadTest.binary",
	"k6-arg":               "loadTest.extraArgs",
	"clean":                "prometheus.clean.enabled",
	"clean-between":        "prometheus.clean.betweenIterations",
	"storage":              "storage.type",
	"bucket":               "storage.bucket",
	"directory":            "storage.directory",
	"pushgateway-url":      "pushgateway.url",
	"timestamp-layout":     "naming.timestampLayout",
	"include-run-id":       "naming.includeRunId",
}

// Run the load test the configured number of times, harvesting after every iteration.
func runCmd(app *harvester.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the k6 script and upload its summary and metrics after every iteration.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app, runFlagKeys)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return app.Run(ctx)
		},
	}

	cmd.Flags().Int("iterations", 1, "Number of times the load test is run.")
	cmd.Flags().Int("start-iteration", 1, "Number of the first iteration, used in uploaded file names.")
	cmd.Flags().Duration("iteration-interval", 0, "Pause between iterations.")
	cmd.Flags().Duration("harvest-delay", 0, "Wait after k6 exits before querying Prometheus.")
	cmd.Flags().Bool("fail-on-test-failure", false, "Exit non-zero when any iteration's k6 run fails.")
	cmd.Flags().String("script", "", "k6 script to run.")
	cmd.Flags().String("summary", "", "File k6 exports its end-of-test summary to.")
	cmd.Flags().String("k6", "", "k6 binary.")
	cmd.Flags().StringArray("k6-arg", nil, "Extra argument passed to k6 run, may be repeated.")
	addCleanFlags(cmd)
	addStorageFlags(cmd)

	return cmd
}

func addCleanFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("clean", true, "Delete matching series from Prometheus before the first iteration.")
	cmd.Flags().Bool("clean-between", false, "Also delete matching series before every later iteration.")
}

func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().String("storage", "", "Storage backend: s3, minio or filesystem.")
	cmd.Flags().String("bucket", "", "Bucket artifacts are uploaded to.")
	cmd.Flags().String("directory", "", "Root directory of the filesystem storage backend.")
	cmd.Flags().String("pushgateway-url", "", "Pushgateway receiving per-iteration metrics.")
	cmd.Flags().String("timestamp-layout", "", "Go time layout appended to the title, e.g. 2006-01-02-15-04.")
	cmd.Flags().Bool("include-run-id", false, "Upload below a unique run id.")
}
