package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hipstershop/k6-harvester/internal/harvester"
	"github.com/hipstershop/k6-harvester/internal/harvester/configuration"
)

const configFlag = "config"

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "k6-harvester",
		Short: "k6-harvester runs k6 load tests and uploads their results and Prometheus metrics.",
		Long: `k6-harvester runs a k6 script, waits for it to finish, queries Prometheus for the
metrics listed in a definitions file and uploads the k6 summary and every query
result to object storage under <title>[-<timestamp>][/<run id>]/.

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:
title: checkout
iterations: 3
prometheus:
  url: http://prometheus:9090
  metricsPath: ./metrics.yaml
storage:
  type: minio
  endpoint: minio:9000
  bucket: hipstershop-k6

The location of this file can be passed in using the --config argument.
If not provided, $HOME/.k6-harvester.yaml is used. Every key can also be set
from the environment, e.g. STORAGE_BUCKET for storage.bucket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String(configFlag, "", "Config file (default is $HOME/.k6-harvester.yaml).")
	cmd.PersistentFlags().String("title", "", "Title of the load test, the root of all uploaded keys.")
	cmd.PersistentFlags().String("prometheus-url", "", "Prometheus base url.")
	cmd.PersistentFlags().String("metrics", "", "File with the metric query definitions (JSON or YAML).")

	app := harvester.New(nil)
	cmd.AddCommand(
		versionCmd(app),
		runCmd(app),
		harvestCmd(app),
		cleanCmd(app),
		queryCmd(app),
	)

	return cmd
}

// Config keys set by the persistent flags of the root command.
var persistentFlagKeys = map[string]string{
	"title":          "title",
	"prometheus-url": "prometheus.url",
	"metrics":        "prometheus.metricsPath",
}

// initParams loads the config of app from file, environment and the flags of cmd. flagKeys maps
// flag names of cmd to config keys; flags not set on the command line leave the key untouched.
func initParams(cmd *cobra.Command, app *harvester.App, flagKeys map[string]string) error {
	v := viper.New()
	if err := bindFlags(v, cmd.Flags(), persistentFlagKeys); err != nil {
		return err
	}
	if err := bindFlags(v, cmd.Flags(), flagKeys); err != nil {
		return err
	}

	cfgFile, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return errors.WithStack(err)
	}
	config, err := configuration.Load(v, cfgFile)
	if err != nil {
		return err
	}
	app.Config = config
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, flagKeys map[string]string) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// signalContext returns a context that is cancelled on SIGINT/SIGTERM.
// Cancelling kills a running k6 process.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-ctx.Done():
			return
		case sig := <-stopSignal:
			log.Warnf("Received %s, stopping", sig)
			cancel()
		}
	}()
	return ctx, func() {
		signal.Stop(stopSignal)
		cancel()
	}
}
