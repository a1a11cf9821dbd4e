package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipstershop/k6-harvester/internal/harvester"
)

func TestInitParams_FlagsOverrideConfigFile(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
title: from-file
iterations: 2
harvestDelay: 10s
storage:
  type: filesystem
  directory: /tmp/artifacts
`), 0o644))

	app := harvester.New(nil)
	cmd := runCmd(app)
	cmd.Flags().String(configFlag, "", "")
	cmd.Flags().String("title", "", "")
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", cfgFile,
		"--title", "from-flag",
		"--harvest-delay", "1m",
		"--k6-arg=--vus=10",
		"--k6-arg=--tag=a,b",
	}))

	require.NoError(t, initParams(cmd, app, runFlagKeys))

	assert.Equal(t, "from-flag", app.Config.Title)
	assert.Equal(t, 2, app.Config.Iterations)
	assert.Equal(t, time.Minute, app.Config.HarvestDelay)
	assert.Equal(t, []string{"--vus=10", "--tag=a,b"}, app.Config.LoadTest.ExtraArgs)
	assert.Equal(t, "filesystem", app.Config.Storage.Type)
	assert.True(t, app.Config.Prometheus.Clean.Enabled)
}

func TestInitParams_UnchangedFlagsKeepConfig(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("iterations: 4\n"), 0o644))

	app := harvester.New(nil)
	cmd := runCmd(app)
	cmd.Flags().String(configFlag, "", "")
	require.NoError(t, cmd.ParseFlags([]string{"--config", cfgFile}))

	require.NoError(t, initParams(cmd, app, runFlagKeys))

	assert.Equal(t, 4, app.Config.Iterations)
}

func TestVersionCmd(t *testing.T) {
	out := &bytes.Buffer{}
	app := harvester.New(nil)
	app.Out = out

	root := &cobra.Command{Use: "k6-harvester"}
	root.AddCommand(versionCmd(app))
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "Version:")
}
