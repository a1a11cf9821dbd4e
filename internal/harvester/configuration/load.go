package configuration

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	commonconfig "github.com/hipstershop/k6-harvester/internal/common/config"
)

const defaultConfigName = ".k6-harvester"

// Environment variable names understood by the first k6 runner image. They are kept so
// existing deployments can switch binaries without touching their manifests.
var legacyEnvBindings = map[string]string{
	"storage.accessKey":      "ACCESS_KEY",
	"storage.secretKey":      "SECRET_KEY",
	"storage.bucket":         "BUCKET_NAME",
	"prometheus.url":         "PROMETHEUS_URL",
	"prometheus.metricsPath": "METRICS_PATH",
	"loadTest.scriptPath":    "SCRIPT_PATH",
	"loadTest.summaryPath":   "OUTPUT",
	"title":                  "TITLE",
	"startIteration":         "ITERATION",
	"iterations":             "ITERATIONS",
	"naming.timeZone":        "TIMEZONE",
	"pushgateway.url":        "PUSHGATEWAY_URL",
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("title", "k6")
	v.SetDefault("iterations", 1)
	v.SetDefault("startIteration", 1)
	v.SetDefault("iterationInterval", time.Duration(0))
	v.SetDefault("harvestDelay", 30*time.Second)
	v.SetDefault("failOnTestFailure", false)

	v.SetDefault("naming.timestampLayout", "")
	v.SetDefault("naming.timeZone", "UTC")
	v.SetDefault("naming.includeRunId", false)

	v.SetDefault("loadTest.binary", "k6")
	v.SetDefault("loadTest.scriptPath", "/k6-script.js")
	v.SetDefault("loadTest.summaryPath", "/tmp/output.json")
	v.SetDefault("loadTest.extraArgs", []string{})

	v.SetDefault("prometheus.url", "http://prometheus.istio-system.svc.cluster.local:9090")
	v.SetDefault("prometheus.queryTimeout", 30*time.Second)
	v.SetDefault("prometheus.metricsPath", "/metrics.json")
	v.SetDefault("prometheus.clean.enabled", true)
	v.SetDefault("prometheus.clean.betweenIterations", false)
	v.SetDefault("prometheus.clean.matchers", []string{`{job="envoy-stats"}`})

	v.SetDefault("storage.type", StorageTypeS3)
	v.SetDefault("storage.bucket", "hipstershop-k6")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accessKey", "")
	v.SetDefault("storage.secretKey", "")
	v.SetDefault("storage.useSSL", true)
	v.SetDefault("storage.forcePathStyle", false)
	v.SetDefault("storage.directory", "")
	v.SetDefault("storage.uploadAttempts", 3)
	v.SetDefault("storage.uploadRetryDelay", time.Second)

	v.SetDefault("pushgateway.url", "")
	v.SetDefault("pushgateway.job", "k6-harvester")
}

// BindEnv makes every key overridable from the environment, e.g. STORAGE_TYPE for storage.type,
// in addition to the legacy names.
func BindEnv(v *viper.Viper) error {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnvBindings {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// ReadConfigFile merges cfgFile into v. When cfgFile is empty, $HOME/.k6-harvester.yaml is used if it exists.
func ReadConfigFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return fmt.Errorf("[ReadConfigFile] error getting user home directory: %s", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName(defaultConfigName)
	}

	if err := v.MergeInConfig(); err != nil {
		switch err.(type) {
		case viper.ConfigFileNotFoundError:
			// Only happens when looking for the default file, which users don't have to provide.
		default:
			return fmt.Errorf("[ReadConfigFile] error reading config file %s: %s", v.ConfigFileUsed(), err)
		}
	}
	return nil
}

// Load builds a validated HarvesterConfig from defaults, the config file, the environment and any
// flags already bound to v.
func Load(v *viper.Viper, cfgFile string) (*HarvesterConfig, error) {
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}
	if err := ReadConfigFile(v, cfgFile); err != nil {
		return nil, err
	}

	config := &HarvesterConfig{}
	if err := v.Unmarshal(config, commonconfig.CustomHooks...); err != nil {
		return nil, errors.WithMessage(err, "error decoding config")
	}
	if err := commonconfig.Validate(config); err != nil {
		return nil, errors.WithMessage(err, "invalid config")
	}
	return config, nil
}
