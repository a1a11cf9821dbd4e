package common

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

const logLevelEnvVar = "LOG_LEVEL"

// ConfigureCommandLineLogging sets up logrus for a command line tool. The level can be
// overridden with the LOG_LEVEL environment variable; an unparsable level falls back to info.
func ConfigureCommandLineLogging() {
	log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	log.SetOutput(os.Stdout)
	log.SetLevel(levelFromEnv())
}

func levelFromEnv() log.Level {
	value, ok := os.LookupEnv(logLevelEnvVar)
	if !ok {
		return log.InfoLevel
	}
	level, err := log.ParseLevel(strings.TrimSpace(value))
	if err != nil {
		return log.InfoLevel
	}
	return level
}
