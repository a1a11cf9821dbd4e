package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/hipstershop/k6-harvester/cmd/k6-harvester/cmd"
	"github.com/hipstershop/k6-harvester/internal/common"
	"github.com/hipstershop/k6-harvester/internal/common/harvesterrors"
)

// Config is handled by cmd/root.go
func main() {
	common.ConfigureCommandLineLogging()
	err := cmd.RootCmd().Execute()
	if err != nil {
		log.WithError(err).Error("k6-harvester failed")
		os.Exit(harvesterrors.ExitCodeFromError(err))
	}
}
