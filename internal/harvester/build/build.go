// Package build holds build information, set at link time with -ldflags "-X" by the mage Build
// target and .goreleaser.yml.
package build

import "runtime"

var (
	ReleaseVersion = "UNKNOWN"
	GitCommit      = "UNKNOWN"
	BuildTime      = "UNKNOWN"
	GoVersion      = runtime.Version()
)
