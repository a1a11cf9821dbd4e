//go:build tools
// +build tools

package tools

import (
	_ "github.com/goreleaser/goreleaser"
	_ "github.com/jstemmer/go-junit-report/v2"
)
