package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName   = "k6-harvester"
	buildPackage = "github.com/hipstershop/k6-harvester/internal/harvester/build"
	distDir      = "dist"
)

// Build compiles k6-harvester into dist/, stamping version, commit and build time.
func Build() error {
	info, err := gitBuildInfo()
	if err != nil {
		return err
	}
	output := filepath.Join(distDir, binaryWithExt(binaryName))
	fmt.Printf("Building %s %s (%s)\n", output, info.version, info.commit)
	return sh.RunWith(
		map[string]string{"CGO_ENABLED": "0"},
		"go", "build", "-ldflags", ldflags(info), "-o", output, "./cmd/k6-harvester",
	)
}

// Release builds archives for every platform with goreleaser. Without a tag it makes a snapshot.
func Release() error {
	args := []string{"run", "github.com/goreleaser/goreleaser", "release", "--rm-dist"}
	if os.Getenv("GITHUB_REF_TYPE") != "tag" {
		args = append(args, "--snapshot")
	}
	return sh.RunV("go", args...)
}

// Clean removes build and test outputs.
func Clean() {
	fmt.Println("Cleaning...")
	for _, path := range []string{distDir, testReportsDir} {
		os.RemoveAll(path)
	}
}

// Version prints the version information Build would stamp into the binary.
func Version() error {
	mg.Deps(gitCheck)
	info, err := gitBuildInfo()
	if err != nil {
		return err
	}
	fmt.Println(ldflags(info))
	return nil
}

type buildInfo struct {
	version string
	commit  string
	date    string
}

// gitBuildInfo reads the release version from RELEASE_VERSION, falling back to git describe.
func gitBuildInfo() (buildInfo, error) {
	info := buildInfo{
		version: os.Getenv("RELEASE_VERSION"),
		date:    time.Now().UTC().Format(time.RFC3339),
	}
	commit, err := sh.Output("git", "rev-parse", "HEAD")
	if err != nil {
		return info, err
	}
	info.commit = strings.TrimSpace(commit)
	if info.version == "" {
		version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
		if err != nil {
			return info, err
		}
		info.version = strings.TrimSpace(version)
	}
	return info, nil
}

func ldflags(info buildInfo) string {
	flags := []string{
		"-s", "-w",
		fmt.Sprintf("-X %s.ReleaseVersion=%s", buildPackage, info.version),
		fmt.Sprintf("-X %s.GitCommit=%s", buildPackage, info.commit),
		fmt.Sprintf("-X %s.BuildTime=%s", buildPackage, info.date),
	}
	return strings.Join(flags, " ")
}

func gitCheck() error {
	if _, err := sh.Output("git", "--version"); err != nil {
		return fmt.Errorf("git is required to stamp build information: %w", err)
	}
	return nil
}
