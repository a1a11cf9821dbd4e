package main

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/sh"
)

const testReportsDir = "test_reports"

// Tests runs every unit test and writes test_reports/junit.xml alongside the raw go test output.
func Tests() error {
	if err := os.MkdirAll(testReportsDir, os.ModePerm); err != nil {
		return err
	}
	rawOutput := filepath.Join(testReportsDir, "unit.txt")
	testErr := runtest(rawOutput, "./...")

	// The report is written even when tests fail so CI can show which ones.
	if err := sh.Run(
		"go", "run", "github.com/jstemmer/go-junit-report/v2",
		"-in", rawOutput,
		"-out", filepath.Join(testReportsDir, "junit.xml"),
		"-set-exit-code=false",
	); err != nil {
		return err
	}
	return testErr
}

func runtest(outputFileName string, packages ...string) error {
	args := append([]string{"test", "-v", "-count=1", "-coverprofile", filepath.Join(testReportsDir, "coverage.out")}, packages...)
	cmd := exec.Command("go", args...)

	file, err := os.Create(outputFileName)
	if err != nil {
		return err
	}
	defer file.Close()

	cmd.Stdout = io.MultiWriter(os.Stdout, file)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
