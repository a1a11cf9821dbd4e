// Package harvesterrors contains generic errors returned while running and harvesting load tests.
// The command line entrypoint looks for the error types defined in this file and maps them onto
// process exit codes.
//
// If multiple errors occur in some function (e.g., several metric queries fail), that function
// should return an error of type multierror.Error from package github.com/hashicorp/go-multierror
// that encapsulates those individual errors.
package harvesterrors

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	ExitCodeOk              = 0
	ExitCodeUnknown         = 1
	ExitCodeInvalidArgument = 2
	ExitCodeNotFound        = 3
	ExitCodeLoadTestFailed  = 4
)

// ErrNotFound is a generic error to be returned whenever some resource isn't found.
// Type and Message are optional and are omitted from the error message if not provided.
type ErrNotFound struct {
	Type    string // Resource type, e.g., "file" or "metric"
	Value   string // Resource name, e.g., "/tmp/output.json"
	Message string // An optional message to include in the error message
}

func (err *ErrNotFound) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q does not exist", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q does not exist", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	} else {
		return s
	}
}

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "iterations"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %v is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %v is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// ErrLoadTestFailed is returned at the end of a run when at least one iteration of the load test
// exited with a non-zero code and the run was configured to fail in that case.
type ErrLoadTestFailed struct {
	Title      string
	Failed     int // Number of iterations whose load test did not exit cleanly
	Iterations int
}

func (err *ErrLoadTestFailed) Error() string {
	return fmt.Sprintf("load test %q failed in %d of %d iteration(s)", err.Title, err.Failed, err.Iterations)
}

// ExitCodeFromError maps error types to process exit codes.
// Uses errors.As to look through the chain of errors, as opposed to just considering the topmost error in the chain.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitCodeOk
	}

	// Using {} scopes just to re-use the "e" variable name for each case.
	{
		var e *ErrInvalidArgument
		if errors.As(err, &e) {
			return ExitCodeInvalidArgument
		}
	}
	{
		var e *ErrNotFound
		if errors.As(err, &e) {
			return ExitCodeNotFound
		}
	}
	{
		var e *ErrLoadTestFailed
		if errors.As(err, &e) {
			return ExitCodeLoadTestFailed
		}
	}

	return ExitCodeUnknown
}
