package harvesterrors

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestExitCodeFromError(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"ErrNotFound":                     {&ErrNotFound{}, ExitCodeNotFound},
		"ErrInvalidArgument":              {&ErrInvalidArgument{}, ExitCodeInvalidArgument},
		"ErrLoadTestFailed":               {&ErrLoadTestFailed{}, ExitCodeLoadTestFailed},
		"pkg.Error => ErrNotFound":        {errors.WithMessage(&ErrNotFound{}, "foo"), ExitCodeNotFound},
		"pkg.Error => ErrInvalidArgument": {errors.WithStack(&ErrInvalidArgument{}), ExitCodeInvalidArgument},
		"pkg.Error => ErrLoadTestFailed":  {errors.Wrap(&ErrLoadTestFailed{}, "foo"), ExitCodeLoadTestFailed},
		"pkg.Error":                       {errors.New("foo"), ExitCodeUnknown},
		"nil":                             {nil, ExitCodeOk},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCodeFromError(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t,
		`resource "/tmp/output.json" of type "file" does not exist; k6 did not export a summary`,
		(&ErrNotFound{Type: "file", Value: "/tmp/output.json", Message: "k6 did not export a summary"}).Error())
	assert.Equal(t, `resource "latency" does not exist`, (&ErrNotFound{Value: "latency"}).Error())
	assert.Equal(t,
		`value 0 is invalid for field "Iterations"; must be positive`,
		(&ErrInvalidArgument{Name: "Iterations", Value: 0, Message: "must be positive"}).Error())
	assert.Equal(t,
		`value 0s is invalid for field "duration"`,
		(&ErrInvalidArgument{Name: "duration", Value: time.Duration(0)}).Error())
	assert.Equal(t,
		`value s3x is invalid for field "storage.type"`,
		(&ErrInvalidArgument{Name: "storage.type", Value: "s3x"}).Error())
	assert.Equal(t,
		`load test "k6" failed in 1 of 3 iteration(s)`,
		(&ErrLoadTestFailed{Title: "k6", Failed: 1, Iterations: 3}).Error())
}
