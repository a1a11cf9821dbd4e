package loadtest

import (
	"context"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/hipstershop/k6-harvester/internal/harvester/configuration"
)

// Execution describes one finished run of the load test tool.
type Execution struct {
	// Exit code of the tool. -1 if it was killed by a signal.
	ExitCode int
	Started  time.Time
	Finished time.Time
}

func (e *Execution) Duration() time.Duration {
	return e.Finished.Sub(e.Started)
}

func (e *Execution) Succeeded() bool {
	return e.ExitCode == 0
}

// K6Runner runs a k6 script and exports its end-of-test summary to a file.
type K6Runner struct {
	config configuration.LoadTestConfig
	clock  clock.PassiveClock
}

func NewK6Runner(config configuration.LoadTestConfig) *K6Runner {
	return &K6Runner{
		config: config,
		clock:  clock.RealClock{},
	}
}

// Args returns the arguments k6 is invoked with.
func (r *K6Runner) Args() []string {
	args := []string{"run", "--summary-export=" + r.config.SummaryPath}
	args = append(args, r.config.ExtraArgs...)
	return append(args, r.config.ScriptPath)
}

// Env returns the extra environment passed to k6. Config keys are case-insensitive, so names
// are upper-cased.
func (r *K6Runner) Env() []string {
	env := make([]string, 0, len(r.config.Env))
	for name, value := range r.config.Env {
		env = append(env, strings.ToUpper(name)+"="+value)
	}
	sort.Strings(env)
	return env
}

// Run blocks until k6 exits. A non-zero exit code is reported through the Execution rather than
// as an error; errors are only returned when k6 could not be started. Cancelling ctx kills k6.
func (r *K6Runner) Run(ctx context.Context, iteration int) (*Execution, error) {
	// A stale summary from an earlier iteration must never be harvested as this one's.
	if err := os.Remove(r.config.SummaryPath); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "error removing stale summary %s", r.config.SummaryPath)
	}

	logger := log.WithField("iteration", iteration)
	stdout := logger.WithField("stream", "stdout").WriterLevel(log.InfoLevel)
	defer stdout.Close()
	stderr := logger.WithField("stream", "stderr").WriterLevel(log.WarnLevel)
	defer stderr.Close()

	cmd := exec.CommandContext(ctx, r.config.Binary, r.Args()...)
	cmd.Env = append(os.Environ(), r.Env()...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Infof("Running %s %s", r.config.Binary, strings.Join(r.Args(), " "))
	execution := &Execution{Started: r.clock.Now()}
	err := cmd.Run()
	execution.Finished = r.clock.Now()

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, errors.Wrapf(err, "error running %s", r.config.Binary)
		}
		execution.ExitCode = exitErr.ExitCode()
	}
	logger.Infof("%s exited with code %d after %s", r.config.Binary, execution.ExitCode, execution.Duration())
	return execution, nil
}
