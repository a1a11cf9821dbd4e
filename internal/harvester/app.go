package harvester

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/common/model"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/hipstershop/k6-harvester/internal/common/harvesterrors"
	"github.com/hipstershop/k6-harvester/internal/harvester/build"
	"github.com/hipstershop/k6-harvester/internal/harvester/configuration"
	"github.com/hipstershop/k6-harvester/internal/harvester/loadtest"
	"github.com/hipstershop/k6-harvester/internal/harvester/metricspec"
	"github.com/hipstershop/k6-harvester/internal/harvester/promql"
	"github.com/hipstershop/k6-harvester/internal/harvester/report"
	"github.com/hipstershop/k6-harvester/internal/harvester/storage"
)

// LoadTestRunner runs the load test tool once and waits for it to exit.
type LoadTestRunner interface {
	Run(ctx context.Context, iteration int) (*loadtest.Execution, error)
}

// MetricsBackend is the time series database queried after each load test.
type MetricsBackend interface {
	Query(ctx context.Context, query string) (model.Value, error)
	Clean(ctx context.Context, matchers []string) error
}

type App struct {
	Config *configuration.HarvesterConfig
	// Out is used to write the output of the query and version commands. Defaults to standard out,
	// but can be overridden in tests to make assertions on the application's output.
	Out   io.Writer
	Clock clock.Clock
	// Source of randomness for run ids.
	Entropy io.Reader

	// Collaborators. Those left nil are created from Config when first needed, tests set fakes.
	Runner    LoadTestRunner
	Backend   MetricsBackend
	Uploader  storage.Uploader
	Publisher report.Publisher
	// Metric definitions. Loaded from Config.Prometheus.MetricsPath when nil.
	Specs []metricspec.Spec

	runId  string
	folder string
}

// New instantiates an App with standard output, the real clock and a cryptographically secure
// random source.
func New(config *configuration.HarvesterConfig) *App {
	return &App{
		Config:  config,
		Out:     os.Stdout,
		Clock:   clock.RealClock{},
		Entropy: rand.Reader,
	}
}

func (a *App) validateConfig() error {
	if a.Config == nil {
		return errors.WithStack(&harvesterrors.ErrInvalidArgument{
			Name:    "Config",
			Value:   a.Config,
			Message: "not provided",
		})
	}
	if a.Config.Iterations < 1 {
		return errors.WithStack(&harvesterrors.ErrInvalidArgument{
			Name:    "Iterations",
			Value:   a.Config.Iterations,
			Message: "at least one iteration must run",
		})
	}
	if a.Config.Title == "" {
		return errors.WithStack(&harvesterrors.ErrInvalidArgument{
			Name:    "Title",
			Value:   a.Config.Title,
			Message: "not provided",
		})
	}
	return nil
}

func (a *App) initBackend() error {
	if a.Backend != nil {
		return nil
	}
	client, err := promql.NewClient(a.Config.Prometheus)
	if err != nil {
		return err
	}
	a.Backend = client
	return nil
}

func (a *App) initSpecs() error {
	if a.Specs != nil {
		return nil
	}
	specs, err := metricspec.Load(a.Config.Prometheus.MetricsPath)
	if err != nil {
		return err
	}
	a.Specs = specs
	return nil
}

func (a *App) initHarvest() error {
	if err := a.validateConfig(); err != nil {
		return err
	}
	if err := a.initBackend(); err != nil {
		return err
	}
	if err := a.initSpecs(); err != nil {
		return err
	}
	if a.Uploader == nil {
		uploader, err := storage.New(a.Config.Storage)
		if err != nil {
			return err
		}
		a.Uploader = uploader
	}
	if a.Publisher == nil {
		a.Publisher = report.NewPublisher(a.Config.Pushgateway)
	}
	return nil
}

// startRun fixes the run id and the folder all artifacts of this run are uploaded to.
func (a *App) startRun() {
	now := a.Clock.Now()
	a.runId = NewRunId(now, a.Entropy)
	a.folder = Folder(a.Config.Title, a.Config.Naming, a.runId, now)
	log.WithField("runId", a.runId).Infof("Uploading artifacts to %s", a.folder)
}

// Run runs the load test Config.Iterations times, harvesting and uploading the results of every
// iteration whose load test exits cleanly.
func (a *App) Run(ctx context.Context) error {
	if err := a.initHarvest(); err != nil {
		return err
	}
	if a.Runner == nil {
		a.Runner = loadtest.NewK6Runner(a.Config.LoadTest)
	}
	a.startRun()

	failed := 0
	for i := 0; i < a.Config.Iterations; i++ {
		iteration := a.Config.StartIteration + i
		if a.shouldClean(i) {
			a.cleanQuietly(ctx)
		}

		succeeded, err := a.runIteration(ctx, iteration)
		if err != nil {
			return err
		}
		if !succeeded {
			failed++
		}

		if i < a.Config.Iterations-1 {
			if err := a.sleep(ctx, a.Config.IterationInterval); err != nil {
				return err
			}
		}
	}

	log.Infof("Finished %d iteration(s) of %s, %d failed", a.Config.Iterations, a.Config.Title, failed)
	if failed > 0 && a.Config.FailOnTestFailure {
		return errors.WithStack(&harvesterrors.ErrLoadTestFailed{
			Title:      a.Config.Title,
			Failed:     failed,
			Iterations: a.Config.Iterations,
		})
	}
	return nil
}

func (a *App) shouldClean(i int) bool {
	clean := a.Config.Prometheus.Clean
	if !clean.Enabled {
		return false
	}
	return i == 0 || clean.BetweenIterations
}

// cleanQuietly purges the backend, logging rather than returning failures: stale series only
// make the harvested numbers less accurate.
func (a *App) cleanQuietly(ctx context.Context) {
	if err := a.Backend.Clean(ctx, a.Config.Prometheus.Clean.Matchers); err != nil {
		log.WithError(err).Warn("Failed to clean prometheus, continuing")
	}
}

// Clean purges the series selected by the configured matchers from the backend.
func (a *App) Clean(ctx context.Context) error {
	if err := a.validateConfig(); err != nil {
		return err
	}
	if err := a.initBackend(); err != nil {
		return err
	}
	return a.Backend.Clean(ctx, a.Config.Prometheus.Clean.Matchers)
}

// runIteration returns whether the load test exited cleanly. Errors are only returned for
// failures that must stop the run, i.e. failed uploads or cancellation.
func (a *App) runIteration(ctx context.Context, iteration int) (bool, error) {
	logger := log.WithField("iteration", iteration)

	execution, err := a.Runner.Run(ctx, iteration)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		logger.WithError(err).Error("Load test could not be run")
		return false, nil
	}
	if !execution.Succeeded() {
		logger.Warnf("Load test exited with code %d, skipping harvest", execution.ExitCode)
		a.publish(ctx, a.newReport(iteration, execution, false))
		return false, nil
	}

	if a.Config.HarvestDelay > 0 {
		logger.Infof("Waiting %s before harvesting", a.Config.HarvestDelay)
	}
	if err := a.sleep(ctx, a.Config.HarvestDelay); err != nil {
		return true, err
	}
	_, err = a.harvest(ctx, iteration, execution)
	return true, err
}

// Harvest uploads the results of a load test that already ran, e.g. by hand, without running it
// again. duration is how long the load test lasted and is used to render the metric queries.
func (a *App) Harvest(ctx context.Context, iteration int, duration time.Duration) (*report.IterationReport, error) {
	if err := a.initHarvest(); err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, errors.WithStack(&harvesterrors.ErrInvalidArgument{
			Name:    "duration",
			Value:   duration,
			Message: "must be positive",
		})
	}
	a.startRun()
	finished := a.Clock.Now()
	return a.harvest(ctx, iteration, &loadtest.Execution{
		Started:  finished.Add(-duration),
		Finished: finished,
	})
}

// Query runs every metric query as if a load test of the given duration had just finished and
// prints the resulting tables. Nothing is uploaded.
func (a *App) Query(ctx context.Context, duration time.Duration) error {
	if err := a.validateConfig(); err != nil {
		return err
	}
	if err := a.initBackend(); err != nil {
		return err
	}
	if err := a.initSpecs(); err != nil {
		return err
	}

	finished := a.Clock.Now()
	vars := promql.TemplateVars{
		Duration:  duration,
		Iteration: a.Config.StartIteration,
		Title:     a.Config.Title,
		Start:     finished.Add(-duration),
		End:       finished,
	}
	for _, spec := range a.Specs {
		_, _ = fmt.Fprintf(a.Out, "\n%s:\n", spec.Name)
		t, err := a.queryTable(ctx, spec, vars)
		if err != nil {
			_, _ = fmt.Fprintf(a.Out, "query failed: %s\n", err)
			continue
		}
		if err := t.Encode(a.Out, metricspec.FormatTxt); err != nil {
			return err
		}
	}
	return nil
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	_, _ = fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	_, _ = fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	_, _ = fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	_, _ = fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}

func (a *App) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.Clock.After(d):
		return nil
	}
}

func (a *App) publish(ctx context.Context, r *report.IterationReport) {
	if err := a.Publisher.Publish(ctx, r); err != nil {
		log.WithError(err).WithField("iteration", r.Iteration).Warn("Failed to publish iteration metrics")
	}
}
