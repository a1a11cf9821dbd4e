package report

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/hipstershop/k6-harvester/internal/harvester/configuration"
)

const metricPrefix = "k6_harvester_"

// Publisher exports the outcome of an iteration to a monitoring system.
type Publisher interface {
	Publish(ctx context.Context, report *IterationReport) error
}

// NewPublisher returns a Pushgateway publisher, or a publisher that does nothing when no
// Pushgateway url is configured.
func NewPublisher(config configuration.PushgatewayConfig) Publisher {
	if config.Url == "" {
		return noopPublisher{}
	}
	return &PushgatewayPublisher{url: config.Url, job: config.Job}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, *IterationReport) error {
	return nil
}

// PushgatewayPublisher replaces the metrics of the (job, title, iteration) group on every push.
type PushgatewayPublisher struct {
	url string
	job string
}

func (p *PushgatewayPublisher) Publish(ctx context.Context, report *IterationReport) error {
	pusher := push.New(p.url, p.job).
		Grouping("title", report.Title).
		Grouping("iteration", strconv.Itoa(report.Iteration))
	for _, collector := range collectorsFor(report) {
		pusher = pusher.Collector(collector)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return errors.Wrapf(err, "error pushing metrics to %s", p.url)
	}
	return nil
}

func collectorsFor(report *IterationReport) []prometheus.Collector {
	gauge := func(name string, help string, value float64) prometheus.Collector {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: metricPrefix + name, Help: help})
		g.Set(value)
		return g
	}
	harvested := 0.0
	if report.Harvested {
		harvested = 1
	}
	return []prometheus.Collector{
		gauge("load_test_duration_seconds", "Wall clock duration of the load test.", report.DurationSeconds),
		gauge("load_test_exit_code", "Exit code of the load test tool.", float64(report.ExitCode)),
		gauge("load_test_finished_timestamp_seconds", "Unix time the load test finished at.", float64(report.Finished.Unix())),
		gauge("harvested", "1 if results were harvested after the load test.", harvested),
		gauge("artifacts_uploaded", "Number of artifacts uploaded for the iteration.", float64(len(report.Artifacts))),
		gauge("query_failures", "Number of metric queries that failed.", float64(len(report.QueryFailures))),
	}
}
