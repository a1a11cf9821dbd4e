package harvester

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/hipstershop/k6-harvester/internal/harvester/loadtest"
	"github.com/hipstershop/k6-harvester/internal/harvester/metricspec"
	"github.com/hipstershop/k6-harvester/internal/harvester/promql"
	"github.com/hipstershop/k6-harvester/internal/harvester/report"
	"github.com/hipstershop/k6-harvester/internal/harvester/storage"
	"github.com/hipstershop/k6-harvester/internal/harvester/summary"
	"github.com/hipstershop/k6-harvester/internal/harvester/table"
)

const (
	contentTypeJson = "application/json"
)

func (a *App) newReport(iteration int, execution *loadtest.Execution, harvested bool) *report.IterationReport {
	return &report.IterationReport{
		RunId:           a.runId,
		Title:           a.Config.Title,
		Iteration:       iteration,
		Folder:          a.folder,
		Started:         execution.Started,
		Finished:        execution.Finished,
		DurationSeconds: execution.Duration().Seconds(),
		ExitCode:        execution.ExitCode,
		Harvested:       harvested,
		Artifacts:       []report.Artifact{},
	}
}

// harvest uploads the summary, one table per metric definition and finally the iteration report.
// Query failures are recorded in the report; any upload failure is returned immediately.
func (a *App) harvest(ctx context.Context, iteration int, execution *loadtest.Execution) (*report.IterationReport, error) {
	logger := log.WithField("iteration", iteration)
	r := a.newReport(iteration, execution, true)

	content, err := summary.Read(a.Config.LoadTest.SummaryPath)
	if err != nil {
		return r, err
	}
	if err := a.upload(ctx, r, summaryFile(iteration), content, contentTypeJson); err != nil {
		return r, err
	}
	if s, err := summary.Parse(content); err != nil {
		logger.WithError(err).Warn("Summary is not valid json, skipping summary table")
	} else if err := a.uploadTable(ctx, r, summaryTableFile(iteration), s.Table(), metricspec.FormatCsv); err != nil {
		return r, err
	}

	vars := promql.TemplateVars{
		Duration:  execution.Duration(),
		Iteration: iteration,
		Title:     a.Config.Title,
		Start:     execution.Started,
		End:       execution.Finished,
	}
	var queryErrors *multierror.Error
	for _, spec := range a.Specs {
		t, err := a.queryTable(ctx, spec, vars)
		if err != nil {
			logger.WithError(err).WithField("metric", spec.Name).Error("Metric query failed")
			r.AddQueryFailure(spec.Name, err)
			queryErrors = multierror.Append(queryErrors, err)
			continue
		}
		if t.Empty() {
			logger.WithField("metric", spec.Name).Warn("Metric query returned no data, nothing to upload")
			continue
		}
		format := spec.OutputFormat()
		if err := a.uploadTable(ctx, r, metricFile(spec.Name, iteration, format), t, format); err != nil {
			return r, err
		}
	}
	if queryErrors != nil {
		logger.Warnf("%d of %d metric queries failed", queryErrors.Len(), len(a.Specs))
	}

	reportContent, err := r.Json()
	if err != nil {
		return r, err
	}
	if err := a.upload(ctx, r, reportFile(iteration), reportContent, contentTypeJson); err != nil {
		return r, err
	}
	a.publish(ctx, r)
	logger.Infof("Harvested %d artifact(s) to %s", len(r.Artifacts), a.folder)
	return r, nil
}

// queryTable renders and runs the query of a metric definition and shapes the result into the
// requested columns and order.
func (a *App) queryTable(ctx context.Context, spec metricspec.Spec, vars promql.TemplateVars) (*table.Table, error) {
	query := promql.Render(spec.Query, vars)
	log.WithField("metric", spec.Name).Debugf("Querying %s", query)
	value, err := a.Backend.Query(ctx, query)
	if err != nil {
		return nil, errors.WithMessagef(err, "metric %s", spec.Name)
	}
	t, err := table.FromValue(value)
	if err != nil {
		return nil, errors.WithMessagef(err, "metric %s", spec.Name)
	}
	if len(spec.Columns) > 0 {
		t.Select(spec.Columns)
	}
	t.SortBy(spec.Sort)
	return t, nil
}

func (a *App) uploadTable(ctx context.Context, r *report.IterationReport, file string, t *table.Table, format string) error {
	content, err := t.Bytes(format)
	if err != nil {
		return err
	}
	return a.upload(ctx, r, file, content, table.ContentType(format))
}

func (a *App) upload(ctx context.Context, r *report.IterationReport, file string, content []byte, contentType string) error {
	key := storage.Key(a.folder, file)
	location, err := a.Uploader.Upload(ctx, key, content, contentType)
	if err != nil {
		return errors.WithMessagef(err, "uploading %s", key)
	}
	log.WithField("key", key).Infof("Uploaded %d bytes to %s", len(content), location)
	r.AddArtifact(key, location, contentType, len(content))
	return nil
}
