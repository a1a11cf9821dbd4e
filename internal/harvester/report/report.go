package report

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

type Artifact struct {
	Key         string `json:"key"`
	Location    string `json:"location"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

type QueryFailure struct {
	Metric string `json:"metric"`
	Error  string `json:"error"`
}

// IterationReport records what happened in one iteration. It is uploaded next to the artifacts it lists.
type IterationReport struct {
	RunId           string         `json:"runId"`
	Title           string         `json:"title"`
	Iteration       int            `json:"iteration"`
	Folder          string         `json:"folder"`
	Started         time.Time      `json:"started"`
	Finished        time.Time      `json:"finished"`
	DurationSeconds float64        `json:"durationSeconds"`
	ExitCode        int            `json:"exitCode"`
	Harvested       bool           `json:"harvested"`
	Artifacts       []Artifact     `json:"artifacts"`
	QueryFailures   []QueryFailure `json:"queryFailures,omitempty"`
}

func (r *IterationReport) AddArtifact(key string, location string, contentType string, size int) {
	r.Artifacts = append(r.Artifacts, Artifact{
		Key:         key,
		Location:    location,
		ContentType: contentType,
		Size:        size,
	})
}

func (r *IterationReport) AddQueryFailure(metric string, err error) {
	r.QueryFailures = append(r.QueryFailures, QueryFailure{Metric: metric, Error: err.Error()})
}

func (r *IterationReport) Json() ([]byte, error) {
	content, err := json.MarshalIndent(r, "", "  ")
	return content, errors.WithStack(err)
}
