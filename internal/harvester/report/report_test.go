package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipstershop/k6-harvester/internal/harvester/configuration"
)

func testReport() *IterationReport {
	started := time.Date(2022, 10, 18, 12, 0, 0, 0, time.UTC)
	r := &IterationReport{
		RunId:           "01gfk4x3x0q3a3a3a3a3a3a3a3",
		Title:           "checkout",
		Iteration:       2,
		Folder:          "checkout",
		Started:         started,
		Finished:        started.Add(95 * time.Second),
		DurationSeconds: 95,
		Harvested:       true,
	}
	r.AddArtifact("checkout/summary-2.json", "s3://hipstershop-k6/checkout/summary-2.json", "application/json", 2)
	r.AddQueryFailure("latency", errors.New("bad_data: parse error"))
	return r
}

func TestJson(t *testing.T) {
	content, err := testReport().Json()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"runId": "01gfk4x3x0q3a3a3a3a3a3a3a3",
		"title": "checkout",
		"iteration": 2,
		"folder": "checkout",
		"started": "2022-10-18T12:00:00Z",
		"finished": "2022-10-18T12:01:35Z",
		"durationSeconds": 95,
		"exitCode": 0,
		"harvested": true,
		"artifacts": [{
			"key": "checkout/summary-2.json",
			"location": "s3://hipstershop-k6/checkout/summary-2.json",
			"contentType": "application/json",
			"size": 2
		}],
		"queryFailures": [{"metric": "latency", "error": "bad_data: parse error"}]
	}`, string(content))
}

func TestCollectorsFor(t *testing.T) {
	collectors := collectorsFor(testReport())
	require.Len(t, collectors, 6)
	assert.Equal(t, 95.0, testutil.ToFloat64(collectors[0]))
	assert.Equal(t, 0.0, testutil.ToFloat64(collectors[1]))
	assert.Equal(t, 1.0, testutil.ToFloat64(collectors[3]))
	assert.Equal(t, 1.0, testutil.ToFloat64(collectors[4]))
	assert.Equal(t, 1.0, testutil.ToFloat64(collectors[5]))
}

func TestPushgatewayPublisher(t *testing.T) {
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	publisher := NewPublisher(configuration.PushgatewayConfig{Url: server.URL, Job: "k6-harvester"})
	require.NoError(t, publisher.Publish(context.Background(), testReport()))

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/k6-harvester/title/checkout/iteration/2", path)
}

func TestPushgatewayPublisher_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	publisher := NewPublisher(configuration.PushgatewayConfig{Url: server.URL, Job: "k6-harvester"})
	assert.Error(t, publisher.Publish(context.Background(), testReport()))
}

func TestNewPublisher_Disabled(t *testing.T) {
	publisher := NewPublisher(configuration.PushgatewayConfig{})
	assert.IsType(t, noopPublisher{}, publisher)
	assert.NoError(t, publisher.Publish(context.Background(), testReport()))
}
