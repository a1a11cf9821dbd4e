package promql

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/hipstershop/k6-harvester/internal/harvester/configuration"
)

type fakePrometheus struct {
	queries        []string
	deleteMatchers [][]string
	cleaned        int
	failAdmin      bool
}

func (p *fakePrometheus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	switch r.URL.Path {
	case "/api/v1/query":
		p.queries = append(p.queries, r.Form.Get("query"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"status":"success","data":{"resultType":"vector","result":[`+
			`{"metric":{"destination_workload":"frontend"},"value":[1600000000,"12.5"]},`+
			`{"metric":{"destination_workload":"cartservice"},"value":[1600000000,"3"]}]}}`)
	case "/api/v1/admin/tsdb/delete_series":
		if p.failAdmin {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		p.deleteMatchers = append(p.deleteMatchers, r.Form["match[]"])
		w.WriteHeader(http.StatusNoContent)
	case "/api/v1/admin/tsdb/clean_tombstones":
		p.cleaned++
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(configuration.PrometheusConfig{Url: server.URL, QueryTimeout: 5 * time.Second})
	require.NoError(t, err)
	client.clock = testingclock.NewFakePassiveClock(time.Unix(1600000000, 0))
	return client
}

func TestQuery(t *testing.T) {
	prometheus := &fakePrometheus{}
	client := newTestClient(t, prometheus)

	value, err := client.Query(context.Background(), "sum(rate(istio_requests_total[60s])) by (destination_workload)")
	require.NoError(t, err)

	vector, ok := value.(model.Vector)
	require.True(t, ok)
	require.Len(t, vector, 2)
	assert.Equal(t, model.LabelValue("frontend"), vector[0].Metric["destination_workload"])
	assert.Equal(t, model.SampleValue(12.5), vector[0].Value)
	assert.Equal(t, []string{"sum(rate(istio_requests_total[60s])) by (destination_workload)"}, prometheus.queries)
}

func TestQuery_Error(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, `{"status":"error","errorType":"bad_data","error":"parse error"}`)
	}))

	_, err := client.Query(context.Background(), "sum(")
	assert.Error(t, err)
}

func TestClean(t *testing.T) {
	prometheus := &fakePrometheus{}
	client := newTestClient(t, prometheus)

	err := client.Clean(context.Background(), []string{`{job="envoy-stats"}`, `{job="k6"}`})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{`{job="envoy-stats"}`, `{job="k6"}`}}, prometheus.deleteMatchers)
	assert.Equal(t, 1, prometheus.cleaned)
}

func TestClean_DeleteFails(t *testing.T) {
	prometheus := &fakePrometheus{failAdmin: true}
	client := newTestClient(t, prometheus)

	err := client.Clean(context.Background(), []string{`{job="envoy-stats"}`})
	assert.Error(t, err)
	assert.Equal(t, 0, prometheus.cleaned)
}
