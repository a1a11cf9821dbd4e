package summary

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/hipstershop/k6-harvester/internal/common/harvesterrors"
	"github.com/hipstershop/k6-harvester/internal/harvester/table"
)

const (
	MetricColumn = "metric"
	StatColumn   = "stat"
)

// Summary is the part of a k6 --summary-export file that gets tabulated. Values are kept as
// decoded JSON so that numbers keep the precision k6 wrote them with.
type Summary struct {
	Metrics map[string]map[string]interface{} `json:"metrics"`
}

// Read returns the raw content of the summary file written by k6.
func Read(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.WithStack(&harvesterrors.ErrNotFound{
			Type:    "file",
			Value:   path,
			Message: "k6 did not export a summary",
		})
	}
	return content, errors.WithStack(err)
}

func Parse(content []byte) (*Summary, error) {
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()
	summary := &Summary{}
	if err := decoder.Decode(summary); err != nil {
		return nil, errors.Wrap(err, "error parsing k6 summary")
	}
	return summary, nil
}

// Table flattens the metrics into one row per statistic, e.g. http_req_duration,p(95),231.5.
// Nested objects such as thresholds produce dotted stat names; only number and boolean leaves
// are kept. Rows are ordered by metric then stat.
func (s *Summary) Table() *table.Table {
	t := &table.Table{Columns: []string{MetricColumn, StatColumn, table.ValueColumn}}
	metricNames := maps.Keys(s.Metrics)
	sort.Strings(metricNames)
	for _, metric := range metricNames {
		flatten(s.Metrics[metric], "", func(stat string, value string) {
			t.Rows = append(t.Rows, table.Row{
				MetricColumn:      metric,
				StatColumn:        stat,
				table.ValueColumn: value,
			})
		})
	}
	return t
}

func flatten(values map[string]interface{}, prefix string, emit func(stat string, value string)) {
	keys := maps.Keys(values)
	sort.Strings(keys)
	for _, key := range keys {
		stat := key
		if prefix != "" {
			stat = prefix + "." + key
		}
		switch v := values[key].(type) {
		case json.Number:
			emit(stat, v.String())
		case bool:
			emit(stat, strconv.FormatBool(v))
		case map[string]interface{}:
			flatten(v, stat, emit)
		}
	}
}
