package table

import (
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/common/model"
	"golang.org/x/exp/maps"
)

const (
	ValueColumn     = "value"
	TimestampColumn = "timestamp"
)

// Row maps column names to cell values. Cells missing from a row are rendered empty.
type Row map[string]string

type Table struct {
	Columns []string
	Rows    []Row
}

func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// FromValue converts a Prometheus query result into a table. Vectors produce one row per
// series, matrices one row per sample, scalars and strings a single row.
func FromValue(value model.Value) (*Table, error) {
	switch v := value.(type) {
	case model.Vector:
		return fromVector(v), nil
	case model.Matrix:
		return fromMatrix(v), nil
	case *model.Scalar:
		return &Table{
			Columns: []string{ValueColumn},
			Rows:    []Row{{ValueColumn: formatValue(v.Value)}},
		}, nil
	case *model.String:
		return &Table{
			Columns: []string{ValueColumn},
			Rows:    []Row{{ValueColumn: v.Value}},
		}, nil
	case nil:
		return &Table{Columns: []string{ValueColumn}}, nil
	default:
		return nil, errors.Errorf("unsupported result type %s", value.Type())
	}
}

func fromVector(vector model.Vector) *Table {
	labelNames := make(map[string]bool)
	rows := make([]Row, 0, len(vector))
	for _, sample := range vector {
		row := labelsToRow(sample.Metric, labelNames)
		row[ValueColumn] = formatValue(sample.Value)
		rows = append(rows, row)
	}
	return &Table{
		Columns: append(sortedKeys(labelNames), ValueColumn),
		Rows:    rows,
	}
}

func fromMatrix(matrix model.Matrix) *Table {
	labelNames := make(map[string]bool)
	var rows []Row
	for _, stream := range matrix {
		for _, pair := range stream.Values {
			row := labelsToRow(stream.Metric, labelNames)
			row[TimestampColumn] = formatTimestamp(pair.Timestamp)
			row[ValueColumn] = formatValue(pair.Value)
			rows = append(rows, row)
		}
	}
	return &Table{
		Columns: append(sortedKeys(labelNames), TimestampColumn, ValueColumn),
		Rows:    rows,
	}
}

func labelsToRow(metric model.Metric, labelNames map[string]bool) Row {
	row := make(Row, len(metric)+1)
	for name, value := range metric {
		row[string(name)] = string(value)
		labelNames[string(name)] = true
	}
	return row
}

func sortedKeys(m map[string]bool) []string {
	keys := maps.Keys(m)
	sort.Strings(keys)
	return keys
}

func formatValue(v model.SampleValue) string {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatTimestamp renders a sample timestamp as unix seconds with millisecond precision.
func formatTimestamp(ts model.Time) string {
	return strconv.FormatFloat(float64(ts)/1000, 'f', -1, 64)
}

// Select restricts the output to columns, in the given order. Columns absent from every row are
// still output, as empty cells. An empty selection keeps the inferred columns.
func (t *Table) Select(columns []string) {
	if len(columns) == 0 {
		return
	}
	t.Columns = append([]string(nil), columns...)
}
