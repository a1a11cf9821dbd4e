package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/hipstershop/k6-harvester/internal/harvester/metricspec"
)

// ContentType returns the MIME type of tables encoded in format.
func ContentType(format string) string {
	switch format {
	case metricspec.FormatTsv:
		return "text/tab-separated-values"
	case metricspec.FormatTxt:
		return "text/plain"
	default:
		return "text/csv"
	}
}

// Encode writes the table in format: csv, tsv or an aligned plain text table.
// A header row with the column names always comes first.
func (t *Table) Encode(out io.Writer, format string) error {
	switch format {
	case metricspec.FormatCsv, "":
		return t.encodeDelimited(out, ',')
	case metricspec.FormatTsv:
		return t.encodeDelimited(out, '\t')
	case metricspec.FormatTxt:
		return t.encodeText(out)
	default:
		return errors.Errorf("unsupported table format %q", format)
	}
}

func (t *Table) Bytes(format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Encode(&buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *Table) encodeDelimited(out io.Writer, delimiter rune) error {
	w := csv.NewWriter(out)
	w.Comma = delimiter
	if err := w.Write(t.Columns); err != nil {
		return errors.WithStack(err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, column := range t.Columns {
			record[i] = row[column]
		}
		if err := w.Write(record); err != nil {
			return errors.WithStack(err)
		}
	}
	w.Flush()
	return errors.WithStack(w.Error())
}

func (t *Table) encodeText(out io.Writer) error {
	w := tabwriter.NewWriter(out, 1, 1, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, strings.Join(t.Columns, "\t")); err != nil {
		return errors.WithStack(err)
	}
	cells := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, column := range t.Columns {
			cells[i] = row[column]
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
			return errors.WithStack(err)
		}
	}
	return errors.WithStack(w.Flush())
}
