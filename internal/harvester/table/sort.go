package table

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// SortBy sorts rows ascending by fields, the first field having the highest priority.
// The sort is stable so rows comparing equal keep the order Prometheus returned them in.
func (t *Table) SortBy(fields []string) {
	if len(fields) == 0 {
		return
	}
	slices.SortStableFunc(t.Rows, func(a, b Row) bool {
		for _, field := range fields {
			if c := compareCells(a[field], b[field]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// compareCells compares numerically when both cells are numbers and lexically otherwise.
// NaN sorts after every other number, +Inf included.
func compareCells(a, b string) int {
	if a == b {
		return 0
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		nanA, nanB := math.IsNaN(fa), math.IsNaN(fb)
		switch {
		case nanA && nanB:
			return 0
		case nanA:
			return 1
		case nanB:
			return -1
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
