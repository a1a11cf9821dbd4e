package promql

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TemplateVars are substituted into metric queries before they are sent to Prometheus.
type TemplateVars struct {
	// Wall clock duration of the load test.
	Duration  time.Duration
	Iteration int
	Title     string
	Start     time.Time
	End       time.Time
}

// RangeDuration renders d as a PromQL range in whole seconds, e.g. "97s". Prometheus rejects
// zero-length ranges, so anything below one second renders as "1s".
func RangeDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("%ds", seconds)
}

// Render replaces ${DURATION}, ${ITERATION}, ${TITLE}, ${START} and ${END} in query.
// Start and end are rendered as unix seconds.
func Render(query string, vars TemplateVars) string {
	return strings.NewReplacer(
		"${DURATION}", RangeDuration(vars.Duration),
		"${ITERATION}", strconv.Itoa(vars.Iteration),
		"${TITLE}", vars.Title,
		"${START}", strconv.FormatInt(vars.Start.Unix(), 10),
		"${END}", strconv.FormatInt(vars.End.Unix(), 10),
	).Replace(query)
}
