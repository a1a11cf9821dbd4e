package harvester

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid"

	"github.com/hipstershop/k6-harvester/internal/harvester/configuration"
)

// NewRunId returns a lowercase ULID, sortable by the time the run started.
func NewRunId(now time.Time, entropy io.Reader) string {
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(now), entropy).String())
}

// Folder returns the key prefix every artifact of a run is stored under:
// <title>[-<timestamp>][/<run id>].
func Folder(title string, naming configuration.NamingConfig, runId string, now time.Time) string {
	folder := title
	if naming.TimestampLayout != "" {
		location := naming.TimeZone
		if location == nil {
			location = time.UTC
		}
		folder += "-" + now.In(location).Format(naming.TimestampLayout)
	}
	if naming.IncludeRunId {
		folder = path.Join(folder, runId)
	}
	return folder
}

func summaryFile(iteration int) string {
	return fmt.Sprintf("summary-%d.json", iteration)
}

func summaryTableFile(iteration int) string {
	return fmt.Sprintf("summary-%d.csv", iteration)
}

func metricFile(name string, iteration int, format string) string {
	return fmt.Sprintf("%s-%d.%s", name, iteration, format)
}

func reportFile(iteration int) string {
	return fmt.Sprintf("report-%d.json", iteration)
}
