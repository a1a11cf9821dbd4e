package metricspec

import (
	"os"
	"regexp"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/yaml"

	"github.com/hipstershop/k6-harvester/internal/common/harvesterrors"
)

const (
	FormatCsv = "csv"
	FormatTsv = "tsv"
	FormatTxt = "txt"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Spec is a named PromQL query whose result is uploaded as a table after every load test.
type Spec struct {
	// Name of the uploaded file, without iteration suffix and extension.
	Name string `json:"name"`
	// PromQL expression. May contain ${DURATION} and the other template variables.
	Query string `json:"query"`
	// Columns to output, in order. Defaults to every label followed by the value.
	Columns []string `json:"columns,omitempty"`
	// Columns to sort by, ascending, in priority order.
	Sort []string `json:"sort,omitempty"`
	// Output format: csv, tsv or txt. Defaults to csv.
	Format string `json:"format,omitempty"`
}

func (s *Spec) OutputFormat() string {
	if s.Format == "" {
		return FormatCsv
	}
	return s.Format
}

func (s *Spec) Validate() error {
	if !validName.MatchString(s.Name) {
		return errors.WithStack(&harvesterrors.ErrInvalidArgument{
			Name:    "name",
			Value:   s.Name,
			Message: "metric names must be usable as file names",
		})
	}
	if s.Query == "" {
		return errors.WithStack(&harvesterrors.ErrInvalidArgument{
			Name:    "query",
			Value:   s.Query,
			Message: "query of metric " + s.Name + " is empty",
		})
	}
	switch s.OutputFormat() {
	case FormatCsv, FormatTsv, FormatTxt:
	default:
		return errors.WithStack(&harvesterrors.ErrInvalidArgument{
			Name:    "format",
			Value:   s.Format,
			Message: "must be one of csv, tsv or txt",
		})
	}
	return nil
}

// Load reads metric definitions from a JSON or YAML file holding a list of specs.
func Load(filePath string) ([]Spec, error) {
	reader, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, errors.WithStack(&harvesterrors.ErrNotFound{
			Type:  "file",
			Value: filePath,
		})
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed opening file %s", filePath)
	}
	defer reader.Close()

	var specs []Spec
	if err := yaml.NewYAMLOrJSONDecoder(reader, 128).Decode(&specs); err != nil {
		return nil, errors.Wrapf(err, "failed to parse file %s", filePath)
	}
	if err := validateAll(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

func validateAll(specs []Spec) error {
	seen := make(map[string]bool, len(specs))
	for i := range specs {
		if err := specs[i].Validate(); err != nil {
			return err
		}
		if seen[specs[i].Name] {
			return errors.WithStack(&harvesterrors.ErrInvalidArgument{
				Name:    "name",
				Value:   specs[i].Name,
				Message: "metric names must be unique",
			})
		}
		seen[specs[i].Name] = true
	}
	return nil
}
