package configuration

import (
	"time"
)

const (
	StorageTypeS3         = "s3"
	StorageTypeMinio      = "minio"
	StorageTypeFilesystem = "filesystem"
)

type HarvesterConfig struct {
	// Title names the load test. It is the root of every uploaded key.
	Title string `validate:"required"`
	// Number of times the load test is run back to back.
	Iterations int `validate:"gte=1"`
	// Label of the first iteration. Later iterations count up from here.
	StartIteration int `validate:"gte=0"`
	// Pause between two iterations.
	IterationInterval time.Duration `validate:"gte=0"`
	// Time to wait after the load test exits before querying Prometheus, so that the last
	// scrape interval is ingested.
	HarvestDelay time.Duration `validate:"gte=0"`
	// If set, the run returns an error when any iteration's load test exits with a non-zero code.
	FailOnTestFailure bool

	Naming      NamingConfig
	LoadTest    LoadTestConfig
	Prometheus  PrometheusConfig
	Storage     StorageConfig
	Pushgateway PushgatewayConfig
}

type NamingConfig struct {
	// Go time layout appended to the title, e.g. "2006-01-02-15-04". Empty disables the suffix.
	TimestampLayout string
	TimeZone        *time.Location
	// Adds a unique run id below the title so that reruns never overwrite each other.
	IncludeRunId bool
}

type LoadTestConfig struct {
	Binary      string `validate:"required"`
	ScriptPath  string `validate:"required"`
	SummaryPath string `validate:"required"`
	ExtraArgs   []string
	Env         map[string]string
}

type PrometheusConfig struct {
	Url          string        `validate:"required,url"`
	QueryTimeout time.Duration `validate:"gte=0"`
	// File holding the metric query definitions (JSON or YAML).
	MetricsPath string `validate:"required"`
	Clean       CleanConfig
}

type CleanConfig struct {
	Enabled bool
	// Also clean before every iteration after the first one.
	BetweenIterations bool
	// Series selectors passed to the admin delete_series endpoint.
	Matchers []string `validate:"required_if=Enabled true"`
}

type StorageConfig struct {
	Type   string `validate:"oneof=s3 minio filesystem"`
	Bucket string `validate:"required_unless=Type filesystem"`
	Region string
	// Custom endpoint for S3 compatible stores. Required for minio.
	Endpoint       string `validate:"required_if=Type minio"`
	AccessKey      string
	SecretKey      string
	UseSSL         bool
	ForcePathStyle bool
	// Root directory for the filesystem backend.
	Directory        string `validate:"required_if=Type filesystem"`
	UploadAttempts   uint   `validate:"gte=1"`
	UploadRetryDelay time.Duration
}

type PushgatewayConfig struct {
	// Pushgateway base url. Empty disables pushing.
	Url string `validate:"omitempty,url"`
	Job string `validate:"required_with=Url"`
}
