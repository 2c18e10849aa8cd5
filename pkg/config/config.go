package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Generator GeneratorConfig
	Analyzer  AnalyzerConfig
	Engine    EngineConfig
	GCP       GCPConfig
	BigQuery  BigQueryConfig
	GCS       GCSConfig
	S3        S3Config
	Metrics   MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env       string `envconfig:"SALES_APP_ENV" default:"dev"`
	LogLevel  string `envconfig:"SALES_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"SALES_LOG_FORMAT" default:"json"`
	// LogWarnStack attaches a stack trace to warnings as well as errors.
	LogWarnStack bool `envconfig:"SALES_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type GeneratorConfig struct {
	Records    int    `envconfig:"SALES_GENERATOR_RECORDS" default:"1000000"`
	Seed       uint64 `envconfig:"SALES_GENERATOR_SEED" default:"42"`
	OutputPath string `envconfig:"SALES_GENERATOR_OUTPUT_PATH" default:"sales_data.csv"`
}

type AnalyzerConfig struct {
	// WorkDir anchors the relative input path and the metrics directory.
	// Empty means the process working directory.
	WorkDir          string `envconfig:"SALES_ANALYZER_WORK_DIR"`
	InputFile        string `envconfig:"SALES_ANALYZER_INPUT_FILE" default:"sales_data.csv"`
	MetricsDir       string `envconfig:"SALES_ANALYZER_METRICS_DIR" default:"metrics"`
	OutputName       string `envconfig:"SALES_ANALYZER_OUTPUT_NAME" default:"state_sales"`
	OutputPartitions int    `envconfig:"SALES_ANALYZER_OUTPUT_PARTITIONS" default:"1"`
	SampleRows       int    `envconfig:"SALES_ANALYZER_SAMPLE_ROWS" default:"5"`
}

// EngineConfig is handed to the compute engine as-is.
type EngineConfig struct {
	Kind string `envconfig:"SALES_ENGINE_KIND" default:"sqlite"`
	DSN  string `envconfig:"SALES_ENGINE_DSN"`
	// Parallelism <= 0 means one worker per available CPU.
	Parallelism   int `envconfig:"SALES_ENGINE_PARALLELISM" default:"0"`
	MemoryLimitMB int `envconfig:"SALES_ENGINE_MEMORY_LIMIT_MB" default:"8192"`
	BatchSize     int `envconfig:"SALES_ENGINE_BATCH_SIZE" default:"500"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SALES_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SALES_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SALES_GOOGLE_APPLICATION_CREDENTIALS"`
}

type BigQueryConfig struct {
	Dataset  string `envconfig:"SALES_BIGQUERY_DATASET" default:"sales_analytics"`
	Location string `envconfig:"SALES_BIGQUERY_LOCATION" default:"US"`
}

type GCSConfig struct {
	Bucket string `envconfig:"SALES_GCS_BUCKET"`
	Prefix string `envconfig:"SALES_GCS_PREFIX"`
}

// Enabled reports whether produced files should be copied to GCS.
func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.Bucket) != ""
}

type S3Config struct {
	Bucket string `envconfig:"SALES_S3_BUCKET"`
	Prefix string `envconfig:"SALES_S3_PREFIX"`
	Region string `envconfig:"SALES_S3_REGION"`
	// Endpoint overrides the S3 endpoint for MinIO or LocalStack.
	Endpoint string `envconfig:"SALES_S3_ENDPOINT"`
}

// Enabled reports whether produced files should be copied to S3.
func (s S3Config) Enabled() bool {
	return strings.TrimSpace(s.Bucket) != ""
}

type MetricsConfig struct {
	TextfilePath string `envconfig:"SALES_METRICS_TEXTFILE"`
}

// NormalizedKind returns the lower-cased engine kind.
func (e EngineConfig) NormalizedKind() string {
	kind := strings.ToLower(strings.TrimSpace(e.Kind))
	if kind == "" {
		return EngineSQLite
	}
	return kind
}

func (c *Config) validate() error {
	if c.Generator.Records < 0 {
		return fmt.Errorf("%s must not be negative", EnvGeneratorRecords)
	}
	if strings.TrimSpace(c.Generator.OutputPath) == "" {
		return fmt.Errorf("%s is required", EnvGeneratorOutputPath)
	}
	if strings.TrimSpace(c.Analyzer.InputFile) == "" {
		return fmt.Errorf("%s is required", EnvAnalyzerInputFile)
	}
	if c.Analyzer.OutputPartitions < 1 {
		return fmt.Errorf("%s must be at least 1", EnvAnalyzerPartitions)
	}

	switch c.Engine.NormalizedKind() {
	case EngineSQLite:
	case EnginePostgres:
		if strings.TrimSpace(c.Engine.DSN) == "" {
			return fmt.Errorf("%s is required for the %s engine", EnvEngineDSN, EnginePostgres)
		}
	case EngineBigQuery:
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			return fmt.Errorf("%s is required for the %s engine", EnvGCPProjectID, EngineBigQuery)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvEngineKind, c.Engine.Kind)
	}
	return nil
}
