package config

// EnvPrefix is handed to envconfig; every tag below already carries it so the
// unprefixed alternate lookup resolves the documented variable names.
const EnvPrefix = "SALES"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
	EngineBigQuery = "bigquery"
)

const (
	EnvAppEnv       = "SALES_APP_ENV"
	EnvLogLevel     = "SALES_LOG_LEVEL"
	EnvLogFormat    = "SALES_LOG_FORMAT"
	EnvLogWarnStack = "SALES_LOG_WARN_STACK"

	EnvGeneratorRecords    = "SALES_GENERATOR_RECORDS"
	EnvGeneratorSeed       = "SALES_GENERATOR_SEED"
	EnvGeneratorOutputPath = "SALES_GENERATOR_OUTPUT_PATH"

	EnvAnalyzerWorkDir    = "SALES_ANALYZER_WORK_DIR"
	EnvAnalyzerInputFile  = "SALES_ANALYZER_INPUT_FILE"
	EnvAnalyzerMetricsDir = "SALES_ANALYZER_METRICS_DIR"
	EnvAnalyzerOutputName = "SALES_ANALYZER_OUTPUT_NAME"
	EnvAnalyzerPartitions = "SALES_ANALYZER_OUTPUT_PARTITIONS"
	EnvAnalyzerSampleRows = "SALES_ANALYZER_SAMPLE_ROWS"

	EnvEngineKind          = "SALES_ENGINE_KIND"
	EnvEngineDSN           = "SALES_ENGINE_DSN"
	EnvEngineParallelism   = "SALES_ENGINE_PARALLELISM"
	EnvEngineMemoryLimitMB = "SALES_ENGINE_MEMORY_LIMIT_MB"
	EnvEngineBatchSize     = "SALES_ENGINE_BATCH_SIZE"

	EnvGCPProjectID       = "SALES_GCP_PROJECT_ID"
	EnvGCPCredentialsJSON = "SALES_GCP_CREDENTIALS_JSON"
	EnvGCPCredentialsFile = "SALES_GOOGLE_APPLICATION_CREDENTIALS"

	EnvBigQueryDataset  = "SALES_BIGQUERY_DATASET"
	EnvBigQueryLocation = "SALES_BIGQUERY_LOCATION"

	EnvGCSBucket = "SALES_GCS_BUCKET"
	EnvGCSPrefix = "SALES_GCS_PREFIX"

	EnvS3Bucket   = "SALES_S3_BUCKET"
	EnvS3Prefix   = "SALES_S3_PREFIX"
	EnvS3Region   = "SALES_S3_REGION"
	EnvS3Endpoint = "SALES_S3_ENDPOINT"

	EnvMetricsTextfile = "SALES_METRICS_TEXTFILE"
)
