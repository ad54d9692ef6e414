package internal

const (
	DotEnvPath        = "./.env"
	MigrationsDir     = "migrations"
	DBTimestampLayout = "2006-01-02 15:04:05.999"
	APIKeyHeader      = "X-SimpleQA-Key"

	// stdout markers emitted by worker processes
	ProgressMarker = "PROGRESS:"
	ResultMarker   = "RESULT:"

	// environment variables passed to worker processes
	EnvRunID      = "SIMPLEQA_RUN_ID"
	EnvTestSetID  = "SIMPLEQA_TEST_SET_ID"
	EnvReleaseID  = "SIMPLEQA_RELEASE_ID"
	EnvBaseURL    = "SIMPLEQA_BASE_URL"
	EnvBatchRun   = "SIMPLEQA_BATCH_RUN"
	EnvWorkers    = "SIMPLEQA_WORKERS"
	EnvAPIBaseURL = "SIMPLEQA_API_URL"
)
