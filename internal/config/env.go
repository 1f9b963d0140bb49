package config

// Environment variable names used by the application.
const (
	// LINE Bot
	EnvLineChannelAccessToken = "QCNAV_LINE_CHANNEL_ACCESS_TOKEN"
	EnvLineChannelSecret      = "QCNAV_LINE_CHANNEL_SECRET"

	// LLM providers
	EnvGeminiAPIKey        = "QCNAV_GEMINI_API_KEY"
	EnvGroqAPIKey          = "QCNAV_GROQ_API_KEY"
	EnvGeminiModel         = "QCNAV_GEMINI_MODEL"
	EnvGeminiFallbackModel = "QCNAV_GEMINI_FALLBACK_MODEL"
	EnvGroqModel           = "QCNAV_GROQ_MODEL"
	EnvGroqFallbackModel   = "QCNAV_GROQ_FALLBACK_MODEL"

	// Metrics
	EnvMetricsUsername = "QCNAV_METRICS_USERNAME"
	EnvMetricsPassword = "QCNAV_METRICS_PASSWORD"

	// Server
	EnvPort            = "QCNAV_PORT"
	EnvLogLevel        = "QCNAV_LOG_LEVEL"
	EnvShutdownTimeout = "QCNAV_SHUTDOWN_TIMEOUT"

	// Observability
	EnvSentryDSN        = "QCNAV_SENTRY_DSN"
	EnvBetterstackToken = "QCNAV_BETTERSTACK_TOKEN"

	// Data
	EnvDataDir       = "QCNAV_DATA_DIR"
	EnvLinkTablePath = "QCNAV_LINK_TABLE_PATH"

	// R2 snapshot distribution
	EnvR2Enabled         = "QCNAV_R2_ENABLED"
	EnvR2Endpoint        = "QCNAV_R2_ENDPOINT"
	EnvR2AccessKeyID     = "QCNAV_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "QCNAV_R2_SECRET_ACCESS_KEY"
	EnvR2Bucket          = "QCNAV_R2_BUCKET"
	EnvR2PollInterval    = "QCNAV_R2_POLL_INTERVAL"

	// Resolver policy
	EnvPadWidth        = "QCNAV_PAD_WIDTH"
	EnvPageSize        = "QCNAV_PAGE_SIZE"
	EnvSearchPassCount = "QCNAV_SEARCH_PASS_COUNT"
	EnvSessionTTL      = "QCNAV_SESSION_TTL"
	EnvFolderURL       = "QCNAV_FOLDER_URL"

	// Bot limits
	EnvWebhookTimeout = "QCNAV_WEBHOOK_TIMEOUT"
	EnvUserRateBurst  = "QCNAV_USER_RATE_BURST"
	EnvUserRateRefill = "QCNAV_USER_RATE_REFILL_PER_SEC"
	EnvLLMRateBurst   = "QCNAV_LLM_RATE_BURST"
	EnvLLMRateRefill  = "QCNAV_LLM_RATE_REFILL_PER_HOUR"
	EnvLLMRateDaily   = "QCNAV_LLM_RATE_DAILY_LIMIT"
	EnvGlobalRateRPS  = "QCNAV_GLOBAL_RATE_RPS"
)
