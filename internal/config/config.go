// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// server mode, resolver policy, timeouts, and rate limits.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// LLM Configuration
	GeminiAPIKey string // Gemini API key for generation and embeddings
	GroqAPIKey   string // Groq API key (OpenAI-compatible fallback provider)

	// LLM Model Configuration (optional, defaults apply if empty)
	GeminiModel         string // Primary Gemini model for document navigation
	GeminiFallbackModel string // Fallback Gemini model
	GroqModel           string // Primary Groq model
	GroqFallbackModel   string // Fallback Groq model

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Observability
	SentryDSN        string // Sentry DSN (empty = disabled)
	BetterstackToken string // Better Stack source token for remote logging (empty = disabled)

	// Data Configuration
	DataDir       string // Data directory for SQLite index database and vector store
	LinkTablePath string // CSV link table (columns: equipment, sheet_no, language, link)

	// R2 Snapshot Configuration (index database distribution)
	R2Enabled         bool
	R2Endpoint        string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string
	R2PollInterval    time.Duration

	// Resolver policy (embedded)
	Resolver ResolverConfig

	// Bot Configuration (embedded)
	Bot BotConfig
}

// ResolverConfig holds policy knobs for the document reference resolver.
// Zero-pad width, page size, and search-pass count are empirically tuned
// values; they are configuration rather than literals so they can be changed
// without code edits.
type ResolverConfig struct {
	PadWidth        int           // Zero-pad width for document numbers (default: 3)
	PageSize        int           // Recommendations per page (default: 3)
	SearchPassCount int           // Required retrieval passes before declaring no match (default: 3)
	SessionTTL      time.Duration // Pagination session lifetime (default: 30m)
	FolderURL       string        // Full document folder fallback link
}

// BotConfig holds bot-specific configuration
type BotConfig struct {
	// Timeouts
	WebhookTimeout time.Duration // Timeout for webhook bot processing

	// Rate Limits (Token Bucket Algorithm)
	UserRateLimitBurst        float64 // Maximum burst tokens per user (default: 15)
	UserRateLimitRefillPerSec float64 // Tokens refilled per second (default: 0.1 = 1 per 10s)

	// LLM Rate Limits (Multi-Layer: Hourly + Daily)
	LLMBurstTokens   float64 // Maximum burst tokens for LLM (default: 40)
	LLMRefillPerHour float64 // LLM tokens refilled per hour (default: 20)
	LLMDailyLimit    int     // Maximum LLM requests per day (default: 100, 0 = disabled)

	GlobalRateLimitRPS float64 // Global rate limit in requests per second (default: 100)

	// LINE API Constraints
	MaxMessagesPerReply int // Maximum messages per reply (LINE API limit: 5)
	MaxEventsPerWebhook int // Maximum events per webhook (default: 100)
	MinReplyTokenLength int // Minimum reply token length (default: 10)
	MaxMessageLength    int // Maximum message length (LINE API limit: 20000)
	MaxPostbackDataSize int // Maximum postback data size (LINE API limit: 300)
}

// Mode selects which configuration values are required.
type Mode int

const (
	// ServerMode is the webhook server; LINE credentials are required.
	ServerMode Mode = iota
	// ToolMode is for offline tools (indexer, link verification) that
	// never talk to the LINE platform.
	ToolMode
)

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration with mode-specific validation.
func LoadForMode(mode Mode) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// LINE Bot Configuration
		LineChannelToken:  getEnv(EnvLineChannelAccessToken, ""),
		LineChannelSecret: getEnv(EnvLineChannelSecret, ""),

		// LLM Configuration
		GeminiAPIKey: getEnv(EnvGeminiAPIKey, ""),
		GroqAPIKey:   getEnv(EnvGroqAPIKey, ""),

		// LLM Model Configuration (empty = use defaults from genai package)
		GeminiModel:         getEnv(EnvGeminiModel, ""),
		GeminiFallbackModel: getEnv(EnvGeminiFallbackModel, ""),
		GroqModel:           getEnv(EnvGroqModel, ""),
		GroqFallbackModel:   getEnv(EnvGroqFallbackModel, ""),

		// Metrics Authentication
		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		// Server Configuration
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, 30*time.Second),

		// Observability
		SentryDSN:        getEnv(EnvSentryDSN, ""),
		BetterstackToken: getEnv(EnvBetterstackToken, ""),

		// Data Configuration
		DataDir:       getEnv(EnvDataDir, getDefaultDataDir()),
		LinkTablePath: getEnv(EnvLinkTablePath, "document_links.csv"),

		// R2 Snapshot Configuration
		R2Enabled:         getBoolEnv(EnvR2Enabled, false),
		R2Endpoint:        getEnv(EnvR2Endpoint, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2Bucket:          getEnv(EnvR2Bucket, ""),
		R2PollInterval:    getDurationEnv(EnvR2PollInterval, 15*time.Minute),

		// Resolver policy
		Resolver: ResolverConfig{
			PadWidth:        getIntEnv(EnvPadWidth, 3),
			PageSize:        getIntEnv(EnvPageSize, 3),
			SearchPassCount: getIntEnv(EnvSearchPassCount, 3),
			SessionTTL:      getDurationEnv(EnvSessionTTL, 30*time.Minute),
			FolderURL:       getEnv(EnvFolderURL, "https://works.do/FYhb6GY"),
		},

		// Bot Configuration
		Bot: BotConfig{
			WebhookTimeout:            getDurationEnv(EnvWebhookTimeout, WebhookProcessing),
			UserRateLimitBurst:        getFloatEnv(EnvUserRateBurst, 15.0),
			UserRateLimitRefillPerSec: getFloatEnv(EnvUserRateRefill, 0.1), // 1 per 10s
			LLMBurstTokens:            getFloatEnv(EnvLLMRateBurst, 40.0),
			LLMRefillPerHour:          getFloatEnv(EnvLLMRateRefill, 20.0),
			LLMDailyLimit:             getIntEnv(EnvLLMRateDaily, 100),
			GlobalRateLimitRPS:        getFloatEnv(EnvGlobalRateRPS, 100.0),
			MaxMessagesPerReply:       5,
			MaxEventsPerWebhook:       100,
			MinReplyTokenLength:       10,
			MaxMessageLength:          20000,
			MaxPostbackDataSize:       300,
		},
	}

	// Validate configuration
	if err := cfg.validate(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	return c.validate(ServerMode)
}

func (c *Config) validate(mode Mode) error {
	var errs []error

	if mode == ServerMode {
		if c.LineChannelToken == "" {
			errs = append(errs, errors.New(EnvLineChannelAccessToken+" is required"))
		}
		if c.LineChannelSecret == "" {
			errs = append(errs, errors.New(EnvLineChannelSecret+" is required"))
		}
	}
	if c.Port == "" {
		errs = append(errs, errors.New(EnvPort+" is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New(EnvDataDir+" is required"))
	}
	if err := c.Resolver.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("resolver config: %w", err))
	}
	if c.Bot.WebhookTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvWebhookTimeout, c.Bot.WebhookTimeout))
	}
	if c.R2Enabled {
		if c.R2Endpoint == "" || c.R2AccessKeyID == "" || c.R2SecretAccessKey == "" || c.R2Bucket == "" {
			errs = append(errs, errors.New("R2 snapshot enabled but endpoint/credentials/bucket incomplete"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks resolver policy values.
func (c *ResolverConfig) Validate() error {
	var errs []error

	if c.PadWidth < 1 || c.PadWidth > 6 {
		errs = append(errs, fmt.Errorf("pad width must be 1-6, got %d", c.PadWidth))
	}
	if c.PageSize < 1 {
		errs = append(errs, fmt.Errorf("page size must be positive, got %d", c.PageSize))
	}
	if c.SearchPassCount < 1 {
		errs = append(errs, fmt.Errorf("search pass count must be positive, got %d", c.SearchPassCount))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session TTL must be positive, got %v", c.SessionTTL))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite index database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "index.db")
}

// HasLLMProvider returns true if at least one LLM provider is configured.
func (c *Config) HasLLMProvider() bool {
	return c.GeminiAPIKey != "" || c.GroqAPIKey != ""
}
