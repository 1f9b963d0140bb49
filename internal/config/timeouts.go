// Package config also centralizes timeout constants for the application.
//
// These values are tuned based on:
//   - LINE Messaging API constraints (reply token expiration, webhook timeouts)
//   - Link host response times (NAVER Works shortlinks, shared drive targets)
//   - SQLite performance characteristics (WAL mode, busy timeout)
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing is the timeout for processing a single webhook event.
	// This includes document retrieval, LLM navigation, and link resolution.
	//
	// Set to 60s because:
	//   - LINE loading animation shows for up to 60s
	//   - The navigator may run up to three retrieval passes plus an LLM call
	//   - Maximizes available processing time within LINE's limits
	WebhookProcessing = 60 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout for webhook requests.
	// Should be short since LINE sends small JSON payloads.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	// Should accommodate WebhookProcessing + response serialization.
	WebhookHTTPWrite = 65 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second
)

// Link verification timeouts
const (
	// LinkCheckRequest is the timeout for a single HTTP request when
	// verifying a registered document link is still reachable.
	LinkCheckRequest = 30 * time.Second

	// LinkCheckRetryInitial is the initial delay before retrying a failed
	// verification request. Uses exponential backoff: 4s -> 8s -> 16s
	LinkCheckRetryInitial = 4 * time.Second

	// LinkCheckRateLimit is the minimum delay between consecutive
	// verification requests so link hosts are not hammered.
	LinkCheckRateLimit = 2 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	// Handles concurrent write contention during index reloads.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	// Prevents stale connections and allows connection pool refresh.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// SessionSweepInterval is how often expired pagination sessions are
	// removed from memory.
	SessionSweepInterval = 5 * time.Minute

	// MetricsUpdateInterval is how often gauge metrics are refreshed.
	MetricsUpdateInterval = 5 * time.Minute

	// RateLimiterCleanupInterval is how often inactive user rate limiters are cleaned.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Retrieval timeouts
const (
	// SemanticSearchTimeout is the timeout for semantic search operations.
	// This includes embedding API calls (Gemini) and vector similarity search.
	// Uses a detached context to prevent cancellation from request context
	// (e.g., when LINE server closes connection after receiving 200 OK).
	SemanticSearchTimeout = 30 * time.Second
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	// Allows in-flight requests to complete before forceful termination.
	GracefulShutdown = 30 * time.Second
)
