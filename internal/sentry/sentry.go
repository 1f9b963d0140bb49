// Package sentry wraps Sentry SDK initialization and the Gin middleware for
// error tracking. Initialization is a no-op when no DSN is configured.
package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// Config holds Sentry settings.
type Config struct {
	DSN         string  // Empty disables Sentry entirely
	Environment string  // e.g. "production", "staging"
	Release     string  // Application release version
	SampleRate  float64 // Error sampling 0.0-1.0, defaults to 1.0
	Debug       bool
}

// Initialize sets up the Sentry SDK. Returns nil without initializing when
// the DSN is empty.
func Initialize(cfg Config) error {
	if cfg.DSN == "" {
		return nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// GinMiddleware returns the request-scoped Sentry middleware. Panics are
// re-raised so Gin's recovery still produces the 500 response.
func GinMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

// Flush waits for buffered events to reach the server. Returns true when
// everything was sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled reports whether Sentry was initialized.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException sends an error to Sentry.
func CaptureException(err error) {
	sentry.CaptureException(err)
}

// CaptureExceptionWithContext sends an error using the request-scoped hub
// when one exists.
func CaptureExceptionWithContext(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}
