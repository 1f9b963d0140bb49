// Package logger provides structured logging utilities for the application.
// It wraps log/slog with JSON formatting and supports context-based logging
// with request IDs and module names. Remote log shipping to Better Stack is
// optional and runs behind an async handler so it never blocks request paths.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogbetterstack "github.com/samber/slog-betterstack"
)

// Logger is the application logger
type Logger struct {
	*slog.Logger
	remote *RemoteHandler // non-nil when remote shipping is enabled
}

// RemoteOptions configures optional remote log shipping.
type RemoteOptions struct {
	Token    string // Better Stack source token (empty = disabled)
	Endpoint string // Ingesting endpoint (optional, uses library default if empty)
}

// New creates a new logger instance with JSON formatting
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a new logger instance with JSON formatting writing to the provided writer
func NewWithWriter(level string, w io.Writer) *Logger {
	handler := newJSONHandler(level, w)
	return &Logger{Logger: slog.New(NewContextHandler(handler))}
}

// NewWithRemote creates a logger that writes JSON to stdout and, when a token
// is configured, additionally ships records to Better Stack asynchronously.
func NewWithRemote(level string, remote RemoteOptions) *Logger {
	local := newJSONHandler(level, os.Stdout)
	if remote.Token == "" {
		return &Logger{Logger: slog.New(NewContextHandler(local))}
	}

	opt := slogbetterstack.Option{
		Level: parseLevel(level),
		Token: remote.Token,
	}
	if remote.Endpoint != "" {
		opt.Endpoint = remote.Endpoint
	}
	shipper := NewRemoteHandler(opt.NewBetterstackHandler())

	tee := newTeeHandler(local, shipper)
	return &Logger{
		Logger: slog.New(NewContextHandler(tee)),
		remote: shipper,
	}
}

// Shutdown flushes pending remote log records. Safe to call when remote
// shipping is disabled. Overflow drops are reported here because the local
// sink keeps accepting records after the remote queue closes.
func (l *Logger) Shutdown(ctx context.Context) error {
	if l == nil || l.remote == nil {
		return nil
	}
	err := l.remote.Shutdown(ctx)
	if n := l.remote.Dropped(); n > 0 {
		l.WithField("dropped_records", n).Warn("remote log queue overflowed")
	}
	return err
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newJSONHandler(level string, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
				// slog uses RFC3339Nano by default, which is fine
			}
			if a.Key == slog.LevelKey {
				a.Key = "level"
				level := a.Value.String()
				if level == "WARN" {
					level = "warning"
				} else {
					level = strings.ToLower(level)
				}
				a.Value = slog.StringValue(level)
			}
			if a.Key == slog.MessageKey {
				a.Key = "message"
			}
			return a
		},
	}
	return slog.NewJSONHandler(w, opts)
}

// WithModule creates a new entry with module field
func (l *Logger) WithModule(module string) *Logger {
	return &Logger{Logger: l.With("module", module), remote: l.remote}
}

// WithRequestID creates a new entry with request ID field
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.With("request_id", requestID), remote: l.remote}
}

// WithError creates a new entry with error field
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.With("error", err), remote: l.remote}
}

// WithField creates a new entry with a single field
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{Logger: l.With(key, value), remote: l.remote}
}

// WithFields creates a new entry with multiple fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.With(args...), remote: l.remote}
}

// Compatibility methods for logrus-style formatting

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(fmt.Sprintf(format, args...))
}
