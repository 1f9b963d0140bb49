package logger

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler duplicates records to the local JSON handler and the remote
// shipping handler. The logger never fans out to more than these two sinks,
// so the pair is fixed rather than a handler list.
type teeHandler struct {
	local  slog.Handler
	remote slog.Handler
}

func newTeeHandler(local, remote slog.Handler) *teeHandler {
	return &teeHandler{local: local, remote: remote}
}

// Enabled reports whether either sink accepts the level.
func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.local.Enabled(ctx, level) || h.remote.Enabled(ctx, level)
}

// Handle forwards the record to each enabled sink with its own clone.
func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var localErr, remoteErr error
	if h.local.Enabled(ctx, r.Level) {
		localErr = h.local.Handle(ctx, r.Clone())
	}
	if h.remote.Enabled(ctx, r.Level) {
		remoteErr = h.remote.Handle(ctx, r.Clone())
	}
	return errors.Join(localErr, remoteErr)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{local: h.local.WithAttrs(attrs), remote: h.remote.WithAttrs(attrs)}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{local: h.local.WithGroup(name), remote: h.remote.WithGroup(name)}
}
