package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Remote shipping must never block a request path: records are queued and a
// single worker forwards them to the Better Stack handler. A full queue
// drops the record instead of waiting.
const (
	remoteQueueSize    = 1024
	remoteFlushTimeout = 5 * time.Second
)

type remoteRecord struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// remoteQueue is shared by a RemoteHandler and every handler derived from it
// via WithAttrs/WithGroup, so one worker drains all variants in order.
type remoteQueue struct {
	ch      chan remoteRecord
	done    chan struct{}
	closed  atomic.Bool
	dropped atomic.Uint64
}

func newRemoteQueue() *remoteQueue {
	q := &remoteQueue{
		ch:   make(chan remoteRecord, remoteQueueSize),
		done: make(chan struct{}),
	}
	go q.drain()
	return q
}

func (q *remoteQueue) drain() {
	defer close(q.done)
	for rec := range q.ch {
		_ = rec.handler.Handle(rec.ctx, rec.record)
	}
}

func (q *remoteQueue) push(ctx context.Context, record slog.Record, handler slog.Handler) {
	if q.closed.Load() {
		return
	}
	select {
	case q.ch <- remoteRecord{ctx: ctx, record: record, handler: handler}:
	default:
		q.dropped.Add(1)
	}
}

func (q *remoteQueue) shutdown(ctx context.Context) error {
	if q.closed.Swap(true) {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, remoteFlushTimeout)
		defer cancel()
	}
	close(q.ch)
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RemoteHandler ships log records to Better Stack without blocking the
// caller. Records are cloned on enqueue so the worker sees a stable copy.
type RemoteHandler struct {
	queue   *remoteQueue
	handler slog.Handler
}

// NewRemoteHandler wraps the shipping handler with the async queue.
func NewRemoteHandler(handler slog.Handler) *RemoteHandler {
	return &RemoteHandler{queue: newRemoteQueue(), handler: handler}
}

// Enabled reports whether the shipping handler accepts the level.
func (h *RemoteHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle enqueues the record for the shipping worker.
func (h *RemoteHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.handler.Enabled(ctx, r.Level) {
		return nil
	}
	h.queue.push(ctx, r.Clone(), h.handler)
	return nil
}

// WithAttrs returns a remote handler sharing this handler's queue.
func (h *RemoteHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RemoteHandler{queue: h.queue, handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a remote handler sharing this handler's queue.
func (h *RemoteHandler) WithGroup(name string) slog.Handler {
	return &RemoteHandler{queue: h.queue, handler: h.handler.WithGroup(name)}
}

// Shutdown flushes queued records, waiting at most remoteFlushTimeout when
// the context carries no deadline of its own.
func (h *RemoteHandler) Shutdown(ctx context.Context) error {
	if h == nil {
		return nil
	}
	return h.queue.shutdown(ctx)
}

// Dropped reports how many records were discarded because the queue was full.
func (h *RemoteHandler) Dropped() uint64 {
	if h == nil {
		return 0
	}
	return h.queue.dropped.Load()
}
