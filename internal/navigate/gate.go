package navigate

import (
	"context"
	"log/slog"

	"github.com/mih97/qcnav-linebot-go/internal/ctxutil"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

// LLMGate decides whether a user may spend an LLM navigation call.
// *ratelimit.LLMRateLimiter satisfies this.
type LLMGate interface {
	Allow(userID string) bool
}

// GatedNavigator wraps a Navigator with a per-user LLM budget. When the
// budget is exhausted the wrapped navigator is skipped and retrieval order
// stands, so the user still gets an answer.
type GatedNavigator struct {
	inner Navigator
	gate  LLMGate
}

// NewGatedNavigator wraps inner with gate. Returns inner unchanged when
// gate is nil.
func NewGatedNavigator(inner Navigator, gate LLMGate) Navigator {
	if gate == nil {
		return inner
	}
	return &GatedNavigator{inner: inner, gate: gate}
}

// Rank delegates to the wrapped navigator when the user's budget allows.
// An empty result keeps the caller's order unchanged.
func (g *GatedNavigator) Rank(ctx context.Context, query, language string, candidates []*storage.Document) ([]string, error) {
	if !g.gate.Allow(ctxutil.GetUserID(ctx)) {
		slog.DebugContext(ctx, "llm budget exhausted, keeping retrieval order")
		return nil, nil
	}
	return g.inner.Rank(ctx, query, language, candidates)
}
