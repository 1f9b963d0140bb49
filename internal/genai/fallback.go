// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains the fallback wrapper for cross-model and
// cross-provider failover.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/mih97/qcnav-linebot-go/internal/errors"
	"github.com/mih97/qcnav-linebot-go/internal/metrics"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

// FallbackRanker wraps an ordered chain of rankers.
// It implements three-layer fallback:
//  1. Model retry with backoff (same ranker)
//  2. Chain fallback (next model, then next provider)
//  3. Hard failure surfaced as a CollaboratorError (callers degrade
//     to retrieval order)
type FallbackRanker struct {
	chain       []Ranker
	retryConfig RetryConfig
	metrics     *metrics.Metrics
}

// NewFallbackRanker creates a fallback-enabled ranker from a chain.
// The chain is tried in order; an empty chain disables re-ranking.
func NewFallbackRanker(cfg RetryConfig, m *metrics.Metrics, chain ...Ranker) *FallbackRanker {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}
	return &FallbackRanker{
		chain:       chain,
		retryConfig: cfg,
		metrics:     m,
	}
}

// Rank tries each ranker in the chain with retry, falling through on
// recoverable failures. Permanent errors on one ranker still advance the
// chain: a misconfigured primary should not disable the fallback provider.
func (f *FallbackRanker) Rank(ctx context.Context, query, language string, candidates []*storage.Document) ([]string, error) {
	if f == nil || len(f.chain) == 0 {
		return nil, errors.New("ranker not configured")
	}

	var lastErr error
	var lastProvider Provider

	for i, ranker := range f.chain {
		start := time.Now()
		provider := ranker.Provider()

		ids, err := f.rankWithRetry(ctx, ranker, query, language, candidates)
		if err == nil {
			f.metrics.RecordLLM(provider.String(), "success", time.Since(start))
			if i > 0 {
				f.metrics.RecordLLMFallback(lastProvider.String(), provider.String())
			}
			return ids, nil
		}

		lastErr = err
		lastProvider = provider
		f.metrics.RecordLLM(provider.String(), "error", time.Since(start))

		if errors.Is(err, context.Canceled) {
			return nil, err
		}

		slog.WarnContext(ctx, "ranker failed",
			"provider", provider,
			"action", ClassifyError(err).String(),
			"chain_position", i,
			"error", err)
	}

	slog.ErrorContext(ctx, "all rankers failed",
		"chain_size", len(f.chain),
		"error", lastErr)
	return nil, domerrors.NewCollaboratorError(lastProvider.String(), fmt.Errorf("all rankers failed: %w", lastErr))
}

// rankWithRetry attempts ranking with retry logic on one ranker.
func (f *FallbackRanker) rankWithRetry(ctx context.Context, ranker Ranker, query, language string, candidates []*storage.Document) ([]string, error) {
	var lastErr error

	for attempt := 0; attempt < f.retryConfig.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		ids, err := ranker.Rank(ctx, query, language, candidates)
		if err == nil {
			return ids, nil
		}

		lastErr = err
		if ClassifyError(err) != ActionRetry {
			return nil, err
		}
		if attempt == f.retryConfig.MaxAttempts-1 {
			break
		}

		backoff := CalculateBackoff(attempt+1, f.retryConfig.InitialDelay, f.retryConfig.MaxDelay)
		if !HasSufficientBudget(ctx, backoff) {
			return nil, fmt.Errorf("timeout during retry: %w", lastErr)
		}

		slog.DebugContext(ctx, "retrying rank",
			"provider", ranker.Provider(),
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err)

		if err := Sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// IsEnabled returns true if at least one ranker in the chain is enabled.
func (f *FallbackRanker) IsEnabled() bool {
	if f == nil {
		return false
	}
	for _, r := range f.chain {
		if r.IsEnabled() {
			return true
		}
	}
	return false
}

// Provider returns the primary provider type.
func (f *FallbackRanker) Provider() Provider {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Provider()
}

// Close closes every ranker in the chain.
func (f *FallbackRanker) Close() error {
	if f == nil {
		return nil
	}

	var errs []error
	for _, r := range f.chain {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
