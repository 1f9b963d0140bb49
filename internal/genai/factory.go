// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains factory functions for building the ranker chain.
package genai

import (
	"context"
	"log/slog"

	"github.com/mih97/qcnav-linebot-go/internal/metrics"
)

// CreateRanker builds a FallbackRanker from the provider configuration.
//
// Chain construction:
//  1. Primary provider's models, in the configured order
//  2. Fallback provider's models
//
// Each chain position is tried with retry logic (RetryConfig) before
// advancing. Returns nil if no provider is configured, which disables
// LLM re-ranking entirely.
func CreateRanker(ctx context.Context, cfg LLMConfig, m *metrics.Metrics) (*FallbackRanker, error) {
	var chain []Ranker

	addRankers := func(provider Provider) {
		switch provider {
		case ProviderGemini:
			if cfg.Gemini.APIKey == "" {
				return
			}
			models := cfg.Gemini.Models
			if len(models) == 0 {
				models = DefaultGeminiModels
			}
			for _, model := range models {
				r, err := newGeminiRanker(ctx, cfg.Gemini.APIKey, model)
				if err != nil {
					slog.WarnContext(ctx, "failed to create gemini ranker", "model", model, "error", err)
					continue
				}
				chain = append(chain, r)
			}
		case ProviderGroq:
			if cfg.Groq.APIKey == "" {
				return
			}
			models := cfg.Groq.Models
			if len(models) == 0 {
				models = DefaultGroqModels
			}
			for _, model := range models {
				r, err := newOpenAIRanker(ctx, ProviderGroq, cfg.Groq.APIKey, model)
				if err != nil {
					slog.WarnContext(ctx, "failed to create groq ranker", "model", model, "error", err)
					continue
				}
				chain = append(chain, r)
			}
		}
	}

	primary := cfg.PrimaryProvider
	if primary == "" {
		primary = ProviderGemini
	}
	fallback := cfg.FallbackProvider
	if fallback == "" {
		fallback = ProviderGroq
	}

	addRankers(primary)
	if fallback != primary {
		addRankers(fallback)
	}

	if len(chain) == 0 {
		slog.InfoContext(ctx, "no LLM provider configured, re-ranking disabled")
		return nil, nil
	}

	slog.InfoContext(ctx, "ranker configured",
		"primary", chain[0].Provider(),
		"chain_size", len(chain))

	return NewFallbackRanker(cfg.RetryConfig, m, chain...), nil
}
