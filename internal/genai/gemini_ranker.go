// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains the Gemini implementation of document ranking.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

// geminiRanker re-ranks retrieval candidates using Gemini function calling.
// It implements the Ranker interface.
type geminiRanker struct {
	client     *genai.Client
	model      string
	tools      []*genai.Tool
	systemInst string
}

// newGeminiRanker creates a new Gemini-based ranker.
// Returns nil if apiKey is empty (re-ranking disabled).
func newGeminiRanker(ctx context.Context, apiKey, model string) (*geminiRanker, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: re-ranking disabled when no API key
	}

	if model == "" {
		model = DefaultGeminiModels[0]
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiRanker{
		client: client,
		model:  model,
		tools: []*genai.Tool{{
			FunctionDeclarations: BuildRankFunctions(),
		}},
		systemInst: RankerSystemPrompt,
	}, nil
}

// Rank asks the model to order the candidates by relevance to the query.
// ANY mode forces a function call so the response is always parsable.
func (p *geminiRanker) Rank(ctx context.Context, query, language string, candidates []*storage.Document) ([]string, error) {
	if p == nil {
		return nil, errors.New("ranker is nil")
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	config := &genai.GenerateContentConfig{
		Tools:             p.tools,
		SystemInstruction: genai.NewContentFromText(p.systemInst, genai.RoleUser),
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAny, // Force function calling
			},
		},
		Temperature:     genai.Ptr[float32](0.1), // Low temperature for stable ordering
		MaxOutputTokens: 256,                     // ID lists are short
	}

	start := time.Now()
	result, err := p.client.Models.GenerateContent(
		ctx,
		p.model,
		genai.Text(BuildRankUserMessage(query, language, candidates)),
		config,
	)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "ranking API call failed",
			"provider", "gemini",
			"model", p.model,
			"candidates", len(candidates),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, fmt.Errorf("generate content failed: %w", err)
	}

	ids, parseErr := p.parseResult(result, candidates)

	if parseErr == nil && result.UsageMetadata != nil {
		slog.DebugContext(ctx, "ranking completed",
			"provider", "gemini",
			"model", p.model,
			"candidates", len(candidates),
			"selected", len(ids),
			"total_tokens", result.UsageMetadata.TotalTokenCount,
			"duration_ms", duration.Milliseconds())
	}

	return ids, parseErr
}

// parseResult extracts the ordered ID list from the generation result.
func (p *geminiRanker) parseResult(result *genai.GenerateContentResponse, candidates []*storage.Document) ([]string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, errors.New("empty response from model")
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, errors.New("no content in response")
	}

	for _, part := range candidate.Content.Parts {
		if part.FunctionCall == nil {
			continue
		}
		if part.FunctionCall.Name != RankFunctionName {
			return nil, fmt.Errorf("unknown function: %s", part.FunctionCall.Name)
		}
		value, exists := part.FunctionCall.Args[RankParamKey]
		if !exists {
			return nil, fmt.Errorf("missing required parameter %q", RankParamKey)
		}
		raw, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("parameter %q is not a string (got %T)", RankParamKey, value)
		}
		return ParseDocIDList(raw, candidates), nil
	}

	// In ANY mode the model should always return a function call
	return nil, errors.New("no function call in response (expected with ANY mode)")
}

// IsEnabled returns true if the ranker is enabled.
func (p *geminiRanker) IsEnabled() bool {
	return p != nil && p.client != nil
}

// Provider returns the provider type for this ranker.
func (p *geminiRanker) Provider() Provider {
	return ProviderGemini
}

// Close releases resources held by the ranker.
// Safe to call on nil receiver.
func (p *geminiRanker) Close() error {
	// genai.Client does not require explicit cleanup in the current SDK
	return nil
}
