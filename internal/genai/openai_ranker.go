// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains the OpenAI-compatible implementation of document
// ranking, used for Groq via a custom BaseURL.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

// openaiRanker re-ranks retrieval candidates using an OpenAI-compatible API.
// It implements the Ranker interface.
type openaiRanker struct {
	client     openai.Client
	model      string
	tools      []openai.ChatCompletionToolUnionParam
	systemInst string
	provider   Provider
}

// newOpenAIRanker creates a new OpenAI-compatible ranker.
// Returns nil if apiKey is empty (re-ranking disabled).
func newOpenAIRanker(_ context.Context, provider Provider, apiKey, model string) (*openaiRanker, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: re-ranking disabled when no API key
	}

	baseURL, ok := ProviderEndpoint[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
	}

	if model == "" {
		switch provider {
		case ProviderGroq:
			model = DefaultGroqModels[0]
		default:
			return nil, fmt.Errorf("no default model for provider: %s", provider)
		}
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &openaiRanker{
		client:     client,
		model:      model,
		tools:      buildOpenAITools(),
		systemInst: RankerSystemPrompt,
		provider:   provider,
	}, nil
}

// buildOpenAITools converts our function declarations to OpenAI v3 tool format.
// OpenAI API uses lowercase JSON Schema types per Draft 2020-12 spec.
func buildOpenAITools() []openai.ChatCompletionToolUnionParam {
	funcDecls := BuildRankFunctions()
	result := make([]openai.ChatCompletionToolUnionParam, 0, len(funcDecls))

	for _, fd := range funcDecls {
		properties := make(map[string]any)
		required := make([]string, 0)

		for name, schema := range fd.Parameters.Properties {
			// genai.TypeString = "STRING" → "string" per JSON Schema spec
			properties[name] = map[string]string{
				"type":        strings.ToLower(string(schema.Type)),
				"description": schema.Description,
			}
			required = append(required, name)
		}

		result = append(result, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        fd.Name,
			Description: openai.String(fd.Description),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		}))
	}

	return result
}

// Rank asks the model to order the candidates by relevance to the query.
// Required tool-choice mode forces a function call.
func (p *openaiRanker) Rank(ctx context.Context, query, language string, candidates []*storage.Document) ([]string, error) {
	if p == nil {
		return nil, errors.New("ranker is nil")
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	params := openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.systemInst),
			openai.UserMessage(BuildRankUserMessage(query, language, candidates)),
		},
		Tools: p.tools,
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(openai.ChatCompletionToolChoiceOptionAutoRequired)),
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(256),
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "ranking API call failed",
			"provider", p.provider,
			"model", p.model,
			"candidates", len(candidates),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	ids, parseErr := p.parseResult(resp, candidates)

	if parseErr == nil && resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "ranking completed",
			"provider", p.provider,
			"model", p.model,
			"candidates", len(candidates),
			"selected", len(ids),
			"total_tokens", resp.Usage.TotalTokens,
			"duration_ms", duration.Milliseconds())
	}

	return ids, parseErr
}

// parseResult extracts the ordered ID list from the OpenAI response.
func (p *openaiRanker) parseResult(resp *openai.ChatCompletion, candidates []*storage.Document) ([]string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("empty response from model")
	}

	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		// In required mode the model should always return a tool call
		return nil, errors.New("no tool call in response (expected with required mode)")
	}

	tc := choice.Message.ToolCalls[0]
	if tc.Type != "function" {
		return nil, fmt.Errorf("unexpected tool type: %s", tc.Type)
	}
	if tc.Function.Name != RankFunctionName {
		return nil, fmt.Errorf("unknown function: %s", tc.Function.Name)
	}

	var args map[string]any
	if tc.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("failed to parse function arguments: %w", err)
		}
	}

	value, exists := args[RankParamKey]
	if !exists {
		return nil, fmt.Errorf("missing required parameter %q", RankParamKey)
	}
	raw, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("parameter %q is not a string (got %T)", RankParamKey, value)
	}

	return ParseDocIDList(raw, candidates), nil
}

// IsEnabled returns true if the ranker is enabled.
func (p *openaiRanker) IsEnabled() bool {
	return p != nil
}

// Provider returns the provider type for this ranker.
func (p *openaiRanker) Provider() Provider {
	return p.provider
}

// Close releases resources held by the ranker.
func (p *openaiRanker) Close() error {
	return nil
}
