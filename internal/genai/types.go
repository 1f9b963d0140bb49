// Package genai provides integration with LLM APIs (Gemini and Groq) for
// document re-ranking and embedding generation.
//
// Architecture:
//   - Gemini: google.golang.org/genai (official SDK)
//   - Groq: github.com/openai/openai-go/v3 (OpenAI-compatible API)
//
// Fallback strategy (3-layer):
//  1. Model retry: same model retried with exponential backoff
//  2. Model chain: next model in the same provider's model list
//  3. Provider chain: next configured provider
package genai

import (
	"context"
	"time"

	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderGemini represents Google's Gemini API (non-OpenAI-compatible).
	ProviderGemini Provider = "gemini"
	// ProviderGroq represents Groq's API (OpenAI-compatible, fast inference).
	ProviderGroq Provider = "groq"
)

// ProviderEndpoint defines the base URL for OpenAI-compatible providers.
// Gemini is not included as it uses a different SDK.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq: "https://api.groq.com/openai/v1/",
}

// IsOpenAICompatible returns true if the provider uses the OpenAI-compatible API.
func (p Provider) IsOpenAICompatible() bool {
	_, ok := ProviderEndpoint[p]
	return ok
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Ranker re-orders retrieval candidates by relevance to a user query.
// Implementations include Gemini (native) and Groq (OpenAI-compatible).
// Uses forced function calling so the model always returns a parsable list.
type Ranker interface {
	// Rank returns canonical document IDs drawn from candidates,
	// most relevant first. IDs not present in candidates are invalid
	// and dropped by the caller.
	Rank(ctx context.Context, query, language string, candidates []*storage.Document) ([]string, error)
	// IsEnabled returns true if the ranker is properly initialized.
	IsEnabled() bool
	// Close releases any resources held by the ranker.
	Close() error
	// Provider returns the provider type for metrics.
	Provider() Provider
}

// RetryConfig defines retry behavior for LLM API calls.
// Uses AWS-recommended Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 2 (1 initial + 1 retry)
	MaxAttempts int

	// InitialDelay is the base delay before first retry.
	// Default: 500ms
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	// Default: 3s
	MaxDelay time.Duration
}

// ProviderConfig holds configuration for a single LLM provider.
type ProviderConfig struct {
	// APIKey is the API key for the provider.
	APIKey string

	// Models is the ordered list of models for document ranking.
	// First model is primary, rest are fallbacks tried in order.
	Models []string
}

// LLMConfig holds configuration for all LLM providers.
type LLMConfig struct {
	// PrimaryProvider is tried first.
	PrimaryProvider Provider

	// FallbackProvider is tried when the primary provider's models
	// are exhausted.
	FallbackProvider Provider

	// Gemini configuration
	Gemini ProviderConfig

	// Groq configuration (OpenAI-compatible)
	Groq ProviderConfig

	// RetryConfig for retry behavior
	RetryConfig RetryConfig
}

// Default model configurations.
// First element is primary model, subsequent elements are fallbacks.
var (
	// DefaultGeminiModels is the default model chain for Gemini ranking.
	// gemini-2.5-flash offers excellent function calling with fast inference;
	// gemini-2.5-flash-lite provides a cheaper fallback.
	DefaultGeminiModels = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}

	// DefaultGroqModels is the default model chain for Groq ranking.
	// llama-3.3-70b-versatile is production-grade with strong accuracy;
	// llama-3.1-8b-instant is a fast fallback.
	DefaultGroqModels = []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}
)

// Retry configuration defaults
const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}

// HasAnyProvider returns true if at least one provider is configured.
func (c *LLMConfig) HasAnyProvider() bool {
	return c.Gemini.APIKey != "" || c.Groq.APIKey != ""
}

// HasProvider returns true if the specified provider has an API key.
func (c *LLMConfig) HasProvider(p Provider) bool {
	switch p {
	case ProviderGemini:
		return c.Gemini.APIKey != ""
	case ProviderGroq:
		return c.Groq.APIKey != ""
	default:
		return false
	}
}
