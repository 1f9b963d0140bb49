// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains the function declaration for document ranking.
//
// IMPORTANT: Function declarations use genai.Type* constants (e.g.,
// genai.TypeString = "STRING"). When converting to OpenAI-compatible
// formats, types must be lowercased to match the JSON Schema spec
// ("string" not "STRING"). See buildOpenAITools() in openai_ranker.go.
package genai

import "google.golang.org/genai"

// BuildRankFunctions returns the function declarations for document ranking.
// A single function keeps forced-calling mode deterministic: the model
// always returns an ordered ID list, even when it is empty.
func BuildRankFunctions() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        RankFunctionName,
			Description: RankFunctionDescription,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					RankParamKey: {
						Type:        genai.TypeString,
						Description: RankParamDescription,
					},
				},
				Required: []string{RankParamKey},
			},
		},
	}
}
