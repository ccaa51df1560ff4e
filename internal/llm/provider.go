// Package llm adapts remote generative-AI providers to the evolution
// pipeline. A provider acts as a drop-in substitute for one local
// synthesize/evaluate (or select/mutate) step: it must return a value
// matching the params/reasoning/fitness schema or a hard error.
package llm

import (
	"context"

	"github.com/evotone-audio/evotone-api/internal/models"
)

// Provider defines the interface for LLM providers.
// All providers MUST support structured output (JSON Schema) so responses
// can be decoded and validated against the generation schema.
type Provider interface {
	// Generate produces one generation step from the request context
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g. "openai", "gemini")
	Name() string
}

// GenerationRequest carries everything the model needs for one step:
// the originating prompt, the emotional vector, and, when iterating, the
// parent generation plus feedback and temperature.
type GenerationRequest struct {
	Model        string
	Prompt       string
	Emotion      models.EmotionalVector
	Parent       *models.Generation // nil for a root step
	Feedback     string
	Temperature  float64
	SystemPrompt string
	// Structured output schema - REQUIRED for reliable JSON parsing
	OutputSchema *OutputSchema
}

// OutputSchema defines the expected JSON output structure
type OutputSchema struct {
	Name        string
	Description string
	Schema      map[string]any // JSON Schema object
}

// GenerationOutput is the schema every provider response must satisfy.
// It mirrors what the local engine produces for a single step.
type GenerationOutput struct {
	Params    models.MusicParameters   `json:"params"`
	Reasoning models.CreativeReasoning `json:"reasoning"`
	Fitness   models.FitnessScores     `json:"fitness"`
	Mutations []models.MutationType    `json:"mutations,omitempty"`
}

// TokenUsage normalizes token accounting across providers
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// GenerationResponse contains the decoded result plus raw output and usage
type GenerationResponse struct {
	Output    GenerationOutput `json:"output"`
	RawOutput string           `json:"-"`
	Usage     TokenUsage       `json:"usage"`
}
