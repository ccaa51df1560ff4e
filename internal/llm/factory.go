package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/evotone-audio/evotone-api/internal/config"
)

// NewProvider routes a model name to the provider that serves it.
// gpt-* and o* models go to OpenAI, gemini-* models to Gemini.
func NewProvider(ctx context.Context, cfg *config.Config, model string) (Provider, error) {
	switch {
	case strings.HasPrefix(model, "gemini-"):
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not configured for model %s", model)
		}
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey)
	case strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o"):
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not configured for model %s", model)
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey), nil
	default:
		return nil, fmt.Errorf("unsupported model: %s", model)
	}
}
