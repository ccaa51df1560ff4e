package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	mimeTypeJSON       = "application/json"
	geminiUserRole     = "user"
)

// GeminiProvider implements the Provider interface using Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// Generate implements one generation step using Gemini's API
func (p *GeminiProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🎵 GEMINI GENERATION STEP STARTED (model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "gemini.generate")
	defer transaction.Finish()
	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)

	userMessage, err := buildUserMessage(request)
	if err != nil {
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, err
	}

	contents := []*genai.Content{
		{
			Role:  geminiUserRole,
			Parts: []*genai.Part{{Text: userMessage}},
		},
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: request.SystemPrompt}},
		},
	}
	if request.OutputSchema != nil {
		config.ResponseMIMEType = mimeTypeJSON
		config.ResponseSchema = generationSchemaForGemini()
	}

	span := transaction.StartChild("gemini.api_call")
	apiStartTime := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, request.Model, contents, config)
	span.Finish()

	if err != nil {
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", time.Since(apiStartTime), err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	log.Printf("⏱️  GEMINI API CALL COMPLETED in %v", time.Since(apiStartTime))

	if len(result.Candidates) == 0 {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("%w: no candidates in Gemini response", ErrMalformedOutput)
	}
	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("%w: no parts in Gemini response", ErrMalformedOutput)
	}

	textOutput := candidate.Content.Parts[0].Text
	output, err := DecodeOutput(textOutput)
	if err != nil {
		log.Printf("❌ Failed to decode output: %v", err)
		log.Printf("Raw output (first %d chars): %s", maxOutputTrunc, truncate(textOutput, maxOutputTrunc))
		transaction.SetTag("success", "false")
		return nil, err
	}

	var usage TokenUsage
	if result.UsageMetadata != nil {
		usage = TokenUsage{
			InputTokens:  int(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(result.UsageMetadata.TotalTokenCount),
		}
		log.Printf("📊 GEMINI USAGE: input=%d, output=%d, total=%d",
			usage.InputTokens, usage.OutputTokens, usage.TotalTokens)
	}

	log.Printf("✅ GEMINI GENERATION STEP COMPLETED in %v", time.Since(startTime))
	transaction.SetTag("success", "true")

	return &GenerationResponse{
		Output:    output,
		RawOutput: textOutput,
		Usage:     usage,
	}, nil
}

// generationSchemaForGemini mirrors GetGenerationOutputSchema in Gemini's
// native schema type. Pattern arrays stay loose (parallel-length checks
// happen in DecodeOutput; Gemini's schema language can't express them).
func generationSchemaForGemini() *genai.Schema {
	number01 := &genai.Schema{Type: genai.TypeNumber}
	stringArray := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	numberArray := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeNumber}}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"params": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"tempo": {Type: genai.TypeNumber},
					"key": {
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"root":  {Type: genai.TypeString},
							"minor": {Type: genai.TypeBoolean},
						},
						Required: []string{"root", "minor"},
					},
					"scale": stringArray,
					"timeSignature": {
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"beats": {Type: genai.TypeInteger},
							"unit":  {Type: genai.TypeInteger},
						},
						Required: []string{"beats", "unit"},
					},
					"effects": {
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"reverb": {
								Type: genai.TypeObject,
								Properties: map[string]*genai.Schema{
									"roomSize": number01, "dampening": number01, "wet": number01,
								},
								Required: []string{"roomSize", "dampening", "wet"},
							},
							"delay": {
								Type: genai.TypeObject,
								Properties: map[string]*genai.Schema{
									"time": {Type: genai.TypeString}, "feedback": number01, "wet": number01,
								},
								Required: []string{"time", "feedback", "wet"},
							},
							"filter": {
								Type: genai.TypeObject,
								Properties: map[string]*genai.Schema{
									"cutoff": {Type: genai.TypeNumber}, "type": {Type: genai.TypeString}, "rolloff": {Type: genai.TypeInteger},
								},
								Required: []string{"cutoff", "type", "rolloff"},
							},
						},
						Required: []string{"reverb", "delay", "filter"},
					},
					"synths": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"role":       {Type: genai.TypeString},
								"oscillator": {Type: genai.TypeString},
								"envelope": {
									Type: genai.TypeObject,
									Properties: map[string]*genai.Schema{
										"attack": {Type: genai.TypeNumber}, "decay": {Type: genai.TypeNumber},
										"sustain": number01, "release": {Type: genai.TypeNumber},
									},
									Required: []string{"attack", "decay", "sustain", "release"},
								},
								"volume": {Type: genai.TypeNumber},
							},
							Required: []string{"role", "oscillator", "envelope", "volume"},
						},
					},
					"patterns": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"name":       {Type: genai.TypeString},
								"notes":      stringArray,
								"durations":  stringArray,
								"velocities": numberArray,
								"offsets":    numberArray,
							},
							Required: []string{"name", "notes", "durations", "velocities", "offsets"},
						},
					},
				},
				Required: []string{"tempo", "key", "scale", "timeSignature", "effects", "synths", "patterns"},
			},
			"reasoning": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"analysis": {Type: genai.TypeString}, "intention": {Type: genai.TypeString},
					"strategy": {Type: genai.TypeString}, "reflection": {Type: genai.TypeString},
				},
				Required: []string{"analysis", "intention", "strategy", "reflection"},
			},
			"fitness": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"emotionalResonance": number01, "coherence": number01, "interest": number01,
					"surprise": number01, "technicalQuality": number01,
				},
				Required: []string{"emotionalResonance", "coherence", "interest", "surprise", "technicalQuality"},
			},
			"mutations": stringArray,
		},
		Required: []string{"params", "reasoning", "fitness"},
	}
}
