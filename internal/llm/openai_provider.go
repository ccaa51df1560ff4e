package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const (
	providerNameOpenAI = "openai"
	maxOutputTrunc     = 200
)

// OpenAIProvider implements the Provider interface using OpenAI's
// Responses API with JSON-schema structured output
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{client: &client}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate implements one generation step via the Responses API
func (p *OpenAIProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🎵 OPENAI GENERATION STEP STARTED (model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()
	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)
	transaction.SetTag("iteration", fmt.Sprintf("%t", request.Parent != nil))

	params, err := p.buildRequestParams(request)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	span := transaction.StartChild("openai.api_call")
	apiStartTime := time.Now()
	resp, err := p.client.Responses.New(ctx, params)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", time.Since(apiStartTime), err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", time.Since(apiStartTime))

	textOutput := resp.OutputText()
	output, err := DecodeOutput(textOutput)
	if err != nil {
		log.Printf("❌ Failed to decode output: %v", err)
		log.Printf("Raw output (first %d chars): %s", maxOutputTrunc, truncate(textOutput, maxOutputTrunc))
		transaction.SetTag("success", "false")
		return nil, err
	}

	log.Printf("✅ OPENAI GENERATION STEP COMPLETED in %v (patterns: %d, synths: %d)",
		time.Since(startTime), len(output.Params.Patterns), len(output.Params.Synths))
	p.logUsageStats(resp.Usage)
	transaction.SetTag("success", "true")

	return &GenerationResponse{
		Output:    output,
		RawOutput: textOutput,
		Usage: TokenUsage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
	}, nil
}

// buildRequestParams converts the request to OpenAI ResponseNewParams
func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) (responses.ResponseNewParams, error) {
	userMessage, err := buildUserMessage(request)
	if err != nil {
		return responses.ResponseNewParams{}, err
	}

	inputItems := responses.ResponseInputParam{
		responses.ResponseInputItemParamOfMessage(userMessage, responses.EasyInputMessageRoleUser),
	}

	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
		Instructions: openai.String(request.SystemPrompt),
	}

	if request.OutputSchema != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema(
				request.OutputSchema.Name,
				request.OutputSchema.Schema,
			),
		}
		log.Printf("📋 JSON SCHEMA CONFIGURED: %s", request.OutputSchema.Name)
	}

	return params, nil
}

func (p *OpenAIProvider) logUsageStats(usage responses.ResponseUsage) {
	log.Printf("📊 Token usage - Total: %d, Input: %d, Output: %d",
		usage.TotalTokens, usage.InputTokens, usage.OutputTokens)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
