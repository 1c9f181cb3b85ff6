package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/mkorthuis/northern-backend/internal/config"
)

type GeminiProvider struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

func NewGeminiProvider(cfg config.LLMConfig) (*GeminiProvider, error) {
	if cfg.GeminiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{
		client:      client,
		model:       cfg.GeminiModel,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: float32(cfg.Temperature),
	}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Complete(ctx context.Context, systemPrompt, messagePrompt string) (string, error) {
	start := time.Now()

	genCfg := &genai.GenerateContentConfig{
		MaxOutputTokens: p.maxTokens,
	}
	if systemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if p.temperature > 0 {
		genCfg.Temperature = genai.Ptr(p.temperature)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(messagePrompt), genCfg)
	if err != nil {
		var apierr genai.APIError
		code := 0
		if errors.As(err, &apierr) {
			code = apierr.Code
		}
		return "", classify(p.Name(), code, err)
	}

	text := resp.Text()

	if resp.UsageMetadata != nil {
		inputTokens := int(resp.UsageMetadata.PromptTokenCount)
		outputTokens := int(resp.UsageMetadata.CandidatesTokenCount)
		slog.Debug("gemini completion",
			"model", p.model,
			"input_tokens", inputTokens,
			"output_tokens", outputTokens,
			"cost_usd", CalculateCost(p.model, inputTokens, outputTokens),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}

	return validateText(p.Name(), text)
}
