package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mkorthuis/northern-backend/internal/config"
)

type OpenAIProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
}

func NewOpenAIProvider(cfg config.LLMConfig) *OpenAIProvider {
	return &OpenAIProvider{
		client:      openai.NewClient(cfg.OpenAIKey),
		model:       cfg.OpenAIModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, messagePrompt string) (string, error) {
	start := time.Now()

	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: messagePrompt},
		},
	}
	if p.temperature > 0 {
		req.Temperature = float32(p.temperature)
	}
	if p.maxTokens > 0 {
		req.MaxTokens = p.maxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apierr *openai.APIError
		code := 0
		if errors.As(err, &apierr) {
			code = apierr.HTTPStatusCode
		}
		return "", classify(p.Name(), code, err)
	}

	text := ""
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	slog.Debug("openai completion",
		"model", p.model,
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
		"cost_usd", CalculateCost(p.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return validateText(p.Name(), text)
}
