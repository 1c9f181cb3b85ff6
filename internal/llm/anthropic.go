package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mkorthuis/northern-backend/internal/config"
)

type AnthropicProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

func NewAnthropicProvider(cfg config.LLMConfig) *AnthropicProvider {
	return &AnthropicProvider{
		client:      anthropic.NewClient(option.WithAPIKey(cfg.AnthropicKey)),
		model:       cfg.AnthropicModel,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Complete(ctx context.Context, systemPrompt, messagePrompt string) (string, error) {
	start := time.Now()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(messagePrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if p.temperature > 0 {
		params.Temperature = anthropic.Float(p.temperature)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apierr *anthropic.Error
		code := 0
		if errors.As(err, &apierr) {
			code = apierr.StatusCode
		}
		return "", classify(p.Name(), code, err)
	}

	text := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	inputTokens := int(resp.Usage.InputTokens)
	outputTokens := int(resp.Usage.OutputTokens)
	slog.Debug("anthropic completion",
		"model", p.model,
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
		"cost_usd", CalculateCost(p.model, inputTokens, outputTokens),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return validateText(p.Name(), text)
}
