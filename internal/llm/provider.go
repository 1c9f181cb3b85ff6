// Package llm wraps heterogeneous LLM backends behind a single completion
// capability so the orchestrator's retry and fallback logic stays explicit
// and provider-agnostic.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkorthuis/northern-backend/internal/config"
)

// Completer is the uniform capability over one LLM backend: render a single
// completion from a system prompt and a message prompt. Implementations own
// their authentication and never return partial text; a truncated or empty
// completion surfaces as an error.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, messagePrompt string) (string, error)
	Name() string
}

// NewRegistry builds the ordered provider chain from configuration. Order is
// significant: the orchestrator tries providers in this order, each at most
// once per generation run. Unknown names and providers without credentials
// are configuration errors, not silent skips.
func NewRegistry(cfg config.LLMConfig) ([]Completer, error) {
	var chain []Completer
	for _, name := range cfg.Providers {
		switch strings.ToLower(name) {
		case "gemini":
			p, err := NewGeminiProvider(cfg)
			if err != nil {
				return nil, fmt.Errorf("configure gemini: %w", err)
			}
			chain = append(chain, p)
		case "anthropic":
			if cfg.AnthropicKey == "" {
				return nil, fmt.Errorf("configure anthropic: ANTHROPIC_API_KEY not set")
			}
			chain = append(chain, NewAnthropicProvider(cfg))
		case "openai":
			if cfg.OpenAIKey == "" {
				return nil, fmt.Errorf("configure openai: OPENAI_API_KEY not set")
			}
			chain = append(chain, NewOpenAIProvider(cfg))
		default:
			return nil, fmt.Errorf("unknown LLM provider %q", name)
		}
	}
	if len(chain) == 0 {
		return nil, errors.New("no LLM providers configured")
	}
	return chain, nil
}
