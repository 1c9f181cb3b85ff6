package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	// ErrProviderTimeout means the attempt exceeded its per-attempt deadline.
	ErrProviderTimeout = errors.New("llm: provider timeout")
	// ErrProviderRateLimited means the backend rejected the call with a
	// rate-limit response.
	ErrProviderRateLimited = errors.New("llm: provider rate limited")
)

// ProviderError is any other provider-attributable failure, including
// truncated or empty completions. Code is the backend's status code when one
// was returned, 0 otherwise.
type ProviderError struct {
	Provider string
	Code     int
	Message  string
}

func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("llm: %s error (code %d): %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("llm: %s error: %s", e.Provider, e.Message)
}

// classify maps an SDK error onto the provider error taxonomy.
func classify(provider string, statusCode int, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrProviderTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return ErrProviderTimeout
	case statusCode == http.StatusTooManyRequests:
		return ErrProviderRateLimited
	default:
		return &ProviderError{Provider: provider, Code: statusCode, Message: err.Error()}
	}
}

// validateText rejects empty completions so a silently truncated response is
// never handed to the caller as a result.
func validateText(provider, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &ProviderError{Provider: provider, Message: "empty completion"}
	}
	return text, nil
}
