package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		err        error
		want       error
	}{
		{"deadline exceeded", 0, context.DeadlineExceeded, ErrProviderTimeout},
		{"wrapped deadline", 0, fmt.Errorf("call: %w", context.DeadlineExceeded), ErrProviderTimeout},
		{"net timeout", 0, timeoutErr{}, ErrProviderTimeout},
		{"rate limited", http.StatusTooManyRequests, errors.New("too many requests"), ErrProviderRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify("gemini", tt.statusCode, tt.err), tt.want)
		})
	}
}

func TestClassifyProviderError(t *testing.T) {
	err := classify("anthropic", http.StatusInternalServerError, errors.New("overloaded"))

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "anthropic", perr.Provider)
	assert.Equal(t, http.StatusInternalServerError, perr.Code)
	assert.Contains(t, perr.Message, "overloaded")
	assert.NotErrorIs(t, err, ErrProviderTimeout)
	assert.NotErrorIs(t, err, ErrProviderRateLimited)
}

func TestValidateText(t *testing.T) {
	text, err := validateText("gemini", "a program")
	require.NoError(t, err)
	assert.Equal(t, "a program", text)

	for _, empty := range []string{"", "   ", "\n\t"} {
		_, err := validateText("gemini", empty)
		var perr *ProviderError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "gemini", perr.Provider)
	}
}
