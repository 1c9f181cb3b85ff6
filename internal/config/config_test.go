package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/app")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, []string{"gemini", "anthropic"}, cfg.LLM.Providers)
	assert.Equal(t, 2, cfg.LLM.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.LLM.PerAttemptTimeout)
	assert.Equal(t, 3*time.Second, cfg.LLM.RetryBackoff)
	assert.Equal(t, "v1", cfg.Prompt.TemplateVersion)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadProviderList(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_PROVIDERS", " openai , gemini ,, anthropic ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"openai", "gemini", "anthropic"}, cfg.LLM.Providers)
	assert.Equal(t, 3, cfg.LLM.MaxAttempts)
}

func TestLoadInvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_ATTEMPT_TIMEOUT", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidateEmptyProviders(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_PROVIDERS", " , ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestLockLease(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_ATTEMPT_TIMEOUT", "30s")
	t.Setenv("LLM_MAX_ATTEMPTS", "2")
	t.Setenv("LOCK_LEASE_MARGIN", "15s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 75*time.Second, cfg.LockLease())
}
