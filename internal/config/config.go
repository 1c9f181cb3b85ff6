package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LLM      LLMConfig
	Prompt   PromptConfig
	Lock     LockConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

// LLMConfig carries the ordered provider chain for program generation.
// Providers are tried in listed order, each at most once per run.
type LLMConfig struct {
	Providers         []string
	PerAttemptTimeout time.Duration
	MaxAttempts       int
	RetryBackoff      time.Duration

	GeminiKey      string
	GeminiModel    string
	AnthropicKey   string
	AnthropicModel string
	OpenAIKey      string
	OpenAIModel    string

	Temperature float64
	MaxTokens   int
}

type PromptConfig struct {
	TemplateVersion string
}

type LockConfig struct {
	LeaseMargin time.Duration
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	attemptTimeout, err := getEnvDuration("LLM_ATTEMPT_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_ATTEMPT_TIMEOUT: %w", err)
	}

	retryBackoff, err := getEnvDuration("LLM_RETRY_BACKOFF", 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_RETRY_BACKOFF: %w", err)
	}

	leaseMargin, err := getEnvDuration("LOCK_LEASE_MARGIN", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_LEASE_MARGIN: %w", err)
	}

	maxTokens, err := getEnvInt("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_TOKENS: %w", err)
	}

	temperature, err := getEnvFloat("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TEMPERATURE: %w", err)
	}

	providers := splitList(getEnv("LLM_PROVIDERS", "gemini,anthropic"))

	maxAttempts, err := getEnvInt("LLM_MAX_ATTEMPTS", len(providers))
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_ATTEMPTS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		LLM: LLMConfig{
			Providers:         providers,
			PerAttemptTimeout: attemptTimeout,
			MaxAttempts:       maxAttempts,
			RetryBackoff:      retryBackoff,
			GeminiKey:         getEnv("GEMINI_API_KEY", ""),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
			AnthropicKey:      getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicModel:    getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
			OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o"),
			Temperature:       temperature,
			MaxTokens:         maxTokens,
		},
		Prompt: PromptConfig{
			TemplateVersion: getEnv("PROMPT_TEMPLATE_VERSION", "v1"),
		},
		Lock: LockConfig{
			LeaseMargin: leaseMargin,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if len(c.LLM.Providers) == 0 {
		return fmt.Errorf("LLM_PROVIDERS must list at least one provider")
	}
	if c.LLM.MaxAttempts < 1 {
		return fmt.Errorf("LLM_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// LockLease is the lock lease duration: the worst-case total attempt budget
// plus a safety margin, so a crashed run releases its lock by expiry.
func (c *Config) LockLease() time.Duration {
	return time.Duration(c.LLM.MaxAttempts)*c.LLM.PerAttemptTimeout + c.Lock.LeaseMargin
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
