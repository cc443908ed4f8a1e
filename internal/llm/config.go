package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds LLM provider configuration.
type Config struct {
	// Provider selects the backend: "gemini", "openai", "openrouter",
	// "anthropic" or "mock".
	Provider string
	Model    string
	APIKey   string
	// BaseURL overrides the endpoint for OpenAI-compatible APIs.
	BaseURL string
	Retry   RetryConfig
	// Timeout bounds a single generation including retries.
	Timeout time.Duration
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

var defaultModels = map[string]string{
	"gemini":     "gemini-flash",
	"openai":     "gpt-4o-mini",
	"openrouter": "google/gemini-2.0-flash-exp",
	"anthropic":  "claude-haiku",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 20 * time.Second,
	}
}

// ApplyEnv overlays TYPEMASTER_LLM_* variables and, when no key is set yet,
// the provider's conventional API key variable.
func (c *Config) ApplyEnv() {
	if p := os.Getenv("TYPEMASTER_LLM_PROVIDER"); p != "" {
		c.Provider = p
	}
	if m := os.Getenv("TYPEMASTER_LLM_MODEL"); m != "" {
		c.Model = m
	}
	if k := os.Getenv("TYPEMASTER_LLM_API_KEY"); k != "" {
		c.APIKey = k
	}
	if u := os.Getenv("TYPEMASTER_LLM_BASE_URL"); u != "" {
		c.BaseURL = u
	}
	if c.APIKey != "" {
		return
	}
	envKeys := map[string]string{
		"gemini":     "GEMINI_API_KEY",
		"openai":     "OPENAI_API_KEY",
		"openrouter": "OPENROUTER_API_KEY",
		"anthropic":  "ANTHROPIC_API_KEY",
	}
	if name, ok := envKeys[c.Provider]; ok {
		c.APIKey = os.Getenv(name)
	}
}

// ModelOrDefault returns the configured model or the provider default.
func (c Config) ModelOrDefault() string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModels[c.Provider]
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "gemini", "openai", "openrouter", "anthropic":
		if c.APIKey == "" {
			return fmt.Errorf("an API key is required for the %s provider (set TYPEMASTER_LLM_API_KEY)", c.Provider)
		}
	case "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry attempts must be > 0")
	}
	return nil
}
