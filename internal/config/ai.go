package config

import (
	"fmt"
	"time"
)

// Provider selects the completion backend
type Provider string

const (
	ProviderOpenAI Provider = "openai" // any OpenAI-compatible /chat/completions endpoint (OpenAI, Ollama, vLLM)
	ProviderGemini Provider = "gemini"
)

// CompletionConfig holds the settings of the text-completion service
type CompletionConfig struct {
	Provider    Provider      `json:"provider"`
	APIKey      string        `json:"-"` // Never serialize
	BaseURL     string        `json:"baseUrl"`
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"maxTokens"`
	Timeout     time.Duration `json:"timeout"`
}

// DefaultCompletionConfig returns defaults without reading the environment
func DefaultCompletionConfig() *CompletionConfig {
	return &CompletionConfig{
		Provider:    ProviderOpenAI,
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   50,
		Timeout:     7 * time.Second,
	}
}

// LoadCompletionConfig applies COMPLETION_* variables over the defaults
func LoadCompletionConfig() (*CompletionConfig, error) {
	cfg := DefaultCompletionConfig()
	cfg.Provider = Provider(getEnvOrDefault("COMPLETION_PROVIDER", string(cfg.Provider)))
	cfg.APIKey = getEnvOrDefault("COMPLETION_API_KEY", "")
	cfg.BaseURL = getEnvOrDefault("COMPLETION_BASE_URL", "")
	if cfg.Provider == ProviderGemini {
		cfg.Model = "gemini-2.0-flash"
	}
	cfg.Model = getEnvOrDefault("COMPLETION_MODEL", cfg.Model)

	var err error
	if cfg.Temperature, err = getEnvFloat("COMPLETION_TEMPERATURE", cfg.Temperature); err != nil {
		return nil, err
	}
	if cfg.MaxTokens, err = getEnvInt("COMPLETION_MAX_TOKENS", cfg.MaxTokens); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = getEnvDuration("COMPLETION_TIMEOUT", cfg.Timeout); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsEnabled returns true if the completion service is configured
func (c *CompletionConfig) IsEnabled() bool {
	switch c.Provider {
	case ProviderGemini:
		return c.APIKey != ""
	case ProviderOpenAI:
		// local OpenAI-compatible servers usually run without a key
		return c.BaseURL != "" || c.APIKey != ""
	}
	return false
}

// Validate rejects unknown providers and non-positive limits
func (c *CompletionConfig) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("config: unknown COMPLETION_PROVIDER %q", c.Provider)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: COMPLETION_TIMEOUT must be positive")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("config: COMPLETION_MAX_TOKENS must be positive")
	}
	return nil
}

// ChatURL returns the chat completions endpoint for OpenAI-compatible providers
func (c *CompletionConfig) ChatURL() string {
	base := c.BaseURL
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + "/chat/completions"
}
