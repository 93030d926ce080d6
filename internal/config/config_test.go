package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COMPLETION_PROVIDER", "")
	t.Setenv("ENGINE_DEADLINE", "")
	t.Setenv("COMPLETION_TIMEOUT", "")
	t.Setenv("SELECTION_CACHE_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Selection.Deadline)
	assert.Equal(t, time.Hour, cfg.Selection.CacheTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Selection.CacheTimeout)
	assert.Equal(t, 5, cfg.Selection.BypassThreshold)
	assert.Equal(t, 3, cfg.Selection.MaxQuestions)
	assert.Less(t, cfg.Completion.Timeout, cfg.Selection.Deadline)
}

func TestLoadRejectsCompletionTimeoutAtDeadline(t *testing.T) {
	t.Setenv("ENGINE_DEADLINE", "5s")
	t.Setenv("COMPLETION_TIMEOUT", "5s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMPLETION_TIMEOUT")
}

func TestLoadRejectsCacheTimeoutAtDeadline(t *testing.T) {
	t.Setenv("ENGINE_DEADLINE", "2s")
	t.Setenv("COMPLETION_TIMEOUT", "1s")
	t.Setenv("SELECTION_CACHE_TIMEOUT", "2s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SELECTION_CACHE_TIMEOUT")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SELECTION_CACHE_TTL", "an hour")

	_, err := Load()
	require.Error(t, err)
}

func TestCompletionConfigIsEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  CompletionConfig
		want bool
	}{
		{"openai without url or key", CompletionConfig{Provider: ProviderOpenAI}, false},
		{"openai local server", CompletionConfig{Provider: ProviderOpenAI, BaseURL: "http://localhost:11434/v1"}, true},
		{"gemini without key", CompletionConfig{Provider: ProviderGemini, BaseURL: "x"}, false},
		{"gemini with key", CompletionConfig{Provider: ProviderGemini, APIKey: "k"}, true},
		{"unknown", CompletionConfig{Provider: "claude"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.IsEnabled())
		})
	}
}

func TestChatURL(t *testing.T) {
	cfg := CompletionConfig{BaseURL: "http://localhost:11434/v1/"}
	assert.Equal(t, "http://localhost:11434/v1/chat/completions", cfg.ChatURL())

	cfg.BaseURL = ""
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", cfg.ChatURL())
}
