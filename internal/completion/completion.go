// Package completion talks to the text-completion service used to rank
// candidate questions.
package completion

import (
	"context"
	"errors"
	"fmt"

	"adaptivequiz/internal/config"

	"go.uber.org/zap"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged chat message
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Options are per-call sampling parameters
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Client returns the text of a single completion
type Client interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

var (
	ErrNotConfigured    = errors.New("completion service not configured")
	ErrEmptyChoices     = errors.New("no completion returned")
	ErrResponseTooLarge = errors.New("completion response too large")
)

// New builds the client for cfg. An unconfigured provider yields Disabled so
// callers always fall back without a network round trip.
func New(ctx context.Context, cfg *config.CompletionConfig, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.IsEnabled() {
		logger.Info("completion service disabled; selections use the diversity fallback",
			zap.String("provider", string(cfg.Provider)))
		return Disabled{}, nil
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, logger), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	}
	return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
}

// Disabled is the client used when no provider is configured
type Disabled struct{}

func (Disabled) Complete(context.Context, []Message, Options) (string, error) {
	return "", ErrNotConfigured
}

// Func adapts a function to Client
type Func func(ctx context.Context, messages []Message, opts Options) (string, error)

func (f Func) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	return f(ctx, messages, opts)
}
