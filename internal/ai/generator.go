// Package ai classifies article titles with a text-generation model.
package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// Provider names accepted in ai.provider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// GenerateOptions are the sampling settings for a single completion.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
}

// Generator produces one free-text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Name() string
}

// NewGenerator returns the Generator selected by cfg.Provider.
func NewGenerator(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (Generator, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIGenerator(cfg), nil
	case ProviderGemini:
		return NewGeminiGenerator(ctx, cfg)
	case ProviderOllama:
		return NewOllamaGenerator(cfg, logger), nil
	default:
		return nil, fmt.Errorf("ai provider %q: %w", cfg.Provider, types.ErrUnknownBackend)
	}
}
