package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// GeminiGenerator uses the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a GeminiGenerator. ai.endpoint, when set,
// replaces the default API base URL.
func NewGeminiGenerator(ctx context.Context, cfg config.AIConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: cfg.Model}, nil
}

func (g *GeminiGenerator) Name() string { return ProviderGemini }

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(opts.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), gc)
	if err != nil {
		return "", &types.AnalysisError{Provider: ProviderGemini, Err: err}
	}
	text := resp.Text()
	if text == "" {
		return "", &types.AnalysisError{Provider: ProviderGemini, Err: types.ErrEmptyResponse}
	}
	return text, nil
}
