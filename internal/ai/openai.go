package ai

import (
	"context"
	"math"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// OpenAIGenerator talks to the chat-completions API of OpenAI or any
// compatible server configured through ai.endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates an OpenAIGenerator.
func NewOpenAIGenerator(cfg config.AIConfig) *OpenAIGenerator {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		oc.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
	}
}

func (g *OpenAIGenerator) Name() string { return ProviderOpenAI }

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	temp := float32(opts.Temperature)
	if temp == 0 {
		// A zero temperature is dropped from the request body and the
		// server would fall back to its own default.
		temp = math.SmallestNonzeroFloat32
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temp,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", &types.AnalysisError{Provider: ProviderOpenAI, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &types.AnalysisError{Provider: ProviderOpenAI, Err: types.ErrEmptyResponse}
	}
	return resp.Choices[0].Message.Content, nil
}
