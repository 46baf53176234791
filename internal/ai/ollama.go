package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

const defaultOllamaEndpoint = "http://localhost:11434"

// OllamaGenerator calls a local Ollama server.
type OllamaGenerator struct {
	endpoint string
	model    string
	client   *http.Client
	logger   *slog.Logger
}

// NewOllamaGenerator creates an OllamaGenerator.
func NewOllamaGenerator(cfg config.AIConfig, logger *slog.Logger) *OllamaGenerator {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultOllamaEndpoint
	}
	return &OllamaGenerator{
		endpoint: endpoint,
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger.With("component", "ollama"),
	}
}

func (g *OllamaGenerator) Name() string { return ProviderOllama }

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	payload := map[string]any{
		"model":  g.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", &types.AnalysisError{Provider: ProviderOllama, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &types.AnalysisError{Provider: ProviderOllama, Err: fmt.Errorf("ollama request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &types.AnalysisError{
			Provider: ProviderOllama,
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &types.AnalysisError{Provider: ProviderOllama, Err: fmt.Errorf("decode ollama response: %w", err)}
	}
	g.logger.Debug("ollama completion", "model", g.model, "chars", len(result.Response))
	return result.Response, nil
}
