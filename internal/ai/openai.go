package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/IshaanNene/linkarchive/internal/config"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1"

// OpenAIGenerator uses an OpenAI-compatible chat completions API.
type OpenAIGenerator struct {
	cfg      *config.AIConfig
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewOpenAIGenerator creates a chat completions generator. A configured
// endpoint pointing at the local Ollama default is ignored.
func NewOpenAIGenerator(cfg *config.AIConfig, logger *slog.Logger) *OpenAIGenerator {
	endpoint := cfg.Endpoint
	if endpoint == "" || endpoint == config.DefaultConfig().AI.Endpoint {
		endpoint = defaultOpenAIEndpoint
	}
	return &OpenAIGenerator{
		cfg:      cfg,
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger.With("component", "openai"),
	}
}

// Generate sends prompt as a single user message.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": g.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  g.cfg.MaxTokens,
		"temperature": g.cfg.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError("openai", resp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}

	g.logger.Debug("generate complete", "model", g.cfg.Model)
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
