package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/IshaanNene/linkarchive/internal/config"
)

// OllamaGenerator talks to a locally hosted Ollama server.
type OllamaGenerator struct {
	cfg    *config.AIConfig
	client *http.Client
	logger *slog.Logger
}

// NewOllamaGenerator creates a generator for the /api/generate endpoint.
func NewOllamaGenerator(cfg *config.AIConfig, logger *slog.Logger) *OllamaGenerator {
	return &OllamaGenerator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "ollama"),
	}
}

// Generate sends prompt as a single non-streaming generate request.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  g.cfg.Model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": g.cfg.Temperature,
			"num_predict": g.cfg.MaxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	endpoint := strings.TrimRight(g.cfg.Endpoint, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError("ollama", resp)
	}

	var result struct {
		Response *string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if result.Response == nil {
		return "", errors.New("ollama response missing 'response' field")
	}

	g.logger.Debug("generate complete", "model", g.cfg.Model, "chars", len(*result.Response))
	return strings.TrimSpace(*result.Response), nil
}
