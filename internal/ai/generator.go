package ai

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/IshaanNene/linkarchive/internal/config"
)

// TextGenerator is the single capability the summarizer needs from a model backend.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider identifies a text generation backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// NewGenerator builds the TextGenerator selected by cfg.Provider.
func NewGenerator(cfg *config.AIConfig, logger *slog.Logger) (TextGenerator, error) {
	switch Provider(cfg.Provider) {
	case ProviderOllama:
		return NewOllamaGenerator(cfg, logger), nil
	case ProviderOpenAI:
		return NewOpenAIGenerator(cfg, logger), nil
	case ProviderAnthropic:
		return NewAnthropicGenerator(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// statusError reads a short excerpt of a failed response body.
func statusError(backend string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s API error: %d %s", backend, resp.StatusCode, strings.TrimSpace(string(body)))
}
