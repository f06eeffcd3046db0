package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/IshaanNene/linkarchive/internal/config"
)

// AnthropicGenerator uses the hosted Messages API through the official SDK.
type AnthropicGenerator struct {
	cfg    *config.AIConfig
	client anthropic.Client
	logger *slog.Logger
}

// NewAnthropicGenerator creates a Messages API generator. SDK retries are
// disabled; a failed call surfaces immediately.
func NewAnthropicGenerator(cfg *config.AIConfig, logger *slog.Logger) *AnthropicGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.Endpoint != "" && cfg.Endpoint != config.DefaultConfig().AI.Endpoint {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}

	return &AnthropicGenerator{
		cfg:    cfg,
		client: anthropic.NewClient(opts...),
		logger: logger.With("component", "anthropic"),
	}
}

// Generate sends prompt as a single user turn and joins the text blocks of the reply.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.cfg.Model),
		MaxTokens:   int64(g.cfg.MaxTokens),
		Temperature: anthropic.Float(g.cfg.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("anthropic response contained no text")
	}

	g.logger.Debug("generate complete",
		"model", g.cfg.Model,
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
	)
	return strings.TrimSpace(sb.String()), nil
}
