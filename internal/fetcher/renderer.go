package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/linkarchive/internal/config"
	"github.com/IshaanNene/linkarchive/internal/types"
)

// Renderer turns a URL into rendered HTML. One call per URL, no retries.
type Renderer interface {
	// Render retrieves the rendered document at url.
	Render(ctx context.Context, url string) (*types.Page, error)

	// Close releases any resources held by the renderer.
	Close() error

	// Type returns the renderer type identifier.
	Type() string
}

// New builds the renderer selected by cfg.Renderer.Type.
func New(cfg *config.Config, logger *slog.Logger) (Renderer, error) {
	switch cfg.Renderer.Type {
	case "browser":
		return NewBrowserRenderer(&cfg.Renderer, logger)
	case "http":
		return NewHTTPRenderer(&cfg.Renderer, logger)
	case "cloudflare":
		return NewCloudflareRenderer(&cfg.Renderer, logger)
	default:
		return nil, fmt.Errorf("unknown renderer type %q", cfg.Renderer.Type)
	}
}
