package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/linkarchive/internal/fetcher"
	"github.com/IshaanNene/linkarchive/internal/thumbnail"
	"github.com/IshaanNene/linkarchive/internal/types"
)

// WebContent is what the web strategy produces for one URL.
type WebContent struct {
	Title        string
	Markdown     string
	ThumbnailURL string
	Description  string
}

// WebExtractor renders a page and reduces it to Markdown plus metadata.
type WebExtractor struct {
	renderer  fetcher.Renderer
	converter *MarkdownConverter
	logger    *slog.Logger
}

// NewWebExtractor creates a web extractor on top of renderer.
func NewWebExtractor(renderer fetcher.Renderer, converter *MarkdownConverter, logger *slog.Logger) *WebExtractor {
	if converter == nil {
		converter = NewMarkdownConverter(true)
	}
	return &WebExtractor{
		renderer:  renderer,
		converter: converter,
		logger:    logger.With("component", "web_extractor"),
	}
}

// Scrape renders url once and extracts title, Markdown, thumbnail and description.
// Render failures and empty content return an *types.ExtractionError.
func (e *WebExtractor) Scrape(ctx context.Context, url string) (*WebContent, error) {
	page, err := e.renderer.Render(ctx, url)
	if err != nil {
		return nil, asExtractionError(url, err)
	}
	if page == nil || page.IsEmpty() {
		return nil, &types.ExtractionError{URL: url, Err: types.ErrEmptyContent}
	}

	base := page.BaseURL()
	meta := ReadMeta(page)

	markdown, err := e.converter.Convert(page.HTML, base)
	if err != nil {
		return nil, &types.ExtractionError{URL: url, Err: fmt.Errorf("convert to markdown: %w", err)}
	}
	if strings.TrimSpace(markdown) == "" {
		return nil, &types.ExtractionError{URL: url, Err: types.ErrEmptyContent}
	}

	title := meta.Title
	if title == "" {
		title = hostTitle(url)
	}
	if title == "" {
		title = "Untitled"
	}

	content := &WebContent{
		Title:        title,
		Markdown:     markdown,
		ThumbnailURL: e.pickThumbnail(page, meta, title),
		Description:  meta.Description,
	}

	e.logger.Debug("page extracted",
		"url", url,
		"title", title,
		"markdown_len", len(markdown),
		"renderer", page.Renderer,
	)
	return content, nil
}

// pickThumbnail applies the og:image → twitter:image → <img> heuristic →
// placeholder fallback chain.
func (e *WebExtractor) pickThumbnail(page *types.Page, meta Meta, title string) string {
	if img := meta.Image(); img != "" {
		return img
	}

	baseURL := page.FinalURL
	if base := page.BaseURL(); base != nil {
		baseURL = base.String()
	}
	if img, ok := thumbnail.Select(page.HTML, baseURL); ok {
		return img
	}

	e.logger.Debug("no usable image, using placeholder", "url", page.URL)
	return thumbnail.Placeholder(title, thumbnail.DefaultWidth, thumbnail.DefaultHeight)
}

func asExtractionError(url string, err error) error {
	var extErr *types.ExtractionError
	if errors.As(err, &extErr) {
		return err
	}
	return &types.ExtractionError{URL: url, Err: err}
}
