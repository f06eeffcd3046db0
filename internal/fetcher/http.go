package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/linkarchive/internal/config"
	"github.com/IshaanNene/linkarchive/internal/types"
)

// HTTPRenderer implements Renderer with a plain GET. No JavaScript is executed.
type HTTPRenderer struct {
	client *http.Client
	cfg    *config.RendererConfig
	logger *slog.Logger
}

// NewHTTPRenderer creates a new HTTP renderer.
func NewHTTPRenderer(cfg *config.RendererConfig, logger *slog.Logger) (*HTTPRenderer, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // We handle decompression ourselves (including brotli)
	}

	return &HTTPRenderer{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		cfg:    cfg,
		logger: logger.With("component", "http_renderer"),
	}, nil
}

// Render fetches url and returns the response body as HTML.
func (r *HTTPRenderer) Render(ctx context.Context, url string) (*types.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &types.ExtractionError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &types.ExtractionError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &types.ExtractionError{
			URL: url,
			Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	reader, err := decompressReader(resp, resp.Body)
	if err != nil {
		return nil, &types.ExtractionError{URL: url, Err: err}
	}
	if r.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, r.cfg.MaxBodySize)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.ExtractionError{URL: url, Err: err}
	}
	duration := time.Since(start)

	page := types.NewPage(url, resp.Request.URL.String(), string(body), r.Type(), duration)
	page.StatusCode = resp.StatusCode

	r.logger.Debug("render complete",
		"url", url,
		"final_url", page.FinalURL,
		"status", resp.StatusCode,
		"size", len(body),
		"duration", duration,
	)

	return page, nil
}

// Close releases resources.
func (r *HTTPRenderer) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// Type returns the renderer type identifier.
func (r *HTTPRenderer) Type() string {
	return "http"
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
