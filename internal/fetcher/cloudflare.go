package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/IshaanNene/linkarchive/internal/config"
	"github.com/IshaanNene/linkarchive/internal/types"
)

const cloudflareAPIBase = "https://api.cloudflare.com/client/v4/accounts"

// CloudflareRenderer renders pages through the Cloudflare Browser Rendering REST API.
type CloudflareRenderer struct {
	client   *http.Client
	endpoint string
	token    string
	logger   *slog.Logger
}

type cloudflareRequest struct {
	URL         string `json:"url"`
	GotoOptions struct {
		WaitUntil string `json:"waitUntil"`
	} `json:"gotoOptions"`
	UserAgent string `json:"userAgent,omitempty"`
}

type cloudflareResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	HTML    string          `json:"html"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// NewCloudflareRenderer creates a renderer for the hosted rendering API.
// The endpoint defaults to the account's /browser-rendering/content route.
func NewCloudflareRenderer(cfg *config.RendererConfig, logger *slog.Logger) (*CloudflareRenderer, error) {
	cf := cfg.Cloudflare
	if cf.APIToken == "" {
		return nil, errors.New("cloudflare renderer requires an API token")
	}
	endpoint := cf.Endpoint
	if endpoint == "" {
		if cf.AccountID == "" {
			return nil, errors.New("cloudflare renderer requires an account id or endpoint")
		}
		endpoint = fmt.Sprintf("%s/%s/browser-rendering/content", cloudflareAPIBase, cf.AccountID)
	}

	return &CloudflareRenderer{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: endpoint,
		token:    cf.APIToken,
		logger:   logger.With("component", "cloudflare_renderer"),
	}, nil
}

// Render asks the API to load url and returns the rendered HTML.
func (r *CloudflareRenderer) Render(ctx context.Context, url string) (*types.Page, error) {
	var payload cloudflareRequest
	payload.URL = url
	payload.GotoOptions.WaitUntil = "networkidle0"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &types.ExtractionError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &types.ExtractionError{URL: url, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &types.ExtractionError{URL: url, Err: fmt.Errorf("browser rendering request: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.ExtractionError{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &types.ExtractionError{
			URL: url,
			Err: fmt.Errorf("browser rendering API error: %d %s", resp.StatusCode, excerpt(raw)),
		}
	}

	html, err := decodeCloudflareHTML(raw)
	if err != nil {
		return nil, &types.ExtractionError{URL: url, Err: err}
	}
	duration := time.Since(start)

	r.logger.Debug("render complete", "url", url, "size", len(html), "duration", duration)

	return types.NewPage(url, url, html, r.Type(), duration), nil
}

// decodeCloudflareHTML accepts both a string result and a {"html": ...} object.
func decodeCloudflareHTML(raw []byte) (string, error) {
	var resp cloudflareResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode browser rendering response: %w", err)
	}
	if len(resp.Errors) > 0 && !resp.Success {
		return "", fmt.Errorf("browser rendering API error %d: %s", resp.Errors[0].Code, resp.Errors[0].Message)
	}

	if len(resp.Result) > 0 {
		var s string
		if err := json.Unmarshal(resp.Result, &s); err == nil {
			return s, nil
		}
		var obj struct {
			HTML string `json:"html"`
		}
		if err := json.Unmarshal(resp.Result, &obj); err == nil && obj.HTML != "" {
			return obj.HTML, nil
		}
	}
	return resp.HTML, nil
}

// Close releases resources.
func (r *CloudflareRenderer) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// Type returns the renderer type identifier.
func (r *CloudflareRenderer) Type() string {
	return "cloudflare"
}

func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}
