package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/linkarchive/internal/config"
	"github.com/IshaanNene/linkarchive/internal/types"
)

// BrowserRenderer implements Renderer using a headless Chromium via Rod.
// Pages are rendered one at a time; the orchestrator is sequential.
type BrowserRenderer struct {
	browser *rod.Browser
	cfg     *config.RendererConfig
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewBrowserRenderer launches a headless browser and connects to it.
func NewBrowserRenderer(cfg *config.RendererConfig, logger *slog.Logger) (*BrowserRenderer, error) {
	br := &BrowserRenderer{
		cfg:    cfg,
		logger: logger.With("component", "browser_renderer"),
	}

	launchURL, err := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", "1366,768").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	br.browser = browser

	br.logger.Info("browser renderer ready", "stealth", cfg.Stealth)
	return br, nil
}

// Render navigates to url, waits for the DOM to settle and returns its HTML.
func (br *BrowserRenderer) Render(ctx context.Context, url string) (*types.Page, error) {
	br.mu.Lock()
	defer br.mu.Unlock()

	start := time.Now()

	tab, err := br.newPage()
	if err != nil {
		return nil, &types.ExtractionError{URL: url, Err: err}
	}
	// Close through the unscoped tab so a canceled ctx cannot leak it.
	defer func() { _ = tab.Close() }()

	page := tab.Context(ctx)

	if br.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: br.cfg.UserAgent}); err != nil {
			br.logger.Warn("failed to set user agent", "error", err)
		}
	}

	if err := page.Timeout(br.cfg.Timeout).Navigate(url); err != nil {
		return nil, &types.ExtractionError{URL: url, Err: err}
	}

	if err := page.Timeout(br.cfg.Timeout).WaitStable(br.cfg.WaitStable); err != nil {
		br.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.ExtractionError{URL: url, Err: err}
	}

	finalURL := url
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	br.logger.Debug("render complete",
		"url", url,
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return types.NewPage(url, finalURL, html, br.Type(), duration), nil
}

func (br *BrowserRenderer) newPage() (*rod.Page, error) {
	if br.cfg.Stealth {
		page, err := stealth.Page(br.browser)
		if err != nil {
			return nil, fmt.Errorf("stealth page: %w", err)
		}
		return page, nil
	}
	return br.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
}

// Close shuts down the browser.
func (br *BrowserRenderer) Close() error {
	if br.browser != nil {
		return br.browser.Close()
	}
	return nil
}

// Type returns the renderer type identifier.
func (br *BrowserRenderer) Type() string {
	return "browser"
}
