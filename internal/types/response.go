package types

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Page is the rendered HTML of a source URL as returned by a renderer.
type Page struct {
	// URL is the URL that was requested.
	URL string

	// FinalURL is the URL after any redirects.
	FinalURL string

	// StatusCode is the HTTP status, when the renderer exposes one.
	StatusCode int

	// HTML is the rendered document.
	HTML string

	// Renderer names the backend that produced the page.
	Renderer string

	// RenderDuration is how long the render took.
	RenderDuration time.Duration

	// RenderedAt is when the page was received.
	RenderedAt time.Time

	doc *goquery.Document
}

// NewPage creates a Page from renderer output.
func NewPage(requestURL, finalURL, html, renderer string, duration time.Duration) *Page {
	if finalURL == "" {
		finalURL = requestURL
	}
	return &Page{
		URL:            requestURL,
		FinalURL:       finalURL,
		StatusCode:     200,
		HTML:           html,
		Renderer:       renderer,
		RenderDuration: duration,
		RenderedAt:     time.Now(),
	}
}

// Document returns a parsed goquery document, lazily initializing it.
func (p *Page) Document() (*goquery.Document, error) {
	if p.doc != nil {
		return p.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(p.HTML)))
	if err != nil {
		return nil, err
	}
	p.doc = doc
	return doc, nil
}

// BaseURL returns the URL relative references should be resolved against.
func (p *Page) BaseURL() *url.URL {
	for _, raw := range []string{p.FinalURL, p.URL} {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			return u
		}
	}
	return nil
}

// IsEmpty returns true if the page carries no markup.
func (p *Page) IsEmpty() bool {
	return strings.TrimSpace(p.HTML) == ""
}
