package extract

import (
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	readability "github.com/go-shiori/go-readability"
)

// MarkdownConverter turns rendered HTML into Markdown with ATX headings and
// fenced code blocks.
type MarkdownConverter struct {
	readability bool
}

// NewMarkdownConverter creates a converter. With useReadability the main
// article body is isolated before conversion.
func NewMarkdownConverter(useReadability bool) *MarkdownConverter {
	return &MarkdownConverter{readability: useReadability}
}

// Convert returns the Markdown for rawHTML. When readability is enabled but
// finds no text, the whole document is converted instead.
func (c *MarkdownConverter) Convert(rawHTML string, pageURL *url.URL) (string, error) {
	source := rawHTML
	if c.readability {
		if main := mainContent(rawHTML, pageURL); main != "" {
			source = main
		}
	}

	domain := ""
	if pageURL != nil {
		domain = pageURL.Host
	}
	conv := md.NewConverter(domain, true, &md.Options{
		HeadingStyle:   "atx",
		CodeBlockStyle: "fenced",
	})

	out, err := conv.ConvertString(source)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// mainContent runs readability over the document and returns the article HTML,
// or "" when it fails or yields no text.
func mainContent(rawHTML string, pageURL *url.URL) string {
	if pageURL == nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		return ""
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return ""
	}
	return strings.TrimSpace(article.Content)
}
