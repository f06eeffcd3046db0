package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/linkarchive/internal/thumbnail"
	"github.com/IshaanNene/linkarchive/internal/types"
)

// Meta is the page-level metadata pulled from a rendered document.
type Meta struct {
	Title        string
	Description  string
	OGImage      string
	TwitterImage string
}

// ReadMeta extracts title, description and social card images from the
// page's parsed document. Image references are resolved against the page URL.
func ReadMeta(page *types.Page) Meta {
	var m Meta

	doc, err := page.Document()
	if err != nil || doc.Length() == 0 {
		return m
	}

	// htmlquery walks the same tree goquery parsed.
	root := doc.Get(0)
	// <svg><title> elements in the body must not shadow the document title.
	m.Title = xpathText(root, "//head/title")
	if m.Title == "" {
		m.Title = xpathText(root, "//title")
	}
	m.Description = xpathAttr(root, `//meta[@name="description"]`, "content")

	base := page.BaseURL()
	m.OGImage = resolveRef(openGraphImage(doc), base)
	m.TwitterImage = resolveRef(twitterImage(doc), base)

	return m
}

// Image returns the best social card image: og:image, then twitter:image.
func (m Meta) Image() string {
	if m.OGImage != "" {
		return m.OGImage
	}
	return m.TwitterImage
}

// openGraphImage reads og:image (or og:image:url / og:image:secure_url).
func openGraphImage(doc *goquery.Document) string {
	var found string
	doc.Find(`meta[property^="og:image"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		property, _ := sel.Attr("property")
		switch property {
		case "og:image", "og:image:url", "og:image:secure_url":
		default:
			return true
		}
		content, _ := sel.Attr("content")
		found = strings.TrimSpace(content)
		return found == ""
	})
	return found
}

// twitterImage reads twitter:image from either name= or property=.
func twitterImage(doc *goquery.Document) string {
	var found string
	doc.Find(`meta[name="twitter:image"], meta[property="twitter:image"], meta[name="twitter:image:src"]`).
		EachWithBreak(func(i int, sel *goquery.Selection) bool {
			content, _ := sel.Attr("content")
			found = strings.TrimSpace(content)
			return found == ""
		})
	return found
}

func xpathText(root *html.Node, expr string) string {
	node, err := htmlquery.Query(root, expr)
	if err != nil || node == nil {
		return ""
	}
	return strings.Join(strings.Fields(htmlquery.InnerText(node)), " ")
}

func xpathAttr(root *html.Node, expr, attr string) string {
	node, err := htmlquery.Query(root, expr)
	if err != nil || node == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.SelectAttr(node, attr))
}

func resolveRef(ref string, base *url.URL) string {
	if ref == "" {
		return ""
	}
	if base == nil {
		return ref
	}
	return thumbnail.Resolve(ref, base.String())
}

// hostTitle is the fallback title: the hostname without a leading "www.".
func hostTitle(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
