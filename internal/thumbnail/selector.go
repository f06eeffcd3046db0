// Package thumbnail picks a representative image from rendered HTML, or synthesizes
// a placeholder when the page has none worth showing.
package thumbnail

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Score weights.
const (
	scoreHasDimensions = 10
	scoreLarge         = 50
	scoreExtraLarge    = 20
	scoreNoDimensions  = 2
	scoreSemanticClass = 30
	scoreAltText       = 5
	scoreInArticle     = 15

	minScore       = 10
	largeSize      = 200
	extraLargeSize = 400
)

var (
	denyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`icon`),
		regexp.MustCompile(`logo`),
		regexp.MustCompile(`badge`),
		regexp.MustCompile(`avatar`),
		regexp.MustCompile(`gravatar`),
		regexp.MustCompile(`sprite`),
		regexp.MustCompile(`emoji`),
		regexp.MustCompile(`pixel`),
		regexp.MustCompile(`track(ing|er)`),
		regexp.MustCompile(`spacer`),
		regexp.MustCompile(`1x1`),
		regexp.MustCompile(`\.svg([?#]|$)`),
		regexp.MustCompile(`(^|[/_.?=&-])ads?([/_.?=&-]|$)`),
		regexp.MustCompile(`advert`),
		regexp.MustCompile(`doubleclick`),
		regexp.MustCompile(`sidebar`),
		regexp.MustCompile(`widget`),
	}

	semanticClass = regexp.MustCompile(`featured|hero|main|cover|thumbnail|post-image|article-image`)

	nonContent = map[string]bool{
		"header": true,
		"footer": true,
		"nav":    true,
		"aside":  true,
		"menu":   true,
	}
)

// Candidate is a scored <img> tag.
type Candidate struct {
	Src    string
	Width  int
	Height int
	Score  int
	Order  int
}

// HasBothDimensions reports whether width and height are known and positive.
func (c Candidate) HasBothDimensions() bool {
	return c.Width > 0 && c.Height > 0
}

func (c Candidate) acceptable() bool {
	return c.Score >= minScore || c.HasBothDimensions()
}

// Candidates returns every scorable image in document order. Images inside
// header/footer/nav/aside/menu, deny-listed sources and small images are excluded.
// Commented-out markup is never considered.
func Candidates(doc string) []Candidate {
	var out []Candidate
	open := make(map[string]int, len(nonContent))
	seenMain := false
	z := html.NewTokenizer(strings.NewReader(doc))

	for {
		switch z.Next() {
		case html.ErrorToken:
			return out

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			name := tok.Data
			switch {
			case nonContent[name]:
				if tok.Type == html.StartTagToken {
					open[name]++
				}
			case name == "article" || name == "main":
				seenMain = true
			case name == "img":
				if insideNonContent(open) {
					continue
				}
				c, ok := score(tok, seenMain)
				if !ok {
					continue
				}
				c.Order = len(out)
				out = append(out, c)
			}

		case html.EndTagToken:
			tok := z.Token()
			if nonContent[tok.Data] && open[tok.Data] > 0 {
				open[tok.Data]--
			}
		}
	}
}

// Select returns the best candidate image resolved against baseURL.
func Select(doc, baseURL string) (string, bool) {
	candidates := Candidates(doc)
	if len(candidates) == 0 {
		return "", false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	if !best.acceptable() {
		return "", false
	}
	return resolve(best.Src, baseURL), true
}

func score(tok html.Token, afterMain bool) (Candidate, bool) {
	src := imageSource(tok)
	if src == "" || isDenied(src) {
		return Candidate{}, false
	}

	c := Candidate{
		Src:    src,
		Width:  dimension(attr(tok, "width")),
		Height: dimension(attr(tok, "height")),
	}

	if c.Width > 0 || c.Height > 0 {
		c.Score += scoreHasDimensions
		largest := max(c.Width, c.Height)
		if largest < largeSize {
			return Candidate{}, false
		}
		c.Score += scoreLarge
		if largest >= extraLargeSize {
			c.Score += scoreExtraLarge
		}
	} else {
		c.Score += scoreNoDimensions
	}

	if semanticClass.MatchString(strings.ToLower(attr(tok, "class"))) {
		c.Score += scoreSemanticClass
	}
	if strings.TrimSpace(attr(tok, "alt")) != "" {
		c.Score += scoreAltText
	}
	if afterMain {
		c.Score += scoreInArticle
	}
	return c, true
}

// imageSource prefers src and falls back to common lazy-loading attributes.
func imageSource(tok html.Token) string {
	for _, key := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
		v := strings.TrimSpace(attr(tok, key))
		if v != "" && !strings.HasPrefix(strings.ToLower(v), "data:") {
			return v
		}
	}
	return ""
}

func isDenied(src string) bool {
	s := strings.ToLower(src)
	for _, p := range denyPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func insideNonContent(open map[string]int) bool {
	for _, n := range open {
		if n > 0 {
			return true
		}
	}
	return false
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// dimension parses "640" or "640px"; anything else is unknown (0).
func dimension(v string) int {
	v = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(v)), "px")
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Resolve returns ref as an absolute URL relative to baseURL. Unparseable input is
// returned unchanged.
func Resolve(ref, baseURL string) string {
	return resolve(ref, baseURL)
}

func resolve(ref, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ref
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}
