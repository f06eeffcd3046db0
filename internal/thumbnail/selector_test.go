package thumbnail

import (
	"encoding/base64"
	"strings"
	"testing"
)

const base = "https://example.com/posts/hello"

func TestSelectPrefersHeroInArticle(t *testing.T) {
	doc := `<html><body>
		<img src="/plain.jpg">
		<article>
			<img src="/hero.jpg" width="500" class="hero-image">
		</article>
	</body></html>`

	got, ok := Select(doc, base)
	if !ok {
		t.Fatal("expected a thumbnail")
	}
	if got != "https://example.com/hero.jpg" {
		t.Errorf("expected hero image, got %q", got)
	}
}

func TestScoreHeroOutranksDimensionless(t *testing.T) {
	doc := `<img src="/a.jpg" alt="x"><article><img src="/b.jpg" alt="x" width="500" class="hero-image"></article>`
	cands := Candidates(doc)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[1].Score <= cands[0].Score {
		t.Errorf("hero score %d should exceed plain score %d", cands[1].Score, cands[0].Score)
	}
}

func TestScoring(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want int
	}{
		{"no dimensions", `<img src="/a.jpg">`, 2},
		{"width 250", `<img src="/a.jpg" width="250">`, 60},
		{"width 400px", `<img src="/a.jpg" width="400px">`, 80},
		{"height only large", `<img src="/a.jpg" height="900">`, 80},
		{"semantic class", `<img src="/a.jpg" class="post-image">`, 32},
		{"alt text", `<img src="/a.jpg" alt="A photo">`, 7},
		{"blank alt", `<img src="/a.jpg" alt="  ">`, 2},
		{"after main", `<main><img src="/a.jpg"></main>`, 17},
		{"everything", `<article><img src="/a.jpg" width="800" height="600" class="featured" alt="x"></article>`, 130},
	}

	for _, tt := range tests {
		cands := Candidates(tt.doc)
		if len(cands) != 1 {
			t.Errorf("%s: expected 1 candidate, got %d", tt.name, len(cands))
			continue
		}
		if cands[0].Score != tt.want {
			t.Errorf("%s: score = %d, want %d", tt.name, cands[0].Score, tt.want)
		}
	}
}

func TestSmallImagesDiscarded(t *testing.T) {
	doc := `<img src="/small.jpg" width="100" height="80"><img src="/narrow.jpg" width="150">`
	if cands := Candidates(doc); len(cands) != 0 {
		t.Errorf("expected small images discarded, got %+v", cands)
	}
	if _, ok := Select(doc, base); ok {
		t.Error("expected no selection")
	}
}

func TestDenyList(t *testing.T) {
	denied := []string{
		"/static/favicon.png",
		"/img/site-logo.png",
		"/badges/build.png",
		"https://track.example.com/pixel.gif",
		"/images/diagram.svg",
		"/images/diagram.SVG?v=2",
		"/ads/banner.jpg",
		"/img/ad-300x250.jpg",
		"/assets/sidebar-promo.jpg",
		"/widget/thumb.jpg",
		"https://secure.gravatar.com/avatar/abc",
	}
	for _, src := range denied {
		doc := `<img src="` + src + `" width="600" height="400">`
		if cands := Candidates(doc); len(cands) != 0 {
			t.Errorf("expected %q to be denied", src)
		}
	}

	allowed := []string{"/uploads/2024/photo.jpg", "/images/download-chart.png", "/media/headline.webp"}
	for _, src := range allowed {
		doc := `<img src="` + src + `" width="600" height="400">`
		if cands := Candidates(doc); len(cands) != 1 {
			t.Errorf("expected %q to be allowed", src)
		}
	}
}

func TestNonContentRegionsExcluded(t *testing.T) {
	doc := `
		<header><img src="/header.jpg" width="1200" height="300"></header>
		<nav><ul><li><img src="/nav.jpg" width="600"></li></ul></nav>
		<aside><img src="/aside.jpg" width="600"></aside>
		<footer><img src="/footer.jpg" width="600"></footer>
		<menu><img src="/menu.jpg" width="600"></menu>
		<div><img src="/content.jpg" width="300"></div>`

	cands := Candidates(doc)
	if len(cands) != 1 || cands[0].Src != "/content.jpg" {
		t.Fatalf("expected only content image, got %+v", cands)
	}
}

func TestNestedNonContentRegions(t *testing.T) {
	doc := `<header><nav><img src="/a.jpg" width="600"></nav><img src="/b.jpg" width="600"></header><img src="/c.jpg" width="600">`
	cands := Candidates(doc)
	if len(cands) != 1 || cands[0].Src != "/c.jpg" {
		t.Fatalf("expected only /c.jpg, got %+v", cands)
	}
}

func TestCommentedImagesIgnored(t *testing.T) {
	doc := `<!-- <img src="/old-hero.jpg" width="2000" class="hero"> --><img src="/real.jpg" alt="real">`
	cands := Candidates(doc)
	if len(cands) != 1 || cands[0].Src != "/real.jpg" {
		t.Fatalf("expected only /real.jpg, got %+v", cands)
	}
}

func TestCommentedHeaderDoesNotHideImages(t *testing.T) {
	doc := `<!-- <header> --><img src="/a.jpg" width="600">`
	if cands := Candidates(doc); len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
}

func TestSelectTieBreaksOnFirstSeen(t *testing.T) {
	doc := `<img src="/first.jpg" width="300"><img src="/second.jpg" width="300">`
	got, ok := Select(doc, base)
	if !ok || got != "https://example.com/first.jpg" {
		t.Errorf("expected first image, got %q (ok=%v)", got, ok)
	}
}

func TestSelectRejectsWeakCandidates(t *testing.T) {
	doc := `<img src="/a.jpg" alt="tiny signal">`
	if got, ok := Select(doc, base); ok {
		t.Errorf("expected no selection for weak candidate, got %q", got)
	}
}

func TestSelectResolvesURLs(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"/img/a.jpg", "https://example.com/img/a.jpg"},
		{"img/a.jpg", "https://example.com/posts/img/a.jpg"},
		{"//cdn.example.net/a.jpg", "https://cdn.example.net/a.jpg"},
		{"https://other.org/a.jpg", "https://other.org/a.jpg"},
	}
	for _, tt := range tests {
		doc := `<img src="` + tt.src + `" width="640" height="480">`
		got, ok := Select(doc, base)
		if !ok || got != tt.want {
			t.Errorf("src %q: got %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestLazySources(t *testing.T) {
	doc := `<img src="data:image/gif;base64,R0lGOD" data-src="/lazy.jpg" width="640">`
	got, ok := Select(doc, base)
	if !ok || got != "https://example.com/lazy.jpg" {
		t.Errorf("expected lazy source, got %q", got)
	}
}

func TestPlaceholderDeterministic(t *testing.T) {
	a := Placeholder("Understanding Go Channels", 0, 0)
	b := Placeholder("Understanding Go Channels", 0, 0)
	if a != b {
		t.Error("placeholder should be deterministic")
	}
	if !strings.HasPrefix(a, "data:image/svg+xml;base64,") {
		t.Fatalf("unexpected prefix: %q", a[:40])
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(a, "data:image/svg+xml;base64,"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	svg := string(raw)
	if !strings.Contains(svg, ">U</text>") {
		t.Errorf("expected initial U in svg: %s", svg)
	}
	if !strings.Contains(svg, `width="1200"`) || !strings.Contains(svg, `height="630"`) {
		t.Errorf("expected default size in svg: %s", svg)
	}
}

func TestPlaceholderEmptyTitle(t *testing.T) {
	raw, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(Placeholder("", 400, 200), "data:image/svg+xml;base64,"))
	if !strings.Contains(string(raw), ">?</text>") {
		t.Errorf("expected ? for empty title: %s", raw)
	}
}

func TestPlaceholderEscapesInitial(t *testing.T) {
	raw, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(Placeholder("<script>", 400, 200), "data:image/svg+xml;base64,"))
	if strings.Contains(string(raw), "><</text>") {
		t.Error("initial should be escaped")
	}
}

func TestHue(t *testing.T) {
	// "a" hashes to 97.
	if got := Hue("a"); got != 97 {
		t.Errorf("Hue(a) = %d, want 97", got)
	}
	// "hello" hashes to 99162322; 99162322 mod 360 = 322.
	if got := Hue("hello"); got != 322 {
		t.Errorf("Hue(hello) = %d, want 322", got)
	}
	for _, title := range []string{"", "x", "A much longer title that overflows the hash", "日本語"} {
		if h := Hue(title); h < 0 || h >= 360 {
			t.Errorf("Hue(%q) = %d out of range", title, h)
		}
	}
}
