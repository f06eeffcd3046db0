package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/linkarchive/internal/ai"
	"github.com/IshaanNene/linkarchive/internal/config"
	"github.com/IshaanNene/linkarchive/internal/extract"
	"github.com/IshaanNene/linkarchive/internal/fetcher"
	"github.com/IshaanNene/linkarchive/internal/storage"
	"github.com/IshaanNene/linkarchive/internal/types"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Integration Post</title>
  <meta name="description" content="An article used in tests.">
  <meta property="og:image" content="/img/hero.jpg">
</head>
<body>
  <nav><a href="/">Home</a></nav>
  <article>
    <h1>Integration Post</h1>
    <p>Go programs are built from packages. Each package lives in a directory and exposes
    identifiers that start with an upper case letter. This paragraph is long enough for the
    main content detector to keep it as the body of the page.</p>
    <p>Tests sit next to the code they exercise and run with the standard tooling.</p>
  </article>
</body>
</html>`

// newSiteServer serves one article and a broken page.
func newSiteServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/posts/integration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articleHTML)
	})
	mux.HandleFunc("/posts/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newOllamaStub answers generate requests based on the task in the prompt.
func newOllamaStub(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode generate request: %v", err)
		}
		answer := "Extended summary of the page."
		switch {
		case strings.Contains(req.Prompt, "comma-separated list"):
			answer = "Go, Testing, go, Package Layout"
		case strings.Contains(req.Prompt, "short summary"):
			answer = "Short summary."
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": answer, "done": true})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newYouTubeStub serves oEmbed metadata and a watch page without captions.
func newYouTubeStub(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title":"A Conference Talk","author_name":"someone"}`)
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no player response</body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIngestEndToEnd(t *testing.T) {
	site := newSiteServer(t)
	ollama := newOllamaStub(t)
	yt := newYouTubeStub(t)
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.Renderer.Type = "http"
	cfg.Renderer.Timeout = 5 * time.Second
	cfg.AI.Endpoint = ollama.URL
	cfg.AI.Timeout = 5 * time.Second
	cfg.YouTube.OEmbedURL = yt.URL + "/oembed"
	cfg.YouTube.WatchBaseURL = yt.URL
	cfg.YouTube.Timeout = 5 * time.Second

	gw, err := storage.NewSQLiteGateway(ctx, ":memory:", testLogger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer gw.Close()

	renderer, err := fetcher.New(cfg, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer renderer.Close()

	gen, err := ai.NewGenerator(&cfg.AI, testLogger)
	if err != nil {
		t.Fatal(err)
	}

	o := New(gw, Options{MaxTags: cfg.Extract.MaxTags, Now: fixedNow}, testLogger)
	o.SetWebScraper(extract.NewWebExtractor(renderer, extract.NewMarkdownConverter(cfg.Extract.Readability), testLogger))
	o.SetVideoFetcher(extract.NewVideoExtractor(&cfg.YouTube, testLogger))
	o.SetSummarizer(ai.NewSummarizer(gen, cfg.AI.MaxInputChars, testLogger))

	articleURL := site.URL + "/posts/integration"
	videoURL := "https://www.youtube.com/watch?v=abc123"
	urls := []string{articleURL, site.URL + "/posts/broken", videoURL}

	report, err := o.Run(ctx, urls)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Succeeded() != 2 || report.Failed() != 1 || report.ExitCode() != 1 {
		t.Fatalf("succeeded=%d failed=%d exit=%d: %+v", report.Succeeded(), report.Failed(), report.ExitCode(), report.Failures())
	}
	if got := report.Failures()[0].URL; got != urls[1] {
		t.Errorf("failed url = %q, want %q", got, urls[1])
	}

	article, err := gw.FindBySourceURL(ctx, articleURL)
	if err != nil {
		t.Fatalf("article not stored: %v", err)
	}
	if article.Slug != "integration-post" || article.Title != "Integration Post" {
		t.Errorf("article slug/title = %q / %q", article.Slug, article.Title)
	}
	if article.ThumbnailURL != site.URL+"/img/hero.jpg" {
		t.Errorf("thumbnail = %q", article.ThumbnailURL)
	}
	if article.ShortSummary != "Short summary." || article.ExtendedSummary != "Extended summary of the page." {
		t.Errorf("summaries = %q / %q", article.ShortSummary, article.ExtendedSummary)
	}
	if !strings.Contains(article.RawMarkdown, "Go programs are built from packages") {
		t.Errorf("markdown lost the body:\n%s", article.RawMarkdown)
	}
	if want := []string{"go", "testing", "package-layout"}; !reflect.DeepEqual(article.Tags, want) {
		t.Errorf("tags = %v, want %v", article.Tags, want)
	}
	if article.WeekBucket != "2024-01-01" {
		t.Errorf("week bucket = %q", article.WeekBucket)
	}

	video, err := gw.FindBySourceURL(ctx, videoURL)
	if err != nil {
		t.Fatalf("video not stored: %v", err)
	}
	if video.ContentType != types.ContentVideo || video.Slug != "a-conference-talk" {
		t.Errorf("video = %q / %q", video.ContentType, video.Slug)
	}
	if video.Transcript != "" || video.RawMarkdown != "" {
		t.Errorf("video transcript/markdown should be empty")
	}

	// Re-ingesting the article updates it in place.
	again, err := o.Run(ctx, []string{articleURL})
	if err != nil {
		t.Fatal(err)
	}
	if res := again.Results[0]; !res.Success || !res.Updated || res.Slug != "integration-post" {
		t.Errorf("re-ingest result = %+v", res)
	}
	slugs, err := gw.ListAllSlugs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(slugs) != 2 {
		t.Errorf("slugs = %v, want 2 records", slugs)
	}
}
