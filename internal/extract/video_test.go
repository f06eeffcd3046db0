package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/IshaanNene/linkarchive/internal/config"
	"github.com/IshaanNene/linkarchive/internal/types"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/shorts/abc123XYZ", "abc123XYZ", false},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/channel/UC123", "", true},
		{"https://example.com/watch", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := VideoID(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("VideoID(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, types.ErrInvalidURL) {
				t.Errorf("error should wrap ErrInvalidURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("VideoID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestSummaryInput(t *testing.T) {
	tests := []struct {
		name    string
		content VideoContent
		want    string
		source  SummarySource
	}{
		{"transcript wins", VideoContent{Transcript: "spoken words", Description: "desc"}, "spoken words", SourceTranscript},
		{"description fallback", VideoContent{Description: "desc"}, "desc", SourceDescription},
		{"placeholder", VideoContent{Description: "  "}, FallbackSummaryInput, SourceFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, src := tt.content.SummaryInput()
			if got != tt.want || src != tt.source {
				t.Errorf("SummaryInput() = (%q, %q), want (%q, %q)", got, src, tt.want, tt.source)
			}
		})
	}
}

// youtubeStub serves Data API, oEmbed, watch page and timedtext routes.
type youtubeStub struct {
	dataAPIStatus int
	captions      bool
	dataAPIHits   atomic.Int32
	oembedHits    atomic.Int32
}

func (s *youtubeStub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		s.dataAPIHits.Add(1)
		if r.URL.Query().Get("key") != "yt-key" {
			t.Errorf("missing api key")
		}
		if s.dataAPIStatus != http.StatusOK {
			http.Error(w, "quota exceeded", s.dataAPIStatus)
			return
		}
		fmt.Fprint(w, `{"items":[{"snippet":{"title":"API Title","description":"API description",
			"thumbnails":{"default":{"url":"https://i.ytimg.com/default.jpg"},"high":{"url":"https://i.ytimg.com/high.jpg"}}}}]}`)
	})
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		s.oembedHits.Add(1)
		if !strings.Contains(r.URL.Query().Get("url"), "youtube.com/watch") {
			t.Errorf("oembed url param = %q", r.URL.Query().Get("url"))
		}
		fmt.Fprint(w, `{"title":"oEmbed Title","author_name":"someone"}`)
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if !s.captions {
			fmt.Fprint(w, `<html><script>var ytInitialPlayerResponse = {"videoDetails":{}};</script></html>`)
			return
		}
		serverURL := "http://" + r.Host
		fmt.Fprintf(w, `<html><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"%s/timedtext?lang=de","languageCode":"de"},{"baseUrl":"%s/timedtext?lang=en&kind=asr","languageCode":"en","kind":"asr"}]}}};</script></html>`, serverURL, serverURL)
	})
	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") != "en" {
			t.Errorf("expected the English track, got %q", r.URL.Query().Get("lang"))
		}
		fmt.Fprint(w, `<?xml version="1.0" encoding="utf-8" ?><transcript><text start="0" dur="1.5">Hello &amp;#39;world&amp;#39;</text><text start="1.5" dur="2">second   line</text></transcript>`)
	})
	return mux
}

func newStubExtractor(t *testing.T, stub *youtubeStub, apiKey string) *VideoExtractor {
	server := httptest.NewServer(stub.handler(t))
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig().YouTube
	cfg.APIKey = apiKey
	cfg.DataAPIBaseURL = server.URL + "/v3"
	cfg.OEmbedURL = server.URL + "/oembed"
	cfg.WatchBaseURL = server.URL
	return NewVideoExtractor(&cfg, testLogger)
}

func TestVideoExtractDataAPI(t *testing.T) {
	stub := &youtubeStub{dataAPIStatus: http.StatusOK, captions: true}
	ext := newStubExtractor(t, stub, "yt-key")

	v, err := ext.Extract(context.Background(), "https://www.youtube.com/watch?v=abc123")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if v.Title != "API Title" || v.Description != "API description" {
		t.Errorf("metadata = %q / %q", v.Title, v.Description)
	}
	if v.ThumbnailURL != "https://i.ytimg.com/high.jpg" {
		t.Errorf("thumbnail = %q, want best available (high)", v.ThumbnailURL)
	}
	if stub.oembedHits.Load() != 0 {
		t.Errorf("oEmbed should not be called when the Data API succeeds")
	}
	if v.Transcript != "Hello 'world' second line" {
		t.Errorf("transcript = %q", v.Transcript)
	}
	if _, src := v.SummaryInput(); src != SourceTranscript {
		t.Errorf("summary source = %q, want transcript", src)
	}
}

func TestVideoExtractFallsBackToOEmbed(t *testing.T) {
	stub := &youtubeStub{dataAPIStatus: http.StatusForbidden}
	ext := newStubExtractor(t, stub, "yt-key")

	v, err := ext.Extract(context.Background(), "https://www.youtube.com/watch?v=abc123")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if stub.dataAPIHits.Load() != 1 || stub.oembedHits.Load() != 1 {
		t.Errorf("hits data=%d oembed=%d, want 1 and 1", stub.dataAPIHits.Load(), stub.oembedHits.Load())
	}
	if v.Title != "oEmbed Title" {
		t.Errorf("title = %q", v.Title)
	}
	if v.ThumbnailURL != "https://img.youtube.com/vi/abc123/maxresdefault.jpg" {
		t.Errorf("thumbnail = %q", v.ThumbnailURL)
	}
	if v.Transcript != "" {
		t.Errorf("transcript = %q, want absent", v.Transcript)
	}
}

func TestVideoExtractSkipsDataAPIWithoutKey(t *testing.T) {
	stub := &youtubeStub{dataAPIStatus: http.StatusOK}
	ext := newStubExtractor(t, stub, "")

	if _, err := ext.Extract(context.Background(), "https://youtu.be/abc123"); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if stub.dataAPIHits.Load() != 0 {
		t.Errorf("Data API called without a key")
	}
}

type failingSource struct{ name string }

func (f failingSource) Name() string { return f.name }
func (f failingSource) Metadata(context.Context, string, string) (*VideoMetadata, error) {
	return nil, errors.New("unavailable")
}

type staticSource struct{ meta VideoMetadata }

func (s staticSource) Name() string { return "static" }
func (s staticSource) Metadata(context.Context, string, string) (*VideoMetadata, error) {
	m := s.meta
	return &m, nil
}

func TestVideoExtractAllSourcesFail(t *testing.T) {
	ext := NewVideoExtractorWithSources([]MetadataSource{failingSource{"a"}, failingSource{"b"}}, nil, testLogger)
	_, err := ext.Extract(context.Background(), "https://youtu.be/abc123")
	var extErr *types.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestVideoExtractDefaults(t *testing.T) {
	ext := NewVideoExtractorWithSources([]MetadataSource{staticSource{}}, nil, testLogger)
	v, err := ext.Extract(context.Background(), "https://youtu.be/xyz")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if v.Title != DefaultVideoTitle {
		t.Errorf("title = %q, want %q", v.Title, DefaultVideoTitle)
	}
	if v.ThumbnailURL != "https://img.youtube.com/vi/xyz/maxresdefault.jpg" {
		t.Errorf("thumbnail = %q", v.ThumbnailURL)
	}
	if in, src := v.SummaryInput(); in != FallbackSummaryInput || src != SourceFallback {
		t.Errorf("SummaryInput() = (%q, %q)", in, src)
	}
}

func TestVideoExtractInvalidURL(t *testing.T) {
	ext := NewVideoExtractorWithSources([]MetadataSource{staticSource{}}, nil, testLogger)
	_, err := ext.Extract(context.Background(), "https://www.youtube.com/feed/trending")
	var urlErr *types.InvalidURLError
	if !errors.As(err, &urlErr) {
		t.Fatalf("expected InvalidURLError, got %v", err)
	}
}

func TestParseCaptionTracksMissing(t *testing.T) {
	_, err := parseCaptionTracks("<html>no captions here</html>")
	if !errors.Is(err, types.ErrTranscriptUnavailable) {
		t.Fatalf("expected ErrTranscriptUnavailable, got %v", err)
	}
}
