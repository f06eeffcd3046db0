package extract

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/IshaanNene/linkarchive/internal/types"
)

// WatchPageTranscripts discovers caption tracks on the watch page and
// downloads the best match as timedtext XML.
type WatchPageTranscripts struct {
	client    *http.Client
	baseURL   string
	languages []string
}

// NewWatchPageTranscripts creates a transcript source. languages are tried in
// order; with no match the first listed track is used.
func NewWatchPageTranscripts(client *http.Client, baseURL string, languages []string) *WatchPageTranscripts {
	return &WatchPageTranscripts{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		languages: languages,
	}
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// Transcript returns the plain caption text for videoID.
func (w *WatchPageTranscripts) Transcript(ctx context.Context, videoID string) (string, error) {
	page, err := w.get(ctx, w.baseURL+"/watch?v="+videoID)
	if err != nil {
		return "", fmt.Errorf("watch page: %w", err)
	}

	tracks, err := parseCaptionTracks(page)
	if err != nil {
		return "", err
	}
	track := w.pickTrack(tracks)

	body, err := w.get(ctx, track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("timedtext: %w", err)
	}

	text, err := parseTimedText(body)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("%w: empty caption track", types.ErrTranscriptUnavailable)
	}
	return text, nil
}

func (w *WatchPageTranscripts) pickTrack(tracks []captionTrack) captionTrack {
	for _, lang := range w.languages {
		// Prefer human captions over auto-generated ones in the same language.
		var auto *captionTrack
		for i := range tracks {
			if !strings.EqualFold(tracks[i].LanguageCode, lang) {
				continue
			}
			if tracks[i].Kind != "asr" {
				return tracks[i]
			}
			if auto == nil {
				auto = &tracks[i]
			}
		}
		if auto != nil {
			return *auto
		}
	}
	return tracks[0]
}

func (w *WatchPageTranscripts) get(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// parseCaptionTracks finds the "captionTracks" array embedded in the watch
// page's player response.
func parseCaptionTracks(page string) ([]captionTrack, error) {
	const marker = `"captionTracks":`
	idx := strings.Index(page, marker)
	if idx < 0 {
		return nil, fmt.Errorf("%w: captions disabled or not present", types.ErrTranscriptUnavailable)
	}

	dec := json.NewDecoder(strings.NewReader(page[idx+len(marker):]))
	var tracks []captionTrack
	if err := dec.Decode(&tracks); err != nil {
		return nil, fmt.Errorf("decode caption tracks: %w", err)
	}

	usable := tracks[:0]
	for _, t := range tracks {
		if t.BaseURL != "" {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: no caption tracks", types.ErrTranscriptUnavailable)
	}
	return usable, nil
}

type timedText struct {
	Texts []struct {
		Body string `xml:",chardata"`
	} `xml:"text"`
}

// parseTimedText flattens a timedtext document into one line of text.
func parseTimedText(body string) (string, error) {
	var doc timedText
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		return "", fmt.Errorf("decode timedtext: %w", err)
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		// Caption bodies are entity-escaped a second time inside the XML.
		line := strings.Join(strings.Fields(html.UnescapeString(t.Body)), " ")
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " "), nil
}
