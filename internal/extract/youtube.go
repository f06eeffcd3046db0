package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DataAPISource reads video snippets from the YouTube Data API v3.
type DataAPISource struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewDataAPISource creates a Data API metadata source.
func NewDataAPISource(client *http.Client, baseURL, apiKey string) *DataAPISource {
	return &DataAPISource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Name returns the source name.
func (s *DataAPISource) Name() string { return "youtube_data_api" }

type thumbnailSet struct {
	URL string `json:"url"`
}

type dataAPIResponse struct {
	Items []struct {
		Snippet struct {
			Title       string                  `json:"title"`
			Description string                  `json:"description"`
			Thumbnails  map[string]thumbnailSet `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// thumbnailPreference orders the Data API thumbnail keys, best first.
var thumbnailPreference = []string{"maxres", "standard", "high", "medium", "default"}

// Metadata fetches the snippet for videoID.
func (s *DataAPISource) Metadata(ctx context.Context, videoID, _ string) (*VideoMetadata, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("id", videoID)
	q.Set("key", s.apiKey)

	var resp dataAPIResponse
	if err := getJSON(ctx, s.client, s.baseURL+"/videos?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	snippet := resp.Items[0].Snippet
	meta := &VideoMetadata{
		Title:       snippet.Title,
		Description: snippet.Description,
	}
	for _, key := range thumbnailPreference {
		if t, ok := snippet.Thumbnails[key]; ok && t.URL != "" {
			meta.ThumbnailURL = t.URL
			break
		}
	}
	return meta, nil
}

// OEmbedSource reads basic metadata from the public oEmbed endpoint. oEmbed
// carries no description.
type OEmbedSource struct {
	client   *http.Client
	endpoint string
}

// NewOEmbedSource creates an oEmbed metadata source.
func NewOEmbedSource(client *http.Client, endpoint string) *OEmbedSource {
	return &OEmbedSource{client: client, endpoint: endpoint}
}

// Name returns the source name.
func (s *OEmbedSource) Name() string { return "youtube_oembed" }

// Metadata fetches the oEmbed document for rawURL.
func (s *OEmbedSource) Metadata(ctx context.Context, videoID, rawURL string) (*VideoMetadata, error) {
	q := url.Values{}
	q.Set("url", rawURL)
	q.Set("format", "json")

	var resp struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := getJSON(ctx, s.client, s.endpoint+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	return &VideoMetadata{
		Title:        resp.Title,
		ThumbnailURL: defaultThumbnail(videoID),
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty response body")
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
