package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/IshaanNene/linkarchive/internal/config"
	"github.com/IshaanNene/linkarchive/internal/types"
)

const (
	// DefaultVideoTitle is used when no metadata source returns a title.
	DefaultVideoTitle = "Untitled Video"

	// FallbackSummaryInput is summarized when a video has neither transcript nor description.
	FallbackSummaryInput = "Video content"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/shorts/)([^&\n?#/]+)`),
	regexp.MustCompile(`youtube\.com/watch\?(?:[^#]*&)?v=([^&\n?#]+)`),
}

// VideoID parses the video identifier out of the accepted YouTube URL shapes.
func VideoID(rawURL string) (string, error) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); len(m) == 2 && m[1] != "" {
			return m[1], nil
		}
	}
	return "", &types.InvalidURLError{URL: rawURL, Reason: "no YouTube video id found"}
}

// SummarySource names which text a video summary was built from.
type SummarySource string

const (
	SourceTranscript  SummarySource = "transcript"
	SourceDescription SummarySource = "description"
	SourceFallback    SummarySource = "placeholder"
)

// VideoContent is what the video strategy produces for one URL.
type VideoContent struct {
	VideoID      string
	Title        string
	Description  string
	ThumbnailURL string
	Transcript   string // empty when no caption track was retrievable
}

// SummaryInput returns the text to summarize: transcript, then description,
// then a fixed placeholder.
func (v *VideoContent) SummaryInput() (string, SummarySource) {
	if strings.TrimSpace(v.Transcript) != "" {
		return v.Transcript, SourceTranscript
	}
	if strings.TrimSpace(v.Description) != "" {
		return v.Description, SourceDescription
	}
	return FallbackSummaryInput, SourceFallback
}

// VideoMetadata is the result of one metadata lookup.
type VideoMetadata struct {
	Title        string
	Description  string
	ThumbnailURL string
}

// MetadataSource looks up title, description and thumbnail for a video.
type MetadataSource interface {
	Name() string
	Metadata(ctx context.Context, videoID, rawURL string) (*VideoMetadata, error)
}

// TranscriptSource retrieves the caption text of a video.
// It returns an error wrapping types.ErrTranscriptUnavailable when no captions exist.
type TranscriptSource interface {
	Transcript(ctx context.Context, videoID string) (string, error)
}

// VideoExtractor resolves metadata through an ordered list of sources and
// attaches a transcript when one can be retrieved.
type VideoExtractor struct {
	sources     []MetadataSource
	transcripts TranscriptSource
	logger      *slog.Logger
}

// NewVideoExtractor wires the default chain: the Data API when a key is
// configured, then oEmbed, with transcripts from the watch page.
func NewVideoExtractor(cfg *config.YouTubeConfig, logger *slog.Logger) *VideoExtractor {
	client := &http.Client{Timeout: cfg.Timeout}

	var sources []MetadataSource
	if cfg.APIKey != "" {
		sources = append(sources, NewDataAPISource(client, cfg.DataAPIBaseURL, cfg.APIKey))
	}
	sources = append(sources, NewOEmbedSource(client, cfg.OEmbedURL))

	return NewVideoExtractorWithSources(sources, NewWatchPageTranscripts(client, cfg.WatchBaseURL, cfg.Languages), logger)
}

// NewVideoExtractorWithSources builds an extractor from explicit collaborators.
// transcripts may be nil.
func NewVideoExtractorWithSources(sources []MetadataSource, transcripts TranscriptSource, logger *slog.Logger) *VideoExtractor {
	return &VideoExtractor{
		sources:     sources,
		transcripts: transcripts,
		logger:      logger.With("component", "video_extractor"),
	}
}

// Extract resolves the video behind rawURL. An unparseable URL returns an
// *types.InvalidURLError; if every metadata source fails an *types.ExtractionError.
// A missing transcript is not an error.
func (e *VideoExtractor) Extract(ctx context.Context, rawURL string) (*VideoContent, error) {
	id, err := VideoID(rawURL)
	if err != nil {
		return nil, err
	}

	meta, err := e.metadata(ctx, id, rawURL)
	if err != nil {
		return nil, err
	}

	content := &VideoContent{
		VideoID:      id,
		Title:        meta.Title,
		Description:  meta.Description,
		ThumbnailURL: meta.ThumbnailURL,
	}
	if strings.TrimSpace(content.Title) == "" {
		content.Title = DefaultVideoTitle
	}
	if content.ThumbnailURL == "" {
		content.ThumbnailURL = defaultThumbnail(id)
	}

	if e.transcripts != nil {
		text, err := e.transcripts.Transcript(ctx, id)
		switch {
		case err == nil:
			content.Transcript = strings.TrimSpace(text)
		case errors.Is(err, types.ErrTranscriptUnavailable):
			e.logger.Info("no transcript available", "video_id", id, "reason", err)
		default:
			e.logger.Warn("transcript retrieval failed", "video_id", id, "error", err)
		}
	}

	return content, nil
}

func (e *VideoExtractor) metadata(ctx context.Context, id, rawURL string) (*VideoMetadata, error) {
	var errs []error
	for _, src := range e.sources {
		meta, err := src.Metadata(ctx, id, rawURL)
		if err == nil {
			return meta, nil
		}
		e.logger.Warn("metadata source failed, trying next", "source", src.Name(), "video_id", id, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no metadata sources configured"))
	}
	return nil, &types.ExtractionError{URL: rawURL, Err: errors.Join(errs...)}
}

func defaultThumbnail(id string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", id)
}
