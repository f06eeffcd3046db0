package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/linkarchive/internal/classify"
	"github.com/IshaanNene/linkarchive/internal/extract"
	"github.com/IshaanNene/linkarchive/internal/pipeline"
	"github.com/IshaanNene/linkarchive/internal/slug"
	"github.com/IshaanNene/linkarchive/internal/storage"
	"github.com/IshaanNene/linkarchive/internal/tags"
	"github.com/IshaanNene/linkarchive/internal/types"
)

// Stage names, in execution order.
const (
	StageClassify  = "classify"
	StageExtract   = "extract"
	StageSummarize = "summarize"
	StageTag       = "tag"
	StagePersist   = "persist"
)

// InputMarkdown marks summaries built from a web page's markdown.
const InputMarkdown = "markdown"

// classifyStage sets the content type from the URL alone.
type classifyStage struct {
	logger *slog.Logger
}

func (s *classifyStage) Name() string { return StageClassify }

func (s *classifyStage) Process(_ context.Context, st *pipeline.State) error {
	st.Item.ContentType = classify.Classify(st.URL)
	st.Advance(pipeline.StatusClassified)
	s.logger.Info("classified", "url", st.URL, "content_type", st.Item.ContentType)
	return nil
}

// extractStage runs the web or video strategy depending on the content type.
type extractStage struct {
	web    WebScraper
	video  VideoFetcher
	logger *slog.Logger
}

func (s *extractStage) Name() string { return StageExtract }

func (s *extractStage) Process(ctx context.Context, st *pipeline.State) error {
	if st.Item.ContentType == types.ContentVideo {
		return s.processVideo(ctx, st)
	}

	s.logger.Info("scraping", "url", st.URL)
	wc, err := s.web.Scrape(ctx, st.URL)
	if err != nil {
		return err
	}

	st.Item.Title = wc.Title
	st.Item.RawMarkdown = wc.Markdown
	st.Item.ThumbnailURL = wc.ThumbnailURL
	st.SummaryInput = wc.Markdown
	st.InputSource = InputMarkdown
	st.Advance(pipeline.StatusExtracted)

	s.logger.Info("scraped", "url", st.URL, "title", wc.Title, "markdown_chars", len(wc.Markdown))
	return nil
}

func (s *extractStage) processVideo(ctx context.Context, st *pipeline.State) error {
	s.logger.Info("fetching video", "url", st.URL)
	vc, err := s.video.Extract(ctx, st.URL)
	if err != nil {
		return err
	}

	st.Item.Title = vc.Title
	st.Item.ThumbnailURL = vc.ThumbnailURL
	st.Item.Transcript = vc.Transcript

	input, source := vc.SummaryInput()
	st.SummaryInput = input
	st.InputSource = string(source)
	st.Advance(pipeline.StatusExtracted)

	switch source {
	case extract.SourceTranscript:
		s.logger.Info("using transcription", "url", st.URL, "video_id", vc.VideoID, "chars", len(input))
	case extract.SourceDescription:
		s.logger.Info("using description", "url", st.URL, "video_id", vc.VideoID)
	default:
		s.logger.Warn("no transcript or description, using placeholder", "url", st.URL, "video_id", vc.VideoID)
	}
	return nil
}

// summarizeStage fills both summaries.
type summarizeStage struct {
	summarizer Summarizer
	logger     *slog.Logger
}

func (s *summarizeStage) Name() string { return StageSummarize }

func (s *summarizeStage) Process(ctx context.Context, st *pipeline.State) error {
	sums, err := s.summarizer.Summarize(ctx, st.SummaryInput)
	if err != nil {
		return err
	}
	st.Item.ShortSummary = sums.Short
	st.Item.ExtendedSummary = sums.Extended
	st.Advance(pipeline.StatusSummarized)

	s.logger.Info("summarized", "url", st.URL, "input", st.InputSource, "short_chars", len([]rune(sums.Short)))
	return nil
}

// tagStage generates and normalizes the tag set.
type tagStage struct {
	summarizer Summarizer
	maxTags    int
	logger     *slog.Logger
}

func (s *tagStage) Name() string { return StageTag }

func (s *tagStage) Process(ctx context.Context, st *pipeline.State) error {
	raw, err := s.summarizer.ExtractTags(ctx, st.SummaryInput)
	if err != nil {
		return err
	}
	st.Item.Tags = tags.Sanitize(raw, s.maxTags)
	st.Advance(pipeline.StatusTagged)

	s.logger.Info("tagged", "url", st.URL, "tags", st.Item.Tags)
	return nil
}

// persistStage upserts the item by source URL and replaces its tag links.
// It owns the run's slug registry.
type persistStage struct {
	gateway  storage.Gateway
	registry *slug.Registry
	now      func() time.Time
	dryRun   bool
	logger   *slog.Logger

	// planned holds the slugs a dry run would have inserted, by URL.
	planned map[string]string
}

func (s *persistStage) Name() string { return StagePersist }

func (s *persistStage) Process(ctx context.Context, st *pipeline.State) error {
	item := st.Item
	item.WeekBucket = WeekBucket(s.now())

	if planned, ok := s.planned[st.URL]; ok {
		item.Slug = planned
		st.Updated = true
		s.logger.Info("updating", "url", st.URL, "slug", item.Slug, "week", item.WeekBucket)
		st.Advance(pipeline.StatusPersisted)
		return nil
	}

	existing, err := s.gateway.FindBySourceURL(ctx, st.URL)
	switch {
	case err == nil:
		item.Slug = existing.Slug
		st.Updated = true
	case errors.Is(err, types.ErrNotFound):
		item.Slug = s.registry.EnsureUnique(slug.Slugify(item.Title))
	default:
		return err
	}

	action := "inserting"
	if st.Updated {
		action = "updating"
	}
	s.logger.Info(action, "url", st.URL, "slug", item.Slug, "week", item.WeekBucket)

	if s.dryRun {
		if !st.Updated {
			s.planned[st.URL] = item.Slug
		}
		st.Advance(pipeline.StatusPersisted)
		return nil
	}

	id, err := s.gateway.Upsert(ctx, item)
	if err != nil {
		return err
	}
	item.ID = id

	tagIDs, err := s.tagIDs(ctx, item.Tags)
	if err != nil {
		return err
	}
	if err := s.gateway.RelinkTags(ctx, id, tagIDs); err != nil {
		return err
	}

	st.Advance(pipeline.StatusPersisted)
	s.logger.Info("persisted", "url", st.URL, "id", id, "slug", item.Slug, "tags", len(tagIDs))
	return nil
}

// tagIDs resolves every tag name concurrently. The result keeps input order.
func (s *persistStage) tagIDs(ctx context.Context, names []string) ([]int64, error) {
	ids := make([]int64, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			id, err := s.gateway.GetOrCreateTag(gctx, name)
			if err != nil {
				return err
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}
