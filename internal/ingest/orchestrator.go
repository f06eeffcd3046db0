package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/linkarchive/internal/ai"
	"github.com/IshaanNene/linkarchive/internal/config"
	"github.com/IshaanNene/linkarchive/internal/extract"
	"github.com/IshaanNene/linkarchive/internal/observability"
	"github.com/IshaanNene/linkarchive/internal/pipeline"
	"github.com/IshaanNene/linkarchive/internal/slug"
	"github.com/IshaanNene/linkarchive/internal/storage"
)

// WebScraper is the web strategy.
type WebScraper interface {
	Scrape(ctx context.Context, url string) (*extract.WebContent, error)
}

// VideoFetcher is the video strategy.
type VideoFetcher interface {
	Extract(ctx context.Context, url string) (*extract.VideoContent, error)
}

// Summarizer produces summaries and raw tags for a piece of content.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (*ai.Summaries, error)
	ExtractTags(ctx context.Context, content string) ([]string, error)
}

// Options tune a run.
type Options struct {
	// DryRun skips every gateway write.
	DryRun bool

	// MaxTags caps the tag set per item. <= 0 uses tags.DefaultMax.
	MaxTags int

	// Now is the wall clock used for week buckets. Defaults to time.Now.
	Now func() time.Time
}

// Orchestrator ingests a batch of URLs one at a time, in input order.
type Orchestrator struct {
	web        WebScraper
	video      VideoFetcher
	summarizer Summarizer
	gateway    storage.Gateway
	metrics    *observability.Metrics
	opts       Options
	logger     *slog.Logger
}

// New creates an orchestrator writing to gateway.
func New(gateway storage.Gateway, opts Options, logger *slog.Logger) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		gateway: gateway,
		opts:    opts,
		logger:  logger.With("component", "orchestrator"),
	}
}

// SetWebScraper sets the web strategy.
func (o *Orchestrator) SetWebScraper(w WebScraper) { o.web = w }

// SetVideoFetcher sets the video strategy.
func (o *Orchestrator) SetVideoFetcher(v VideoFetcher) { o.video = v }

// SetSummarizer sets the summarization service.
func (o *Orchestrator) SetSummarizer(s Summarizer) { o.summarizer = s }

// SetMetrics enables run metrics.
func (o *Orchestrator) SetMetrics(m *observability.Metrics) { o.metrics = m }

// Run processes urls and returns the per-URL report. Per-URL failures are
// recorded in the report; the returned error is reserved for failures that
// prevent the run from starting.
func (o *Orchestrator) Run(ctx context.Context, urls []string) (*Report, error) {
	if o.web == nil || o.video == nil || o.summarizer == nil {
		return nil, errors.New("orchestrator: web scraper, video fetcher and summarizer are required")
	}

	existing, err := o.gateway.ListAllSlugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading slug snapshot: %w", err)
	}

	report := &Report{
		RunID:   uuid.NewString(),
		DryRun:  o.opts.DryRun,
		Results: make([]Result, 0, len(urls)),
		Started: time.Now(),
	}
	logger := o.logger.With("run_id", report.RunID)
	logger.Info("run starting",
		"urls", len(urls),
		"known_slugs", len(existing),
		"storage", o.gateway.Name(),
		"dry_run", o.opts.DryRun,
	)

	p := o.buildPipeline(slug.NewRegistry(existing), logger)

	for i, u := range urls {
		logger.Info("processing", "index", i+1, "total", len(urls), "url", u)
		res := o.ingestOne(ctx, p, u)
		report.Results = append(report.Results, res)

		if res.Success {
			logger.Info("done", "url", u, "result", res.Action(), "slug", res.Slug, "duration", res.Duration)
		} else {
			logger.Error("failed", "url", u, "error", res.Err)
		}
	}

	report.Finished = time.Now()
	if o.metrics != nil {
		success := 0.0
		if report.Failed() == 0 {
			success = 1
		}
		o.metrics.LastRunSuccess.Set(success)
	}
	logger.Info("run finished",
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"duration", report.Finished.Sub(report.Started),
	)
	return report, nil
}

func (o *Orchestrator) buildPipeline(registry *slug.Registry, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(logger)
	p.Use(&classifyStage{logger: logger})
	p.Use(&extractStage{web: o.web, video: o.video, logger: logger})
	p.Use(&summarizeStage{summarizer: o.summarizer, logger: logger})
	p.Use(&tagStage{summarizer: o.summarizer, maxTags: o.opts.MaxTags, logger: logger})
	p.Use(&persistStage{
		gateway:  o.gateway,
		registry: registry,
		now:      o.opts.Now,
		dryRun:   o.opts.DryRun,
		logger:   logger,
		planned:  make(map[string]string),
	})
	if o.metrics != nil {
		p.OnStage(o.metrics.ObserveStage)
	}
	return p
}

// ingestOne runs the pipeline for a single URL. A malformed URL fails
// before any stage runs.
func (o *Orchestrator) ingestOne(ctx context.Context, p *pipeline.Pipeline, u string) Result {
	st := pipeline.NewState(u)
	st.StartedAt = time.Now()

	var err error
	if verr := config.ValidateURL(u); verr != nil {
		err = verr
	} else {
		err = p.Run(ctx, st)
	}

	res := Result{
		URL:      u,
		Slug:     st.Item.Slug,
		Updated:  st.Updated,
		Success:  err == nil,
		Err:      err,
		Duration: st.Elapsed(),
	}
	if res.Success {
		res.Item = st.Item
	}
	o.observe(res, len(st.Item.Tags))
	return res
}

func (o *Orchestrator) observe(res Result, tagCount int) {
	if o.metrics == nil {
		return
	}
	result := observability.ResultInserted
	switch {
	case !res.Success:
		result = observability.ResultFailed
	case o.opts.DryRun:
		result = observability.ResultDryRun
	case res.Updated:
		result = observability.ResultUpdated
	}
	o.metrics.ObserveURL(result, res.Duration)
	if res.Success && !o.opts.DryRun {
		o.metrics.TagsLinked.Add(float64(tagCount))
	}
}
