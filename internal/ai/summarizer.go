package ai

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/linkarchive/internal/tags"
	"github.com/IshaanNene/linkarchive/internal/types"
)

const (
	// ShortSummaryMax is the hard cap on short summary length, in characters.
	ShortSummaryMax = 200

	// DefaultMaxInputChars bounds the content sent to the backend.
	DefaultMaxInputChars = 100000

	ellipsis = "..."
)

// Task names carried by SummarizationError.
const (
	TaskShort    = "short_summary"
	TaskExtended = "extended_summary"
	TaskTags     = "tags"
)

// Summaries holds both summary lengths for one piece of content.
type Summaries struct {
	Short    string
	Extended string
}

// Summarizer produces summaries and tags through a TextGenerator.
type Summarizer struct {
	gen           TextGenerator
	maxInputChars int
	logger        *slog.Logger
}

// NewSummarizer creates a summarizer. maxInputChars <= 0 uses DefaultMaxInputChars.
func NewSummarizer(gen TextGenerator, maxInputChars int, logger *slog.Logger) *Summarizer {
	if maxInputChars <= 0 {
		maxInputChars = DefaultMaxInputChars
	}
	return &Summarizer{
		gen:           gen,
		maxInputChars: maxInputChars,
		logger:        logger.With("component", "summarizer"),
	}
}

// Summarize generates the short and extended summaries concurrently.
// The short summary is capped at ShortSummaryMax characters.
func (s *Summarizer) Summarize(ctx context.Context, content string) (*Summaries, error) {
	content = s.clip(content)
	var out Summaries

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := s.gen.Generate(gctx, ShortSummaryPrompt(content))
		if err != nil {
			return &types.SummarizationError{Task: TaskShort, Err: err}
		}
		out.Short = TruncateShort(strings.TrimSpace(text))
		return nil
	})
	g.Go(func() error {
		text, err := s.gen.Generate(gctx, ExtendedSummaryPrompt(content))
		if err != nil {
			return &types.SummarizationError{Task: TaskExtended, Err: err}
		}
		out.Extended = strings.TrimSpace(text)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("summaries generated", "short_len", utf8.RuneCountInString(out.Short), "extended_len", len(out.Extended))
	return &out, nil
}

// ExtractTags asks the backend for a comma-separated tag list and splits it.
// The result is not normalized; see tags.Sanitize.
func (s *Summarizer) ExtractTags(ctx context.Context, content string) ([]string, error) {
	text, err := s.gen.Generate(ctx, TagsPrompt(s.clip(content)))
	if err != nil {
		return nil, &types.SummarizationError{Task: TaskTags, Err: err}
	}
	return tags.ParseList(text), nil
}

func (s *Summarizer) clip(content string) string {
	if utf8.RuneCountInString(content) <= s.maxInputChars {
		return content
	}
	runes := []rune(content)
	s.logger.Debug("content truncated for generation", "from", len(runes), "to", s.maxInputChars)
	return string(runes[:s.maxInputChars])
}

// TruncateShort enforces ShortSummaryMax: longer text is cut to 197 characters plus "...".
func TruncateShort(text string) string {
	if utf8.RuneCountInString(text) <= ShortSummaryMax {
		return text
	}
	runes := []rune(text)
	return string(runes[:ShortSummaryMax-len(ellipsis)]) + ellipsis
}
