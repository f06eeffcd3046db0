package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrInvalidURL            = errors.New("invalid URL")
	ErrEmptyContent          = errors.New("no content extracted")
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
	ErrNotFound              = errors.New("not found")
)

// InvalidURLError reports a URL that no extractor can interpret.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid URL %s: %s", e.URL, e.Reason)
	}
	return fmt.Sprintf("invalid URL %s", e.URL)
}

func (e *InvalidURLError) Unwrap() error { return ErrInvalidURL }

// ExtractionError wraps renderer failures and empty extraction results.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error for %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// SummarizationError wraps text-generation backend failures.
type SummarizationError struct {
	Task string // "short_summary", "extended_summary" or "tags"
	Err  error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization error (%s): %v", e.Task, e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// PersistenceError wraps errors that occur in a persistence gateway.
type PersistenceError struct {
	Backend string
	Op      string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error (%s %s): %v", e.Backend, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in an ingestion stage.
type PipelineError struct {
	Stage string
	URL   string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
