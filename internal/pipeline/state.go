package pipeline

import (
	"time"

	"github.com/IshaanNene/linkarchive/internal/types"
)

// Status is the lifecycle position of one URL in a run.
type Status int

const (
	StatusPending Status = iota
	StatusClassified
	StatusExtracted
	StatusSummarized
	StatusTagged
	StatusPersisted
	StatusFailed
)

var statusNames = [...]string{
	StatusPending:    "pending",
	StatusClassified: "classified",
	StatusExtracted:  "extracted",
	StatusSummarized: "summarized",
	StatusTagged:     "tagged",
	StatusPersisted:  "persisted",
	StatusFailed:     "failed",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Terminal reports whether no further stage may run.
func (s Status) Terminal() bool {
	return s == StatusPersisted || s == StatusFailed
}

// State carries one URL through the stages. Stages fill Item progressively.
type State struct {
	URL    string
	Status Status

	// Item is the record being assembled; Item.SourceURL is URL.
	Item *types.ArchivedItem

	// SummaryInput is the text handed to the summarizer and InputSource names
	// where it came from (markdown, transcript, description or placeholder).
	SummaryInput string
	InputSource  string

	// Updated is true when persistence hit an existing record.
	Updated bool

	// Err is the *types.PipelineError that failed the state, if any.
	Err error

	StartedAt time.Time
	Timings   map[string]time.Duration
}

// NewState creates a pending state for url.
func NewState(url string) *State {
	return &State{
		URL:     url,
		Status:  StatusPending,
		Item:    &types.ArchivedItem{SourceURL: url},
		Timings: make(map[string]time.Duration),
	}
}

// Advance moves the state forward to s. Moving backwards or out of a
// terminal state is ignored.
func (st *State) Advance(s Status) {
	if st.Status.Terminal() || s <= st.Status {
		return
	}
	st.Status = s
}

// Elapsed returns the time since the state entered the pipeline.
func (st *State) Elapsed() time.Duration {
	if st.StartedAt.IsZero() {
		return 0
	}
	return time.Since(st.StartedAt)
}
