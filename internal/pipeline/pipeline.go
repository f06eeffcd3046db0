package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/IshaanNene/linkarchive/internal/types"
)

// Stage is one step of URL ingestion.
type Stage interface {
	// Name returns the stage's identifier.
	Name() string

	// Process advances st. A returned error fails the URL.
	Process(ctx context.Context, st *State) error
}

// StageHook observes every stage execution.
type StageHook func(stage string, d time.Duration, err error)

// Pipeline runs stages in order for one URL at a time.
type Pipeline struct {
	stages []Stage
	hooks  []StageHook
	logger *slog.Logger
}

// New creates an empty Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use appends a stage to the chain.
func (p *Pipeline) Use(stage Stage) {
	p.stages = append(p.stages, stage)
	p.logger.Debug("stage added", "name", stage.Name(), "position", len(p.stages))
}

// OnStage registers a hook called after each stage.
func (p *Pipeline) OnStage(hook StageHook) {
	p.hooks = append(p.hooks, hook)
}

// Run processes st through every stage. The first failing stage stops the
// chain; its error is wrapped in *types.PipelineError, stored in st.Err and
// the state is marked failed.
func (p *Pipeline) Run(ctx context.Context, st *State) error {
	if st.StartedAt.IsZero() {
		st.StartedAt = time.Now()
	}

	for _, stage := range p.stages {
		if st.Status.Terminal() {
			break
		}
		if err := ctx.Err(); err != nil {
			return p.fail(st, stage.Name(), err)
		}

		start := time.Now()
		err := stage.Process(ctx, st)
		d := time.Since(start)
		st.Timings[stage.Name()] = d

		for _, hook := range p.hooks {
			hook(stage.Name(), d, err)
		}
		if err != nil {
			return p.fail(st, stage.Name(), err)
		}
	}
	return nil
}

func (p *Pipeline) fail(st *State, stage string, err error) error {
	perr := &types.PipelineError{Stage: stage, URL: st.URL, Err: err}
	st.Status = StatusFailed
	st.Err = perr
	p.logger.Debug("stage failed", "stage", stage, "url", st.URL, "error", err)
	return perr
}

// Len returns the number of stages in the chain.
func (p *Pipeline) Len() int {
	return len(p.stages)
}
