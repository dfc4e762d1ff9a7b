package workflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/contentflow/contentflow/observe"
)

// Pipeline composes an ordered sequence of stages into one runnable unit.
// Execution is a single linear traversal: stages never run twice, never
// reorder, and a hard failure short-circuits everything after it.
type Pipeline struct {
	stages   []Stage
	store    Store
	observer observe.Sink
}

type PipelineOption func(*Pipeline)

func WithStore(store Store) PipelineOption {
	return func(p *Pipeline) { p.store = store }
}

func WithObserver(observer observe.Sink) PipelineOption {
	return func(p *Pipeline) {
		if observer != nil {
			p.observer = observer
		}
	}
}

func NewPipeline(stages []Stage, opts ...PipelineOption) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one stage")
	}
	seen := map[string]bool{}
	for _, st := range stages {
		if st == nil {
			return nil, fmt.Errorf("pipeline stage is nil")
		}
		if seen[st.Name()] {
			return nil, fmt.Errorf("pipeline stage %q registered twice", st.Name())
		}
		seen[st.Name()] = true
	}
	p := &Pipeline{
		stages:   stages,
		observer: observe.NoopSink{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// StageNames returns the ordered stage names, used by the visualization
// endpoint.
func (p *Pipeline) StageNames() []string {
	out := make([]string, 0, len(p.stages))
	for _, st := range p.stages {
		out = append(out, st.Name())
	}
	return out
}

// Run threads the state through every stage in order. It never returns an
// error: hard failures end up in the returned state's Status and Error
// fields, and the stages after the failure point are skipped.
func (p *Pipeline) Run(ctx context.Context, s State) State {
	p.emit(ctx, observe.Event{
		Kind:     observe.KindRun,
		Status:   observe.StatusStarted,
		RunID:    s.RunID,
		ThreadID: s.ThreadID,
		Message:  "workflow run started",
	})

	for _, stage := range p.stages {
		stageStart := time.Now()
		p.emit(ctx, observe.Event{
			Kind:      observe.KindStage,
			Status:    observe.StatusStarted,
			RunID:     s.RunID,
			ThreadID:  s.ThreadID,
			StageName: stage.Name(),
		})

		s = stage.Run(ctx, s)
		elapsed := time.Since(stageStart)

		p.checkpoint(ctx, s, stage.Name())

		if s.Status.Failed() {
			p.emit(ctx, observe.Event{
				Kind:       observe.KindStage,
				Status:     observe.StatusFailed,
				RunID:      s.RunID,
				ThreadID:   s.ThreadID,
				StageName:  stage.Name(),
				Error:      s.Error,
				DurationMs: elapsed.Milliseconds(),
			})
			p.emit(ctx, observe.Event{
				Kind:     observe.KindRun,
				Status:   observe.StatusFailed,
				RunID:    s.RunID,
				ThreadID: s.ThreadID,
				Error:    s.Error,
				Message:  "workflow run failed",
			})
			return s
		}

		p.emit(ctx, observe.Event{
			Kind:       observe.KindStage,
			Status:     observe.StatusCompleted,
			RunID:      s.RunID,
			ThreadID:   s.ThreadID,
			StageName:  stage.Name(),
			DurationMs: elapsed.Milliseconds(),
		})
	}

	p.emit(ctx, observe.Event{
		Kind:     observe.KindRun,
		Status:   observe.StatusCompleted,
		RunID:    s.RunID,
		ThreadID: s.ThreadID,
		Message:  "workflow run completed",
	})
	return s
}

// checkpoint persists the state reached after a stage. Store errors are
// logged and reported to the observer but do not abort the run.
func (p *Pipeline) checkpoint(ctx context.Context, s State, stageName string) {
	if p.store == nil {
		return
	}
	if err := p.store.Put(ctx, s.ThreadID, s); err != nil {
		log.Printf("checkpoint save failed for thread %s after %s: %v", s.ThreadID, stageName, err)
		p.emit(ctx, observe.Event{
			Kind:      observe.KindCheckpoint,
			Status:    observe.StatusFailed,
			RunID:     s.RunID,
			ThreadID:  s.ThreadID,
			StageName: stageName,
			Error:     err.Error(),
		})
		return
	}
	p.emit(ctx, observe.Event{
		Kind:      observe.KindCheckpoint,
		Status:    observe.StatusCompleted,
		RunID:     s.RunID,
		ThreadID:  s.ThreadID,
		StageName: stageName,
	})
}

func (p *Pipeline) emit(ctx context.Context, event observe.Event) {
	if p == nil || p.observer == nil {
		return
	}
	_ = p.observer.Emit(ctx, event)
}
