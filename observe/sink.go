package observe

import (
	"context"
	"log"
	"sync"
)

// Sink receives pipeline telemetry. Implementations must be safe for
// concurrent use; a failing sink never aborts a workflow run.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Emit(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type NoopSink struct{}

func (NoopSink) Emit(ctx context.Context, event Event) error {
	_ = ctx
	_ = event
	return nil
}

// LogSink writes one log line per event. It is the default observer when
// tracing is disabled, and runs alongside the OTel sink when it is not.
type LogSink struct{}

func (LogSink) Emit(_ context.Context, event Event) error {
	event.Normalize()
	label := string(event.Kind)
	if event.StageName != "" {
		label += " " + event.StageName
	}
	switch {
	case event.Error != "":
		log.Printf("observe: %s %s thread=%s error=%q", label, event.Status, event.ThreadID, event.Error)
	case event.DurationMs > 0:
		log.Printf("observe: %s %s thread=%s duration=%dms", label, event.Status, event.ThreadID, event.DurationMs)
	default:
		log.Printf("observe: %s %s thread=%s", label, event.Status, event.ThreadID)
	}
	return nil
}

// MultiSink fans every event out to each configured sink in order. The run,
// stage, and checkpoint events always reach the log; the same events reach
// the tracing backend when one is configured.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s == nil {
			continue
		}
		filtered = append(filtered, s)
	}
	if len(filtered) == 0 {
		return NoopSink{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &MultiSink{sinks: filtered}
}

func (m *MultiSink) Emit(ctx context.Context, event Event) error {
	if m == nil {
		return nil
	}
	for _, sink := range m.sinks {
		if err := sink.Emit(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// AsyncSink decouples the pipeline hot path from a slow downstream sink.
// Events are queued to a single consumer goroutine; when the queue is full
// the event is dropped rather than blocking a stage.
type AsyncSink struct {
	next   Sink
	queue  chan Event
	mu     sync.RWMutex
	closed bool
}

func NewAsyncSink(next Sink, buffer int) *AsyncSink {
	if next == nil {
		next = NoopSink{}
	}
	if buffer <= 0 {
		buffer = 256
	}
	as := &AsyncSink{
		next:  next,
		queue: make(chan Event, buffer),
	}
	go as.drain()
	return as
}

// Emit is safe to call after Close: background runs outlive server shutdown
// and their events are silently dropped once the sink is closed.
func (s *AsyncSink) Emit(ctx context.Context, event Event) error {
	if s == nil {
		return nil
	}
	event.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.queue <- event:
		return nil
	default:
		return nil
	}
}

func (s *AsyncSink) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.queue)
}

func (s *AsyncSink) drain() {
	for event := range s.queue {
		_ = s.next.Emit(context.Background(), event)
	}
}
