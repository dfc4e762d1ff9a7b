// Package otel bridges the observe.Sink to OpenTelemetry tracing.
//
// It converts observe.Event objects into OTel spans so that workflow runs,
// stage executions, and provider calls are visible in any
// OpenTelemetry-compatible backend (Jaeger, Zipkin, Grafana, etc.).
package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/contentflow/contentflow/observe"
)

const instrumentationName = "github.com/contentflow/contentflow"

// Sink implements observe.Sink by emitting OpenTelemetry spans.
type Sink struct {
	tracer trace.Tracer
}

// NewSink creates an OTel sink using the given TracerProvider.
// If tp is nil, it uses a noop tracer provider.
func NewSink(tp trace.TracerProvider) *Sink {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Sink{
		tracer: tp.Tracer(instrumentationName),
	}
}

// Emit converts an observe.Event into an OTel span.
func (s *Sink) Emit(_ context.Context, event observe.Event) error {
	event.Normalize()

	spanName := spanNameFor(event)
	ctx := context.Background()
	startTime := event.Timestamp

	_, span := s.tracer.Start(ctx, spanName, trace.WithTimestamp(startTime))

	attrs := []attribute.KeyValue{
		attribute.String("newsletter.event.kind", string(event.Kind)),
	}
	if event.RunID != "" {
		attrs = append(attrs, attribute.String("newsletter.run.id", event.RunID))
	}
	if event.ThreadID != "" {
		attrs = append(attrs, attribute.String("newsletter.thread.id", event.ThreadID))
	}
	if event.Provider != "" {
		attrs = append(attrs, attribute.String("newsletter.provider", event.Provider))
	}
	if event.StageName != "" {
		attrs = append(attrs, attribute.String("newsletter.stage.name", event.StageName))
	}
	if event.Name != "" {
		attrs = append(attrs, attribute.String("newsletter.event.name", event.Name))
	}
	if event.Status != "" {
		attrs = append(attrs, attribute.String("newsletter.status", string(event.Status)))
	}
	if event.Message != "" {
		attrs = append(attrs, attribute.String("newsletter.message", truncate(event.Message, 1024)))
	}
	if event.DurationMs > 0 {
		attrs = append(attrs, attribute.Int64("newsletter.duration_ms", event.DurationMs))
	}

	for k, v := range event.Attributes {
		attrs = append(attrs, attribute.String("newsletter.attr."+k, fmt.Sprintf("%v", v)))
	}

	span.SetAttributes(attrs...)

	if event.Status == observe.StatusFailed {
		span.SetStatus(codes.Error, event.Error)
		if event.Error != "" {
			span.RecordError(fmt.Errorf("%s", event.Error))
		}
	} else if event.Status == observe.StatusCompleted {
		span.SetStatus(codes.Ok, "")
	}

	endTime := startTime
	if event.DurationMs > 0 {
		endTime = startTime.Add(time.Duration(event.DurationMs) * time.Millisecond)
	}
	span.End(trace.WithTimestamp(endTime))
	return nil
}

func spanNameFor(event observe.Event) string {
	switch event.Kind {
	case observe.KindRun:
		return "newsletter.run"
	case observe.KindStage:
		if event.StageName != "" {
			return "newsletter.stage." + event.StageName
		}
		return "newsletter.stage"
	case observe.KindProvider:
		if event.Provider != "" {
			return "newsletter.llm." + event.Provider
		}
		return "newsletter.llm.generate"
	case observe.KindSearch:
		return "newsletter.search"
	case observe.KindCheckpoint:
		return "newsletter.checkpoint"
	default:
		if event.Name != "" {
			return "newsletter." + event.Name
		}
		return "newsletter.event"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
