package qwik

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for scheduler spans.
const defaultTracerName = "qwik"

// Span attribute keys.
var (
	attrChoreKind = attribute.Key("qwik.chore.kind")
	attrChoreHost = attribute.Key("qwik.chore.host")
	attrChoreProp = attribute.Key("qwik.chore.prop")
)

// spanContext carries the flush span downstream to per-chore spans.
type spanContext = context.Context

// tracing wraps the scheduler's tracer. A nil *tracing is valid everywhere
// and records nothing.
type tracing struct {
	tracer trace.Tracer
}

func newTracing(tracerName string) *tracing {
	if tracerName == "" {
		tracerName = defaultTracerName
	}
	return &tracing{tracer: otel.Tracer(tracerName)}
}

// flushSpan opens the span covering one full queue drain.
func (t *tracing) flushSpan() (spanContext, func()) {
	if t == nil {
		return context.Background(), func() {}
	}
	ctx, span := t.tracer.Start(context.Background(), "qwik.flush")
	return ctx, func() { span.End() }
}

// choreSpan opens a span for a single chore run nested under the flush span.
func (t *tracing) choreSpan(ctx spanContext, ch *Chore) func(error) {
	if t == nil {
		return func(error) {}
	}
	attrs := []attribute.KeyValue{
		attrChoreKind.String(ch.Kind.String()),
	}
	if ch.Host != nil {
		attrs = append(attrs, attrChoreHost.Int64(int64(ch.Host.HostID())))
	}
	if ch.Property != "" {
		attrs = append(attrs, attrChoreProp.String(ch.Property))
	}

	_, span := t.tracer.Start(ctx, "qwik.chore", trace.WithAttributes(attrs...))
	return func(err error) {
		if err != nil {
			if _, suspended := AsSuspended(err); !suspended {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
		}
		span.End()
	}
}
