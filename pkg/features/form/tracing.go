package form

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTracerName is the tracer used when none is configured.
const DefaultTracerName = "regform/form"

// newTracer resolves a tracer from the global provider. Without an SDK
// installed the spans are no-ops.
func newTracer(name string) trace.Tracer {
	if name == "" {
		name = DefaultTracerName
	}
	return otel.Tracer(name)
}

// startAsyncSpan starts the span around one async validation run.
func (f *Form[T]) startAsyncSpan(ctx context.Context, fld string, gen uint64) (context.Context, trace.Span) {
	return f.tracer.Start(ctx, "form.validate_async",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("form.id", f.id),
			attribute.String("form.field", fld),
			attribute.Int64("form.generation", int64(gen)),
		))
}

// startSubmitSpan starts the span around the submit action.
func (f *Form[T]) startSubmitSpan(ctx context.Context, submissionID string) (context.Context, trace.Span) {
	return f.tracer.Start(ctx, "form.submit",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("form.id", f.id),
			attribute.String("form.submission_id", submissionID),
		))
}

// endSpan records err, if any, and ends span.
func endSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
