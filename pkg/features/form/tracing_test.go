package form

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) attribute.Value {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestSpans(t *testing.T) {
	rec := withRecorder(t)
	boom := errors.New("backend down")
	h := newHarness(t, func(ctx context.Context, v signup) error {
		return boom
	})

	fillValid(h)
	require.NoError(t, h.form.Submit())
	h.eventually(func(s State[signup]) bool { return s.IsSubmitted }, "submission should settle")

	spans := rec.Ended()
	require.Len(t, spans, 2)

	async := spans[0]
	assert.Equal(t, "form.validate_async", async.Name())
	assert.Equal(t, "firstName", spanAttr(async, "form.field").AsString())
	assert.Equal(t, h.form.ID(), spanAttr(async, "form.id").AsString())
	assert.Equal(t, int64(1), spanAttr(async, "form.generation").AsInt64())
	assert.Equal(t, codes.Ok, async.Status().Code)

	submit := spans[1]
	assert.Equal(t, "form.submit", submit.Name())
	assert.NotEmpty(t, spanAttr(submit, "form.submission_id").AsString())
	assert.Equal(t, codes.Error, submit.Status().Code)
	assert.Equal(t, "backend down", submit.Status().Description)
}
