package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestCtxAddsTraceFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "figures-test", "debug")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	Ctx(ctx).Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "figures-test", entry["service"])
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry["span_id"])
}

func TestCtxWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "figures-test", "not-a-level")

	Ctx(context.Background()).Debug().Msg("dropped")
	assert.Zero(t, buf.Len(), "invalid level falls back to info")

	Ctx(context.Background()).Info().Msg("kept")
	assert.NotContains(t, buf.String(), "trace_id")
}
