package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracerRecordsChunkSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	_, span := Tracer().Start(context.Background(), "chunk.load", ChunkAttrs(1, -2, 3))
	span.End()

	ended := rec.Ended()
	if assert.Len(t, ended, 1) {
		assert.Equal(t, "chunk.load", ended[0].Name())
		assert.Len(t, ended[0].Attributes(), 3)
	}
}
