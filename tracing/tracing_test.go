package tracing

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

func installRecorder(t *testing.T, ratio float64) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(NewProvider(ratio, sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestStartSpanTagsAndError(t *testing.T) {
	rec := installRecorder(t, 1)

	ctx, span := StartSpan(context.Background(), "pricer.impvol")
	AddTag(ctx, "iterations", 9)
	AddTag(ctx, "strike", 100.0)
	AddTag(ctx, "option_type", "CALL")
	AddTag(ctx, "strict", true)
	AddTag(ctx, "bracket", [2]float64{0, 1000})
	SetError(ctx, errors.New("root not bracketed"))
	SetError(ctx, nil)
	assert.NotEmpty(t, GetTraceID(ctx))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	s := ended[0]
	assert.Equal(t, "pricer.impvol", s.Name())
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "root not bracketed", s.Status().Description)
	assert.Contains(t, s.Attributes(), attribute.Int("iterations", 9))
	assert.Contains(t, s.Attributes(), attribute.Float64("strike", 100))
	assert.Contains(t, s.Attributes(), attribute.String("option_type", "CALL"))
	assert.Contains(t, s.Attributes(), attribute.Bool("strict", true))
	assert.Contains(t, s.Attributes(), attribute.String("bracket", "[0 1000]"))
	assert.Len(t, s.Events(), 1)
}

func TestSampleRatioZero(t *testing.T) {
	rec := installRecorder(t, 0)

	ctx, span := StartSpan(context.Background(), "pricer.price")
	AddTag(ctx, "strike", 100.0)
	span.End()

	assert.Empty(t, rec.Ended())
}

func TestGetTraceIDWithoutSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}
