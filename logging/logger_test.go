package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func TestNewFromConfigFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Service: "bachelier", Module: "pricing", Level: "info", Writer: &buf})

	l.Info("priced", "strike", 100.0)

	lines := decodeLines(t, buf.Bytes())
	require.Len(t, lines, 1)
	assert.Equal(t, "priced", lines[0]["msg"])
	assert.Equal(t, "bachelier", lines[0]["service"])
	assert.Equal(t, "pricing", lines[0]["module"])
	assert.Equal(t, 100.0, lines[0]["strike"])
	assert.Contains(t, lines[0], "timestamp")
	assert.NotContains(t, lines[0], "time")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Service: "s", Module: "m", Level: "warn", Writer: &buf})
	t.Cleanup(func() { SetLevel("info") })

	l.Info("hidden")
	l.Warn("shown")
	SetLevel("debug")
	l.Debug("debug shown")

	lines := decodeLines(t, buf.Bytes())
	require.Len(t, lines, 2)
	assert.Equal(t, "shown", lines[0]["msg"])
	assert.Equal(t, "debug shown", lines[1]["msg"])
}

func TestTraceInjection(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Service: "s", Module: "m", Level: "info", Writer: &buf})

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	l.With("op", "impvol").InfoContext(ctx, "traced")
	l.InfoContext(context.Background(), "untraced")

	lines := decodeLines(t, buf.Bytes())
	require.Len(t, lines, 2)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", lines[0]["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", lines[0]["span_id"])
	assert.Equal(t, "impvol", lines[0]["op"])
	assert.NotContains(t, lines[1], "trace_id")
}

func TestFileOutputs(t *testing.T) {
	dir := t.TempDir()

	fileOnly := filepath.Join(dir, "file.log")
	var stdout bytes.Buffer
	l := NewFromConfig(Config{Service: "s", Module: "m", Level: "info", File: fileOnly, Writer: &stdout})
	l.Info("to file")
	assert.Zero(t, stdout.Len())

	data, err := os.ReadFile(fileOnly)
	require.NoError(t, err)
	lines := decodeLines(t, data)
	require.Len(t, lines, 1)
	assert.Equal(t, "to file", lines[0]["msg"])

	both := filepath.Join(dir, "both.log")
	l = NewFromConfig(Config{Service: "s", Module: "m", Level: "info", Output: "both", File: both, Writer: &stdout})
	l.Info("everywhere")

	data, err = os.ReadFile(both)
	require.NoError(t, err)
	assert.Len(t, decodeLines(t, data), 1)
	assert.Len(t, decodeLines(t, stdout.Bytes()), 1)
}

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	l := NewLogger("svc", "mod")
	assert.Equal(t, "svc", l.Service)
	assert.Equal(t, "mod", l.Module)
	assert.False(t, l.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, l.Enabled(context.Background(), slog.LevelInfo))
}
