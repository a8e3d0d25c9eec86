package triton

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/hupe1980/triton/arena"
	"github.com/hupe1980/triton/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf).WithSeed("Sprite").WithID(object.MustParseIdentifier("Sprite7"))

	l.Info("created")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "Sprite", lines[0]["seed"])
	assert.Equal(t, "Sprite7", lines[0]["id"])
}

func TestLogger_LogLoad(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)
	ctx := context.Background()

	l.LogLoad(ctx, "a.bin", 42, nil)
	l.LogLoad(ctx, "b.bin", 0, errors.New("boom"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "DEBUG", lines[0]["level"])
	assert.Equal(t, float64(42), lines[0]["bytes"])
	assert.Equal(t, "42 B", lines[0]["human"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestLogger_LogLeak(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.LogLeak(context.Background(), arena.Stats{BytesUsed: 2048, LiveAllocs: 3})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "2.0 KiB", lines[0]["human"])
	assert.Equal(t, float64(3), lines[0]["allocations"])
}

func TestLogger_LogClose(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.LogClose(context.Background(), nil)
	l.LogClose(context.Background(), errors.New("unmap"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "engine closed", lines[0]["msg"])
	assert.Equal(t, "engine close failed", lines[1]["msg"])
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}
