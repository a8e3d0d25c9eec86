package triton

import (
	"context"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/hupe1980/triton/arena"
	"github.com/hupe1980/triton/object"
)

// Logger is the engine's slog.Logger. Its helpers keep field names
// consistent between the engine and its subsystems.
type Logger struct {
	*slog.Logger
}

// NewLogger wraps handler. A nil handler logs text at info level to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		return NewTextLogger(slog.LevelInfo)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger logs JSON lines at level and above to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger logs key=value text at level and above to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithSeed adds a seed (object type) field to the logger.
func (l *Logger) WithSeed(seed string) *Logger {
	return &Logger{
		Logger: l.Logger.With("seed", seed),
	}
}

// WithID adds an identifier field to the logger.
func (l *Logger) WithID(id object.Identifier) *Logger {
	return &Logger{
		Logger: l.Logger.With("id", id.String()),
	}
}

// LogLoad logs an asset load.
func (l *Logger) LogLoad(ctx context.Context, name string, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "asset load failed", "name", name, "error", err)
		return
	}
	l.DebugContext(ctx, "asset loaded", "name", name, "bytes", bytes, "human", humanize.IBytes(uint64(max(bytes, 0))))
}

// LogLeak logs arena memory still allocated at shutdown.
func (l *Logger) LogLeak(ctx context.Context, s arena.Stats) {
	l.WarnContext(ctx, "arena memory leaked at shutdown",
		"bytes", s.BytesUsed,
		"human", humanize.IBytes(s.BytesUsed),
		"allocations", s.LiveAllocs,
	)
}

// LogClose logs engine shutdown.
func (l *Logger) LogClose(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "engine close failed", "error", err)
		return
	}
	l.InfoContext(ctx, "engine closed")
}
