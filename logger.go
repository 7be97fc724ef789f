package cellheap

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/cellheap/heap"
	"github.com/hupe1980/cellheap/inline"
)

// Logger wraps slog.Logger with cellheap-specific helpers so every operation
// logs the same field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, a text handler at info level writing to stderr is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards everything.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithAddr adds the run address field.
func (l *Logger) WithAddr(addr heap.Addr) *Logger {
	return &Logger{Logger: l.Logger.With("addr", uint64(addr))}
}

// WithBlob adds the blob name field.
func (l *Logger) WithBlob(name string) *Logger {
	return &Logger{Logger: l.Logger.With("blob", name)}
}

// LogInline logs a run write.
func (l *Logger) LogInline(addr heap.Addr, size int, err error) {
	if err != nil {
		l.Warn("inline write failed",
			"size", size,
			"error", err,
		)
		return
	}
	l.Debug("inline write completed",
		"addr", uint64(addr),
		"size", size,
		"cells", inline.CellsFor(size),
	)
}

// LogSnapshot logs a snapshot upload.
func (l *Logger) LogSnapshot(ctx context.Context, name string, bytes int64, cells int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"blob", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot saved",
		"blob", name,
		"bytes", bytes,
		"cells", cells,
	)
}

// LogRestore logs a snapshot restore.
func (l *Logger) LogRestore(ctx context.Context, name string, cells int, runs uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"blob", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "restore completed",
		"blob", name,
		"cells", cells,
		"runs", runs,
	)
}

// LogReset logs an engine reset.
func (l *Logger) LogReset(droppedCells int, droppedRuns uint64) {
	l.Info("engine reset",
		"dropped_cells", droppedCells,
		"dropped_runs", droppedRuns,
	)
}
