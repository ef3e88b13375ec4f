package navgraph

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with navgraph-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, id uint32, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"id", id,
			"dimension", dimension,
		)
	}
}

// LogBuildStart logs the start of a bulk build.
func (l *Logger) LogBuildStart(ctx context.Context, count int) {
	l.InfoContext(ctx, "build started",
		"vectors", count,
	)
}

// LogBuildProgress logs bulk build progress.
func (l *Logger) LogBuildProgress(ctx context.Context, linked, total int) {
	l.InfoContext(ctx, "build progress",
		"linked", linked,
		"total", total,
	)
}

// LogBuild logs the outcome of a bulk build.
func (l *Logger) LogBuild(ctx context.Context, count int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"vectors", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"vectors", count,
			"duration", duration,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogSave logs a save operation.
func (l *Logger) LogSave(ctx context.Context, name string, nodes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index saved",
			"name", name,
			"nodes", nodes,
		)
	}
}

// LogLoad logs a load operation.
func (l *Logger) LogLoad(ctx context.Context, name string, nodes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index loaded",
			"name", name,
			"nodes", nodes,
		)
	}
}
