package ipxdb

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with ipxdb-specific context.
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
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithSource adds the source path field to the logger.
func (l *Logger) WithSource(path string) *Logger {
	return &Logger{Logger: l.Logger.With("source", path)}
}

// WithDestination adds the destination path field to the logger.
func (l *Logger) WithDestination(path string) *Logger {
	return &Logger{Logger: l.Logger.With("destination", path)}
}

// LogLoad logs the outcome of the segment loading step.
func (l *Logger) LogLoad(ctx context.Context, count int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "segment load failed",
			"segments", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "all segments loaded",
			"segments", count,
			"elapsed", elapsed,
		)
	}
}

// LogBuild logs the outcome of a build run.
func (l *Logger) LogBuild(ctx context.Context, report *BuildReport, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "write done",
		"data_blocks", report.DataBlocks,
		"index_blocks", report.IndexBlocks,
		"segments", report.SegmentCount,
		"start_index_ptr", report.StartIndexPtr,
		"end_index_ptr", report.EndIndexPtr,
	)
}

// LogVerify logs the outcome of a verification pass.
func (l *Logger) LogVerify(ctx context.Context, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "verification failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "verification passed",
			"path", path,
		)
	}
}

// LogPublish logs the outcome of a publish.
func (l *Logger) LogPublish(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publish failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "database published",
			"name", name,
		)
	}
}

// LogCloseError logs a close failure. Close failures are reported but do not
// invalidate bytes that were already written and synced.
func (l *Logger) LogCloseError(ctx context.Context, path string, err error) {
	l.WarnContext(ctx, "close failed",
		"path", path,
		"error", err,
	)
}
