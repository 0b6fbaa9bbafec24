package ngtgo

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/ngtgo/model"
)

// Logger wraps slog.Logger with ngtgo-specific operation helpers.
// Field names are consistent across operations.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON lines to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithIndex tags every record with the index identity.
func (l *Logger) WithIndex(uuid string) *Logger {
	return &Logger{Logger: l.Logger.With("index", uuid)}
}

// LogInsert logs an insert or append.
func (l *Logger) LogInsert(op string, id model.ObjectID, err error) {
	if err != nil {
		l.Error(op+" failed", "error", err)
		return
	}
	l.Debug(op+" completed", "id", id)
}

// LogBatchInsert logs a batch insert or append.
func (l *Logger) LogBatchInsert(op string, count, failed int) {
	if failed > 0 {
		l.Warn(op+" completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
		return
	}
	l.Debug(op+" completed", "count", count)
}

// LogSearch logs a search.
func (l *Logger) LogSearch(size, results int, epsilon, radius float32, err error) {
	if err != nil {
		l.Error("search failed", "size", size, "error", err)
		return
	}
	l.Debug("search completed",
		"size", size,
		"epsilon", epsilon,
		"radius", radius,
		"results", results,
	)
}

// LogRemove logs the removal of an object.
func (l *Logger) LogRemove(id model.ObjectID, err error) {
	if err != nil {
		l.Error("remove failed", "id", id, "error", err)
		return
	}
	l.Debug("remove completed", "id", id)
}

// LogBuild logs a bulk build of appended objects.
func (l *Logger) LogBuild(ctx context.Context, linked, poolSize int, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create index failed",
			"linked", linked,
			"pool", poolSize,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "create index completed",
		"linked", linked,
		"pool", poolSize,
		"took", took,
	)
}

// LogRebuild logs a tombstone compaction.
func (l *Logger) LogRebuild(recycled int, took time.Duration, err error) {
	if err != nil {
		l.Error("rebuild failed", "error", err)
		return
	}
	l.Info("rebuild completed", "recycled", recycled, "took", took)
}

// LogSave logs the persistence of an index.
func (l *Logger) LogSave(ctx context.Context, bytes int, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed", "error", err)
		return
	}
	l.InfoContext(ctx, "save completed", "bytes", bytes, "took", took)
}

// LogOpen logs the loading of an index.
func (l *Logger) LogOpen(ctx context.Context, objects int, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed", "error", err)
		return
	}
	l.InfoContext(ctx, "open completed", "objects", objects, "took", took)
}
