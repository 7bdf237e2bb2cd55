package nn

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is the slog front end shared by every backend. Its Log* helpers
// fix the message text and attribute keys for each index event.
type Logger struct {
	*slog.Logger
}

// NewLogger returns a Logger over h. A nil h logs text at Info to stderr.
func NewLogger(h slog.Handler) *Logger {
	if h == nil {
		return NewTextLogger(os.Stderr, slog.LevelInfo)
	}
	return &Logger{Logger: slog.New(h)}
}

// NewTextLogger logs key=value lines at level and above to w.
func NewTextLogger(w io.Writer, level slog.Leveler) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger logs one JSON object per record at level and above to w.
func NewJSONLogger(w io.Writer, level slog.Leveler) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger is installed when Config.Logger is nil.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithKind adds the index kind to every record.
func (l *Logger) WithKind(kind Kind) *Logger {
	return &Logger{
		Logger: l.Logger.With("kind", string(kind)),
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(ctx context.Context, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed", "size", size, "error", err)
		return
	}
	l.DebugContext(ctx, "add completed", "size", size)
}

// LogRemove logs a remove operation.
func (l *Logger) LogRemove(ctx context.Context, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "remove failed", "size", size, "error", err)
		return
	}
	l.DebugContext(ctx, "remove completed", "size", size)
}

// LogUpdate logs an update operation.
func (l *Logger) LogUpdate(ctx context.Context, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed", "size", size, "error", err)
		return
	}
	l.DebugContext(ctx, "update completed", "size", size)
}

// LogSearch logs a k-nearest search.
func (l *Logger) LogSearch(ctx context.Context, k, found int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "k", k, "error", err)
		return
	}
	l.DebugContext(ctx, "search completed", "k", k, "results", found)
}

// LogBuild logs a bulk build.
func (l *Logger) LogBuild(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed", "count", count, "error", err)
		return
	}
	l.InfoContext(ctx, "build completed", "count", count)
}

// LogSplit logs a leaf split.
func (l *Logger) LogSplit(ctx context.Context, count int, radius float64) {
	l.DebugContext(ctx, "leaf split", "count", count, "radius", radius)
}

// LogMerge logs the collapse of an underfull subtree.
func (l *Logger) LogMerge(ctx context.Context, count int) {
	l.DebugContext(ctx, "subtree merged", "count", count)
}

// LogRebuild logs the rebuild of an unbalanced subtree.
func (l *Logger) LogRebuild(ctx context.Context, count int) {
	l.DebugContext(ctx, "subtree rebuilt", "count", count)
}
