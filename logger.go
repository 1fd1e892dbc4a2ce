package diskset

import (
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
)

// Logger wraps slog.Logger with diskset-specific context.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithCollection adds the collection ID to the logger.
func (l *Logger) WithCollection(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("collection", id),
	}
}

// LogOpen logs the creation of a collection and its backing files.
func (l *Logger) LogOpen(index, contents string, cacheSize int) {
	l.Info("collection opened",
		"index_file", index,
		"contents_file", contents,
		"cache_size", cacheSize,
	)
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(size int, err error) {
	if err != nil {
		l.Error("add failed",
			"size", size,
			"error", err,
		)
	} else {
		l.Debug("add completed",
			"size", size,
		)
	}
}

// LogRemove logs a remove operation.
func (l *Logger) LogRemove(found bool, size int, err error) {
	if err != nil {
		l.Error("remove failed",
			"size", size,
			"error", err,
		)
	} else {
		l.Debug("remove completed",
			"found", found,
			"size", size,
		)
	}
}

// LogClear logs a clear operation.
func (l *Logger) LogClear(removed int, err error) {
	if err != nil {
		l.Error("clear failed",
			"error", err,
		)
	} else {
		l.Info("collection cleared",
			"removed", removed,
		)
	}
}

// LogClose logs the teardown of a collection.
func (l *Logger) LogClose(size int, written int64, err error) {
	if err != nil {
		l.Error("close failed",
			"size", size,
			"error", err,
		)
	} else {
		l.Info("collection closed",
			"size", size,
			"written", humanize.Bytes(uint64(written)),
		)
	}
}
