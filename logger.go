package fatfs

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with file-system specific helpers.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithDevice tags every record with the device geometry.
func (l *Logger) WithDevice(numBlocks int) *Logger {
	return &Logger{
		Logger: l.Logger.With("blocks", numBlocks),
	}
}

// LogOperation logs the outcome of a file-system operation.
// Rejected requests are logged at WARN, device failures at ERROR.
func (l *Logger) LogOperation(ctx context.Context, op, path string, err error) {
	switch {
	case err == nil:
		l.DebugContext(ctx, op+" completed",
			"op", op,
			"path", path,
		)
	case isUserError(err):
		l.WarnContext(ctx, op+" rejected",
			"op", op,
			"path", path,
			"error", err,
		)
	default:
		l.ErrorContext(ctx, op+" failed",
			"op", op,
			"path", path,
			"error", err,
		)
	}
}

// LogBlocks logs allocation changes made by an operation.
func (l *Logger) LogBlocks(ctx context.Context, op string, allocated, freed, free int) {
	l.DebugContext(ctx, "blocks changed",
		"op", op,
		"allocated", allocated,
		"freed", freed,
		"free", free,
	)
}

// LogFormat logs a format of the device.
func (l *Logger) LogFormat(ctx context.Context, free int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "format failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "device formatted",
			"free", free,
		)
	}
}
