package framecore

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog.Logger with framecore-specific context.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// ParseLevel parses a level name (debug, info, warn, error).
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// WithFrame adds a frame index field to the logger.
func (l *Logger) WithFrame(index uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("frame", index),
	}
}

// LogStartup logs the engine layout once memory and workers are set up.
func (l *Logger) LogStartup(workers, queueCapacity, permanentBytes, transientBytes int) {
	l.Info("work queue loaded",
		"workers", workers,
		"queue_capacity", queueCapacity,
		"permanent_bytes", permanentBytes,
		"transient_bytes", transientBytes,
	)
}

// LogFrame logs a completed frame.
func (l *Logger) LogFrame(index uint64, duration time.Duration, transientBytes int, err error) {
	if err != nil {
		l.Error("frame failed",
			"frame", index,
			"duration", duration,
			"error", err,
		)
	} else {
		l.Debug("frame completed",
			"frame", index,
			"duration", duration,
			"transient_bytes", transientBytes,
		)
	}
}

// LogDrain logs a completed drain barrier.
func (l *Logger) LogDrain(items int64, duration time.Duration) {
	l.Debug("work drained",
		"items", items,
		"duration", duration,
	)
}

// LogWorkRejected logs a submission that found the queue full.
func (l *Logger) LogWorkRejected(pending, capacity int) {
	l.Warn("work rejected: queue full",
		"pending", pending,
		"capacity", capacity,
	)
}
