package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Logger interface for renderer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// SlogLogger implements Logger on top of a structured slog.Logger.
// Messages are emitted at info level with trailing newlines trimmed.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps the given slog logger; nil uses slog.Default()
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// NewDefaultLogger creates a logger backed by the process-wide slog default
func NewDefaultLogger() Logger {
	return NewSlogLogger(nil)
}

func (sl *SlogLogger) Printf(format string, args ...interface{}) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	sl.logger.Log(context.Background(), slog.LevelInfo, msg)
}

// Slog returns the underlying structured logger
func (sl *SlogLogger) Slog() *slog.Logger {
	return sl.logger
}

// NopLogger discards everything; useful in tests and benchmarks
type NopLogger struct{}

func (NopLogger) Printf(string, ...interface{}) {}
