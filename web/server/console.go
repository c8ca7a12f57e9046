package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
)

// ConsoleMessage is one raymarcher log line forwarded to the browser console
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info" or "warning"
	Kind      string    `json:"kind"`  // "pass", "camera", "render" or "log"
}

// WebLogger implements core.Logger for one render. Lines go to the server
// log and, without blocking, to the render's console channel.
type WebLogger struct {
	consoleChan chan<- ConsoleMessage
	logger      *slog.Logger
	dropped     atomic.Int64
}

// NewWebLogger creates a logger for the render with the given ID. A nil
// channel only logs server side.
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage) *WebLogger {
	return &WebLogger{
		consoleChan: consoleChan,
		logger:      slog.Default().With("render", renderID),
	}
}

var _ core.Logger = (*WebLogger)(nil)

// Printf implements core.Logger
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	msg := classifyMessage(message)
	msg.Timestamp = time.Now()

	level := slog.LevelInfo
	if msg.Level == "warning" {
		level = slog.LevelWarn
	}
	wl.logger.Log(context.Background(), level, strings.TrimRight(message, "\n"), "kind", msg.Kind)

	if wl.consoleChan == nil {
		return
	}
	select {
	case wl.consoleChan <- msg:
	default:
		// The browser falls behind on huge passes; pass events still arrive
		wl.dropped.Add(1)
	}
}

// Dropped counts messages skipped because the console channel was full
func (wl *WebLogger) Dropped() int64 {
	return wl.dropped.Load()
}

// classifyMessage tags a raymarcher log line so the client can filter it
func classifyMessage(message string) ConsoleMessage {
	msg := ConsoleMessage{Message: message, Level: "info", Kind: "log"}
	switch {
	case strings.HasPrefix(message, "Pass "):
		msg.Kind = "pass"
	case strings.HasPrefix(message, "Camera "):
		msg.Kind = "camera"
	case strings.HasPrefix(message, "Rendering cancelled"):
		msg.Kind = "render"
		msg.Level = "warning"
	case strings.HasPrefix(message, "Starting progressive rendering"):
		msg.Kind = "render"
	}
	return msg
}
