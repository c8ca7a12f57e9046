package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/renderer"
	"github.com/df07/go-progressive-raymarcher/pkg/scene"
)

func newLoggedRaymarcher(t *testing.T, maxSamples int, logger *WebLogger) *renderer.ProgressiveRaymarcher {
	t.Helper()
	config := renderer.DefaultProgressiveConfig()
	config.MaxSamples = maxSamples
	config.NumWorkers = 2
	pr, err := renderer.NewProgressiveRaymarcher(scene.NewDefaultScene(), 16, 12, config, logger)
	require.NoError(t, err)
	return pr
}

func drain(messages chan ConsoleMessage) []ConsoleMessage {
	var out []ConsoleMessage
	for {
		select {
		case msg := <-messages:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestWebLogger_PassLines(t *testing.T) {
	messages := make(chan ConsoleMessage, 10)
	pr := newLoggedRaymarcher(t, 3, NewWebLogger("render-passes", messages))

	for !pr.Converged() {
		_, err := pr.Update()
		require.NoError(t, err)
	}

	got := drain(messages)
	require.Len(t, got, 3)
	for i, msg := range got {
		assert.Equal(t, "pass", msg.Kind)
		assert.Equal(t, "info", msg.Level)
		assert.Contains(t, msg.Message, []string{"Pass 1/3: stride 3", "Pass 2/3: stride 2", "Pass 3/3: stride 1"}[i])
		assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)
	}
}

func TestWebLogger_CameraLine(t *testing.T) {
	messages := make(chan ConsoleMessage, 10)
	pr := newLoggedRaymarcher(t, 2, NewWebLogger("render-camera", messages))

	cfg := pr.Camera().Config()
	cfg.Eye = core.NewVec3(0, 1, -5)
	require.NoError(t, pr.SetCamera(cfg))

	got := drain(messages)
	require.Len(t, got, 1)
	assert.Equal(t, "camera", got[0].Kind)
	assert.Contains(t, got[0].Message, "Camera changed: eye")
}

func TestWebLogger_CancelledRenderIsAWarning(t *testing.T) {
	messages := make(chan ConsoleMessage, 10)
	pr := newLoggedRaymarcher(t, 4, NewWebLogger("render-cancel", messages))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	passChan, errChan := pr.RenderProgressive(ctx)
	for range passChan {
	}
	assert.ErrorIs(t, <-errChan, context.Canceled)

	got := drain(messages)
	require.Len(t, got, 2)
	assert.Equal(t, "render", got[0].Kind)
	assert.Equal(t, "info", got[0].Level)
	assert.Equal(t, "Rendering cancelled before pass 1\n", got[1].Message)
	assert.Equal(t, "warning", got[1].Level)
}

func TestWebLogger_FullChannelDrops(t *testing.T) {
	messages := make(chan ConsoleMessage, 1)
	logger := NewWebLogger("render-full", messages)
	pr := newLoggedRaymarcher(t, 3, logger)

	// Nobody reads: only the first pass line fits
	for !pr.Converged() {
		_, err := pr.Update()
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), logger.Dropped())
	assert.Contains(t, (<-messages).Message, "Pass 1/3")
}

func TestWebLogger_NilChannel(t *testing.T) {
	logger := NewWebLogger("render-nil", nil)
	pr := newLoggedRaymarcher(t, 1, logger)

	_, err := pr.Update()
	require.NoError(t, err)
	assert.Zero(t, logger.Dropped())
}

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		message string
		kind    string
		level   string
	}{
		{"Pass 2/10: stride 9, 12 pixels\n", "pass", "info"},
		{"Camera changed: eye (0, 0, -4), target (0, 0, 0)\n", "camera", "info"},
		{"Starting progressive rendering with 10 passes...\n", "render", "info"},
		{"Rendering cancelled after pass 4\n", "render", "warning"},
		{"GrowRadius: shape 0 \"sphere\" radius 1.05 default\n", "log", "info"},
	}
	for _, tt := range tests {
		msg := classifyMessage(tt.message)
		assert.Equal(t, tt.kind, msg.Kind, tt.message)
		assert.Equal(t, tt.level, msg.Level, tt.message)
		assert.Equal(t, tt.message, msg.Message)
	}
}

func TestConsoleMessage_JSON(t *testing.T) {
	msg := ConsoleMessage{
		Message:   "Pass 1/4: stride 4\n",
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:     "info",
		Kind:      "pass",
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Pass 1/4: stride 4\n","timestamp":"2024-01-02T03:04:05Z","level":"info","kind":"pass"}`, string(data))
}
