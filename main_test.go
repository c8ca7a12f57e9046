package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-progressive-raymarcher/pkg/loaders"
)

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		sceneType   string
		expectFile  bool
		expectError bool
	}{
		// Built-in scenes
		{"default scene", "default", false, false},
		{"blend scene", "blend", false, false},
		{"spheregrid scene", "spheregrid", false, false},

		// Scene files (by name)
		{"snowman by name", "snowman", true, false},
		{"overlap by name", "overlap", true, false},

		// Scene files (by path)
		{"direct YAML path", "scenes/snowman.yaml", true, false},
		{"direct TOML path", "scenes/overlap.toml", true, false},

		// Invalid scenes
		{"unknown scene", "nonexistent", false, true},
		{"invalid file path", "scenes/nonexistent.yaml", false, true},
		{"empty scene name", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, path, err := createScene(tt.sceneType, "scenes")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, s)
			assert.NoError(t, s.Validate())
			assert.NotZero(t, s.GetPrimitiveCount())
			assert.Equal(t, tt.expectFile, path != "")
		})
	}
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, filepath.Join("output", "blend", "render_20240309_140507.png"), outputPath("", "blend", now))
	assert.Equal(t, "custom.bmp", outputPath("custom.bmp", "blend", now))
}

func TestRun_WritesImage(t *testing.T) {
	output := filepath.Join(t.TempDir(), "render.png")
	opts := options{
		Scene:     "default",
		ScenesDir: "scenes",
		Width:     32,
		Height:    24,
		Samples:   3,
		Workers:   2,
		Output:    output,
	}
	require.NoError(t, run(context.Background(), opts))

	img, err := loaders.LoadImage(output)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())
}

func TestRun_CancelledRenderIsNotSaved(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	output := filepath.Join(t.TempDir(), "render.png")
	opts := options{
		Scene:     "default",
		ScenesDir: "scenes",
		Width:     16,
		Height:    16,
		Samples:   4,
		Output:    output,
	}
	assert.ErrorIs(t, run(ctx, opts), context.Canceled)
	_, err := os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_WatchNeedsSceneFile(t *testing.T) {
	opts := options{
		Scene:     "default",
		ScenesDir: "scenes",
		Width:     8,
		Height:    8,
		Samples:   1,
		Output:    filepath.Join(t.TempDir(), "render.png"),
		Watch:     true,
	}
	assert.Error(t, run(context.Background(), opts))
}
