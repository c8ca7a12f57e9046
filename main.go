package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/loaders"
	"github.com/df07/go-progressive-raymarcher/pkg/renderer"
	"github.com/df07/go-progressive-raymarcher/pkg/scene"
)

// options holds the parsed command line
type options struct {
	Scene     string
	ScenesDir string
	Width     int
	Height    int
	Samples   int
	Workers   int
	NoJitter  bool
	Output    string
	Watch     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.Scene, "scene", "default", "Built-in scene, scene file path, or scene file name in -scenes")
	flag.StringVar(&opts.ScenesDir, "scenes", "scenes", "Directory searched for YAML/TOML scene files")
	flag.IntVar(&opts.Width, "width", 600, "Image width in pixels")
	flag.IntVar(&opts.Height, "height", 480, "Image height in pixels")
	flag.IntVar(&opts.Samples, "samples", renderer.DefaultProgressiveConfig().MaxSamples, "Progressive passes until the image converges")
	flag.IntVar(&opts.Workers, "workers", 0, "Number of parallel workers (0 = CPU count)")
	flag.BoolVar(&opts.NoJitter, "no-jitter", false, "March every sample through the pixel center")
	flag.StringVar(&opts.Output, "output", "", "Output image (.png, .bmp, .tiff); default output/<scene>/render_<timestamp>.png")
	flag.BoolVar(&opts.Watch, "watch", false, "Re-render whenever the scene file changes")
	verbose := flag.Bool("v", false, "Enable debug logging")
	list := flag.Bool("list", false, "List available scenes and exit")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Progressive Raymarcher")
		fmt.Println("Usage: raymarcher [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		printScenes(opts.ScenesDir)
		return
	}

	setupLogging(*verbose)

	if *list {
		printScenes(opts.ScenesDir)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("render failed", "err", err)
		os.Exit(1)
	}
}

// setupLogging installs a text slog handler on stderr
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func printScenes(dir string) {
	response, err := scene.ListAllScenes(dir)
	if err != nil {
		fmt.Printf("Error listing scenes: %v\n", err)
		return
	}
	for _, group := range response.Groups {
		fmt.Printf("%s:\n", group.Name)
		for _, info := range group.Scenes {
			id := info.ID
			if info.FilePath != "" {
				id = info.FilePath
			}
			fmt.Printf("  %-24s %s\n", id, info.Description)
		}
	}
}

// createScene resolves a built-in scene name, a scene file path, or the name
// of a file in scenesDir. The returned path is empty for built-in scenes.
func createScene(sceneType, scenesDir string) (*scene.Scene, string, error) {
	return loaders.ResolveScene(sceneType, scenesDir)
}

// outputPath returns the explicit output path or a timestamped default
func outputPath(output, sceneName string, now time.Time) string {
	if output != "" {
		return output
	}
	return filepath.Join("output", sceneName, fmt.Sprintf("render_%s.png", now.Format("20060102_150405")))
}

func progressiveConfig(opts options) renderer.ProgressiveConfig {
	config := renderer.DefaultProgressiveConfig()
	config.MaxSamples = opts.Samples
	config.NumWorkers = opts.Workers
	config.Jitter = !opts.NoJitter
	return config
}

func run(ctx context.Context, opts options) error {
	s, path, err := createScene(opts.Scene, opts.ScenesDir)
	if err != nil {
		return err
	}
	slog.Info("scene loaded", "name", s.Name, "shapes", s.GetPrimitiveCount(), "file", path)

	pr, err := renderer.NewProgressiveRaymarcher(s, opts.Width, opts.Height, progressiveConfig(opts),
		core.NewSlogLogger(slog.Default().With("scene", s.Name)))
	if err != nil {
		return err
	}

	if err := renderAndSave(ctx, pr, opts.Output); err != nil {
		return err
	}

	if !opts.Watch {
		return nil
	}
	if path == "" {
		return fmt.Errorf("-watch needs a scene file, %q is built in", opts.Scene)
	}

	slog.Info("watching scene file", "path", path)
	return loaders.WatchScene(ctx, path, func(next *scene.Scene, err error) {
		if err != nil {
			slog.Warn("scene reload failed", "err", err)
			return
		}
		if err := pr.ReplaceScene(next); err != nil {
			slog.Warn("scene reload rejected", "err", err)
			return
		}
		if err := renderAndSave(ctx, pr, opts.Output); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("render failed", "err", err)
		}
	})
}

// renderAndSave renders until convergence and writes the final image
func renderAndSave(ctx context.Context, pr *renderer.ProgressiveRaymarcher, output string) error {
	startTime := time.Now()
	img, stats, err := renderToConvergence(ctx, pr)
	if err != nil {
		return err
	}
	slog.Info("render completed",
		"elapsed", time.Since(startTime),
		"passes", stats.Pass,
		"avgSamples", fmt.Sprintf("%.2f", stats.AverageSamples),
		"minSamples", stats.MinSamples,
		"maxSamples", stats.MaxSamplesUsed)

	filename := outputPath(output, pr.Scene().Name, time.Now())
	if err := loaders.SaveImage(filename, img); err != nil {
		return err
	}
	slog.Info("render saved", "file", filename)
	return nil
}

func renderToConvergence(ctx context.Context, pr *renderer.ProgressiveRaymarcher) (*image.RGBA, renderer.RenderStats, error) {
	passChan, errChan := pr.RenderProgressive(ctx)

	var last renderer.PassResult
	for result := range passChan {
		last = result
	}
	if err := <-errChan; err != nil {
		return nil, renderer.RenderStats{}, err
	}
	if last.Image == nil {
		// Already converged
		return pr.Image(), renderer.RenderStats{Pass: pr.CurrentSample()}, nil
	}
	if !last.IsLast {
		return nil, renderer.RenderStats{}, fmt.Errorf("render stopped after pass %d of %d", last.PassNumber, pr.MaxSamples())
	}
	return last.Image, last.Stats, nil
}
