package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/geometry"
	"github.com/df07/go-progressive-raymarcher/pkg/scene"
)

// ErrInvalidConfig is returned for unusable renderer dimensions or sample counts
var ErrInvalidConfig = errors.New("invalid renderer config")

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	MaxSamples      int      // Passes until the image converges
	NumWorkers      int      // Number of parallel workers (0 = use CPU count)
	Jitter          bool     // Offset repeated visits of a pixel by a Halton pattern
	BackgroundColor [3]uint8 // Written for rays that miss every shape
	ClearColor      [3]uint8 // Initial buffer contents
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		MaxSamples:      10,
		NumWorkers:      0, // Auto-detect CPU count
		Jitter:          true,
		BackgroundColor: [3]uint8{25, 38, 76},
		ClearColor:      [3]uint8{125, 125, 125},
	}
}

// ProgressiveRaymarcher renders a scene over several Update calls. Pass s
// marches every pixel whose index is a multiple of MaxSamples-s, so the
// image fills in with increasing density until the last pass covers every
// pixel. After MaxSamples passes Update does nothing until CameraChanged or
// SceneChanged.
//
// Update must not run concurrently with scene edits, camera edits or the
// change signals; the caller serializes them.
type ProgressiveRaymarcher struct {
	scene         *scene.Scene
	camera        *geometry.Camera
	width, height int
	config        ProgressiveConfig
	buffer        *PixelBuffer
	pixelStats    []PixelStats
	rays          *RayCache
	workerPool    *WorkerPool
	logger        core.Logger

	currentSample int
	totalPasses   int
	sceneErr      error

	// pixelHook observes every marched pixel; tests use it to check partitions
	pixelHook func(sample, pixel int)
}

// NewProgressiveRaymarcher creates a renderer for a width x height buffer.
// The camera starts from the scene's CameraConfig with its aspect ratio
// forced to width/height.
func NewProgressiveRaymarcher(s *scene.Scene, width, height int, config ProgressiveConfig, logger core.Logger) (*ProgressiveRaymarcher, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d must be positive", ErrInvalidConfig, width, height)
	}
	if config.MaxSamples < 1 {
		return nil, fmt.Errorf("%w: max samples %d must be at least 1", ErrInvalidConfig, config.MaxSamples)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: nil scene", ErrInvalidConfig)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scene %q: %w", s.Name, err)
	}

	cameraConfig := s.CameraConfig
	cameraConfig.AspectRatio = float64(width) / float64(height)
	if err := cameraConfig.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = core.NewDefaultLogger()
	}

	pixelCount := width * height
	camera := geometry.NewCamera(cameraConfig)
	pr := &ProgressiveRaymarcher{
		scene:      s,
		camera:     camera,
		width:      width,
		height:     height,
		config:     config,
		buffer:     NewPixelBuffer(width, height),
		pixelStats: make([]PixelStats, pixelCount),
		rays:       NewRayCache(config.MaxSamples, pixelCount, camera.Origin()),
		workerPool: NewWorkerPool(config.NumWorkers),
		logger:     logger,
	}
	pr.buffer.Fill(config.ClearColor)
	return pr, nil
}

// Update runs the next pass, or nothing once the image has converged.
// The returned stats have Idle set when no pass ran.
func (pr *ProgressiveRaymarcher) Update() (RenderStats, error) {
	if pr.sceneErr != nil {
		return RenderStats{}, pr.sceneErr
	}
	if pr.Converged() {
		stats := RenderStats{Pass: pr.currentSample, MaxSamples: pr.config.MaxSamples, Idle: true, PassesRun: pr.totalPasses}
		sampleStats(pr.pixelStats, &stats)
		return stats, nil
	}

	sample := pr.currentSample
	stride := pr.config.MaxSamples - sample
	materialize := !pr.rays.Valid(sample)
	marcher := NewMarcher(pr.scene, pr.scene.Settings)
	numWorkers := pr.workerPool.GetNumWorkers()
	workerStats := make([]RenderStats, numWorkers)

	startTime := time.Now()
	err := pr.workerPool.Run(pr.buffer.PixelCount(), func(worker int, r PixelRange) error {
		ws := &workerStats[worker]
		first := r.Start + (stride-r.Start%stride)%stride
		for i := first; i < r.End; i += stride {
			pr.renderPixel(marcher, sample, i, materialize, ws)
		}
		return nil
	})
	if err != nil {
		return RenderStats{}, fmt.Errorf("pass %d: %w", sample+1, err)
	}

	if materialize {
		pr.rays.MarkValid(sample)
	}
	pr.currentSample++
	pr.totalPasses++

	stats := RenderStats{
		Pass:       pr.currentSample,
		MaxSamples: pr.config.MaxSamples,
		Stride:     stride,
		Workers:    min(numWorkers, pr.buffer.PixelCount()),
		PassesRun:  pr.totalPasses,
		Duration:   time.Since(startTime),
	}
	for i := range workerStats {
		stats.merge(workerStats[i])
	}
	sampleStats(pr.pixelStats, &stats)

	pr.logger.Printf("Pass %d/%d: stride %d, %d pixels (%d hits, %d misses), %d march steps, %d workers, %v\n",
		stats.Pass, stats.MaxSamples, stride, stats.PixelsMarched, stats.Hits, stats.Misses,
		stats.MarchSteps, stats.Workers, stats.Duration)

	return stats, nil
}

// renderPixel takes one sample for pixel i. Workers call it for disjoint
// pixel indices only.
func (pr *ProgressiveRaymarcher) renderPixel(marcher *Marcher, sample, i int, materialize bool, ws *RenderStats) {
	ps := &pr.pixelStats[i]

	var ray core.Ray
	if materialize {
		ray = pr.cameraRay(i%pr.width, i/pr.width, ps.SampleCount)
		pr.rays.Put(sample, i, ray.Direction)
		ws.RaysGenerated++
	} else {
		ray, _ = pr.rays.Get(sample, i)
		ws.RaysReused++
	}

	result := marcher.March(ray)
	ws.MarchSteps += result.Steps
	ws.PixelsMarched++

	rgb := pr.config.BackgroundColor
	if result.Hit {
		rgb = ColorToRGB(marcher.Shade(result))
		ws.Hits++
	} else {
		ws.Misses++
	}

	ps.AddSample(rgb)
	pr.buffer.Set(i, ps.GetColor())

	if pr.pixelHook != nil {
		pr.pixelHook(sample, i)
	}
}

// cameraRay builds the ray for the visit-th sample of pixel (x, y). The first
// visit always goes through the pixel center.
func (pr *ProgressiveRaymarcher) cameraRay(x, y, visit int) core.Ray {
	offset := core.SubPixelOffset(0)
	if pr.config.Jitter {
		offset = core.SubPixelOffset(visit)
	}
	return pr.camera.CreateRay(geometry.PixelUV(x, y, pr.width, pr.height, offset))
}

// CameraChanged applies pending camera edits, drops every cached ray and
// restarts sampling. An invalid camera leaves the previous matrices and rays
// in place and returns ErrInvalidCamera.
func (pr *ProgressiveRaymarcher) CameraChanged() error {
	cfg := pr.camera.Config()
	cfg.AspectRatio = float64(pr.width) / float64(pr.height)
	if err := cfg.Validate(); err != nil {
		return err
	}
	pr.camera.SetConfig(cfg)
	pr.camera.Update()
	pr.rays.Invalidate(pr.camera.Origin())
	pr.resetSamples()
	pr.logger.Printf("Camera changed: eye %v, target %v\n", cfg.Eye, cfg.Target)
	return nil
}

// SceneChanged restarts sampling after shape or settings edits. Cached rays
// only depend on the camera and are kept. If the scene no longer validates,
// Update returns that error until a later SceneChanged succeeds.
func (pr *ProgressiveRaymarcher) SceneChanged() error {
	pr.resetSamples()
	pr.sceneErr = pr.scene.Validate()
	return pr.sceneErr
}

// SetCamera replaces the camera parameters and signals CameraChanged
func (pr *ProgressiveRaymarcher) SetCamera(config geometry.CameraConfig) error {
	previous := pr.camera.Config()
	pr.camera.SetConfig(config)
	if err := pr.CameraChanged(); err != nil {
		pr.camera.SetConfig(previous)
		return err
	}
	return nil
}

// AddShape appends a validated shape and signals SceneChanged
func (pr *ProgressiveRaymarcher) AddShape(shape geometry.Shape) error {
	if err := pr.scene.AddShape(shape); err != nil {
		return err
	}
	return pr.SceneChanged()
}

// ReplaceScene swaps in the shapes, settings and camera of next, typically a
// reloaded scene file. A different camera pose signals CameraChanged,
// otherwise only SceneChanged. Nothing is replaced if next is invalid.
func (pr *ProgressiveRaymarcher) ReplaceScene(next *scene.Scene) error {
	if err := next.Validate(); err != nil {
		return err
	}

	cameraConfig := next.CameraConfig
	cameraConfig.AspectRatio = pr.camera.Config().AspectRatio
	cameraMoved := cameraConfig != pr.camera.Config()
	if cameraMoved {
		if err := pr.SetCamera(cameraConfig); err != nil {
			return err
		}
	}

	pr.scene.Name = next.Name
	pr.scene.Settings = next.Settings
	pr.scene.Shapes = append(pr.scene.Shapes[:0:0], next.Shapes...)
	pr.scene.CameraConfig = next.CameraConfig
	return pr.SceneChanged()
}

func (pr *ProgressiveRaymarcher) resetSamples() {
	pr.currentSample = 0
	clear(pr.pixelStats)
}

// CurrentSample returns the number of passes completed since the last reset
func (pr *ProgressiveRaymarcher) CurrentSample() int {
	return pr.currentSample
}

// MaxSamples returns the number of passes until convergence
func (pr *ProgressiveRaymarcher) MaxSamples() int {
	return pr.config.MaxSamples
}

// Converged reports whether Update has nothing left to do
func (pr *ProgressiveRaymarcher) Converged() bool {
	return pr.currentSample >= pr.config.MaxSamples
}

// TotalPasses counts passes run since construction, across resets
func (pr *ProgressiveRaymarcher) TotalPasses() int {
	return pr.totalPasses
}

// Buffer returns the RGB bytes, row-major from the top-left. Read-only.
func (pr *ProgressiveRaymarcher) Buffer() []byte {
	return pr.buffer.Bytes()
}

// PixelBuffer returns the buffer with its dimensions
func (pr *ProgressiveRaymarcher) PixelBuffer() *PixelBuffer {
	return pr.buffer
}

// Image returns a snapshot of the buffer
func (pr *ProgressiveRaymarcher) Image() *image.RGBA {
	return pr.buffer.ToRGBA()
}

// Shapes returns the live shape list; edits must be followed by SceneChanged
func (pr *ProgressiveRaymarcher) Shapes() []geometry.Shape {
	return pr.scene.Shapes
}

// ShapeAt returns the shape at index for in-place edits. Out-of-range
// indices panic; callers bounds-check against len(Shapes()).
func (pr *ProgressiveRaymarcher) ShapeAt(index int) *geometry.Shape {
	return pr.scene.ShapeAt(index)
}

// Scene returns the scene being rendered
func (pr *ProgressiveRaymarcher) Scene() *scene.Scene {
	return pr.scene
}

// Camera returns the camera; pose edits take effect on CameraChanged
func (pr *ProgressiveRaymarcher) Camera() *geometry.Camera {
	return pr.camera
}

// Width returns the buffer width
func (pr *ProgressiveRaymarcher) Width() int { return pr.width }

// Height returns the buffer height
func (pr *ProgressiveRaymarcher) Height() int { return pr.height }

// RayAt returns the cached ray for (sample, pixel) and whether it is valid
func (pr *ProgressiveRaymarcher) RayAt(sample, pixel int) (core.Ray, bool) {
	return pr.rays.Get(sample, pixel)
}

// RayCacheGeneration counts ray cache invalidations since construction
func (pr *ProgressiveRaymarcher) RayCacheGeneration() int {
	return pr.rays.Generation()
}

// GetNumWorkers returns the number of workers forked per pass
func (pr *ProgressiveRaymarcher) GetNumWorkers() int {
	return pr.workerPool.GetNumWorkers()
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	IsLast     bool
}

// RenderProgressive runs Update until the image converges, sending a snapshot
// after every pass. The context is checked between passes; a pass in flight
// always completes. A cancelled render always reports ctx.Err() on the error
// channel, even if its last pass was never delivered. Both channels are
// closed when rendering stops.
func (pr *ProgressiveRaymarcher) RenderProgressive(ctx context.Context) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)

		pr.logger.Printf("Starting progressive rendering with %d passes...\n", pr.config.MaxSamples-pr.currentSample)

		for !pr.Converged() {
			select {
			case <-ctx.Done():
				pr.logger.Printf("Rendering cancelled before pass %d\n", pr.currentSample+1)
				errChan <- ctx.Err()
				return
			default:
			}

			stats, err := pr.Update()
			if err != nil {
				errChan <- err
				return
			}

			result := PassResult{
				PassNumber: stats.Pass,
				Image:      pr.Image(),
				Stats:      stats,
				IsLast:     pr.Converged(),
			}

			select {
			case passChan <- result:
			case <-ctx.Done():
				pr.logger.Printf("Rendering cancelled after pass %d\n", stats.Pass)
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return passChan, errChan
}
