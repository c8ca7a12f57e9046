// Command viewer shows a scene in a window and refines it progressively while
// the camera and shapes are edited from the keyboard.
//
//	W/S A/D Q/E   move the camera forward/back, left/right, down/up
//	Tab           select the next shape (Shift+Tab: previous)
//	= / -         grow / shrink the selected shape
//	B             toggle the selected shape between default and blend
//	] / [         increase / decrease the blend strength
//	Esc           quit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/editor"
	"github.com/df07/go-progressive-raymarcher/pkg/loaders"
	"github.com/df07/go-progressive-raymarcher/pkg/renderer"
	"github.com/df07/go-progressive-raymarcher/pkg/scene"
)

// Held keys repeat every frame
var heldKeys = []struct {
	key    ebiten.Key
	action editor.Action
}{
	{ebiten.KeyW, editor.MoveForward},
	{ebiten.KeyS, editor.MoveBack},
	{ebiten.KeyA, editor.MoveLeft},
	{ebiten.KeyD, editor.MoveRight},
	{ebiten.KeyE, editor.MoveUp},
	{ebiten.KeyQ, editor.MoveDown},
}

// Pressed keys fire once per press
var pressedKeys = []struct {
	key    ebiten.Key
	action editor.Action
}{
	{ebiten.KeyEqual, editor.GrowRadius},
	{ebiten.KeyMinus, editor.ShrinkRadius},
	{ebiten.KeyB, editor.ToggleOperation},
	{ebiten.KeyBracketRight, editor.IncreaseBlend},
	{ebiten.KeyBracketLeft, editor.DecreaseBlend},
}

type reload struct {
	scene *scene.Scene
	err   error
}

type game struct {
	pr      *renderer.ProgressiveRaymarcher
	editor  *editor.Editor
	reloads <-chan reload
	img     *image.RGBA
	frame   *ebiten.Image
	lastErr error
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	for _, a := range g.actions() {
		g.report(g.editor.Apply(a))
	}

	select {
	case r := <-g.reloads:
		if r.err != nil {
			g.report(r.err)
		} else {
			g.report(g.editor.Replace(r.scene))
		}
	default:
	}

	if !g.pr.Converged() {
		if _, err := g.pr.Update(); err != nil {
			g.report(err)
		}
	}
	return nil
}

func (g *game) actions() []editor.Action {
	var actions []editor.Action
	for _, k := range heldKeys {
		if ebiten.IsKeyPressed(k.key) {
			actions = append(actions, k.action)
		}
	}
	for _, k := range pressedKeys {
		if inpututil.IsKeyJustPressed(k.key) {
			actions = append(actions, k.action)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			actions = append(actions, editor.PreviousShape)
		} else {
			actions = append(actions, editor.NextShape)
		}
	}
	return actions
}

// report logs an error once and keeps it on screen until an edit succeeds
func (g *game) report(err error) {
	if err == nil {
		g.lastErr = nil
		return
	}
	if g.lastErr == nil || g.lastErr.Error() != err.Error() {
		slog.Warn("edit rejected", "err", err)
	}
	g.lastErr = err
}

func (g *game) Draw(screen *ebiten.Image) {
	g.pr.PixelBuffer().CopyToRGBA(g.img)
	g.frame.WritePixels(g.img.Pix)
	screen.DrawImage(g.frame, nil)

	ebitenutil.DebugPrintAt(screen, g.editor.Status(), 4, 4)
	if g.lastErr != nil {
		ebitenutil.DebugPrintAt(screen, g.lastErr.Error(), 4, 20)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.pr.Width(), g.pr.Height()
}

func main() {
	sceneName := flag.String("scene", "default", "Built-in scene, scene file path, or scene file name in -scenes")
	scenesDir := flag.String("scenes", "scenes", "Directory searched for YAML/TOML scene files")
	width := flag.Int("width", 600, "Window width in pixels")
	height := flag.Int("height", 480, "Window height in pixels")
	samples := flag.Int("samples", renderer.DefaultProgressiveConfig().MaxSamples, "Progressive passes until the image converges")
	workers := flag.Int("workers", 0, "Number of workers (0 = auto-detect CPU count)")
	noJitter := flag.Bool("no-jitter", false, "March every sample through the pixel center")
	flag.Parse()

	if err := run(*sceneName, *scenesDir, *width, *height, *samples, *workers, !*noJitter); err != nil {
		slog.Error("viewer failed", "err", err)
		os.Exit(1)
	}
}

func run(sceneName, scenesDir string, width, height, samples, workers int, jitter bool) error {
	s, path, err := loaders.ResolveScene(sceneName, scenesDir)
	if err != nil {
		return err
	}

	config := renderer.DefaultProgressiveConfig()
	config.MaxSamples = samples
	config.NumWorkers = workers
	config.Jitter = jitter

	logger := core.NewDefaultLogger()
	pr, err := renderer.NewProgressiveRaymarcher(s, width, height, config, core.NopLogger{})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan reload, 1)
	if path != "" {
		go func() {
			err := loaders.WatchScene(ctx, path, func(next *scene.Scene, err error) {
				// Only the newest version of the file matters
				select {
				case <-reloads:
				default:
				}
				reloads <- reload{scene: next, err: err}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("scene watcher stopped", "path", path, "err", err)
			}
		}()
	}

	g := &game{
		pr:      pr,
		editor:  editor.New(pr, editor.DefaultConfig(), logger),
		reloads: reloads,
		img:     image.NewRGBA(image.Rect(0, 0, width, height)),
		frame:   ebiten.NewImage(width, height),
	}

	ebiten.SetWindowTitle(fmt.Sprintf("Progressive Raymarcher - %s", s.Name))
	ebiten.SetWindowSize(width, height)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
