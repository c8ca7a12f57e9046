// Package editor turns discrete user actions into scene and camera edits on a
// running progressive raymarcher.
package editor

import (
	"fmt"
	"math"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/geometry"
	"github.com/df07/go-progressive-raymarcher/pkg/renderer"
	"github.com/df07/go-progressive-raymarcher/pkg/scene"
)

// Action is one editing command, usually bound to a key
type Action int

const (
	ActionNone Action = iota
	MoveLeft
	MoveRight
	MoveUp
	MoveDown
	MoveForward
	MoveBack
	NextShape
	PreviousShape
	GrowRadius
	ShrinkRadius
	ToggleOperation
	IncreaseBlend
	DecreaseBlend
)

var actionNames = map[Action]string{
	ActionNone:      "none",
	MoveLeft:        "move left",
	MoveRight:       "move right",
	MoveUp:          "move up",
	MoveDown:        "move down",
	MoveForward:     "move forward",
	MoveBack:        "move back",
	NextShape:       "next shape",
	PreviousShape:   "previous shape",
	GrowRadius:      "grow radius",
	ShrinkRadius:    "shrink radius",
	ToggleOperation: "toggle operation",
	IncreaseBlend:   "increase blend",
	DecreaseBlend:   "decrease blend",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Config holds the step sizes of the editing actions
type Config struct {
	MoveStep   float64 // World units per camera move
	RadiusStep float64
	BlendStep  float64
	MinBlend   float64 // Decreasing blend stops here; zero is not a valid strength
}

// DefaultConfig returns step sizes suited to scenes a few units across
func DefaultConfig() Config {
	return Config{
		MoveStep:   0.1,
		RadiusStep: 0.05,
		BlendStep:  0.05,
		MinBlend:   0.05,
	}
}

// Editor applies actions to a progressive raymarcher and tracks the shape
// selection. It is not safe for concurrent use; call it from the goroutine
// that calls Update.
type Editor struct {
	pr       *renderer.ProgressiveRaymarcher
	config   Config
	logger   core.Logger
	selected int
}

// New creates an editor with the first shape selected
func New(pr *renderer.ProgressiveRaymarcher, config Config, logger core.Logger) *Editor {
	if logger == nil {
		logger = core.NopLogger{}
	}
	e := &Editor{pr: pr, config: config, logger: logger}
	e.clampSelection()
	return e
}

// Selected returns the index of the selected shape, -1 when the scene is empty
func (e *Editor) Selected() int {
	return e.selected
}

// Apply performs one action. Shape actions are ignored in an empty scene and
// blend actions on shapes that do not blend.
func (e *Editor) Apply(action Action) error {
	switch action {
	case ActionNone:
		return nil
	case MoveLeft, MoveRight, MoveUp, MoveDown, MoveForward, MoveBack:
		return e.move(action)
	case NextShape:
		e.cycle(1)
		return nil
	case PreviousShape:
		e.cycle(-1)
		return nil
	}

	if e.selected < 0 {
		return nil
	}
	shape := e.pr.ShapeAt(e.selected)

	switch action {
	case GrowRadius:
		shape.SetRadius(shape.Radius() + e.config.RadiusStep)
	case ShrinkRadius:
		shape.SetRadius(math.Max(0, shape.Radius()-e.config.RadiusStep))
	case ToggleOperation:
		next := geometry.OperationBlend
		if shape.Operation == geometry.OperationBlend {
			next = geometry.OperationDefault
		}
		if err := shape.SetOperation(next); err != nil {
			return err
		}
	case IncreaseBlend, DecreaseBlend:
		if shape.Operation != geometry.OperationBlend {
			return nil
		}
		step := e.config.BlendStep
		if action == DecreaseBlend {
			step = -step
		}
		k := core.Clamp(shape.BlendStrength+step, e.config.MinBlend, 1)
		if err := shape.SetBlend(k); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown action %v", action)
	}

	e.logger.Printf("%s: shape %d %q radius %.2f %s\n", action, e.selected, shape.Name, shape.Radius(), shape.Operation)
	return e.pr.SceneChanged()
}

// move translates eye and target together in the camera's own frame
func (e *Editor) move(action Action) error {
	cfg := e.pr.Camera().Config()
	forward := cfg.Target.Subtract(cfg.Eye).Normalize()
	right := forward.Cross(cfg.Up).Normalize()
	up := right.Cross(forward)

	var delta core.Vec3
	switch action {
	case MoveLeft:
		delta = right.Negate()
	case MoveRight:
		delta = right
	case MoveUp:
		delta = up
	case MoveDown:
		delta = up.Negate()
	case MoveForward:
		delta = forward
	case MoveBack:
		delta = forward.Negate()
	}
	delta = delta.Multiply(e.config.MoveStep)

	cfg.Eye = cfg.Eye.Add(delta)
	cfg.Target = cfg.Target.Add(delta)
	return e.pr.SetCamera(cfg)
}

func (e *Editor) cycle(direction int) {
	n := len(e.pr.Shapes())
	if n == 0 {
		e.selected = -1
		return
	}
	e.selected = ((e.selected+direction)%n + n) % n
}

func (e *Editor) clampSelection() {
	n := len(e.pr.Shapes())
	switch {
	case n == 0:
		e.selected = -1
	case e.selected < 0:
		e.selected = 0
	case e.selected >= n:
		e.selected = n - 1
	}
}

// Replace swaps in a reloaded scene and keeps the selection in range
func (e *Editor) Replace(next *scene.Scene) error {
	if err := e.pr.ReplaceScene(next); err != nil {
		return err
	}
	e.clampSelection()
	return nil
}

// Status returns a one-line summary for an overlay
func (e *Editor) Status() string {
	progress := fmt.Sprintf("samples %d/%d", e.pr.CurrentSample(), e.pr.MaxSamples())
	if e.selected < 0 {
		return progress + "  (no shapes)"
	}
	shape := e.pr.ShapeAt(e.selected)
	status := fmt.Sprintf("%s  shape %d/%d %q r=%.2f %s",
		progress, e.selected+1, len(e.pr.Shapes()), shape.Name, shape.Radius(), shape.Operation)
	if shape.Operation == geometry.OperationBlend {
		status += fmt.Sprintf(" k=%.2f", shape.BlendStrength)
	}
	return status
}
