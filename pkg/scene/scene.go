package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/geometry"
)

// ErrInvalidSettings is returned when march settings cannot terminate sensibly
var ErrInvalidSettings = errors.New("invalid scene settings")

// Settings holds the global march and lighting parameters
type Settings struct {
	MaxMarchDistance float64 // Travel budget per ray; also the empty-space distance
	HitEpsilon       float64 // Distance below which a ray counts as a hit
	NormalEpsilon    float64 // Central-difference offset for normals (0 = HitEpsilon)

	// LightDirection is the direction light travels for a directional light,
	// or the light position when UsePositionalLight is set.
	LightDirection     core.Vec3
	UsePositionalLight bool
}

// DefaultSettings returns sensible march settings for scenes a few units across
func DefaultSettings() Settings {
	return Settings{
		MaxMarchDistance:   20.0,
		HitEpsilon:         0.001,
		NormalEpsilon:      0,
		LightDirection:     core.NewVec3(0.9, 0.9, 0.9),
		UsePositionalLight: false,
	}
}

// NormalOffset returns the effective central-difference offset
func (s Settings) NormalOffset() float64 {
	if s.NormalEpsilon > 0 {
		return s.NormalEpsilon
	}
	return s.HitEpsilon
}

// Validate checks the settings invariants
func (s Settings) Validate() error {
	switch {
	case !(s.MaxMarchDistance > 0):
		return fmt.Errorf("%w: max march distance %g must be positive", ErrInvalidSettings, s.MaxMarchDistance)
	case !(s.HitEpsilon > 0):
		return fmt.Errorf("%w: hit epsilon %g must be positive", ErrInvalidSettings, s.HitEpsilon)
	case !(s.HitEpsilon < s.MaxMarchDistance):
		return fmt.Errorf("%w: hit epsilon %g must be smaller than max march distance %g",
			ErrInvalidSettings, s.HitEpsilon, s.MaxMarchDistance)
	case s.NormalEpsilon < 0:
		return fmt.Errorf("%w: normal epsilon %g must not be negative", ErrInvalidSettings, s.NormalEpsilon)
	case !s.LightDirection.IsFinite():
		return fmt.Errorf("%w: light is not finite", ErrInvalidSettings)
	case !s.UsePositionalLight && s.LightDirection.LengthSquared() == 0:
		return fmt.Errorf("%w: directional light needs a non-zero direction", ErrInvalidSettings)
	}
	return nil
}

// Scene is the ordered shape list plus its settings and initial camera.
// Shape order is the fold order of Evaluate.
type Scene struct {
	Name         string
	Settings     Settings
	Shapes       []geometry.Shape
	CameraConfig geometry.CameraConfig
}

// New creates an empty scene
func New(name string, settings Settings, cameraConfig geometry.CameraConfig) *Scene {
	return &Scene{
		Name:         name,
		Settings:     settings,
		Shapes:       make([]geometry.Shape, 0),
		CameraConfig: cameraConfig,
	}
}

// AddShape validates and appends a shape
func (s *Scene) AddShape(shape geometry.Shape) error {
	if err := shape.Validate(); err != nil {
		return err
	}
	s.Shapes = append(s.Shapes, shape)
	return nil
}

// ShapeAt returns a pointer for in-place edits. An out-of-range index panics.
func (s *Scene) ShapeAt(index int) *geometry.Shape {
	return &s.Shapes[index]
}

// GetPrimitiveCount returns the number of shapes scanned per evaluation
func (s *Scene) GetPrimitiveCount() int {
	return len(s.Shapes)
}

// Validate checks the settings and every shape
func (s *Scene) Validate() error {
	if err := s.Settings.Validate(); err != nil {
		return err
	}
	for i := range s.Shapes {
		if err := s.Shapes[i].Validate(); err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
	}
	return nil
}

// Evaluate folds every shape into the running distance and color, starting
// from empty space (MaxMarchDistance, white).
func (s *Scene) Evaluate(p core.Vec3) (core.Vec3, float64) {
	globalDst := s.Settings.MaxMarchDistance
	globalColor := core.Splat(1)

	for i := range s.Shapes {
		shape := &s.Shapes[i]
		localDst := shape.Distance(p)
		globalColor, globalDst = geometry.Combine(globalDst, globalColor, localDst, shape.Color,
			shape.Operation, shape.BlendStrength)
	}

	return globalColor, globalDst
}

// Distance implements geometry.SignedDistanceField
func (s *Scene) Distance(p core.Vec3) float64 {
	_, d := s.Evaluate(p)
	return d
}

// NearestShape returns the index of the shape whose own surface is closest
// to p, or -1 for an empty scene. Ties keep the earliest shape.
func (s *Scene) NearestShape(p core.Vec3) int {
	nearest := -1
	best := 0.0
	for i := range s.Shapes {
		d := s.Shapes[i].Distance(p)
		if nearest < 0 || d < best {
			nearest, best = i, d
		}
	}
	return nearest
}

// Clone returns a deep copy, so editors can work on a snapshot
func (s *Scene) Clone() *Scene {
	c := *s
	c.Shapes = append([]geometry.Shape(nil), s.Shapes...)
	return &c
}
