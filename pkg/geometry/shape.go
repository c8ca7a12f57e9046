package geometry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
)

var (
	// ErrInvalidOperation is returned for operation values outside the known set
	ErrInvalidOperation = errors.New("invalid combine operation")
	// ErrInvalidBlendStrength is returned when a blended shape has k outside (0,1]
	ErrInvalidBlendStrength = errors.New("blend strength must be in (0, 1]")
	// ErrInvalidShape is returned for shapes with non-finite or negative parameters
	ErrInvalidShape = errors.New("invalid shape")
)

// Operation selects how a shape is merged into the distance field built
// from the shapes before it.
type Operation uint8

const (
	// OperationDefault keeps whichever surface is nearest
	OperationDefault Operation = iota
	// OperationBlend smoothly joins the shape with everything before it
	OperationBlend
)

var operationNames = [...]string{
	OperationDefault: "default",
	OperationBlend:   "blend",
}

// Operations lists every valid operation in declaration order
func Operations() []Operation {
	return []Operation{OperationDefault, OperationBlend}
}

// Valid reports whether op is one of the declared operations
func (op Operation) Valid() bool {
	return int(op) < len(operationNames)
}

func (op Operation) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Operation(%d)", uint8(op))
	}
	return operationNames[op]
}

// ParseOperation converts a name such as "blend" into an Operation
func ParseOperation(name string) (Operation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return OperationDefault, nil
	}
	for _, op := range Operations() {
		if operationNames[op] == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidOperation, name)
}

// MarshalText implements encoding.TextMarshaler
func (op Operation) MarshalText() ([]byte, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOperation, uint8(op))
	}
	return []byte(op.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (op *Operation) UnmarshalText(text []byte) error {
	parsed, err := ParseOperation(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

// Shape describes one implicit primitive of the scene. Only spheres are
// modeled: HalfExtents.X is the radius, the other components are kept so
// descriptors stay compatible with box-like primitives.
type Shape struct {
	Name          string    // label only
	Position      core.Vec3 // world-space center
	HalfExtents   core.Vec3
	Color         core.Vec3 // linear RGB in [0,1]
	Operation     Operation
	BlendStrength float64 // smoothing radius k, used only by OperationBlend
}

// NewSphere creates a sphere that combines with nearest-wins
func NewSphere(name string, position core.Vec3, radius float64, color core.Vec3) Shape {
	return Shape{
		Name:        name,
		Position:    position,
		HalfExtents: core.Splat(radius),
		Color:       color,
		Operation:   OperationDefault,
	}
}

// NewBlendedSphere creates a sphere that smooth-blends into the shapes before it
func NewBlendedSphere(name string, position core.Vec3, radius float64, color core.Vec3, blendStrength float64) (Shape, error) {
	s := NewSphere(name, position, radius, color)
	if err := s.SetBlend(blendStrength); err != nil {
		return Shape{}, err
	}
	return s, nil
}

// Radius returns the sphere radius
func (s Shape) Radius() float64 {
	return s.HalfExtents.X
}

// SetRadius updates the sphere radius in place
func (s *Shape) SetRadius(radius float64) {
	s.HalfExtents = core.Splat(radius)
}

// Distance implements SignedDistanceField
func (s Shape) Distance(p core.Vec3) float64 {
	return SphereDistance(p, s.Position, s.HalfExtents.X)
}

// SetBlend switches the shape to OperationBlend with smoothing radius k
func (s *Shape) SetBlend(k float64) error {
	if !(k > 0 && k <= 1) {
		return fmt.Errorf("%w: got %g", ErrInvalidBlendStrength, k)
	}
	s.Operation = OperationBlend
	s.BlendStrength = k
	return nil
}

// SetOperation changes the combine operation. Switching to blend keeps the
// current strength when it is valid and falls back to 0.5 otherwise.
func (s *Shape) SetOperation(op Operation) error {
	switch op {
	case OperationDefault:
		s.Operation = op
		return nil
	case OperationBlend:
		k := s.BlendStrength
		if !(k > 0 && k <= 1) {
			k = 0.5
		}
		return s.SetBlend(k)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidOperation, uint8(op))
	}
}

// Validate checks the invariants the hot loop relies on
func (s Shape) Validate() error {
	if !s.Operation.Valid() {
		return fmt.Errorf("shape %q: %w: %d", s.Name, ErrInvalidOperation, uint8(s.Operation))
	}
	if !s.Position.IsFinite() || !s.HalfExtents.IsFinite() || !s.Color.IsFinite() {
		return fmt.Errorf("shape %q: %w: non-finite parameters", s.Name, ErrInvalidShape)
	}
	if s.HalfExtents.X < 0 {
		return fmt.Errorf("shape %q: %w: negative radius %g", s.Name, ErrInvalidShape, s.HalfExtents.X)
	}
	if s.Operation == OperationBlend && !(s.BlendStrength > 0 && s.BlendStrength <= 1) {
		return fmt.Errorf("shape %q: %w: got %g", s.Name, ErrInvalidBlendStrength, s.BlendStrength)
	}
	return nil
}
