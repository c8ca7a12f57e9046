package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
)

func TestSphereDistance(t *testing.T) {
	center := core.NewVec3(1, 2, 3)
	tests := []struct {
		name     string
		point    core.Vec3
		expected float64
	}{
		{"center is -radius", center, -2},
		{"on surface", core.NewVec3(3, 2, 3), 0},
		{"outside", core.NewVec3(1, 2, 8), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SphereDistance(tt.point, center, 2)
			if math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Expected %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestShape_DistanceUsesHalfExtentsX(t *testing.T) {
	s := NewSphere("ball", core.NewVec3(0, 0, 0), 1, red)
	s.HalfExtents = core.NewVec3(1, 5, 5) // only X matters

	var field SignedDistanceField = s
	assert.InDelta(t, 1.0, field.Distance(core.NewVec3(2, 0, 0)), 1e-12)
	assert.Equal(t, 1.0, s.Radius())
}

func TestDistanceFunc(t *testing.T) {
	plane := DistanceFunc(func(p core.Vec3) float64 { return p.Y })
	assert.Equal(t, 3.0, plane.Distance(core.NewVec3(0, 3, 0)))
}

func TestGradient(t *testing.T) {
	plane := DistanceFunc(func(p core.Vec3) float64 { return p.Y - 1 })
	n := Gradient(plane, core.NewVec3(4, 1, -2), 1e-4)
	assert.InDelta(t, 1.0, n.Y, 1e-9)
	assert.InDelta(t, 0.0, n.X, 1e-9)

	ball := NewSphere("ball", core.NewVec3(1, 0, 0), 2, red)
	n = Gradient(ball, core.NewVec3(1, 0, -2), 1e-4)
	assert.InDelta(t, -1.0, n.Z, 1e-6)
}

func TestNewBlendedSphere(t *testing.T) {
	s, err := NewBlendedSphere("soft", core.NewVec3(0, 1, 0), 0.5, blue, 0.3)
	require.NoError(t, err)
	assert.Equal(t, OperationBlend, s.Operation)
	assert.Equal(t, 0.3, s.BlendStrength)

	for _, k := range []float64{0, -0.1, 1.5, math.NaN()} {
		_, err := NewBlendedSphere("bad", core.Vec3{}, 1, blue, k)
		assert.ErrorIs(t, err, ErrInvalidBlendStrength, "k=%g", k)
	}
}

func TestShape_SetOperation(t *testing.T) {
	s := NewSphere("s", core.Vec3{}, 1, red)

	require.NoError(t, s.SetOperation(OperationBlend))
	assert.Equal(t, OperationBlend, s.Operation)
	assert.Equal(t, 0.5, s.BlendStrength, "invalid strength falls back to 0.5")

	require.NoError(t, s.SetBlend(0.2))
	require.NoError(t, s.SetOperation(OperationDefault))
	require.NoError(t, s.SetOperation(OperationBlend))
	assert.Equal(t, 0.2, s.BlendStrength, "valid strength is kept")

	err := s.SetOperation(Operation(9))
	assert.True(t, errors.Is(err, ErrInvalidOperation))
}

func TestShape_Validate(t *testing.T) {
	valid := NewSphere("ok", core.Vec3{}, 1, red)
	assert.NoError(t, valid.Validate())

	badOp := valid
	badOp.Operation = Operation(3)
	assert.ErrorIs(t, badOp.Validate(), ErrInvalidOperation)

	badBlend := valid
	badBlend.Operation = OperationBlend
	badBlend.BlendStrength = 0
	assert.ErrorIs(t, badBlend.Validate(), ErrInvalidBlendStrength)

	negative := valid
	negative.SetRadius(-1)
	assert.ErrorIs(t, negative.Validate(), ErrInvalidShape)

	nan := valid
	nan.Position.X = math.NaN()
	assert.ErrorIs(t, nan.Validate(), ErrInvalidShape)
}

func TestOperationText(t *testing.T) {
	for _, op := range Operations() {
		text, err := op.MarshalText()
		require.NoError(t, err)

		var parsed Operation
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, op, parsed)
	}

	op, err := ParseOperation(" Blend ")
	require.NoError(t, err)
	assert.Equal(t, OperationBlend, op)

	op, err = ParseOperation("")
	require.NoError(t, err)
	assert.Equal(t, OperationDefault, op)

	_, err = ParseOperation("cut")
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = Operation(5).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidOperation)
	assert.Equal(t, "Operation(5)", Operation(5).String())
}

func TestIntersectSphere(t *testing.T) {
	ray := core.NewRay(core.NewVec3(0, 0, -4), core.NewVec3(0, 0, 1))

	tHit, ok := IntersectSphere(ray, core.Vec3{}, 1, 0.001, 100)
	require.True(t, ok)
	assert.InDelta(t, 3.0, tHit, 1e-12)

	away := core.NewRay(core.NewVec3(0, 0, -4), core.NewVec3(0, 0, -1))
	_, ok = IntersectSphere(away, core.Vec3{}, 1, 0.001, 100)
	assert.False(t, ok)
}
