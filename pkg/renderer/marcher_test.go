package renderer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/geometry"
	"github.com/df07/go-progressive-raymarcher/pkg/scene"
)

func singleSphereScene(radius float64) *scene.Scene {
	s := scene.New("single", scene.DefaultSettings(), geometry.DefaultCameraConfig())
	s.Shapes = append(s.Shapes, geometry.NewSphere("sphere", core.Vec3{}, radius, core.NewVec3(1, 0.5, 0.25)))
	return s
}

func TestMarch_HitTravelsToSurface(t *testing.T) {
	tests := []struct {
		d, r float64
	}{
		{4, 1},
		{2, 1.5},
		{10, 0.25},
		{3.3, 2.9},
	}

	for _, tt := range tests {
		s := singleSphereScene(tt.r)
		m := NewMarcher(s, s.Settings)

		eye := core.NewVec3(0, 0, -tt.d)
		result := m.March(core.NewRay(eye, core.Vec3{}.Subtract(eye).Normalize()))

		require.True(t, result.Hit, "d=%v r=%v", tt.d, tt.r)
		assert.InDelta(t, tt.d-tt.r, result.Travelled, s.Settings.HitEpsilon)
		assert.Less(t, result.Distance, s.Settings.HitEpsilon)
		assert.Equal(t, s.Shapes[0].Color, result.Color)
		assert.GreaterOrEqual(t, result.Steps, 1)
	}
}

func TestMarch_AgreesWithAnalyticIntersection(t *testing.T) {
	s := singleSphereScene(1)
	m := NewMarcher(s, s.Settings)
	eye := core.NewVec3(0, 0, -4)

	// Aim points on the z=0 plane, well away from the silhouette
	targets := []core.Vec3{
		core.NewVec3(0, 0, 0),
		core.NewVec3(0.5, 0, 0),
		core.NewVec3(-0.5, 0.5, 0),
		core.NewVec3(0.3, -0.6, 0),
		core.NewVec3(1.5, 0, 0),
		core.NewVec3(0, -2, 0),
		core.NewVec3(1.2, 1.2, 0),
	}

	for _, target := range targets {
		ray := core.NewRay(eye, target.Subtract(eye).Normalize())
		tHit, want := geometry.IntersectSphere(ray, core.Vec3{}, 1, 0, s.Settings.MaxMarchDistance)

		result := m.March(ray)
		require.Equal(t, want, result.Hit, "target %v", target)
		if want {
			assert.InDelta(t, tHit, result.Travelled, 0.01, "target %v", target)
		}
	}
}

func TestMarch_MissExhaustsBudget(t *testing.T) {
	s := singleSphereScene(1)
	m := NewMarcher(s, s.Settings)

	result := m.March(core.NewRay(core.NewVec3(0, 0, -4), core.NewVec3(0, 0, -1)))
	assert.False(t, result.Hit)
	assert.GreaterOrEqual(t, result.Travelled, s.Settings.MaxMarchDistance)
}

func TestMarch_GrazingRayMisses(t *testing.T) {
	s := singleSphereScene(1)
	m := NewMarcher(s, s.Settings)

	// Passes 0.1 units above the sphere
	result := m.March(core.NewRay(core.NewVec3(-5, 1.1, 0), core.NewVec3(1, 0, 0)))
	assert.False(t, result.Hit)
}

func TestMarch_OriginInsideShapeHitsImmediately(t *testing.T) {
	s := singleSphereScene(1)
	m := NewMarcher(s, s.Settings)

	result := m.March(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)))
	assert.True(t, result.Hit)
	assert.Equal(t, 0.0, result.Travelled)
	assert.Equal(t, 1, result.Steps)
}

func TestMarch_EmptySceneMisses(t *testing.T) {
	s := scene.New("empty", scene.DefaultSettings(), geometry.DefaultCameraConfig())
	m := NewMarcher(s, s.Settings)

	result := m.March(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)))
	assert.False(t, result.Hit)
	assert.Equal(t, 1, result.Steps)
	assert.Equal(t, s.Settings.MaxMarchDistance, result.Travelled)
}

func TestEstimateNormal_Sphere(t *testing.T) {
	s := singleSphereScene(1)
	m := NewMarcher(s, s.Settings)

	points := []core.Vec3{
		core.NewVec3(0, 0, -1),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
		core.NewVec3(1, 1, 1).Normalize(),
	}
	for _, p := range points {
		n := m.EstimateNormal(p)
		assert.InDelta(t, 1.0, n.Length(), 1e-9)
		assert.InDelta(t, p.X, n.X, 1e-4, "point %v", p)
		assert.InDelta(t, p.Y, n.Y, 1e-4, "point %v", p)
		assert.InDelta(t, p.Z, n.Z, 1e-4, "point %v", p)
	}
}

func TestLambert_DirectionalLight(t *testing.T) {
	s := singleSphereScene(1)
	m := NewMarcher(s, s.Settings)

	p := core.NewVec3(0, 0, -1)
	lambert := m.Lambert(p, core.NewVec3(0, 0, -1))
	assert.InDelta(t, 1/math.Sqrt(3), lambert, 1e-12)

	// Facing along the light travel direction is unlit
	assert.Equal(t, 0.0, m.Lambert(p, core.NewVec3(1, 1, 1).Normalize()))
}

func TestLambert_PositionalLight(t *testing.T) {
	s := singleSphereScene(1)
	s.Settings.UsePositionalLight = true
	s.Settings.LightDirection = core.NewVec3(0, 0, -5)
	m := NewMarcher(s, s.Settings)

	front := core.NewVec3(0, 0, -1)
	assert.InDelta(t, 1.0, m.Lambert(front, front), 1e-12)

	back := core.NewVec3(0, 0, 1)
	assert.Equal(t, 0.0, m.Lambert(back, back))
}

func TestShade_ScalesColorByLambert(t *testing.T) {
	s := singleSphereScene(1)
	s.Settings.UsePositionalLight = true
	s.Settings.LightDirection = core.NewVec3(0, 0, -5)
	m := NewMarcher(s, s.Settings)

	result := m.March(core.NewRay(core.NewVec3(0, 0, -4), core.NewVec3(0, 0, 1)))
	require.True(t, result.Hit)

	shaded := m.Shade(result)
	assert.InDelta(t, 1.0, shaded.X, 1e-4)
	assert.InDelta(t, 0.5, shaded.Y, 1e-4)
	assert.InDelta(t, 0.25, shaded.Z, 1e-4)
}

func TestColorToRGB(t *testing.T) {
	tests := []struct {
		in   core.Vec3
		want [3]uint8
	}{
		{core.NewVec3(0, 0, 0), [3]uint8{0, 0, 0}},
		{core.NewVec3(1, 1, 1), [3]uint8{255, 255, 255}},
		{core.NewVec3(0.5, 0.999, 0.001), [3]uint8{127, 254, 0}},
		{core.NewVec3(2, -1, math.Inf(1)), [3]uint8{255, 0, 255}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ColorToRGB(tt.in), "input %v", tt.in)
	}
}
