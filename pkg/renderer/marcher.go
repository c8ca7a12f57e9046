package renderer

import (
	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/geometry"
	"github.com/df07/go-progressive-raymarcher/pkg/scene"
)

// Field is a colored signed distance field
type Field interface {
	Evaluate(p core.Vec3) (core.Vec3, float64)
}

// MarchResult describes where a ray terminated
type MarchResult struct {
	Hit       bool
	Point     core.Vec3 // Last evaluated point
	Color     core.Vec3 // Field color at Point
	Distance  float64   // Field distance at Point
	Travelled float64
	Steps     int // Field evaluations spent marching
}

// Marcher sphere-traces rays through a field and shades the hits
type Marcher struct {
	field    Field
	distance geometry.SignedDistanceField // Distance-only view of field
	settings scene.Settings
}

// NewMarcher creates a marcher over field using the march and light settings
func NewMarcher(field Field, settings scene.Settings) *Marcher {
	distance := geometry.DistanceFunc(func(p core.Vec3) float64 {
		_, d := field.Evaluate(p)
		return d
	})
	return &Marcher{field: field, distance: distance, settings: settings}
}

// Settings returns the settings the marcher was built with
func (m *Marcher) Settings() scene.Settings {
	return m.settings
}

// March steps along the ray by the field distance until it comes within
// HitEpsilon of a surface or has travelled MaxMarchDistance.
// The direction must be normalized.
func (m *Marcher) March(ray core.Ray) MarchResult {
	maxDst := m.settings.MaxMarchDistance
	eps := m.settings.HitEpsilon

	result := MarchResult{Point: ray.Origin}
	for result.Travelled < maxDst {
		color, dst := m.field.Evaluate(result.Point)
		result.Steps++
		result.Color = color
		result.Distance = dst

		if dst < eps {
			result.Hit = true
			return result
		}

		result.Point = result.Point.Add(ray.Direction.Multiply(dst))
		result.Travelled += dst
	}
	return result
}

// EstimateNormal takes the central-difference gradient of the distance field
func (m *Marcher) EstimateNormal(p core.Vec3) core.Vec3 {
	return geometry.Gradient(m.distance, p, m.settings.NormalOffset())
}

// ToLight returns the unit vector from p towards the light
func (m *Marcher) ToLight(p core.Vec3) core.Vec3 {
	if m.settings.UsePositionalLight {
		return m.settings.LightDirection.Subtract(p).Normalize()
	}
	return m.settings.LightDirection.Negate().Normalize()
}

// Lambert returns the clamped cosine term at a hit point
func (m *Marcher) Lambert(p, normal core.Vec3) float64 {
	return core.Saturate(normal.Dot(m.ToLight(p)))
}

// Shade returns the lit surface color for a hit
func (m *Marcher) Shade(result MarchResult) core.Vec3 {
	normal := m.EstimateNormal(result.Point)
	return result.Color.Multiply(m.Lambert(result.Point, normal))
}
