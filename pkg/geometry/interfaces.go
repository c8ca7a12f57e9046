package geometry

import (
	"github.com/df07/go-progressive-raymarcher/pkg/core"
)

// SignedDistanceField maps a world point to the signed distance to the
// nearest surface: negative inside, zero on the surface.
type SignedDistanceField interface {
	Distance(p core.Vec3) float64
}

// DistanceFunc adapts a plain function into a SignedDistanceField
type DistanceFunc func(p core.Vec3) float64

// Distance calls the wrapped function
func (f DistanceFunc) Distance(p core.Vec3) float64 {
	return f(p)
}

// Gradient estimates the unit gradient of field at p by central differences
// with offset e. On a surface this is the outward normal.
func Gradient(field SignedDistanceField, p core.Vec3, e float64) core.Vec3 {
	dx := field.Distance(core.NewVec3(p.X+e, p.Y, p.Z)) - field.Distance(core.NewVec3(p.X-e, p.Y, p.Z))
	dy := field.Distance(core.NewVec3(p.X, p.Y+e, p.Z)) - field.Distance(core.NewVec3(p.X, p.Y-e, p.Z))
	dz := field.Distance(core.NewVec3(p.X, p.Y, p.Z+e)) - field.Distance(core.NewVec3(p.X, p.Y, p.Z-e))
	return core.NewVec3(dx, dy, dz).Normalize()
}
