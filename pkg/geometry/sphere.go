package geometry

import (
	"math"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
)

// SphereDistance is the exact signed distance from p to a sphere
func SphereDistance(p, center core.Vec3, radius float64) float64 {
	return p.Distance(center) - radius
}

// IntersectSphere solves the ray/sphere quadratic and returns the nearest
// parameter t in [tMin, tMax]. The ray direction does not need to be unit
// length; t is expressed in units of the direction vector.
func IntersectSphere(ray core.Ray, center core.Vec3, radius, tMin, tMax float64) (float64, bool) {
	oc := ray.Origin.Subtract(center)

	// Quadratic equation coefficients: at² + bt + c = 0
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - radius*radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return 0, false
	}

	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first
	root := (-halfB - sqrtD) / a
	if root < tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root < tMin || root > tMax {
			return 0, false
		}
	}
	return root, true
}
