package renderer

import "github.com/df07/go-progressive-raymarcher/pkg/core"

// RayCache keeps the rays cast for every (sample, pixel) pair in one arena of
// samples*pixelCount entries. All rays of a camera state share its origin,
// so only directions are stored. A sample row is either valid for every
// pixel its pass marches or not valid at all.
type RayCache struct {
	samples    int
	pixelCount int
	origin     core.Vec3
	directions []core.Vec3
	valid      []bool
	generation int
}

// NewRayCache allocates the whole arena up front
func NewRayCache(samples, pixelCount int, origin core.Vec3) *RayCache {
	return &RayCache{
		samples:    samples,
		pixelCount: pixelCount,
		origin:     origin,
		directions: make([]core.Vec3, samples*pixelCount),
		valid:      make([]bool, samples),
	}
}

// Samples returns the number of sample rows
func (c *RayCache) Samples() int { return c.samples }

// PixelCount returns the number of rays per sample row
func (c *RayCache) PixelCount() int { return c.pixelCount }

// Origin returns the shared origin of the cached rays
func (c *RayCache) Origin() core.Vec3 { return c.origin }

// Valid reports whether sample row s holds rays for the current camera
func (c *RayCache) Valid(s int) bool { return c.valid[s] }

// MarkValid flags sample row s as materialized
func (c *RayCache) MarkValid(s int) { c.valid[s] = true }

// Get returns the cached ray for (s, pixel) and whether its row is valid
func (c *RayCache) Get(s, pixel int) (core.Ray, bool) {
	return core.NewRay(c.origin, c.directions[s*c.pixelCount+pixel]), c.valid[s]
}

// Put stores a ray direction. Concurrent Puts are safe for distinct pixels.
func (c *RayCache) Put(s, pixel int, direction core.Vec3) {
	c.directions[s*c.pixelCount+pixel] = direction
}

// Invalidate drops every row and moves the shared origin; the arena itself
// is kept for reuse
func (c *RayCache) Invalidate(origin core.Vec3) {
	for i := range c.valid {
		c.valid[i] = false
	}
	c.origin = origin
	c.generation++
}

// Generation counts invalidations, which lets callers detect stale rays
func (c *RayCache) Generation() int { return c.generation }
