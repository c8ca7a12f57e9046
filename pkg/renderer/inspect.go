package renderer

import (
	"fmt"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/geometry"
)

// InspectResult describes what the pixel-center ray of one pixel sees
type InspectResult struct {
	X, Y       int
	Ray        core.Ray
	Hit        bool
	Point      core.Vec3
	Normal     core.Vec3 // Zero on a miss
	Lambert    float64
	Travelled  float64
	Distance   float64 // Field distance at the terminal point
	Steps      int
	ShapeIndex int // Nearest shape to the terminal point, -1 for an empty scene
	Shape      *geometry.Shape
	Shaded     [3]uint8 // Color a single center sample would write
	Pixel      [3]uint8 // Current buffer contents
	Samples    int      // Samples accumulated for the pixel
}

// Inspect marches the pixel-center ray for (x, y) with the current camera
// and scene, without touching the buffer or the ray cache
func (pr *ProgressiveRaymarcher) Inspect(x, y int) (InspectResult, error) {
	if x < 0 || x >= pr.width || y < 0 || y >= pr.height {
		return InspectResult{}, fmt.Errorf("pixel (%d, %d) outside %dx%d image", x, y, pr.width, pr.height)
	}

	marcher := NewMarcher(pr.scene, pr.scene.Settings)
	ray := pr.camera.CreateRay(geometry.PixelUV(x, y, pr.width, pr.height, core.SubPixelOffset(0)))
	march := marcher.March(ray)

	index := y*pr.width + x
	result := InspectResult{
		X:          x,
		Y:          y,
		Ray:        ray,
		Hit:        march.Hit,
		Point:      march.Point,
		Travelled:  march.Travelled,
		Distance:   march.Distance,
		Steps:      march.Steps,
		ShapeIndex: pr.scene.NearestShape(march.Point),
		Shaded:     pr.config.BackgroundColor,
		Pixel:      pr.buffer.Get(index),
		Samples:    pr.pixelStats[index].SampleCount,
	}
	if result.ShapeIndex >= 0 {
		result.Shape = pr.scene.ShapeAt(result.ShapeIndex)
	}
	if march.Hit {
		result.Normal = marcher.EstimateNormal(march.Point)
		result.Lambert = marcher.Lambert(march.Point, result.Normal)
		result.Shaded = ColorToRGB(march.Color.Multiply(result.Lambert))
	}
	return result, nil
}
