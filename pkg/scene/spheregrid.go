package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/geometry"
)

// oklchToRGB converts OKLCH color values to RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return core.NewVec3(r, g, blue).Clamp(0, 1)
}

// NewSphereGridScene creates a gridSize x gridSize grid of spheres with hue
// varying across X and chroma across Z. Every shape is scanned per step, so
// this doubles as a stress scene for the linear evaluator.
func NewSphereGridScene(gridSize int, cameraOverrides ...geometry.CameraConfig) *Scene {
	if gridSize < 1 {
		gridSize = 1
	}

	cameraConfig := geometry.DefaultCameraConfig()
	cameraConfig.Eye = core.NewVec3(0, 6, -9)
	cameraConfig.Target = core.NewVec3(0, 0, 0)
	cameraConfig.VFov = 45
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(cameraConfig, cameraOverrides[0])
	}

	settings := DefaultSettings()
	settings.MaxMarchDistance = 40
	settings.LightDirection = core.NewVec3(-0.4, -1, 0.6)

	s := New("spheregrid", settings, cameraConfig)

	// Fit the grid into roughly 8x8 units
	targetArea := 8.0
	spacing := targetArea
	if gridSize > 1 {
		spacing = targetArea / float64(gridSize-1)
	}
	sphereRadius := math.Max(0.05, math.Min(0.6, spacing*0.4))

	baseLightness := 0.7
	minChroma := 0.05
	maxChroma := 0.25

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			x := float64(i)*spacing - targetArea/2.0
			z := float64(j)*spacing - targetArea/2.0
			if gridSize == 1 {
				x, z = 0, 0
			}

			t := 0.0
			u := 0.0
			if gridSize > 1 {
				t = float64(i) / float64(gridSize-1)
				u = float64(j) / float64(gridSize-1)
			}
			color := oklchToRGB(baseLightness, minChroma+u*(maxChroma-minChroma), t*360.0)

			s.Shapes = append(s.Shapes, geometry.NewSphere(
				fmt.Sprintf("sphere %d,%d", i, j),
				core.NewVec3(x, sphereRadius, z),
				sphereRadius,
				color,
			))
		}
	}

	return s
}
