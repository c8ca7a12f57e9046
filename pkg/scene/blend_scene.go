package scene

import (
	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/geometry"
)

// NewBlendScene creates three spheres melted together with smooth unions,
// next to a hard-edged sphere for comparison
func NewBlendScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	cameraConfig := geometry.DefaultCameraConfig()
	cameraConfig.Eye = core.NewVec3(0, 1, -5)
	cameraConfig.Target = core.NewVec3(0, 0.2, 0)
	cameraConfig.VFov = 50
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(cameraConfig, cameraOverrides[0])
	}

	settings := DefaultSettings()
	settings.LightDirection = core.NewVec3(-3, 4, -4)
	settings.UsePositionalLight = true

	s := New("blend", settings, cameraConfig)

	s.Shapes = append(s.Shapes,
		geometry.NewSphere("core", core.NewVec3(-0.4, 0, 0), 0.8, core.NewVec3(0.9, 0.3, 0.2)),
		mustBlend("left lobe", core.NewVec3(0.6, 0.4, 0), 0.6, core.NewVec3(0.2, 0.5, 0.9), 0.5),
		mustBlend("top lobe", core.NewVec3(-0.2, 0.9, 0.2), 0.45, core.NewVec3(0.3, 0.85, 0.35), 0.35),
		geometry.NewSphere("hard", core.NewVec3(1.9, -0.3, 0.5), 0.5, core.NewVec3(0.85, 0.85, 0.2)),
	)
	return s
}

// mustBlend is for hard-coded scenes whose blend strengths are known valid
func mustBlend(name string, position core.Vec3, radius float64, color core.Vec3, k float64) geometry.Shape {
	shape, err := geometry.NewBlendedSphere(name, position, radius, color, k)
	if err != nil {
		panic(err)
	}
	return shape
}
