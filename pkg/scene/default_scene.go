package scene

import (
	"github.com/df07/go-progressive-raymarcher/pkg/core"
	"github.com/df07/go-progressive-raymarcher/pkg/geometry"
)

// NewDefaultScene creates a single orange unit sphere at the origin seen from -Z
func NewDefaultScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	cameraConfig := geometry.DefaultCameraConfig()
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(cameraConfig, cameraOverrides[0])
	}

	s := New("default", DefaultSettings(), cameraConfig)
	s.Shapes = append(s.Shapes,
		geometry.NewSphere("sphere", core.NewVec3(0, 0, 0), 1, core.NewVec3(255, 150, 0).Multiply(1.0/255)),
	)
	return s
}
