package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
)

// ErrInvalidCamera is returned by CameraConfig.Validate for degenerate setups
var ErrInvalidCamera = errors.New("invalid camera")

// CameraConfig contains the extrinsic and intrinsic camera parameters
type CameraConfig struct {
	Eye         core.Vec3 // Camera position
	Target      core.Vec3 // Point the camera looks at
	Up          core.Vec3 // Up direction
	VFov        float64   // Vertical field of view in degrees
	AspectRatio float64   // Width / height
	Near        float64   // Near clip distance
	Far         float64   // Far clip distance
}

// DefaultCameraConfig looks at the origin from four units down -Z
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Eye:         core.NewVec3(0, 0, -4),
		Target:      core.NewVec3(0, 0, 0),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        70.0,
		AspectRatio: 600.0 / 480.0,
		Near:        0.001,
		Far:         1000.0,
	}
}

// MergeCameraConfig applies the non-zero fields of override on top of base
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	var zero core.Vec3
	if override.Eye != zero {
		result.Eye = override.Eye
	}
	if override.Target != zero {
		result.Target = override.Target
	}
	if override.Up != zero {
		result.Up = override.Up
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.Near != 0 {
		result.Near = override.Near
	}
	if override.Far != 0 {
		result.Far = override.Far
	}
	return result
}

// Validate rejects configurations that would produce NaN rays
func (c CameraConfig) Validate() error {
	forward := c.Target.Subtract(c.Eye)
	switch {
	case forward.LengthSquared() == 0:
		return fmt.Errorf("%w: eye and target coincide at %v", ErrInvalidCamera, c.Eye)
	case c.Up.LengthSquared() == 0:
		return fmt.Errorf("%w: zero up vector", ErrInvalidCamera)
	case forward.Normalize().Cross(c.Up.Normalize()).LengthSquared() < 1e-12:
		return fmt.Errorf("%w: up vector is parallel to the view direction", ErrInvalidCamera)
	case !(c.VFov > 0 && c.VFov < 180):
		return fmt.Errorf("%w: vertical fov %g outside (0, 180)", ErrInvalidCamera, c.VFov)
	case !(c.AspectRatio > 0):
		return fmt.Errorf("%w: aspect ratio %g must be positive", ErrInvalidCamera, c.AspectRatio)
	case !(c.Near > 0):
		return fmt.Errorf("%w: near %g must be positive", ErrInvalidCamera, c.Near)
	case !(c.Far > c.Near):
		return fmt.Errorf("%w: far %g must exceed near %g", ErrInvalidCamera, c.Far, c.Near)
	}
	return nil
}

// Camera turns normalized screen coordinates into world-space rays.
//
// The view and inverse projection matrices are cached and only recomputed by
// Update; editing the pose with SetPose does not touch them until then.
type Camera struct {
	config            CameraConfig
	view              mgl64.Mat4
	cameraToWorld     mgl64.Mat4
	inverseProjection mgl64.Mat4
	origin            core.Vec3
}

// NewCamera creates a camera and computes its matrices
func NewCamera(config CameraConfig) *Camera {
	c := &Camera{config: config}
	c.Update()
	return c
}

// Config returns the current parameters, including edits not yet applied by Update
func (c *Camera) Config() CameraConfig {
	return c.config
}

// SetConfig replaces all parameters; call Update to apply them
func (c *Camera) SetConfig(config CameraConfig) {
	c.config = config
}

// SetPose changes eye, target and up; call Update to apply them
func (c *Camera) SetPose(eye, target, up core.Vec3) {
	c.config.Eye = eye
	c.config.Target = target
	c.config.Up = up
}

// Update recomputes the cached matrices from the current parameters
func (c *Camera) Update() {
	cfg := c.config
	c.view = mgl64.LookAtV(toMgl(cfg.Eye), toMgl(cfg.Target), toMgl(cfg.Up))
	c.cameraToWorld = c.view.Inv()

	projection := mgl64.Perspective(mgl64.DegToRad(cfg.VFov), cfg.AspectRatio, cfg.Near, cfg.Far)
	c.inverseProjection = projection.Inv()

	o := c.cameraToWorld.Mul4x1(mgl64.Vec4{0, 0, 0, 1})
	c.origin = core.NewVec3(o[0], o[1], o[2])
}

// ViewMatrix returns the cached world-to-camera transform
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	return c.view
}

// CameraToWorld returns the cached inverse of the view matrix
func (c *Camera) CameraToWorld() mgl64.Mat4 {
	return c.cameraToWorld
}

// InverseProjection returns the cached inverse of the projection matrix
func (c *Camera) InverseProjection() mgl64.Mat4 {
	return c.inverseProjection
}

// Origin returns the world-space camera position used for every ray
func (c *Camera) Origin() core.Vec3 {
	return c.origin
}

// Forward returns the unit view direction
func (c *Camera) Forward() core.Vec3 {
	f := c.cameraToWorld.Mul4x1(mgl64.Vec4{0, 0, -1, 0})
	return core.NewVec3(f[0], f[1], f[2]).Normalize()
}

// CreateRay maps uv in [-1,1]^2 (+Y up) to a world-space ray with a unit
// direction. The unprojected point is used as a direction, so the
// translation of the camera-to-world transform is dropped (w = 0).
func (c *Camera) CreateRay(uv core.Vec2) core.Ray {
	d := c.inverseProjection.Mul4x1(mgl64.Vec4{uv.X, uv.Y, 0, 1})
	w := c.cameraToWorld.Mul4x1(mgl64.Vec4{d[0], d[1], d[2], 0})
	direction := core.NewVec3(w[0], w[1], w[2]).Normalize()
	return core.NewRay(c.origin, direction)
}

// PixelUV maps a pixel position (x right, y down, top-left origin) plus a
// sub-pixel offset in [0,1)^2 to uv in [-1,1]^2 with +v pointing up.
func PixelUV(x, y, width, height int, offset core.Vec2) core.Vec2 {
	u := (float64(x)+offset.X)/float64(width)*2 - 1
	v := 1 - (float64(y)+offset.Y)/float64(height)*2
	return core.NewVec2(u, v)
}

// HalfFovTangent returns tan(vfov/2); useful for tests and inspection
func (c CameraConfig) HalfFovTangent() float64 {
	return math.Tan(mgl64.DegToRad(c.VFov) / 2)
}

func toMgl(v core.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}
