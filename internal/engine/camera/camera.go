// Package camera provides the viewer's perspective camera, orbit controls and framing.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Perspective camera defaults.
const (
	DefaultFOV  = 50 // degrees
	DefaultNear = 0.1
	DefaultFar  = 1000
)

// DefaultPosition is where a fresh camera sits before any model is framed.
var DefaultPosition = mgl32.Vec3{5, 3, 5}

// Perspective is a look-at camera with a perspective projection.
type Perspective struct {
	FOV    float32 // Vertical field of view, degrees
	Aspect float32
	Near   float32
	Far    float32

	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
}

// NewPerspective creates a camera with the default lens looking at the origin.
func NewPerspective(aspect float32) *Perspective {
	if aspect <= 0 {
		aspect = 1
	}
	return &Perspective{
		FOV:      DefaultFOV,
		Aspect:   aspect,
		Near:     DefaultNear,
		Far:      DefaultFar,
		Position: DefaultPosition,
		Up:       mgl32.Vec3{0, 1, 0},
	}
}

// SetViewport updates the aspect ratio from a viewport size in pixels.
func (c *Perspective) SetViewport(width, height int) {
	if width > 0 && height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
}

// ViewMatrix returns the world-to-camera matrix.
func (c *Perspective) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// ProjectionMatrix returns the camera-to-clip matrix.
func (c *Perspective) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *Perspective) ViewProjection() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

// InvViewProjection returns the inverse of ViewProjection, used to unproject screen points.
func (c *Perspective) InvViewProjection() mgl32.Mat4 {
	return c.ViewProjection().Inv()
}

// Forward returns the unit vector from the camera toward its target.
func (c *Perspective) Forward() mgl32.Vec3 {
	d := c.Target.Sub(c.Position)
	if d.Len() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return d.Normalize()
}
