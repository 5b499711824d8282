package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshview/internal/engine/scene"
)

func TestNewPerspectiveDefaults(t *testing.T) {
	cam := NewPerspective(0)
	assert.Equal(t, float32(50), cam.FOV)
	assert.Equal(t, float32(0.1), cam.Near)
	assert.Equal(t, float32(1000), cam.Far)
	assert.Equal(t, float32(1), cam.Aspect)
	assert.Equal(t, mgl32.Vec3{5, 3, 5}, cam.Position)

	cam.SetViewport(800, 400)
	assert.Equal(t, float32(2), cam.Aspect)
	cam.SetViewport(0, 400)
	assert.Equal(t, float32(2), cam.Aspect)
}

func TestViewProjectionRoundTrip(t *testing.T) {
	cam := NewPerspective(1.5)
	p := mgl32.Vec3{0.5, -0.25, 1}
	clip := cam.ViewProjection().Mul4x1(p.Vec4(1))
	back := cam.InvViewProjection().Mul4x1(clip)
	back = back.Mul(1 / back.W())
	assert.True(t, back.Vec3().ApproxEqualThreshold(p, 1e-3))
}

func TestFrame(t *testing.T) {
	cam := NewPerspective(1)
	cam.Target = mgl32.Vec3{1, 1, 1}
	box := scene.Box3{Min: mgl32.Vec3{-2, -1, -2}, Max: mgl32.Vec3{2, 1, 2}}

	require.True(t, Frame(cam, box, DefaultHeadroom))
	want := float32(math.Abs(4/math.Sin(float64(mgl32.DegToRad(25))))) * 1.5
	assert.InDelta(t, want*0.7, cam.Position.X(), 1e-3)
	assert.InDelta(t, want*0.5, cam.Position.Y(), 1e-3)
	assert.InDelta(t, want*0.7, cam.Position.Z(), 1e-3)
	assert.Equal(t, mgl32.Vec3{}, cam.Target)

	before := cam.Position
	assert.False(t, Frame(cam, scene.EmptyBox(), DefaultHeadroom))
	assert.Equal(t, before, cam.Position)
}

func TestOrbitSyncKeepsPlacement(t *testing.T) {
	cam := NewPerspective(1)
	c := NewOrbitControls(cam)
	assert.True(t, cam.Position.ApproxEqualThreshold(mgl32.Vec3{5, 3, 5}, 1e-4))
	assert.InDelta(t, math.Sqrt(59), c.Distance, 1e-4)
}

func TestOrbitDistanceClamp(t *testing.T) {
	cam := NewPerspective(1)
	cam.Position = mgl32.Vec3{0, 0, 500}
	c := NewOrbitControls(cam)
	assert.Equal(t, float32(DefaultMaxDistance), c.Distance)
	assert.InDelta(t, 100, cam.Position.Len(), 1e-3)

	for i := 0; i < 100; i++ {
		c.HandleZoom(5)
	}
	assert.Equal(t, float32(DefaultMinDistance), c.Distance)
}

func TestOrbitDampingConverges(t *testing.T) {
	cam := NewPerspective(1)
	cam.Position = mgl32.Vec3{0, 0, 10}
	c := NewOrbitControls(cam)
	c.HandleDrag(-100, 0) // queue +0.5 rad of yaw

	c.Update(1.0 / 60)
	first := c.Yaw
	assert.Greater(t, first, float32(0))
	assert.Less(t, first, float32(0.5))
	assert.False(t, c.Settled())

	for i := 0; i < 600; i++ {
		c.Update(1.0 / 60)
	}
	assert.InDelta(t, 0.5, c.Yaw, 1e-3)
	assert.True(t, c.Settled())
	assert.InDelta(t, 10, cam.Position.Len(), 1e-3)
}

func TestOrbitWithoutDamping(t *testing.T) {
	cam := NewPerspective(1)
	cam.Position = mgl32.Vec3{0, 0, 10}
	c := NewOrbitControls(cam)
	c.EnableDamping = false

	c.HandleDrag(0, 100)
	assert.InDelta(t, 0.5, c.Pitch, 1e-5)
	c.HandleDrag(0, 1000)
	assert.Equal(t, c.MaxPitch, c.Pitch)
}

func TestOrbitAutoRotate(t *testing.T) {
	cam := NewPerspective(1)
	cam.Position = mgl32.Vec3{0, 0, 10}
	c := NewOrbitControls(cam)
	c.AutoRotate = true

	c.Update(1)
	assert.InDelta(t, -2*math.Pi/60*2, c.Yaw, 1e-5)
}

func TestOrbitPanMovesTarget(t *testing.T) {
	cam := NewPerspective(1)
	cam.Position = mgl32.Vec3{0, 0, 10}
	c := NewOrbitControls(cam)
	c.EnableDamping = false

	c.HandlePan(-100, 0)
	assert.Greater(t, cam.Target.X(), float32(0))
	assert.InDelta(t, 10, cam.Position.Sub(cam.Target).Len(), 1e-4)
}
