package camera

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl32"
)

// Orbit control defaults.
const (
	DefaultDampingFactor   = 0.05
	DefaultMinDistance     = 1
	DefaultMaxDistance     = 100
	DefaultAutoRotateSpeed = 2.0
)

// referenceFPS is the frame rate at which DampingFactor is the per-frame decay.
const referenceFPS = 60

// settleEpsilon is the pending motion below which a damped axis snaps to rest.
const settleEpsilon = 1e-5

// dampedAxis applies queued motion gradually. A critically damped spring pulls the
// pending amount toward zero and the consumed part is applied to the axis.
type dampedAxis struct {
	pending float64
	vel     float64
}

func (a *dampedAxis) push(v float32) {
	a.pending += float64(v)
}

func (a *dampedAxis) step(s *harmonica.Spring) float32 {
	if a.pending == 0 && a.vel == 0 {
		return 0
	}
	before := a.pending
	a.pending, a.vel = s.Update(a.pending, a.vel, 0)
	if math.Abs(a.pending) < settleEpsilon && math.Abs(a.vel) < settleEpsilon {
		a.pending, a.vel = 0, 0
	}
	return float32(before - a.pending)
}

func (a *dampedAxis) flush() float32 {
	v := a.pending
	a.pending, a.vel = 0, 0
	return float32(v)
}

// OrbitControls orbits a Perspective camera around a target point.
type OrbitControls struct {
	Camera *Perspective

	// Spherical coordinates around Camera.Target
	Distance float32
	Pitch    float32 // Elevation, radians
	Yaw      float32 // Azimuth around +Y, radians

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
	PanSensitivity  float32

	EnableDamping   bool
	DampingFactor   float32
	AutoRotate      bool
	AutoRotateSpeed float32 // 2.0 is one turn every 30 seconds

	yaw, pitch   dampedAxis
	panX, panY   dampedAxis
	spring       harmonica.Spring
	springDT     float64
	springFactor float32
}

// NewOrbitControls attaches controls to cam and adopts its current placement.
func NewOrbitControls(cam *Perspective) *OrbitControls {
	c := &OrbitControls{
		Camera:          cam,
		MinDistance:     DefaultMinDistance,
		MaxDistance:     DefaultMaxDistance,
		MinPitch:        -1.55,
		MaxPitch:        1.55,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		PanSensitivity:  0.001,
		EnableDamping:   true,
		DampingFactor:   DefaultDampingFactor,
		AutoRotateSpeed: DefaultAutoRotateSpeed,
	}
	c.Sync()
	return c
}

// Sync re-reads the spherical coordinates from the camera, dropping queued motion.
// Call it after moving the camera directly (for example after Frame).
func (c *OrbitControls) Sync() {
	offset := c.Camera.Position.Sub(c.Camera.Target)
	c.Distance = offset.Len()
	if c.Distance > 0 {
		c.Pitch = float32(math.Asin(float64(clamp(offset.Y()/c.Distance, -1, 1))))
		c.Yaw = float32(math.Atan2(float64(offset.X()), float64(offset.Z())))
	}
	c.yaw, c.pitch, c.panX, c.panY = dampedAxis{}, dampedAxis{}, dampedAxis{}, dampedAxis{}
	c.clamp()
	c.apply()
}

// HandleDrag queues an orbit by a mouse drag delta in pixels.
func (c *OrbitControls) HandleDrag(deltaX, deltaY float32) {
	c.yaw.push(-deltaX * c.DragSensitivity)
	c.pitch.push(deltaY * c.DragSensitivity)
	if !c.EnableDamping {
		c.Update(0)
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitControls) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.clamp()
	c.apply()
}

// HandlePan queues a move of the target in the camera's screen plane.
func (c *OrbitControls) HandlePan(deltaX, deltaY float32) {
	scale := c.Distance * c.PanSensitivity
	c.panX.push(-deltaX * scale)
	c.panY.push(deltaY * scale)
	if !c.EnableDamping {
		c.Update(0)
	}
}

// Update advances damping and auto-rotation by dt seconds and moves the camera.
func (c *OrbitControls) Update(dt float32) {
	if c.AutoRotate && dt > 0 {
		c.Yaw -= 2 * math.Pi / 60 * c.AutoRotateSpeed * dt
	}

	var dYaw, dPitch, dPanX, dPanY float32
	if c.EnableDamping && dt > 0 {
		s := c.springFor(float64(dt))
		dYaw, dPitch = c.yaw.step(s), c.pitch.step(s)
		dPanX, dPanY = c.panX.step(s), c.panY.step(s)
	} else if !c.EnableDamping {
		dYaw, dPitch = c.yaw.flush(), c.pitch.flush()
		dPanX, dPanY = c.panX.flush(), c.panY.flush()
	}

	c.Yaw += dYaw
	c.Pitch += dPitch
	if dPanX != 0 || dPanY != 0 {
		right, up := c.screenAxes()
		move := right.Mul(dPanX).Add(up.Mul(dPanY))
		c.Camera.Target = c.Camera.Target.Add(move)
	}
	c.clamp()
	c.apply()
}

// Settled reports whether no damped motion is pending.
func (c *OrbitControls) Settled() bool {
	for _, a := range []dampedAxis{c.yaw, c.pitch, c.panX, c.panY} {
		if a.pending != 0 || a.vel != 0 {
			return false
		}
	}
	return true
}

// springFor returns a critically damped spring for frame time dt whose decay
// matches DampingFactor at the reference frame rate.
func (c *OrbitControls) springFor(dt float64) *harmonica.Spring {
	if dt != c.springDT || c.DampingFactor != c.springFactor {
		factor := float64(clamp(c.DampingFactor, 0.001, 0.999))
		freq := -math.Log(1-factor) * referenceFPS
		c.spring = harmonica.NewSpring(dt, freq, 1.0)
		c.springDT = dt
		c.springFactor = c.DampingFactor
	}
	return &c.spring
}

func (c *OrbitControls) screenAxes() (right, up mgl32.Vec3) {
	fwd := c.Camera.Forward()
	right = fwd.Cross(c.Camera.Up)
	if right.Len() == 0 {
		right = mgl32.Vec3{1, 0, 0}
	}
	right = right.Normalize()
	up = right.Cross(fwd).Normalize()
	return right, up
}

func (c *OrbitControls) clamp() {
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
	c.Pitch = clamp(c.Pitch, c.MinPitch, c.MaxPitch)
}

// apply writes the spherical placement back onto the camera.
func (c *OrbitControls) apply() {
	cp, sp := math.Cos(float64(c.Pitch)), math.Sin(float64(c.Pitch))
	x := c.Distance * float32(cp*math.Sin(float64(c.Yaw)))
	y := c.Distance * float32(sp)
	z := c.Distance * float32(cp*math.Cos(float64(c.Yaw)))
	c.Camera.Position = c.Camera.Target.Add(mgl32.Vec3{x, y, z})
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
