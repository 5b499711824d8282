// Package picking provides ray casting and object picking utilities.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/scene"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized direction
}

// Rect is a viewport rectangle in pixels.
type Rect struct {
	X, Y, W, H float32
}

// NDC converts a pixel position inside rect to normalized device coordinates.
// X grows right and Y grows up, both in [-1, 1].
func NDC(px, py float32, rect Rect) (x, y float32) {
	if rect.W <= 0 || rect.H <= 0 {
		return 0, 0
	}
	x = (px-rect.X)/rect.W*2 - 1
	y = -((py-rect.Y)/rect.H*2 - 1)
	return x, y
}

// ScreenToRay converts pixel coordinates to a world-space ray.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(px, py float32, rect Rect, invViewProj mgl32.Mat4) Ray {
	x, y := NDC(px, py, rect)
	return RayFromNDC(x, y, invViewProj)
}

// RayFromNDC unprojects the near and far points under (x, y) and returns the ray between them.
func RayFromNDC(x, y float32, invViewProj mgl32.Mat4) Ray {
	nearWorld := invViewProj.Mul4x1(mgl32.Vec4{x, y, -1, 1})
	farWorld := invViewProj.Mul4x1(mgl32.Vec4{x, y, 1, 1})

	// Perspective divide
	if nearWorld.W() != 0 {
		nearWorld = nearWorld.Mul(1 / nearWorld.W())
	}
	if farWorld.W() != 0 {
		farWorld = farWorld.Mul(1 / farWorld.W())
	}

	origin := nearWorld.Vec3()
	dir := farWorld.Vec3().Sub(origin)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: origin, Direction: dir}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box scene.Box3) (t float32, hit bool) {
	if box.IsEmpty() {
		return 0, false
	}
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		if r.Direction[axis] == 0 {
			if r.Origin[axis] < box.Min[axis] || r.Origin[axis] > box.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[axis] - r.Origin[axis]) / r.Direction[axis]
		t2 := (box.Max[axis] - r.Origin[axis]) / r.Direction[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// triangleEpsilon is the smallest |det| accepted, relative to the edge lengths,
// so tiny triangles of dense meshes stay pickable.
const triangleEpsilon = 1e-6

// IntersectTriangle runs Möller–Trumbore against triangle (a, b, c) from both sides.
// Degenerate triangles and rays parallel to the plane never hit.
func (r Ray) IntersectTriangle(a, b, c mgl32.Vec3) (t float32, hit bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if abs(det) <= triangleEpsilon*e1.Len()*e2.Len() {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = e2.Dot(q) * inv
	if t <= 0 {
		return 0, false
	}
	return t, true
}

// DistanceToPoint returns the distance from p to the ray and the ray parameter of
// the closest point. Points behind the origin measure against the origin.
func (r Ray) DistanceToPoint(p mgl32.Vec3) (dist, t float32) {
	t = p.Sub(r.Origin).Dot(r.Direction)
	if t < 0 {
		return p.Sub(r.Origin).Len(), 0
	}
	return p.Sub(r.At(t)).Len(), t
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
