package picking

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/scene"
)

// DefaultPointThreshold is the world-space radius within which a ray hits a point.
const DefaultPointThreshold = 0.05

// Hit describes the nearest intersection found by a pick.
type Hit struct {
	Index    int         // Position of the hit root in the candidate list
	Node     *scene.Node // Mesh or points node that was hit
	Distance float32
	Point    mgl32.Vec3
}

// Picker resolves rays against model subtrees.
type Picker struct {
	PointThreshold float32
}

// NewPicker creates a picker with default settings.
func NewPicker() *Picker {
	return &Picker{PointThreshold: DefaultPointThreshold}
}

// Pick returns the nearest hit among the drawable nodes of the visible roots.
// The returned Index identifies which root owns the hit node.
func (p *Picker) Pick(ray Ray, roots []*scene.Node) (Hit, bool) {
	owner := make(map[*scene.Node]int)
	var candidates []*scene.Node
	for i, root := range roots {
		if root == nil {
			continue
		}
		root.TraverseVisible(func(n *scene.Node) {
			if n.Kind == scene.KindGroup || n.Geometry == nil {
				return
			}
			owner[n] = i
			candidates = append(candidates, n)
		})
	}

	best := Hit{Index: -1}
	found := false
	for _, n := range candidates {
		t, ok := p.intersectNode(ray, n)
		if !ok || (found && t >= best.Distance) {
			continue
		}
		best = Hit{Index: owner[n], Node: n, Distance: t, Point: ray.At(t)}
		found = true
	}
	return best, found
}

func (p *Picker) intersectNode(ray Ray, n *scene.Node) (float32, bool) {
	geo := n.Geometry
	world := n.WorldMatrix()

	box := geo.BoundingBox().Transform(world)
	if n.Kind == scene.KindPoints {
		pad := mgl32.Vec3{p.PointThreshold, p.PointThreshold, p.PointThreshold}
		box = scene.Box3{Min: box.Min.Sub(pad), Max: box.Max.Add(pad)}
	}
	if _, ok := ray.IntersectAABB(box); !ok {
		return 0, false
	}

	if n.Kind == scene.KindPoints {
		return p.intersectPoints(ray, geo, world)
	}

	var best float32
	found := false
	count := geo.TriangleCount()
	for i := 0; i < count; i++ {
		ia, ib, ic := geo.Triangle(i)
		if int(max(ia, ib, ic)) >= len(geo.Positions) {
			continue
		}
		a := mgl32.TransformCoordinate(geo.Positions[ia], world)
		b := mgl32.TransformCoordinate(geo.Positions[ib], world)
		c := mgl32.TransformCoordinate(geo.Positions[ic], world)
		if t, ok := ray.IntersectTriangle(a, b, c); ok && (!found || t < best) {
			best, found = t, true
		}
	}
	return best, found
}

func (p *Picker) intersectPoints(ray Ray, geo *scene.Geometry, world mgl32.Mat4) (float32, bool) {
	var best float32
	found := false
	for _, pos := range geo.Positions {
		d, t := ray.DistanceToPoint(mgl32.TransformCoordinate(pos, world))
		if d > p.PointThreshold || t <= 0 {
			continue
		}
		if !found || t < best {
			best, found = t, true
		}
	}
	return best, found
}
