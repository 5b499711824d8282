package picking

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshview/internal/engine/scene"
)

func quad(name string, z float32) *scene.Node {
	geo := &scene.Geometry{
		Positions: []mgl32.Vec3{{-1, -1, z}, {1, -1, z}, {1, 1, z}, {-1, 1, z}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
	root := scene.NewGroup(name)
	root.Add(scene.NewMesh(name+":mesh", geo, scene.DefaultMaterial()))
	return root
}

func TestNDC(t *testing.T) {
	rect := Rect{X: 10, Y: 20, W: 100, H: 50}
	tests := []struct {
		name   string
		px, py float32
		wantX  float32
		wantY  float32
	}{
		{"top-left", 10, 20, -1, 1},
		{"bottom-right", 110, 70, 1, -1},
		{"center", 60, 45, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := NDC(tt.px, tt.py, rect)
			assert.InDelta(t, tt.wantX, x, 1e-6)
			assert.InDelta(t, tt.wantY, y, 1e-6)
		})
	}

	x, y := NDC(5, 5, Rect{})
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestScreenToRay(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(50), 1, 0.1, 1000)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	inv := proj.Mul4(view).Inv()

	ray := ScreenToRay(50, 50, Rect{W: 100, H: 100}, inv)
	assert.InDelta(t, 0, ray.Direction.X(), 1e-4)
	assert.InDelta(t, 0, ray.Direction.Y(), 1e-4)
	assert.InDelta(t, -1, ray.Direction.Z(), 1e-4)
	assert.InDelta(t, 4.9, ray.Origin.Z(), 1e-3)

	// Upper half of the screen points upward.
	up := ScreenToRay(50, 10, Rect{W: 100, H: 100}, inv)
	assert.Greater(t, up.Direction.Y(), float32(0))
}

func TestIntersectAABB(t *testing.T) {
	box := scene.Box3{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		wantT float32
	}{
		{"front", Ray{Origin: mgl32.Vec3{0, 0, 5}, Direction: mgl32.Vec3{0, 0, -1}}, true, 4},
		{"inside", Ray{Origin: mgl32.Vec3{}, Direction: mgl32.Vec3{1, 0, 0}}, true, 1},
		{"behind", Ray{Origin: mgl32.Vec3{0, 0, 5}, Direction: mgl32.Vec3{0, 0, 1}}, false, 0},
		{"parallel outside", Ray{Origin: mgl32.Vec3{0, 3, 5}, Direction: mgl32.Vec3{0, 0, -1}}, false, 0},
		{"miss", Ray{Origin: mgl32.Vec3{3, 0, 5}, Direction: mgl32.Vec3{0, 0, -1}}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectAABB(box)
			assert.Equal(t, tt.hit, hit)
			if tt.hit {
				assert.InDelta(t, tt.wantT, got, 1e-5)
			}
		})
	}

	_, hit := Ray{Direction: mgl32.Vec3{0, 0, 1}}.IntersectAABB(scene.EmptyBox())
	assert.False(t, hit)
}

func TestIntersectTriangleDoubleSided(t *testing.T) {
	a, b, c := mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{1, -1, 0}, mgl32.Vec3{0, 1, 0}

	front := Ray{Origin: mgl32.Vec3{0, 0, 2}, Direction: mgl32.Vec3{0, 0, -1}}
	tf, ok := front.IntersectTriangle(a, b, c)
	require.True(t, ok)
	assert.InDelta(t, 2, tf, 1e-6)

	back := Ray{Origin: mgl32.Vec3{0, 0, -3}, Direction: mgl32.Vec3{0, 0, 1}}
	tb, ok := back.IntersectTriangle(a, b, c)
	require.True(t, ok)
	assert.InDelta(t, 3, tb, 1e-6)

	_, ok = Ray{Origin: mgl32.Vec3{5, 0, 2}, Direction: mgl32.Vec3{0, 0, -1}}.IntersectTriangle(a, b, c)
	assert.False(t, ok)

	_, ok = Ray{Origin: mgl32.Vec3{0, 0, 2}, Direction: mgl32.Vec3{1, 0, 0}}.IntersectTriangle(a, b, c)
	assert.False(t, ok, "parallel ray")
}

func TestIntersectTriangleScale(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c mgl32.Vec3
		hit     bool
	}{
		{"tiny", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1e-4, 0, 0}, mgl32.Vec3{0, 1e-4, 0}, true},
		{"huge", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1e4, 0, 0}, mgl32.Vec3{0, 1e4, 0}, true},
		{"collapsed edge", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1e-4, 0}, false},
		{"collinear", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{2, 0, 0}, false},
	}
	ray := Ray{Origin: mgl32.Vec3{2.5e-5, 2.5e-5, 1}, Direction: mgl32.Vec3{0, 0, -1}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := ray.IntersectTriangle(tt.a, tt.b, tt.c)
			assert.Equal(t, tt.hit, ok)
			if tt.hit {
				assert.InDelta(t, 1, d, 1e-5)
			}
		})
	}
}

func TestPickerNearestWins(t *testing.T) {
	far := quad("far", -2)
	near := quad("near", 1)
	ray := Ray{Origin: mgl32.Vec3{0, 0, 10}, Direction: mgl32.Vec3{0, 0, -1}}

	hit, ok := NewPicker().Pick(ray, []*scene.Node{far, near})
	require.True(t, ok)
	assert.Equal(t, 1, hit.Index)
	assert.Equal(t, "near:mesh", hit.Node.Name)
	assert.InDelta(t, 9, hit.Distance, 1e-5)
	assert.InDelta(t, 1, hit.Point.Z(), 1e-5)
}

func TestPickerSkipsHiddenAndMisses(t *testing.T) {
	hidden := quad("hidden", 1)
	hidden.Visible = false
	shown := quad("shown", -2)
	ray := Ray{Origin: mgl32.Vec3{0, 0, 10}, Direction: mgl32.Vec3{0, 0, -1}}

	hit, ok := NewPicker().Pick(ray, []*scene.Node{hidden, shown})
	require.True(t, ok)
	assert.Equal(t, 1, hit.Index)

	_, ok = NewPicker().Pick(Ray{Origin: mgl32.Vec3{5, 5, 10}, Direction: mgl32.Vec3{0, 0, -1}}, []*scene.Node{shown})
	assert.False(t, ok)

	_, ok = NewPicker().Pick(ray, nil)
	assert.False(t, ok)
}

func TestPickerUsesWorldTransform(t *testing.T) {
	root := quad("moved", 0)
	root.Position = mgl32.Vec3{4, 0, 0}
	root.SetUniformScale(0.5)

	p := NewPicker()
	_, ok := p.Pick(Ray{Origin: mgl32.Vec3{0, 0, 10}, Direction: mgl32.Vec3{0, 0, -1}}, []*scene.Node{root})
	assert.False(t, ok)

	hit, ok := p.Pick(Ray{Origin: mgl32.Vec3{4.4, 0, 10}, Direction: mgl32.Vec3{0, 0, -1}}, []*scene.Node{root})
	require.True(t, ok)
	assert.Equal(t, 0, hit.Index)
}

func TestPickerPoints(t *testing.T) {
	geo := &scene.Geometry{Positions: []mgl32.Vec3{{0, 0, 0}, {0, 0, -3}}}
	root := scene.NewGroup("cloud")
	root.Add(scene.NewPoints("cloud:points", geo, scene.DefaultScanMaterial()))

	p := NewPicker()
	hit, ok := p.Pick(Ray{Origin: mgl32.Vec3{0.01, 0, 5}, Direction: mgl32.Vec3{0, 0, -1}}, []*scene.Node{root})
	require.True(t, ok)
	assert.InDelta(t, 5, hit.Distance, 1e-5)

	_, ok = p.Pick(Ray{Origin: mgl32.Vec3{0.5, 0, 5}, Direction: mgl32.Vec3{0, 0, -1}}, []*scene.Node{root})
	assert.False(t, ok)
}
