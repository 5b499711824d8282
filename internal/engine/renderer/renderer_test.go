package renderer

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/engine/debug"
	"github.com/Faultbox/meshview/internal/engine/scene"
)

const size = 64

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(Config{Width: size, Height: size})
	require.NoError(t, err)
	return r
}

func frontCamera() *camera.Perspective {
	cam := camera.NewPerspective(1)
	cam.Position = mgl32.Vec3{0, 0, 5}
	return cam
}

func quadNode(z float32, c mgl32.Vec3, side scene.Side) *scene.Node {
	geo := &scene.Geometry{
		Positions: []mgl32.Vec3{{-0.5, -0.5, z}, {0.5, -0.5, z}, {0.5, 0.5, z}, {-0.5, 0.5, z}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
	mat := scene.DefaultMaterial()
	mat.Color = c
	mat.Side = side
	return scene.NewMesh("quad", geo, mat)
}

func background() color.RGBA {
	return color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 255}
}

func countForeground(r *Renderer) int {
	n := 0
	img := r.Image()
	bg := background()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if img.RGBAAt(x, y) != bg {
				n++
			}
		}
	}
	return n
}

func TestNewRejectsInvalidSize(t *testing.T) {
	_, err := New(Config{Width: 0, Height: 10})
	assert.ErrorIs(t, err, ErrInvalidSize)

	r := newRenderer(t)
	assert.ErrorIs(t, r.Resize(-1, 5), ErrInvalidSize)
	require.NoError(t, r.Resize(32, 16))
	w, h := r.Size()
	assert.Equal(t, 32, w)
	assert.Equal(t, 16, h)
	assert.Equal(t, 32, r.Image().Bounds().Dx())
}

func TestRenderEmptyScene(t *testing.T) {
	r := newRenderer(t)
	img := r.Render(scene.New().Root, frontCamera())
	assert.Equal(t, background(), img.RGBAAt(0, 0))
	assert.Equal(t, background(), img.RGBAAt(size-1, size-1))
	assert.Zero(t, countForeground(r))
}

func TestRenderBackgroundColor(t *testing.T) {
	r := newRenderer(t)
	r.Background = mgl32.Vec3{1, 1, 1}
	img := r.Render(nil, frontCamera())
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(5, 5))
}

func TestRenderQuad(t *testing.T) {
	r := newRenderer(t)
	root := scene.NewGroup("root")
	root.Add(quadNode(0, mgl32.Vec3{1, 0, 0}, scene.DoubleSide))

	img := r.Render(root, frontCamera())
	center := img.RGBAAt(size/2, size/2)
	assert.Greater(t, center.R, uint8(100))
	assert.Zero(t, center.G)
	assert.Equal(t, background(), img.RGBAAt(0, 0))
	assert.Equal(t, 1, r.Stats().Meshes)
	assert.Equal(t, 2, r.Stats().Triangles)
}

func TestRenderDepthOrder(t *testing.T) {
	r := newRenderer(t)
	root := scene.NewGroup("root")
	root.Add(quadNode(1, mgl32.Vec3{1, 0, 0}, scene.DoubleSide))
	root.Add(quadNode(-1, mgl32.Vec3{0, 0, 1}, scene.DoubleSide))

	center := r.Render(root, frontCamera()).RGBAAt(size/2, size/2)
	assert.Greater(t, center.R, uint8(100))
	assert.Zero(t, center.B)
}

func TestRenderFaceCulling(t *testing.T) {
	r := newRenderer(t)
	cam := frontCamera()
	cam.Position = mgl32.Vec3{0, 0, -5}

	front := scene.NewGroup("root")
	front.Add(quadNode(0, mgl32.Vec3{1, 1, 1}, scene.FrontSide))
	r.Render(front, cam)
	assert.Zero(t, countForeground(r), "back of a front-sided quad is culled")

	double := scene.NewGroup("root")
	double.Add(quadNode(0, mgl32.Vec3{1, 1, 1}, scene.DoubleSide))
	r.Render(double, cam)
	assert.NotZero(t, countForeground(r))
}

func TestRenderSkipsHidden(t *testing.T) {
	r := newRenderer(t)
	root := scene.NewGroup("root")
	q := quadNode(0, mgl32.Vec3{1, 1, 1}, scene.DoubleSide)
	q.Visible = false
	root.Add(q)

	r.Render(root, frontCamera())
	assert.Zero(t, countForeground(r))
}

func TestRenderWireframe(t *testing.T) {
	r := newRenderer(t)
	root := scene.NewGroup("root")
	root.Add(quadNode(0, mgl32.Vec3{1, 1, 1}, scene.DoubleSide))

	r.Render(root, frontCamera())
	filled := countForeground(r)

	r.Wireframe = true
	r.Render(root, frontCamera())
	edges := countForeground(r)
	assert.NotZero(t, edges)
	assert.Less(t, edges, filled)
}

func TestRenderVertexColors(t *testing.T) {
	r := newRenderer(t)
	q := quadNode(0, mgl32.Vec3{1, 1, 1}, scene.DoubleSide)
	q.Geometry.Colors = []mgl32.Vec3{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}}
	q.Material.VertexColors = true
	root := scene.NewGroup("root")
	root.Add(q)

	center := r.Render(root, frontCamera()).RGBAAt(size/2, size/2)
	assert.Zero(t, center.R)
	assert.Greater(t, center.G, uint8(100))
}

func TestRenderPoints(t *testing.T) {
	r := newRenderer(t)
	mat := scene.DefaultScanMaterial()
	mat.Color = mgl32.Vec3{1, 1, 0}
	mat.PointSize = 2
	geo := &scene.Geometry{Positions: []mgl32.Vec3{{0, 0, 0}, {0.3, 0.3, 0}, {0, 0, 10}}}
	root := scene.NewGroup("root")
	root.Add(scene.NewPoints("cloud", geo, mat))

	img := r.Render(root, frontCamera())
	assert.Equal(t, 2, r.Stats().Points, "point behind the camera is dropped")
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 0, A: 255}, img.RGBAAt(size/2, size/2))
}

func TestDrawLinesOverlay(t *testing.T) {
	r := newRenderer(t)
	cam := frontCamera()
	r.Render(nil, cam)

	box := scene.Box3{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}}
	r.DrawLines(debug.BoxEdges(box, 0), mgl32.Vec3{0, 1, 0}, cam)
	assert.NotZero(t, countForeground(r))
	assert.Equal(t, background(), r.Image().RGBAAt(size/2, size/2), "box interior stays empty")
}
