// Package renderer provides a z-buffered software rasterizer for scene graphs.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/engine/debug"
	"github.com/Faultbox/meshview/internal/engine/lighting"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/internal/logger"
)

// ErrInvalidSize is returned for a non-positive viewport.
var ErrInvalidSize = errors.New("invalid viewport size")

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Stats counts what the last frame drew.
type Stats struct {
	Meshes    int
	Triangles int
	Points    int
}

// Renderer rasterizes visible meshes and points into an RGBA image.
type Renderer struct {
	config Config

	img   *image.RGBA
	depth []float32

	Lights     *lighting.Rig
	Background mgl32.Vec3
	Wireframe  bool // Draw every mesh as edges regardless of its material

	stats Stats
}

// New creates a renderer with the default light rig.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		Lights:     lighting.DefaultRig(),
		Background: scene.DefaultBackground,
	}
	if err := r.Resize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	return r, nil
}

// Resize reallocates the color and depth buffers.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if r.img != nil && r.config.Width == width && r.config.Height == height {
		return nil
	}
	r.config = Config{Width: width, Height: height}
	r.img = image.NewRGBA(image.Rect(0, 0, width, height))
	r.depth = make([]float32, width*height)
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return nil
}

// Size returns the viewport size in pixels.
func (r *Renderer) Size() (width, height int) {
	return r.config.Width, r.config.Height
}

// Image returns the most recently rendered frame. It is reused by the next Render.
func (r *Renderer) Image() *image.RGBA {
	return r.img
}

// Stats returns counters for the last frame.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Render draws every visible mesh and points node under root as seen by cam.
func (r *Renderer) Render(root *scene.Node, cam *camera.Perspective) *image.RGBA {
	r.begin()
	if root == nil || cam == nil {
		return r.img
	}
	vp := cam.ViewProjection()
	root.TraverseVisible(func(n *scene.Node) {
		if n.Geometry == nil || n.Kind == scene.KindGroup {
			return
		}
		mat := n.Material
		if mat == nil {
			mat = scene.DefaultMaterial()
		}
		switch n.Kind {
		case scene.KindMesh:
			r.drawMesh(n, mat, vp, cam.Position)
		case scene.KindPoints:
			r.drawPoints(n, mat, vp)
		}
	})
	return r.img
}

// DrawLines draws unlit segments over the current frame with depth testing.
// Segments with an endpoint behind the camera are skipped.
func (r *Renderer) DrawLines(lines []debug.Line, c mgl32.Vec3, cam *camera.Perspective) {
	if cam == nil {
		return
	}
	vp := cam.ViewProjection()
	for _, l := range lines {
		a, okA := r.project(vp, l[0])
		b, okB := r.project(vp, l[1])
		if !okA || !okB {
			continue
		}
		a.color, b.color = c, c
		r.drawLine(a, b, 1)
	}
}

// begin clears color to the background and depth to the far plane.
func (r *Renderer) begin() {
	r.stats = Stats{}
	bg := toRGBA(r.Background, 1)
	pix := r.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = bg.R, bg.G, bg.B, 255
	}
	for i := range r.depth {
		r.depth[i] = float32(math.Inf(1))
	}
}

// screenVertex is a projected vertex with its lit color.
type screenVertex struct {
	x, y, z float32
	w       float32
	color   mgl32.Vec3
}

// project maps a world position through vp to pixel coordinates.
func (r *Renderer) project(vp mgl32.Mat4, p mgl32.Vec3) (screenVertex, bool) {
	clip := vp.Mul4x1(p.Vec4(1))
	if clip.W() <= 1e-6 {
		return screenVertex{}, false
	}
	inv := 1 / clip.W()
	nx, ny, nz := clip.X()*inv, clip.Y()*inv, clip.Z()*inv
	return screenVertex{
		x: (nx + 1) * 0.5 * float32(r.config.Width),
		y: (1 - ny) * 0.5 * float32(r.config.Height),
		z: nz,
		w: clip.W(),
	}, true
}

// setPixel depth-tests and writes one fragment, blending when alpha < 1.
func (r *Renderer) setPixel(x, y int, z float32, c mgl32.Vec3, alpha float32) {
	if x < 0 || y < 0 || x >= r.config.Width || y >= r.config.Height {
		return
	}
	if z < -1 || z > 1 {
		return
	}
	i := y*r.config.Width + x
	if z >= r.depth[i] {
		return
	}
	off := i * 4
	if alpha < 1 {
		dst := r.img.Pix[off : off+3]
		for k := 0; k < 3; k++ {
			c[k] = c[k]*alpha + float32(dst[k])/255*(1-alpha)
		}
	} else {
		r.depth[i] = z
	}
	out := toRGBA(c, 1)
	r.img.Pix[off], r.img.Pix[off+1], r.img.Pix[off+2], r.img.Pix[off+3] = out.R, out.G, out.B, 255
}

func toRGBA(c mgl32.Vec3, a float32) color.RGBA {
	conv := func(v float32) uint8 {
		v = clamp01(v)
		return uint8(v*255 + 0.5)
	}
	return color.RGBA{R: conv(c.X()), G: conv(c.Y()), B: conv(c.Z()), A: conv(a)}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
