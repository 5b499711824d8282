package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/scene"
)

// wireDepthBias pulls edges toward the camera so they win over coplanar fills.
const wireDepthBias = 1e-5

func (r *Renderer) drawMesh(n *scene.Node, mat *scene.Material, vp mgl32.Mat4, eye mgl32.Vec3) {
	geo := n.Geometry
	world := n.WorldMatrix()
	normalMat := world.Mat3().Inv().Transpose()
	smooth := len(geo.Normals) == len(geo.Positions)
	useColors := mat.VertexColors && geo.HasColors()
	wire := r.Wireframe || mat.Wireframe
	alpha := mat.Opacity
	if alpha <= 0 {
		alpha = 1
	}
	r.stats.Meshes++

	count := geo.TriangleCount()
	vertexCount := uint32(len(geo.Positions))
	for i := 0; i < count; i++ {
		var idx [3]uint32
		idx[0], idx[1], idx[2] = geo.Triangle(i)
		if idx[0] >= vertexCount || idx[1] >= vertexCount || idx[2] >= vertexCount {
			continue
		}

		var wp [3]mgl32.Vec3
		for k := range wp {
			wp[k] = mgl32.TransformCoordinate(geo.Positions[idx[k]], world)
		}
		face := wp[1].Sub(wp[0]).Cross(wp[2].Sub(wp[0]))
		if face.Len() == 0 {
			continue
		}
		face = face.Normalize()
		back := face.Dot(eye.Sub(wp[0])) < 0
		if back && mat.Side == scene.FrontSide {
			continue
		}

		var sv [3]screenVertex
		visible := true
		for k := range sv {
			v, ok := r.project(vp, wp[k])
			if !ok {
				visible = false
				break
			}
			normal := face
			if smooth {
				if sn := normalMat.Mul3x1(geo.Normals[idx[k]]); sn.Len() > 0 {
					normal = sn.Normalize()
				}
			}
			if back {
				normal = normal.Mul(-1)
			}
			base := mat.Color
			if useColors {
				base = modulate(base, geo.Colors[idx[k]])
			}
			v.color = modulate(base, r.Lights.Irradiance(normal))
			sv[k] = v
		}
		if !visible {
			continue
		}

		r.stats.Triangles++
		if wire {
			r.drawLine(sv[0], sv[1], alpha)
			r.drawLine(sv[1], sv[2], alpha)
			r.drawLine(sv[2], sv[0], alpha)
			continue
		}
		r.fillTriangle(sv, alpha)
	}
}

// fillTriangle rasterizes with barycentric coverage and Gouraud-interpolated color.
func (r *Renderer) fillTriangle(sv [3]screenVertex, alpha float32) {
	area := edge(sv[0], sv[1], sv[2].x, sv[2].y)
	if area == 0 {
		return
	}
	minX := max(0, int(math.Floor(float64(min(sv[0].x, sv[1].x, sv[2].x)))))
	maxX := min(r.config.Width-1, int(math.Ceil(float64(max(sv[0].x, sv[1].x, sv[2].x)))))
	minY := max(0, int(math.Floor(float64(min(sv[0].y, sv[1].y, sv[2].y)))))
	maxY := min(r.config.Height-1, int(math.Ceil(float64(max(sv[0].y, sv[1].y, sv[2].y)))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float32(x)+0.5, float32(y)+0.5
			w0 := edge(sv[1], sv[2], px, py) / area
			w1 := edge(sv[2], sv[0], px, py) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*sv[0].z + w1*sv[1].z + w2*sv[2].z
			c := sv[0].color.Mul(w0).Add(sv[1].color.Mul(w1)).Add(sv[2].color.Mul(w2))
			r.setPixel(x, y, z, c, alpha)
		}
	}
}

// drawLine steps one pixel at a time along the longer axis.
func (r *Renderer) drawLine(a, b screenVertex, alpha float32) {
	dx, dy := b.x-a.x, b.y-a.y
	steps := int(max(abs(dx), abs(dy)))
	if limit := 4 * (r.config.Width + r.config.Height); steps > limit {
		steps = limit
	}
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float32(i) / float32(steps)
		x := a.x + dx*t
		y := a.y + dy*t
		z := a.z + (b.z-a.z)*t - wireDepthBias
		c := a.color.Mul(1 - t).Add(b.color.Mul(t))
		r.setPixel(int(math.Floor(float64(x))), int(math.Floor(float64(y))), z, c, alpha)
	}
}

// drawPoints splats each vertex as a square of PointSize pixels. Points are unlit.
func (r *Renderer) drawPoints(n *scene.Node, mat *scene.Material, vp mgl32.Mat4) {
	geo := n.Geometry
	world := n.WorldMatrix()
	useColors := mat.VertexColors && geo.HasColors()
	size := max(1, int(mat.PointSize+0.5))
	half := size / 2
	r.stats.Meshes++

	for i, p := range geo.Positions {
		v, ok := r.project(vp, mgl32.TransformCoordinate(p, world))
		if !ok {
			continue
		}
		c := mat.Color
		if useColors {
			c = modulate(c, geo.Colors[i])
		}
		cx, cy := int(math.Floor(float64(v.x))), int(math.Floor(float64(v.y)))
		for y := cy - half; y < cy-half+size; y++ {
			for x := cx - half; x < cx-half+size; x++ {
				r.setPixel(x, y, v.z, c, 1)
			}
		}
		r.stats.Points++
	}
}

func edge(a, b screenVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

func modulate(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
