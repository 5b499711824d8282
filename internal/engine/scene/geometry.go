package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Geometry holds vertex data for a mesh or points node.
// Indices are optional; without them consecutive triples form triangles.
type Geometry struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Colors    []mgl32.Vec3
	Indices   []uint32
}

// HasColors reports whether per-vertex colors are present for every vertex.
func (g *Geometry) HasColors() bool {
	return len(g.Colors) > 0 && len(g.Colors) == len(g.Positions)
}

// TriangleCount returns the number of triangles described by the geometry.
func (g *Geometry) TriangleCount() int {
	if g.Indices != nil {
		return len(g.Indices) / 3
	}
	return len(g.Positions) / 3
}

// Triangle returns the vertex indices of triangle i.
func (g *Geometry) Triangle(i int) (a, b, c uint32) {
	if g.Indices != nil {
		return g.Indices[i*3], g.Indices[i*3+1], g.Indices[i*3+2]
	}
	base := uint32(i * 3)
	return base, base + 1, base + 2
}

// Valid reports whether every index addresses an existing vertex.
func (g *Geometry) Valid() bool {
	n := uint32(len(g.Positions))
	for _, idx := range g.Indices {
		if idx >= n {
			return false
		}
	}
	return true
}

// BoundingBox returns the local-space box of all positions.
func (g *Geometry) BoundingBox() Box3 {
	b := EmptyBox()
	for _, p := range g.Positions {
		b = b.ExpandByPoint(p)
	}
	return b
}

// Translate moves every position by d.
func (g *Geometry) Translate(d mgl32.Vec3) {
	for i := range g.Positions {
		g.Positions[i] = g.Positions[i].Add(d)
	}
}

// Center translates the geometry so its bounding box is centered on the origin.
func (g *Geometry) Center() {
	b := g.BoundingBox()
	if b.IsEmpty() {
		return
	}
	g.Translate(b.Center().Mul(-1))
}

// ComputeVertexNormals accumulates area-weighted face normals per vertex.
// Non-indexed geometry ends up with flat per-face normals.
func (g *Geometry) ComputeVertexNormals() {
	normals := make([]mgl32.Vec3, len(g.Positions))
	for i := 0; i < g.TriangleCount(); i++ {
		a, b, c := g.Triangle(i)
		if int(a) >= len(g.Positions) || int(b) >= len(g.Positions) || int(c) >= len(g.Positions) {
			continue
		}
		pa, pb, pc := g.Positions[a], g.Positions[b], g.Positions[c]
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}
	for i, n := range normals {
		if n.Len() > 1e-12 {
			normals[i] = n.Normalize()
		}
	}
	g.Normals = normals
}
