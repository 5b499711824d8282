// Package debug provides debug visualization and capture utilities.
package debug

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/scene"
)

// Line is one segment between two world-space points.
type Line [2]mgl32.Vec3

// BoxEdges returns the 12 edges of box expanded by padding on every side.
// An empty box yields no edges.
func BoxEdges(box scene.Box3, padding float32) []Line {
	if box.IsEmpty() {
		return nil
	}
	pad := mgl32.Vec3{padding, padding, padding}
	lo, hi := box.Min.Sub(pad), box.Max.Add(pad)

	corner := func(i int) mgl32.Vec3 {
		c := lo
		if i&1 != 0 {
			c[0] = hi[0]
		}
		if i&2 != 0 {
			c[1] = hi[1]
		}
		if i&4 != 0 {
			c[2] = hi[2]
		}
		return c
	}

	// Corners differing in exactly one bit share an edge.
	lines := make([]Line, 0, 12)
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				lines = append(lines, Line{corner(i), corner(i | bit)})
			}
		}
	}
	return lines
}

// GroundGrid returns a square grid of lines on the XZ plane centered on the origin.
func GroundGrid(size float32, divisions int) []Line {
	if divisions < 1 || size <= 0 {
		return nil
	}
	half := size / 2
	step := size / float32(divisions)
	lines := make([]Line, 0, 2*(divisions+1))
	for i := 0; i <= divisions; i++ {
		k := -half + float32(i)*step
		lines = append(lines,
			Line{{k, 0, -half}, {k, 0, half}},
			Line{{-half, 0, k}, {half, 0, k}},
		)
	}
	return lines
}
