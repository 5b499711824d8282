// Package scene provides the scene graph shared by decoders, the viewer and the renderer.
// It holds node hierarchies, vertex geometry, materials and bounding boxes.
package scene

import "github.com/go-gl/mathgl/mgl32"

// DefaultBackground is the viewport clear color (0x1a1a2e).
var DefaultBackground = HexColor(0x1a1a2e)

// Scene is the render root. Its children are the root objects of loaded models.
type Scene struct {
	Root       *Node
	Background mgl32.Vec3
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{
		Root:       NewGroup("scene"),
		Background: DefaultBackground,
	}
}

// Add attaches a model root to the scene.
func (s *Scene) Add(n *Node) {
	s.Root.Add(n)
}

// Remove detaches a model root from the scene.
func (s *Scene) Remove(n *Node) bool {
	return s.Root.Remove(n)
}

// Contains reports whether n is a direct child of the scene root.
func (s *Scene) Contains(n *Node) bool {
	return n != nil && n.Parent() == s.Root
}

// Clear detaches every model root.
func (s *Scene) Clear() {
	for len(s.Root.children) > 0 {
		s.Root.Remove(s.Root.children[0])
	}
}
