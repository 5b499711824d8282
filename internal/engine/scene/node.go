package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeKind identifies what a node draws.
type NodeKind int

const (
	KindGroup  NodeKind = iota // Transform-only node
	KindMesh                   // Triangle surface
	KindPoints                 // Point cloud
)

// String returns a human-readable kind name.
func (k NodeKind) String() string {
	switch k {
	case KindGroup:
		return "Group"
	case KindMesh:
		return "Mesh"
	case KindPoints:
		return "Points"
	default:
		return "Unknown"
	}
}

// Node is one element of a scene-graph subtree.
type Node struct {
	Name    string
	Kind    NodeKind
	Visible bool

	// Local transform. Rotation (Euler XYZ, radians) and Quaternion describe the
	// same orientation; use SetRotation / SetQuaternion to keep them in sync.
	Position   mgl32.Vec3
	Rotation   mgl32.Vec3
	Quaternion mgl32.Quat
	Scale      mgl32.Vec3

	Geometry *Geometry
	Material *Material

	parent   *Node
	children []*Node
}

// NewGroup creates an empty transform node.
func NewGroup(name string) *Node {
	return &Node{
		Name:       name,
		Kind:       KindGroup,
		Visible:    true,
		Quaternion: mgl32.QuatIdent(),
		Scale:      mgl32.Vec3{1, 1, 1},
	}
}

// NewMesh creates a triangle mesh node.
func NewMesh(name string, geo *Geometry, mat *Material) *Node {
	n := NewGroup(name)
	n.Kind = KindMesh
	n.Geometry = geo
	n.Material = mat
	return n
}

// NewPoints creates a point cloud node.
func NewPoints(name string, geo *Geometry, mat *Material) *Node {
	n := NewMesh(name, geo, mat)
	n.Kind = KindPoints
	return n
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	child.Detach()
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child from n. Returns false if child is not a direct child.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Detach removes n from its parent, if any.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.Remove(n)
	}
}

// Attached reports whether n currently has a parent.
func (n *Node) Attached() bool {
	return n.parent != nil
}

// Traverse calls fn for n and every descendant, depth first.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// TraverseVisible is like Traverse but skips invisible subtrees.
func (n *Node) TraverseVisible(fn func(*Node)) {
	if !n.Visible {
		return
	}
	fn(n)
	for _, c := range n.children {
		c.TraverseVisible(fn)
	}
}

// Names hands out node names that are unique within one object. Animation
// tracks bind by name, so decoders name every node through one Names.
type Names map[string]int

// Unique returns name, or name with the first free "_N" suffix when name is
// taken, and marks the result as used.
func (s Names) Unique(name string) string {
	for i := s[name]; ; i++ {
		out := name
		if i > 0 {
			out = fmt.Sprintf("%s_%d", name, i)
		}
		if _, taken := s[out]; !taken {
			s[name] = i + 1
			s[out] = max(s[out], 1)
			return out
		}
	}
}

// Find returns the first node in the subtree with the given name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Traverse(func(c *Node) {
		if found == nil && c.Name == name {
			found = c
		}
	})
	return found
}

// Meshes returns every mesh and points node in the subtree.
func (n *Node) Meshes() []*Node {
	var out []*Node
	n.Traverse(func(c *Node) {
		if c.Kind != KindGroup && c.Geometry != nil {
			out = append(out, c)
		}
	})
	return out
}

// SetRotation sets Euler XYZ angles (radians) and updates the quaternion.
func (n *Node) SetRotation(r mgl32.Vec3) {
	n.Rotation = r
	n.Quaternion = QuatFromEuler(r)
}

// SetQuaternion sets the orientation and updates the Euler angles.
func (n *Node) SetQuaternion(q mgl32.Quat) {
	n.Quaternion = q.Normalize()
	n.Rotation = EulerFromQuat(n.Quaternion)
}

// SetUniformScale sets the same scale factor on all three axes.
func (n *Node) SetUniformScale(s float32) {
	n.Scale = mgl32.Vec3{s, s, s}
}

// LocalMatrix returns T * R * S.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(n.Position.X(), n.Position.Y(), n.Position.Z())
	r := n.Quaternion.Mat4()
	s := mgl32.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

// WorldMatrix returns the product of every ancestor's local matrix with n's own.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// QuatFromEuler converts XYZ-order Euler angles to a quaternion (R = Rx * Ry * Rz).
func QuatFromEuler(e mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(e.X(), mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(e.Y(), mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(e.Z(), mgl32.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz)
}

// EulerFromQuat extracts XYZ-order Euler angles from a unit quaternion.
func EulerFromQuat(q mgl32.Quat) mgl32.Vec3 {
	m := q.Mat4()
	m13 := clamp(m.At(0, 2), -1, 1)
	y := float32(math.Asin(float64(m13)))
	var x, z float32
	if math.Abs(float64(m13)) < 0.9999999 {
		x = float32(math.Atan2(float64(-m.At(1, 2)), float64(m.At(2, 2))))
		z = float32(math.Atan2(float64(-m.At(0, 1)), float64(m.At(0, 0))))
	} else {
		x = float32(math.Atan2(float64(m.At(2, 1)), float64(m.At(1, 1))))
	}
	return mgl32.Vec3{x, y, z}
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
