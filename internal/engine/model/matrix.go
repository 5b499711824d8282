package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/pkg/formats"
)

// nodeRotation returns the node's rotation: keyframes win over the static axis-angle.
func nodeRotation(node *formats.RSMNode, animTimeMs float32) mgl32.Quat {
	if len(node.RotKeys) > 0 {
		return InterpolateRotKeys(node.RotKeys, animTimeMs)
	}
	axis := mgl32.Vec3(node.RotAxis)
	if node.RotAngle == 0 || axis.Len() <= 1e-6 {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatRotate(node.RotAngle, axis.Normalize())
}

// vertexMatrix is Offset * Mat3, applied to vertices but not inherited by children.
func vertexMatrix(node *formats.RSMNode) mgl32.Mat4 {
	m := node.Matrix
	m3 := mgl32.Mat4{
		m[0], m[1], m[2], 0,
		m[3], m[4], m[5], 0,
		m[6], m[7], m[8], 0,
		0, 0, 0, 1,
	}
	return mgl32.Translate3D(node.Offset[0], node.Offset[1], node.Offset[2]).Mul4(m3)
}

// BuildNodeMatrix builds the flattened transformation matrix for an RSM node:
// parent hierarchy * Position * Rotation * Scale * key scale * Offset * Mat3.
func BuildNodeMatrix(node *formats.RSMNode, rsm *formats.RSM, animTimeMs float32) mgl32.Mat4 {
	visited := make(map[string]bool)
	return buildNodeHierarchyMatrix(node, rsm, animTimeMs, visited).Mul4(vertexMatrix(node))
}

// buildNodeHierarchyMatrix returns the matrix that children inherit.
func buildNodeHierarchyMatrix(node *formats.RSMNode, rsm *formats.RSM, animTimeMs float32, visited map[string]bool) mgl32.Mat4 {
	// Prevent infinite recursion
	if visited[node.Name] {
		return mgl32.Ident4()
	}
	visited[node.Name] = true

	local := mgl32.Translate3D(node.Position[0], node.Position[1], node.Position[2]).
		Mul4(nodeRotation(node, animTimeMs).Mat4()).
		Mul4(mgl32.Scale3D(node.Scale[0], node.Scale[1], node.Scale[2]))

	if len(node.ScaleKeys) > 0 {
		s := InterpolateScaleKeys(node.ScaleKeys, animTimeMs)
		local = local.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}

	if node.Parent != "" && node.Parent != node.Name {
		if parent := rsm.NodeByName(node.Parent); parent != nil {
			return buildNodeHierarchyMatrix(parent, rsm, animTimeMs, visited).Mul4(local)
		}
	}
	return local
}
