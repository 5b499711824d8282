package model

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/pkg/formats"
)

// ErrNoGeometry is returned when no node of the model has a usable face.
var ErrNoGeometry = errors.New("rsm model has no geometry")

// Build converts an RSM into a scene graph rooted at a group called name, plus
// the model's keyframe clip (nil when static).
//
// Layout: root -> "yflip" (scale 1,-1,1) -> one pivot group per RSM node carrying
// Position/Rotation/Scale. Nodes with scale keys get an extra "<name>:scale" group.
// Each node's mesh child holds vertices pre-multiplied by Offset * Mat3.
func Build(rsm *formats.RSM, name string, opts BuildOptions) (*scene.Node, []*animation.Clip, error) {
	root := scene.NewGroup(name)
	flip := scene.NewGroup("yflip")
	flip.Scale = mgl32.Vec3{1, -1, 1}
	root.Add(flip)

	names := assignNames(rsm, name, flip.Name)
	pivots := make([]*scene.Node, len(rsm.Nodes))
	attach := make(map[string]*scene.Node, len(rsm.Nodes))
	meshes := 0

	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]
		pivot := scene.NewGroup(names[i].pivot)
		pivot.Position = mgl32.Vec3(node.Position)
		pivot.SetQuaternion(nodeRotation(node, opts.AnimTimeMs))
		pivot.Scale = mgl32.Vec3(node.Scale)

		at := pivot
		if len(node.ScaleKeys) > 0 {
			at = scene.NewGroup(names[i].scale)
			at.Scale = InterpolateScaleKeys(node.ScaleKeys, opts.AnimTimeMs)
			pivot.Add(at)
		}

		if geo := buildGeometry(node, opts); geo != nil {
			at.Add(scene.NewMesh(names[i].mesh, geo, nil))
			meshes++
		}

		pivots[i] = pivot
		if _, dup := attach[node.Name]; !dup {
			attach[node.Name] = at
		}
	}

	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]
		pivot := pivots[i]
		parent := flip
		if node.Parent != "" && node.Parent != node.Name {
			if p, ok := attach[node.Parent]; ok && !isAncestor(pivot, p) {
				parent = p
			}
		}
		parent.Add(pivot)
	}

	if meshes == 0 {
		return nil, nil, ErrNoGeometry
	}

	clip, err := buildClip(rsm, names)
	if err != nil {
		return nil, nil, err
	}
	if clip == nil {
		return root, nil, nil
	}
	return root, []*animation.Clip{clip}, nil
}

// nodeNames are the scene node names built for one RSM node.
type nodeNames struct {
	pivot, scale, mesh string
}

// assignNames gives every RSM node names that are unique within the built
// object, so keyframe tracks bind to the node they came from even when the
// file repeats a name. Parent links still resolve by the name in the file.
func assignNames(rsm *formats.RSM, reserved ...string) []nodeNames {
	used := scene.Names{}
	for _, r := range reserved {
		used.Unique(r)
	}
	out := make([]nodeNames, len(rsm.Nodes))
	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]
		n := nodeNames{pivot: used.Unique(node.Name)}
		if len(node.ScaleKeys) > 0 {
			n.scale = used.Unique(n.pivot + scaleSuffix)
		}
		n.mesh = used.Unique(n.pivot + ":mesh")
		out[i] = n
	}
	return out
}

// isAncestor reports whether a is n or one of n's ancestors.
func isAncestor(a, n *scene.Node) bool {
	for p := n; p != nil; p = p.Parent() {
		if p == a {
			return true
		}
	}
	return false
}

// buildGeometry bakes a node's faces into a non-indexed triangle list.
func buildGeometry(node *formats.RSMNode, opts BuildOptions) *scene.Geometry {
	m := vertexMatrix(node)
	geo := &scene.Geometry{}

	for _, face := range node.Faces {
		// Bounds check vertex IDs
		valid := true
		for _, vid := range face.VertexIDs {
			if int(vid) >= len(node.Vertices) {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}

		var p [3]mgl32.Vec3
		for j, vid := range face.VertexIDs {
			p[j] = mgl32.TransformCoordinate(mgl32.Vec3(node.Vertices[vid]), m)
		}

		// Degenerate triangle detection
		n := p[1].Sub(p[0]).Cross(p[2].Sub(p[0]))
		if n.Len() < 1e-5 {
			continue
		}
		n = n.Normalize()

		geo.Positions = append(geo.Positions, p[0], p[1], p[2])
		geo.Normals = append(geo.Normals, n, n, n)
	}

	if len(geo.Positions) == 0 {
		return nil
	}
	if !opts.SkipSmoothing {
		SmoothNormals(geo)
	}
	return geo
}

// SmoothNormals averages normals at shared vertex positions.
// This reduces faceted appearance on models.
func SmoothNormals(geo *scene.Geometry) {
	const epsilon float32 = 0.001

	if len(geo.Normals) != len(geo.Positions) {
		return
	}

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]int)
	for i, p := range geo.Positions {
		key := [3]int32{int32(p[0] / epsilon), int32(p[1] / epsilon), int32(p[2] / epsilon)}
		posMap[key] = append(posMap[key], i)
	}

	for _, idxs := range posMap {
		if len(idxs) < 2 {
			continue
		}
		var sum mgl32.Vec3
		for _, idx := range idxs {
			sum = sum.Add(geo.Normals[idx])
		}
		avg := mgl32.Vec3{0, 1, 0}
		if sum.Len() >= 0.0001 {
			avg = sum.Normalize()
		}
		for _, idx := range idxs {
			geo.Normals[idx] = avg
		}
	}
}

// BuildNodeDebugInfo creates debug information for all nodes in an RSM.
func BuildNodeDebugInfo(rsm *formats.RSM, opts BuildOptions) []NodeDebugInfo {
	info := make([]NodeDebugInfo, len(rsm.Nodes))
	for i := range rsm.Nodes {
		node := &rsm.Nodes[i]
		info[i] = NodeDebugInfo{
			Name:         node.Name,
			Parent:       node.Parent,
			Offset:       node.Offset,
			Position:     node.Position,
			Scale:        node.Scale,
			RotAngle:     node.RotAngle,
			RotAxis:      node.RotAxis,
			Faces:        len(node.Faces),
			HasRotKeys:   len(node.RotKeys) > 0,
			HasPosKeys:   len(node.PosKeys) > 0,
			HasScaleKeys: len(node.ScaleKeys) > 0,
			RotKeyCount:  len(node.RotKeys),
			World:        BuildNodeMatrix(node, rsm, opts.AnimTimeMs),
		}
		if len(node.RotKeys) > 0 {
			info[i].FirstRotQuat = node.RotKeys[0].Quaternion
		}
	}
	return info
}

// CountFaces returns total and two-sided face counts for an RSM.
func CountFaces(rsm *formats.RSM) (total, twoSided int) {
	for i := range rsm.Nodes {
		for _, face := range rsm.Nodes[i].Faces {
			total++
			if face.TwoSide != 0 {
				twoSided++
			}
		}
	}
	return total, twoSided
}
