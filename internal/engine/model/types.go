// Package model turns parsed RSM models into scene graph nodes and keyframe clips.
package model

import "github.com/go-gl/mathgl/mgl32"

// ClipName is the name of the clip built from RSM keyframes.
const ClipName = "rsm"

// scaleSuffix names the group that carries a node's animated scale.
const scaleSuffix = ":scale"

// NodeDebugInfo stores debug information about an RSM node.
type NodeDebugInfo struct {
	Name         string
	Parent       string
	Offset       [3]float32
	Position     [3]float32
	Scale        [3]float32
	RotAngle     float32
	RotAxis      [3]float32
	Faces        int
	HasRotKeys   bool
	HasPosKeys   bool
	HasScaleKeys bool
	FirstRotQuat [4]float32
	RotKeyCount  int
	World        mgl32.Mat4 // Flattened vertex matrix at BuildOptions.AnimTimeMs, before the Y flip
}

// BuildOptions contains options for scene building.
type BuildOptions struct {
	// AnimTimeMs is the time of the pose baked into the scene graph.
	AnimTimeMs float32
	// SkipSmoothing keeps flat per-face normals.
	SkipSmoothing bool
}
