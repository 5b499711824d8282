package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidNodeCount      = errors.New("invalid RSM node count")
)

// RSMVersion represents the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// RSMShadingType represents the shading mode stored in the header.
type RSMShadingType int32

const (
	RSMShadingNone   RSMShadingType = 0
	RSMShadingFlat   RSMShadingType = 1
	RSMShadingSmooth RSMShadingType = 2
)

// String returns a human-readable shading type name.
func (s RSMShadingType) String() string {
	switch s {
	case RSMShadingNone:
		return "None"
	case RSMShadingFlat:
		return "Flat"
	case RSMShadingSmooth:
		return "Smooth"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// RSMTexCoord is a texture coordinate with a vertex color (v1.2+).
type RSMTexCoord struct {
	Color [4]uint8 // BGRA
	U, V  float32
}

// RSMFace is a triangle referencing node vertices.
type RSMFace struct {
	VertexIDs   [3]uint16
	TexCoordIDs [3]uint16
	TextureID   uint16
	TwoSide     int32
	SmoothGroup int32 // v1.2+
}

// RSMPosKeyframe is a position keyframe (v < 1.5).
type RSMPosKeyframe struct {
	Frame    int32
	Position [3]float32
}

// RSMRotKeyframe is a rotation keyframe; Quaternion is X, Y, Z, W.
type RSMRotKeyframe struct {
	Frame      int32
	Quaternion [4]float32
}

// RSMScaleKeyframe is a scale keyframe (v1.5+).
type RSMScaleKeyframe struct {
	Frame int32
	Scale [3]float32
}

// RSMNode is one mesh node of the model hierarchy.
type RSMNode struct {
	Name       string
	Parent     string
	TextureIDs []int32

	Matrix   [9]float32 // 3x3, row-major
	Offset   [3]float32 // Pivot offset applied to the mesh
	Position [3]float32
	RotAngle float32 // Radians
	RotAxis  [3]float32
	Scale    [3]float32

	Vertices  [][3]float32
	TexCoords []RSMTexCoord
	Faces     []RSMFace

	PosKeys   []RSMPosKeyframe
	RotKeys   []RSMRotKeyframe
	ScaleKeys []RSMScaleKeyframe
}

// RSMVolumeBox is a collision volume.
type RSMVolumeBox struct {
	Size     [3]float32
	Position [3]float32
	Rotation [3]float32
	Flag     int32 // v1.3+
}

// RSM is a parsed legacy resource model.
type RSM struct {
	Version     RSMVersion
	AnimLength  int32 // Milliseconds
	Shading     RSMShadingType
	Alpha       float32
	Textures    []string
	RootNode    string
	Nodes       []RSMNode
	VolumeBoxes []RSMVolumeBox
}

// Sanity limits for counts read from the file.
const (
	rsmMaxNodes    = 10000
	rsmMaxElements = 1 << 20
	rsmMaxKeys     = 100000
)

// ParseRSM parses RSM data from a byte slice.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != "GRSM" {
		return nil, ErrInvalidRSMMagic
	}

	r := newBinReader(data[4:], binary.LittleEndian)
	rsm := &RSM{
		Version: RSMVersion{Major: r.u8(), Minor: r.u8()},
		Alpha:   1,
	}
	if rsm.Version.Major < 1 || rsm.Version.Major > 2 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	rsm.AnimLength = r.i32()
	rsm.Shading = RSMShadingType(r.i32())
	if rsm.Version.AtLeast(1, 4) {
		rsm.Alpha = float32(r.u8()) / 255.0
	}
	r.skip(16) // Reserved

	textureCount := r.count(rsmMaxElements, 40)
	rsm.Textures = make([]string, textureCount)
	for i := range rsm.Textures {
		rsm.Textures[i] = r.fixedString(40)
	}
	rsm.RootNode = r.fixedString(40)

	if r.err != nil {
		return nil, rsmError(r.err)
	}
	nodeCount := r.i32()
	if r.err != nil {
		return nil, rsmError(r.err)
	}
	if nodeCount < 0 || nodeCount > rsmMaxNodes {
		return nil, ErrInvalidNodeCount
	}

	rsm.Nodes = make([]RSMNode, nodeCount)
	for i := range rsm.Nodes {
		parseRSMNode(r, rsm.Version, &rsm.Nodes[i])
		if r.err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, rsmError(r.err))
		}
	}

	// Volume boxes are optional trailing data.
	if r.remaining() >= 4 {
		boxCount := r.i32()
		if boxCount > 0 && boxCount < 1000 {
			boxes := make([]RSMVolumeBox, boxCount)
			for i := range boxes {
				box := &boxes[i]
				box.Size = r.vec3()
				box.Position = r.vec3()
				box.Rotation = r.vec3()
				if rsm.Version.AtLeast(1, 3) {
					box.Flag = r.i32()
				}
			}
			if r.err == nil {
				rsm.VolumeBoxes = boxes
			}
		}
	}

	return rsm, nil
}

func rsmError(err error) error {
	if errors.Is(err, ErrTruncated) {
		return ErrTruncatedRSMData
	}
	return err
}

func parseRSMNode(r *binReader, version RSMVersion, node *RSMNode) {
	node.Name = r.fixedString(40)
	node.Parent = r.fixedString(40)

	node.TextureIDs = make([]int32, r.count(rsmMaxElements, 4))
	for i := range node.TextureIDs {
		node.TextureIDs[i] = r.i32()
	}

	r.read(&node.Matrix)
	node.Offset = r.vec3()
	node.Position = r.vec3()
	node.RotAngle = r.f32()
	node.RotAxis = r.vec3()
	node.Scale = r.vec3()

	node.Vertices = make([][3]float32, r.count(rsmMaxElements, 12))
	for i := range node.Vertices {
		node.Vertices[i] = r.vec3()
	}

	tcSize := 8
	if version.AtLeast(1, 2) {
		tcSize = 12
	}
	node.TexCoords = make([]RSMTexCoord, r.count(rsmMaxElements, tcSize))
	for i := range node.TexCoords {
		tc := &node.TexCoords[i]
		if version.AtLeast(1, 2) {
			r.read(&tc.Color)
		} else {
			tc.Color = [4]uint8{255, 255, 255, 255}
		}
		tc.U = r.f32()
		tc.V = r.f32()
	}

	faceSize := 20
	if version.AtLeast(1, 2) {
		faceSize = 24
	}
	node.Faces = make([]RSMFace, r.count(rsmMaxElements, faceSize))
	for i := range node.Faces {
		face := &node.Faces[i]
		r.read(&face.VertexIDs)
		r.read(&face.TexCoordIDs)
		face.TextureID = r.u16()
		r.u16() // Padding
		face.TwoSide = r.i32()
		if version.AtLeast(1, 2) {
			face.SmoothGroup = r.i32()
		}
	}

	if !version.AtLeast(1, 5) {
		node.PosKeys = make([]RSMPosKeyframe, r.count(rsmMaxKeys, 16))
		for i := range node.PosKeys {
			node.PosKeys[i].Frame = r.i32()
			node.PosKeys[i].Position = r.vec3()
		}
	}

	node.RotKeys = make([]RSMRotKeyframe, r.count(rsmMaxKeys, 20))
	for i := range node.RotKeys {
		node.RotKeys[i].Frame = r.i32()
		r.read(&node.RotKeys[i].Quaternion)
	}

	if version.AtLeast(1, 5) {
		node.ScaleKeys = make([]RSMScaleKeyframe, r.count(rsmMaxKeys, 16))
		for i := range node.ScaleKeys {
			node.ScaleKeys[i].Frame = r.i32()
			node.ScaleKeys[i].Scale = r.vec3()
		}
	}
}

// VertexCount returns the number of vertices across all nodes.
func (rsm *RSM) VertexCount() int {
	total := 0
	for _, node := range rsm.Nodes {
		total += len(node.Vertices)
	}
	return total
}

// FaceCount returns the number of faces across all nodes.
func (rsm *RSM) FaceCount() int {
	total := 0
	for _, node := range rsm.Nodes {
		total += len(node.Faces)
	}
	return total
}

// NodeByName returns a node by its name, or nil if not found.
func (rsm *RSM) NodeByName(name string) *RSMNode {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return &rsm.Nodes[i]
		}
	}
	return nil
}

// Root returns the node named by RootNode, falling back to the first parentless node.
func (rsm *RSM) Root() *RSMNode {
	if n := rsm.NodeByName(rsm.RootNode); n != nil {
		return n
	}
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Parent == "" {
			return &rsm.Nodes[i]
		}
	}
	return nil
}

// ChildNodes returns all nodes whose parent has the given name.
func (rsm *RSM) ChildNodes(parentName string) []*RSMNode {
	var children []*RSMNode
	for i := range rsm.Nodes {
		n := &rsm.Nodes[i]
		if n.Parent == parentName && n.Name != parentName {
			children = append(children, n)
		}
	}
	return children
}

// HasAnimation returns true if any node carries keyframes.
func (rsm *RSM) HasAnimation() bool {
	for _, node := range rsm.Nodes {
		if len(node.PosKeys) > 0 || len(node.RotKeys) > 0 || len(node.ScaleKeys) > 0 {
			return true
		}
	}
	return false
}
