package scene

import "github.com/go-gl/mathgl/mgl32"

// Side selects which triangle faces are drawn.
type Side int

const (
	FrontSide Side = iota
	DoubleSide
)

// Material describes how a surface is shaded.
type Material struct {
	Name         string
	Color        mgl32.Vec3 // Linear RGB, 0-1
	Roughness    float32
	Metalness    float32
	Opacity      float32
	Side         Side
	VertexColors bool
	Wireframe    bool
	PointSize    float32
}

// DefaultMaterial is the mid-gray surface given to meshes that arrive without one.
func DefaultMaterial() *Material {
	return &Material{
		Name:      "default",
		Color:     HexColor(0x888888),
		Roughness: 0.5,
		Metalness: 0.3,
		Opacity:   1,
		Side:      DoubleSide,
		PointSize: 1,
	}
}

// DefaultScanMaterial is used for scanned/printed geometry (STL, PLY).
func DefaultScanMaterial() *Material {
	m := DefaultMaterial()
	m.Roughness = 0.4
	m.Metalness = 0.6
	return m
}

// Clone returns a copy of the material.
func (m *Material) Clone() *Material {
	c := *m
	return &c
}

// HexColor converts 0xRRGGBB into a 0-1 RGB vector.
func HexColor(hex uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32((hex>>16)&0xff) / 255,
		float32((hex>>8)&0xff) / 255,
		float32(hex&0xff) / 255,
	}
}
