package decode

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/pkg/formats"
)

// decodeUSDZ mirrors the prim tree as groups; Mesh prims get a mesh child.
// Z-up stages are rotated to Y-up.
func decodeUSDZ(data []byte) (*scene.Node, []*animation.Clip, error) {
	doc, err := formats.ParseUSDZ(data)
	if err != nil {
		return nil, nil, err
	}

	root := scene.NewGroup("")
	if doc.UpAxis == "Z" {
		root.SetRotation(mgl32.Vec3{-mgl32.DegToRad(90), 0, 0})
	}
	for _, p := range doc.Prims {
		if err := addUSDPrim(root, p); err != nil {
			return nil, nil, err
		}
	}
	return root, nil, nil
}

func addUSDPrim(parent *scene.Node, p *formats.USDPrim) error {
	if p.Specifier == "class" || p.Type == "Material" || p.Type == "Shader" {
		return nil
	}
	g := scene.NewGroup(p.Name)
	applyUSDTransform(g, p)

	if p.Mesh != nil {
		mesh, err := usdMesh(p)
		if err != nil {
			return err
		}
		if mesh != nil {
			g.Add(mesh)
		}
	}
	for _, c := range p.Children {
		if err := addUSDPrim(g, c); err != nil {
			return err
		}
	}
	parent.Add(g)
	return nil
}

// applyUSDTransform sets a node's TRS from the prim's xform ops. A full matrix
// (row-vector convention, so its row-major storage reads as column-major) wins.
func applyUSDTransform(n *scene.Node, p *formats.USDPrim) {
	if p.Transform != nil {
		var m mgl32.Mat4
		for i, v := range p.Transform {
			m[i] = float32(v)
		}
		n.Position = m.Col(3).Vec3()
		sx, sy, sz := m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()
		n.Scale = mgl32.Vec3{sx, sy, sz}
		if sx > 0 && sy > 0 && sz > 0 {
			rot := mgl32.Mat4FromCols(m.Col(0).Mul(1/sx), m.Col(1).Mul(1/sy), m.Col(2).Mul(1/sz), mgl32.Vec4{0, 0, 0, 1})
			n.SetQuaternion(mgl32.Mat4ToQuat(rot))
		}
		return
	}
	if p.HasTranslate {
		n.Position = mgl32.Vec3{float32(p.Translate[0]), float32(p.Translate[1]), float32(p.Translate[2])}
	}
	if p.HasRotate {
		// rotateXYZ applies X first.
		deg := mgl32.Vec3{float32(p.RotateXYZ[0]), float32(p.RotateXYZ[1]), float32(p.RotateXYZ[2])}
		n.SetQuaternion(fbxEuler(deg))
	}
	if p.HasScale {
		n.Scale = mgl32.Vec3{float32(p.Scale[0]), float32(p.Scale[1]), float32(p.Scale[2])}
	}
}

func usdMesh(p *formats.USDPrim) (*scene.Node, error) {
	m := p.Mesh
	tris, err := m.Triangles()
	if err != nil {
		return nil, err
	}
	if len(tris) == 0 {
		return nil, nil
	}

	geo := &scene.Geometry{Positions: vec3s(m.Points), Indices: tris}
	if len(m.Normals) == len(m.Points) {
		geo.Normals = vec3s(m.Normals)
	}

	var mat *scene.Material
	switch len(m.DisplayColor) {
	case 0:
	case 1:
		mat = scene.DefaultMaterial()
		mat.Color = mgl32.Vec3(m.DisplayColor[0])
	case len(m.Points):
		geo.Colors = vec3s(m.DisplayColor)
		mat = scene.DefaultMaterial()
		mat.Color = mgl32.Vec3{1, 1, 1}
		mat.VertexColors = true
	}
	return scene.NewMesh(p.Name+":mesh", geo, mat), nil
}
