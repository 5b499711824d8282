package decode

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/pkg/formats"
)

// decode3DS builds a group per object with one mesh per material group.
// 3DS vertices are already in world space, so the object's local frame is not applied.
func decode3DS(data []byte) (*scene.Node, []*animation.Clip, error) {
	doc, err := formats.Parse3DS(data)
	if err != nil {
		return nil, nil, err
	}

	root := scene.NewGroup("")
	for i := range doc.Objects {
		o := &doc.Objects[i]
		if len(o.Faces) == 0 {
			continue
		}
		name := o.Name
		if name == "" {
			name = objectName("object", i)
		}
		positions := vec3s(o.Vertices)

		if len(o.Groups) == 0 {
			root.Add(scene.NewMesh(name, tdsGeometry(positions, o.Faces, nil), nil))
			continue
		}

		group := scene.NewGroup(name)
		covered := make([]bool, len(o.Faces))
		for _, g := range o.Groups {
			var mat *scene.Material
			if m := doc.MaterialByName(g.Material); m != nil {
				mat = scene.DefaultMaterial()
				mat.Name = m.Name
				mat.Color = mgl32.Vec3(m.Diffuse)
				mat.Metalness = 0
			}
			for _, f := range g.Faces {
				if int(f) < len(covered) {
					covered[f] = true
				}
			}
			if geo := tdsGeometry(positions, o.Faces, g.Faces); len(geo.Indices) > 0 {
				group.Add(scene.NewMesh(name+":"+g.Material, geo, mat))
			}
		}

		var rest []uint16
		for f, ok := range covered {
			if !ok {
				rest = append(rest, uint16(f))
			}
		}
		if len(rest) > 0 {
			group.Add(scene.NewMesh(name, tdsGeometry(positions, o.Faces, rest), nil))
		}
		root.Add(group)
	}
	return root, nil, nil
}

// tdsGeometry copies positions and emits indices for the selected faces (all when nil).
func tdsGeometry(positions []mgl32.Vec3, faces [][3]uint16, sel []uint16) *scene.Geometry {
	geo := &scene.Geometry{Positions: append([]mgl32.Vec3(nil), positions...)}
	add := func(f [3]uint16) {
		geo.Indices = append(geo.Indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
	}
	if sel == nil {
		for _, f := range faces {
			add(f)
		}
		return geo
	}
	for _, i := range sel {
		if int(i) < len(faces) {
			add(faces[i])
		}
	}
	return geo
}
