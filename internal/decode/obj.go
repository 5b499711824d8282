package decode

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/pkg/formats"
)

// decodeOBJ builds one mesh per OBJ object. Corners are expanded into a
// non-indexed triangle list so per-corner normals survive.
func decodeOBJ(data []byte) (*scene.Node, []*animation.Clip, error) {
	doc, err := formats.ParseOBJ(string(data))
	if err != nil {
		return nil, nil, err
	}

	root := scene.NewGroup("")
	for i, o := range doc.Objects {
		geo := &scene.Geometry{}
		withNormals := true
		for _, tri := range o.Triangles {
			for _, c := range tri {
				geo.Positions = append(geo.Positions, mgl32.Vec3(doc.Vertices[c.V]))
				if len(doc.Colors) == len(doc.Vertices) {
					geo.Colors = append(geo.Colors, mgl32.Vec3(doc.Colors[c.V]))
				}
				if c.N < 0 {
					withNormals = false
				} else if withNormals {
					geo.Normals = append(geo.Normals, mgl32.Vec3(doc.Normals[c.N]))
				}
			}
		}
		if !withNormals {
			geo.Normals = nil
		}

		name := o.Name
		if name == "" {
			name = objectName("object", i)
		}
		root.Add(scene.NewMesh(name, geo, nil))
	}
	return root, nil, nil
}
