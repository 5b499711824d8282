package decode

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/pkg/formats"
)

// decodeSTL returns a single mesh. Facet normals in the file are ignored;
// postProcess recomputes them after centering.
func decodeSTL(data []byte) (*scene.Node, []*animation.Clip, error) {
	doc, err := formats.ParseSTL(data)
	if err != nil {
		return nil, nil, err
	}

	geo := &scene.Geometry{Positions: make([]mgl32.Vec3, 0, len(doc.Triangles)*3)}
	for _, tri := range doc.Triangles {
		for _, v := range tri.Vertices {
			geo.Positions = append(geo.Positions, mgl32.Vec3(v))
		}
	}

	name := doc.Name
	if name == "" {
		name = "stl"
	}
	return scene.NewMesh(name, geo, nil), nil, nil
}
