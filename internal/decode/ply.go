package decode

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/pkg/formats"
)

// plyPointSize is the sprite size, in pixels, of point clouds.
const plyPointSize = 2

// decodePLY returns a mesh, or a point cloud when the file declares no faces.
func decodePLY(data []byte) (*scene.Node, []*animation.Clip, error) {
	doc, err := formats.ParsePLY(data)
	if err != nil {
		return nil, nil, err
	}

	geo := &scene.Geometry{
		Positions: vec3s(doc.Vertices),
		Colors:    vec3s(doc.Colors),
		Indices:   doc.Indices,
	}
	if len(doc.Normals) == len(doc.Vertices) {
		geo.Normals = vec3s(doc.Normals)
	}

	if !doc.HasFaces() {
		mat := scene.DefaultScanMaterial()
		mat.PointSize = plyPointSize
		return scene.NewPoints("ply", geo, mat), nil, nil
	}
	return scene.NewMesh("ply", geo, nil), nil, nil
}

func vec3s(in [][3]float32) []mgl32.Vec3 {
	if len(in) == 0 {
		return nil
	}
	out := make([]mgl32.Vec3, len(in))
	for i, v := range in {
		out[i] = mgl32.Vec3(v)
	}
	return out
}
