package formats

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadUSDA = `#usda 1.0
(
    defaultPrim = "World"
    metersPerUnit = 0.01
    upAxis = "Z"
    doc = """multi
line"""
)

def Xform "World" (
    kind = "component"
)
{
    double3 xformOp:translate = (1, 2, 3)
    float3 xformOp:scale = (2, 2, 2)
    uniform token[] xformOpOrder = ["xformOp:translate", "xformOp:scale"]

    def Mesh "Quad"
    {
        int[] faceVertexCounts = [4]
        int[] faceVertexIndices = [0, 1, 2, 3]
        point3f[] points = [(0, 0, 0), (1, 0, 0), (1, 1, 0), (0, 1, 0)]
        normal3f[] normals = [(0, 0, 1), (0, 0, 1), (0, 0, 1), (0, 0, 1)] (
            interpolation = "vertex"
        )
        color3f[] primvars:displayColor = [(1, 0, 0)]
        rel material:binding = </World/Looks/Red>
        float3 xformOp:rotateXYZ.timeSamples = {
            0: (0, 0, 0),
            10: (0, 90, 0),
        }
    }

    def Scope "Looks"
    {
        def Material "Red"
        {
        }
    }
}
`

func zipLayers(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseUSDA_Quad(t *testing.T) {
	doc, err := ParseUSDA(quadUSDA)
	require.NoError(t, err)

	assert.Equal(t, "Z", doc.UpAxis)
	assert.InDelta(t, 0.01, doc.MetersPerUnit, 1e-9)
	require.Len(t, doc.Prims, 1)

	world := doc.Prims[0]
	assert.Equal(t, "Xform", world.Type)
	assert.Equal(t, "World", world.Name)
	assert.True(t, world.HasTranslate)
	assert.Equal(t, [3]float64{1, 2, 3}, world.Translate)
	assert.Equal(t, [3]float64{2, 2, 2}, world.Scale)
	require.Len(t, world.Children, 2)

	meshes := doc.Meshes()
	require.Len(t, meshes, 1)
	mesh := meshes[0].Mesh
	assert.Len(t, mesh.Points, 4)
	assert.Len(t, mesh.Normals, 4)
	assert.Equal(t, [][3]float32{{1, 0, 0}}, mesh.DisplayColor)
	assert.False(t, meshes[0].HasRotate, "time-sampled ops are ignored")

	tris, err := mesh.Triangles()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, tris)
}

func TestParseUSDZ_Archive(t *testing.T) {
	data := zipLayers(t, map[string]string{
		"scene.usda":     quadUSDA,
		"textures/a.png": "png",
	}, "scene.usda", "textures/a.png")

	doc, err := ParseUSDZ(data)
	require.NoError(t, err)
	assert.Len(t, doc.Meshes(), 1)
}

func TestParseUSDZ_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"usdc layer", zipLayers(t, map[string]string{"scene.usdc": "PXR-USDC"}, "scene.usdc"), ErrUSDCUnsupported},
		{"no layer", zipLayers(t, map[string]string{"a.png": "x"}, "a.png"), ErrInvalidUSDZ},
		{"not a zip", []byte("hello world"), ErrInvalidUSDZ},
		{"bad layer", zipLayers(t, map[string]string{"s.usda": "#usda 1.0\ndef Mesh Quad {}"}, "s.usda"), ErrInvalidUSDA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUSDZ(tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUSDMesh_TrianglesOutOfRange(t *testing.T) {
	m := &USDMesh{
		Points:            [][3]float32{{0, 0, 0}},
		FaceVertexCounts:  []int{3},
		FaceVertexIndices: []int{0, 1, 2},
	}
	_, err := m.Triangles()
	assert.ErrorIs(t, err, ErrInvalidUSDA)
}
