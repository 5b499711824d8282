package viewer

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// boxOBJ is a closed 2×1×1 box with one corner on the origin.
const boxOBJ = `o Box
v 0 0 0
v 2 0 0
v 2 1 0
v 0 1 0
v 0 0 1
v 2 0 1
v 2 1 1
v 0 1 1
f 1 2 3 4
f 5 8 7 6
f 1 5 6 2
f 4 3 7 8
f 1 4 8 5
f 2 6 7 3
`

const triangleSTL = `solid tri
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 3 0 0
    vertex 0 3 0
  endloop
endfacet
endsolid tri
`

const trianglePLY = `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
0 1 0
3 0 1 2
`

// flatOBJ collapses to a single point.
const flatOBJ = `v 1 1 1
v 1 1 1
v 1 1 1
f 1 2 3
`

// slideGLTF is a triangle node "Tri" whose translation goes from 0 to 4 on X
// over one second.
func slideGLTF(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range []any{
		[3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		[2]float32{0, 1},
		[2][3]float32{{0, 0, 0}, {4, 0, 0}},
	} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	return []byte(`{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [{"name": "Tri", "mesh": 0}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
  "buffers": [{"byteLength": 68, "uri": "` + uri + `"}],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 8},
    {"buffer": 0, "byteOffset": 44, "byteLength": 24}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
    {"bufferView": 1, "componentType": 5126, "count": 2, "type": "SCALAR", "min": [0], "max": [1]},
    {"bufferView": 2, "componentType": 5126, "count": 2, "type": "VEC3"}
  ],
  "animations": [{
    "name": "slide",
    "channels": [{"sampler": 0, "target": {"node": 0, "path": "translation"}}],
    "samplers": [{"input": 1, "output": 2}]
  }]
}`)
}

func request(name, data string) LoadRequest {
	return LoadRequest{Name: name, Size: int64(len(data)), Data: []byte(data)}
}

func newTestViewer(t *testing.T) *Viewer {
	t.Helper()
	cfg := DefaultConfig(64, 64)
	cfg.ScreenshotDir = t.TempDir()
	v, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v
}
