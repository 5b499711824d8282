// Package decodetest builds small model files in every binary format the
// decoder reads, for tests in packages that load models.
package decodetest

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Faultbox/meshview/pkg/encoding"
	"github.com/Faultbox/meshview/pkg/formats"
)

// le concatenates little-endian encodings of fixed-size values.
func le(values ...any) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		if b, ok := v.([]byte); ok {
			buf.Write(b)
			continue
		}
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
	return buf.Bytes()
}

// chunk3DS wraps a 3DS chunk body with its header.
func chunk3DS(id uint16, parts ...[]byte) []byte {
	body := bytes.Join(parts, nil)
	return le(id, uint32(len(body)+6), body)
}

// ThreeDS returns a 3DS file with one triangle object "Tri" whose face uses a red
// material.
func ThreeDS() []byte {
	cstr := func(s string) []byte { return append([]byte(s), 0) }
	verts := le(uint16(3), [3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	faces := le(uint16(1), [4]uint16{0, 1, 2, 0})
	group := le(cstr("Red"), uint16(1), uint16(0))

	mesh := chunk3DS(0x4100,
		chunk3DS(0x4110, verts),
		chunk3DS(0x4120, faces, chunk3DS(0x4130, group)),
	)
	material := chunk3DS(0xAFFF,
		chunk3DS(0xA000, cstr("Red")),
		chunk3DS(0xA020, chunk3DS(0x0011, []byte{255, 0, 0})),
	)
	editor := chunk3DS(0x3D3D, material, chunk3DS(0x4000, cstr("Tri"), mesh))
	return chunk3DS(0x4D4D, chunk3DS(0x0002, le(uint32(3))), editor)
}

// fbxNode is a record for encodeFBX (version 7400 layout).
type fbxNode struct {
	name     string
	props    [][]byte
	children []fbxNode
}

func fbxI64(v int64) []byte   { return le(uint8('L'), v) }
func fbxF64(v float64) []byte { return le(uint8('D'), v) }
func fbxStr(s string) []byte  { return le(uint8('S'), uint32(len(s)), []byte(s)) }

func fbxF64s(vals ...float64) []byte {
	raw := make([]byte, 0, len(vals)*8)
	for _, v := range vals {
		raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
	}
	return le(uint8('d'), uint32(len(vals)), uint32(0), uint32(len(raw)), raw)
}

func fbxI32s(vals ...int32) []byte {
	return le(uint8('i'), uint32(len(vals)), uint32(0), uint32(len(vals)*4), vals)
}

func fbxI64s(vals ...int64) []byte {
	return le(uint8('l'), uint32(len(vals)), uint32(0), uint32(len(vals)*8), vals)
}

func fbxP(name, typ string, values ...float64) fbxNode {
	props := [][]byte{fbxStr(name), fbxStr(typ), fbxStr(""), fbxStr("A")}
	for _, v := range values {
		props = append(props, fbxF64(v))
	}
	return fbxNode{name: "P", props: props}
}

func fbxProps70(ps ...fbxNode) fbxNode {
	return fbxNode{name: "Properties70", children: ps}
}

func fbxC(kind string, child, parent int64, prop ...string) fbxNode {
	props := [][]byte{fbxStr(kind), fbxI64(child), fbxI64(parent)}
	for _, p := range prop {
		props = append(props, fbxStr(p))
	}
	return fbxNode{name: "C", props: props}
}

func (n fbxNode) size() int {
	s := 13 + len(n.name)
	for _, p := range n.props {
		s += len(p)
	}
	for _, c := range n.children {
		s += c.size()
	}
	if len(n.children) > 0 {
		s += 13
	}
	return s
}

func (n fbxNode) write(buf *bytes.Buffer) {
	end := buf.Len() + n.size()
	propLen := 0
	for _, p := range n.props {
		propLen += len(p)
	}
	buf.Write(le(uint32(end), uint32(len(n.props)), uint32(propLen), uint8(len(n.name)), []byte(n.name)))
	for _, p := range n.props {
		buf.Write(p)
	}
	for _, c := range n.children {
		c.write(buf)
	}
	if len(n.children) > 0 {
		buf.Write(make([]byte, 13))
	}
}

func encodeFBX(nodes ...fbxNode) []byte {
	var buf bytes.Buffer
	buf.WriteString("Kaydara FBX Binary  \x00")
	buf.Write(le([2]byte{0x1A, 0x00}, uint32(7400)))
	for _, n := range nodes {
		n.write(&buf)
	}
	buf.Write(make([]byte, 13+16))
	return buf.Bytes()
}

// FBX returns a quad with a red material whose model slides along X for one second.
func FBX() []byte {
	const second = 46186158000
	objects := fbxNode{name: "Objects", children: []fbxNode{
		{name: "Geometry", props: [][]byte{fbxI64(10), fbxStr("Quad\x00\x01Geometry"), fbxStr("Mesh")}, children: []fbxNode{
			{name: "Vertices", props: [][]byte{fbxF64s(0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0)}},
			{name: "PolygonVertexIndex", props: [][]byte{fbxI32s(0, 1, 2, -4)}},
		}},
		{name: "Model", props: [][]byte{fbxI64(20), fbxStr("Quad\x00\x01Model"), fbxStr("Mesh")}, children: []fbxNode{
			fbxProps70(
				fbxP("Lcl Translation", "Lcl Translation", 1, 2, 3),
				fbxP("Lcl Rotation", "Lcl Rotation", 0, 45, 0),
			),
		}},
		{name: "Material", props: [][]byte{fbxI64(30), fbxStr("Red\x00\x01Material"), fbxStr("")}, children: []fbxNode{
			fbxProps70(fbxP("DiffuseColor", "Color", 1, 0, 0)),
		}},
		{name: "AnimationStack", props: [][]byte{fbxI64(40), fbxStr("Take 001\x00\x01AnimStack"), fbxStr("")}, children: []fbxNode{
			fbxProps70(fbxNode{name: "P", props: [][]byte{fbxStr("LocalStop"), fbxStr("KTime"), fbxStr("Time"), fbxStr(""), fbxI64(2 * second)}}),
		}},
		{name: "AnimationLayer", props: [][]byte{fbxI64(50), fbxStr("Base\x00\x01AnimLayer"), fbxStr("")}},
		{name: "AnimationCurveNode", props: [][]byte{fbxI64(60), fbxStr("T\x00\x01AnimCurveNode"), fbxStr("")}, children: []fbxNode{
			fbxProps70(fbxP("d|X", "Number", 1), fbxP("d|Y", "Number", 2), fbxP("d|Z", "Number", 3)),
		}},
		{name: "AnimationCurve", props: [][]byte{fbxI64(70), fbxStr("\x00\x01AnimCurve"), fbxStr("")}, children: []fbxNode{
			{name: "KeyTime", props: [][]byte{fbxI64s(0, second)}},
			{name: "KeyValueFloat", props: [][]byte{le(uint8('f'), uint32(2), uint32(0), uint32(8), []float32{1, 5})}},
		}},
	}}
	connections := fbxNode{name: "Connections", children: []fbxNode{
		fbxC("OO", 20, 0),
		fbxC("OO", 10, 20),
		fbxC("OO", 30, 20),
		fbxC("OO", 50, 40),
		fbxC("OO", 60, 50),
		fbxC("OP", 60, 20, "Lcl Translation"),
		fbxC("OP", 70, 60, "d|X"),
	}}
	return encodeFBX(objects, connections)
}

const quadUSDA = `#usda 1.0
(
    upAxis = "Y"
)

def Xform "Root"
{
    double3 xformOp:translate = (0, 1, 0)
    uniform token[] xformOpOrder = ["xformOp:translate"]

    def Mesh "Quad"
    {
        int[] faceVertexCounts = [4]
        int[] faceVertexIndices = [0, 1, 2, 3]
        point3f[] points = [(0, 0, 0), (1, 0, 0), (1, 1, 0), (0, 1, 0)]
        color3f[] primvars:displayColor = [(0, 0, 1)]
    }
}
`

// USDZ returns an uncompressed USDZ archive holding a blue quad under a Root
// transform lifted by one unit on Y.
func USDZ() []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "scene.usda", Method: zip.Store})
	if err != nil {
		panic(err)
	}
	if _, err := w.Write([]byte(quadUSDA)); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// gltfBuffer holds a triangle, two key times and two translations.
func gltfBuffer() []byte {
	return le(
		[3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		[2]float32{0, 1},
		[2][3]float32{{0, 0, 0}, {4, 0, 0}},
	)
}

func gltfJSON(bufferURI string) string {
	uri := ""
	if bufferURI != "" {
		uri = fmt.Sprintf(`, "uri": %q`, bufferURI)
	}
	return `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [{"name": "Tri", "mesh": 0}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "material": 0}]}],
  "materials": [{"pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1], "metallicFactor": 0.25}}],
  "buffers": [{"byteLength": 68` + uri + `}],
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
}`
}

// GLTF returns a glTF JSON document with an embedded buffer: triangle node "Tri"
// with a red material and a "slide" clip moving it from 0 to 4 on X.
func GLTF() []byte {
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(gltfBuffer())
	return []byte(gltfJSON(uri))
}

// GLB returns the GLTF scene as a binary container.
func GLB() []byte {
	js := []byte(gltfJSON(""))
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}
	bin := gltfBuffer()
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}
	total := 12 + 8 + len(js) + 8 + len(bin)
	return le(
		[]byte("glTF"), uint32(2), uint32(total),
		uint32(len(js)), uint32(0x4E4F534A), js,
		uint32(len(bin)), uint32(0x004E4942), bin,
	)
}

// FBXTwinArms returns two models both named "Arm" sharing a triangle. Only
// the second one (at x=10) has a translation curve, sliding it to x=20.
func FBXTwinArms() []byte {
	const second = 46186158000
	arm := func(id int64, x float64) fbxNode {
		return fbxNode{name: "Model", props: [][]byte{fbxI64(id), fbxStr("Arm\x00\x01Model"), fbxStr("Mesh")}, children: []fbxNode{
			fbxProps70(fbxP("Lcl Translation", "Lcl Translation", x, 0, 0)),
		}}
	}
	objects := fbxNode{name: "Objects", children: []fbxNode{
		{name: "Geometry", props: [][]byte{fbxI64(10), fbxStr("Arm\x00\x01Geometry"), fbxStr("Mesh")}, children: []fbxNode{
			{name: "Vertices", props: [][]byte{fbxF64s(0, 0, 0, 1, 0, 0, 0, 1, 0)}},
			{name: "PolygonVertexIndex", props: [][]byte{fbxI32s(0, 1, -3)}},
		}},
		arm(20, 0),
		arm(21, 10),
		{name: "AnimationStack", props: [][]byte{fbxI64(40), fbxStr("Wave\x00\x01AnimStack"), fbxStr("")}, children: []fbxNode{
			fbxProps70(fbxNode{name: "P", props: [][]byte{fbxStr("LocalStop"), fbxStr("KTime"), fbxStr("Time"), fbxStr(""), fbxI64(second)}}),
		}},
		{name: "AnimationLayer", props: [][]byte{fbxI64(50), fbxStr("Base\x00\x01AnimLayer"), fbxStr("")}},
		{name: "AnimationCurveNode", props: [][]byte{fbxI64(60), fbxStr("T\x00\x01AnimCurveNode"), fbxStr("")}, children: []fbxNode{
			fbxProps70(fbxP("d|X", "Number", 10), fbxP("d|Y", "Number", 0), fbxP("d|Z", "Number", 0)),
		}},
		{name: "AnimationCurve", props: [][]byte{fbxI64(70), fbxStr("\x00\x01AnimCurve"), fbxStr("")}, children: []fbxNode{
			{name: "KeyTime", props: [][]byte{fbxI64s(0, second)}},
			{name: "KeyValueFloat", props: [][]byte{le(uint8('f'), uint32(2), uint32(0), uint32(8), []float32{10, 20})}},
		}},
	}}
	connections := fbxNode{name: "Connections", children: []fbxNode{
		fbxC("OO", 20, 0),
		fbxC("OO", 21, 0),
		fbxC("OO", 10, 20),
		fbxC("OO", 10, 21),
		fbxC("OO", 50, 40),
		fbxC("OO", 60, 50),
		fbxC("OP", 60, 21, "Lcl Translation"),
		fbxC("OP", 70, 60, "d|X"),
	}}
	return encodeFBX(objects, connections)
}

// RSMNode is one node for RSM. Vertices and faces describe its mesh; RotKeys
// animate it.
type RSMNode struct {
	Name, Parent string
	Vertices     [][3]float32
	Faces        [][3]uint16
	RotKeys      []formats.RSMRotKeyframe
}

// RSM encodes a version 1.5 model with one texture and identity node transforms.
func RSM(animLen int32, nodes ...RSMNode) []byte {
	var buf bytes.Buffer
	put := func(v ...any) { buf.Write(le(v...)) }

	put([]byte("GRSM"), uint8(1), uint8(5), animLen, int32(formats.RSMShadingSmooth), uint8(255), make([]byte, 16))
	put(int32(1), encoding.UTF8ToFixedString("tex.bmp", 40))
	put(encoding.UTF8ToFixedString("", 40), int32(len(nodes)))
	for _, n := range nodes {
		put(encoding.UTF8ToFixedString(n.Name, 40), encoding.UTF8ToFixedString(n.Parent, 40))
		put(int32(1), int32(0)) // texture ids
		put([9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}, [3]float32{}, [3]float32{})
		put(float32(0), [3]float32{}, [3]float32{1, 1, 1})
		put(int32(len(n.Vertices)))
		for _, p := range n.Vertices {
			put(p)
		}
		put(int32(1), [4]uint8{255, 255, 255, 255}, float32(0), float32(0))
		put(int32(len(n.Faces)))
		for _, f := range n.Faces {
			put(f, [3]uint16{}, uint16(0), uint16(0), int32(0), int32(0))
		}
		put(int32(len(n.RotKeys)))
		for _, k := range n.RotKeys {
			put(k.Frame, k.Quaternion)
		}
		put(int32(0)) // scale keys
	}
	put(int32(0)) // volume boxes
	return buf.Bytes()
}

// RSMTriangle returns a static single-node RSM holding a unit right triangle.
func RSMTriangle() []byte {
	return RSM(0, RSMNode{
		Name:     "tri",
		Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:    [][3]uint16{{0, 1, 2}},
	})
}
