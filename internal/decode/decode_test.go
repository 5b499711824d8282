package decode

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/Faultbox/meshview/internal/decode/decodetest"
	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/pkg/formats"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		format Format
		mode   ReadMode
	}{
		{"obj", "model.obj", FormatOBJ, ReadText},
		{"upper case", "MODEL.OBJ", FormatOBJ, ReadText},
		{"fbx", "rig.fbx", FormatFBX, ReadBinary},
		{"stl", "part.stl", FormatSTL, ReadBinary},
		{"gltf", "scene.gltf", FormatGLTF, ReadBinary},
		{"glb", "scene.glb", FormatGLB, ReadBinary},
		{"usdz", "toy.usdz", FormatUSDZ, ReadBinary},
		{"ply", "scan.ply", FormatPLY, ReadBinary},
		{"3ds", "old.3ds", Format3DS, ReadBinary},
		{"rsm", "house.rsm", FormatRSM, ReadBinary},
		{"path", "/tmp/a.b/model.Glb", FormatGLB, ReadBinary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Lookup(tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.format, e.Format)
			assert.Equal(t, tt.mode, e.Mode)
		})
	}

	for _, bad := range []string{"model.xyz", "noext", "archive.obj.zip", ""} {
		_, err := Lookup(bad)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, bad)
	}
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".obj", ".fbx", ".stl", ".gltf", ".glb", ".usdz", ".ply", ".3ds", ".rsm"}, Extensions())
}

func TestDecode_UnsupportedSkipsParsing(t *testing.T) {
	res, err := Decode("model.xyz", []byte("anything"))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.NotErrorIs(t, err, ErrDecodeFailure)
}

func assertDoubleSided(t *testing.T, obj *scene.Node) {
	t.Helper()
	for _, m := range obj.Meshes() {
		require.NotNil(t, m.Material, m.Name)
		assert.Equal(t, scene.DoubleSide, m.Material.Side, m.Name)
	}
}

func TestDecode_OBJ(t *testing.T) {
	res, err := Decode("corner.obj", []byte(cubeOBJ))
	require.NoError(t, err)
	assert.Equal(t, FormatOBJ, res.Format)
	assert.Equal(t, "corner.obj", res.Object.Name)
	assert.Empty(t, res.Clips)

	meshes := res.Object.Meshes()
	require.Len(t, meshes, 1)
	m := meshes[0]
	assert.Equal(t, "Corner", m.Name)
	assert.Equal(t, 3, m.Geometry.TriangleCount())
	assert.Len(t, m.Geometry.Normals, len(m.Geometry.Positions), "normals computed")
	assert.Equal(t, scene.DefaultMaterial().Color, m.Material.Color)
	assert.InDelta(t, 0.5, m.Material.Roughness, 1e-6)
	assert.InDelta(t, 0.3, m.Material.Metalness, 1e-6)
	assertDoubleSided(t, res.Object)
}

func TestDecode_OBJUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte(cubeOBJ))
	require.NoError(t, err)

	res, err := Decode("wide.obj", data)
	require.NoError(t, err)
	assert.Len(t, res.Object.Meshes(), 1)
}

func TestDecode_STLCentered(t *testing.T) {
	res, err := Decode("tri.STL", []byte(triangleSTL))
	require.NoError(t, err)

	m := res.Object.Meshes()[0]
	box := m.Geometry.BoundingBox()
	assert.True(t, box.Center().ApproxEqualThreshold(mgl32.Vec3{}, 1e-6), "centered: %v", box.Center())
	assert.Len(t, m.Geometry.Normals, 3)
	assert.InDelta(t, 0.4, m.Material.Roughness, 1e-6)
	assert.InDelta(t, 0.6, m.Material.Metalness, 1e-6)
	assert.False(t, m.Material.VertexColors)
	assertDoubleSided(t, res.Object)
}

func TestDecode_PLY(t *testing.T) {
	t.Run("vertex colors", func(t *testing.T) {
		res, err := Decode("scan.ply", []byte(colorPLY))
		require.NoError(t, err)
		m := res.Object.Meshes()[0]
		assert.Equal(t, scene.KindMesh, m.Kind)
		assert.True(t, m.Material.VertexColors)
		assert.InDelta(t, 0.6, m.Material.Metalness, 1e-6)
	})

	t.Run("points without faces", func(t *testing.T) {
		res, err := Decode("cloud.ply", []byte(pointsPLY))
		require.NoError(t, err)
		m := res.Object.Meshes()[0]
		assert.Equal(t, scene.KindPoints, m.Kind)
		assert.False(t, m.Material.VertexColors)
		assert.Equal(t, float32(plyPointSize), m.Material.PointSize)
		assert.True(t, m.Geometry.BoundingBox().Center().ApproxEqual(mgl32.Vec3{}))
	})
}

func TestDecode_3DS(t *testing.T) {
	res, err := Decode("old.3ds", decodetest.ThreeDS())
	require.NoError(t, err)

	meshes := res.Object.Meshes()
	require.Len(t, meshes, 1)
	assert.Equal(t, "Tri:Red", meshes[0].Name)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, meshes[0].Material.Color)
	assertDoubleSided(t, res.Object)
}

func TestDecode_FBX(t *testing.T) {
	res, err := Decode("quad.fbx", decodetest.FBX())
	require.NoError(t, err)

	model := res.Object.Find("Quad")
	require.NotNil(t, model)
	assert.Equal(t, scene.KindGroup, model.Kind)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, model.Position)
	assert.InDelta(t, mgl32.DegToRad(45), model.Rotation.Y(), 1e-4)

	meshes := res.Object.Meshes()
	require.Len(t, meshes, 1)
	assert.Equal(t, 2, meshes[0].Geometry.TriangleCount())
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, meshes[0].Material.Color)
	assertDoubleSided(t, res.Object)

	require.Len(t, res.Clips, 1)
	clip := res.Clips[0]
	assert.Equal(t, "Take 001", clip.Name)
	assert.InDelta(t, 2, clip.Duration, 1e-5)
	require.Len(t, clip.Tracks, 1)
	tr := clip.Tracks[0]
	assert.Equal(t, animation.PathTranslation, tr.Path)
	assert.Equal(t, "Quad", tr.Node)
	assert.True(t, tr.SampleVec3(0.5).ApproxEqualThreshold(mgl32.Vec3{3, 2, 3}, 1e-4), "%v", tr.SampleVec3(0.5))
}

func TestDecode_FBXSameNamedModels(t *testing.T) {
	res, err := Decode("arms.fbx", decodetest.FBXTwinArms())
	require.NoError(t, err)
	require.Len(t, res.Clips, 1)

	still, moving := res.Object.Find("Arm"), res.Object.Find("Arm_1")
	require.NotNil(t, still)
	require.NotNil(t, moving)
	require.Len(t, res.Clips[0].Tracks, 1)
	assert.Equal(t, "Arm_1", res.Clips[0].Tracks[0].Node)

	mixer := animation.NewMixer(res.Object, res.Clips)
	mixer.Update(0.5)
	assert.InDelta(t, 0, still.Position.X(), 1e-4)
	assert.InDelta(t, 15, moving.Position.X(), 1e-4)

	names := map[string]bool{}
	res.Object.Traverse(func(n *scene.Node) {
		if n.Name == "" {
			return
		}
		assert.False(t, names[n.Name], "duplicate node name %q", n.Name)
		names[n.Name] = true
	})
}

func TestDecode_RSM(t *testing.T) {
	res, err := Decode("tri.rsm", decodetest.RSMTriangle())
	require.NoError(t, err)
	assert.Equal(t, FormatRSM, res.Format)
	meshes := res.Object.Meshes()
	require.Len(t, meshes, 1)
	assert.Equal(t, 1, meshes[0].Geometry.TriangleCount())
	assert.Empty(t, res.Clips)
	assertDoubleSided(t, res.Object)
}

func TestDecode_FBXASCII(t *testing.T) {
	_, err := Decode("text.fbx", []byte("; FBX 7.4.0 project file\nFBXHeaderExtension:  {\n}\n"))
	assert.ErrorIs(t, err, ErrDecodeFailure)
	assert.ErrorIs(t, err, formats.ErrFBXASCII)
}

func TestDecode_USDZ(t *testing.T) {
	res, err := Decode("toy.usdz", decodetest.USDZ())
	require.NoError(t, err)

	meshes := res.Object.Meshes()
	require.Len(t, meshes, 1)
	assert.Equal(t, 2, meshes[0].Geometry.TriangleCount())
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, meshes[0].Material.Color)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, res.Object.Find("Root").Position)
	assertDoubleSided(t, res.Object)
}

func TestDecode_GLTF(t *testing.T) {
	tests := []struct {
		file   string
		data   []byte
		format Format
	}{
		{"tri.gltf", decodetest.GLTF(), FormatGLTF},
		{"tri.glb", decodetest.GLB(), FormatGLB},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			res, err := Decode(tt.file, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.format, res.Format)

			meshes := res.Object.Meshes()
			require.Len(t, meshes, 1)
			mat := meshes[0].Material
			assert.Equal(t, mgl32.Vec3{1, 0, 0}, mat.Color)
			assert.InDelta(t, 0.25, mat.Metalness, 1e-6)
			assert.Equal(t, scene.DoubleSide, mat.Side)

			require.Len(t, res.Clips, 1)
			assert.Equal(t, "slide", res.Clips[0].Name)
			assert.Equal(t, float32(1), res.Clips[0].Duration)

			mixer := animation.NewMixer(res.Object, res.Clips)
			mixer.Update(0.5)
			assert.True(t, res.Object.Find("Tri").Position.ApproxEqual(mgl32.Vec3{2, 0, 0}))
		})
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		file   string
		data   []byte
		format Format
	}{
		{"bad.fbx", []byte("definitely not fbx data, not at all"), FormatFBX},
		{"bad.stl", []byte("solid x\nfacet normal 0 0 1\n  nonsense\n"), FormatSTL},
		{"bad.ply", []byte("not a ply"), FormatPLY},
		{"bad.3ds", []byte{0x4D, 0x4D, 0x02, 0, 0, 0}, Format3DS},
		{"bad.glb", []byte("glTF\x02\x00\x00\x00garbage"), FormatGLB},
		{"bad.usdz", []byte("PK not really"), FormatUSDZ},
		{"bad.rsm", []byte("GRSM"), FormatRSM},
		{"bad.obj", []byte("f 1 2 3\n"), FormatOBJ},
		{"empty.obj", []byte("v 0 0 0\n"), FormatOBJ},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			res, err := Decode(tt.file, tt.data)
			assert.Nil(t, res)
			require.ErrorIs(t, err, ErrDecodeFailure)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.file, de.FileName)
			assert.Equal(t, tt.format, de.Format)
			assert.Contains(t, err.Error(), tt.file)
		})
	}
}

func TestDecode_EmptyScene(t *testing.T) {
	_, err := Decode("empty.obj", []byte("v 0 0 0\n"))
	assert.ErrorIs(t, err, ErrEmptyScene)
}

func TestDecode_RecoversPanics(t *testing.T) {
	orig := table
	t.Cleanup(func() { table = orig })
	table = append([]Entry{{
		Format:     FormatOBJ,
		Extensions: []string{".boom"},
		decode: func([]byte) (*scene.Node, []*animation.Clip, error) {
			var n *scene.Node
			return n.Children()[3], nil, nil
		},
	}}, orig...)

	res, err := Decode("x.boom", nil)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrDecodeFailure)
	assert.Contains(t, err.Error(), "panic")
}

func TestPostProcess_KeepsBakedMaterials(t *testing.T) {
	baked := scene.DefaultMaterial()
	baked.Color = mgl32.Vec3{0, 1, 0}
	baked.Side = scene.FrontSide

	root := scene.NewGroup("r")
	root.Add(scene.NewMesh("a", &scene.Geometry{Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}, baked))
	root.Add(scene.NewMesh("b", &scene.Geometry{Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}, nil))

	entry, err := Lookup("x.glb")
	require.NoError(t, err)
	postProcess(root, entry)

	a, b := root.Find("a"), root.Find("b")
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, a.Material.Color)
	assert.Equal(t, scene.DoubleSide, a.Material.Side)
	assert.Equal(t, scene.DefaultMaterial().Color, b.Material.Color)
	assert.Len(t, b.Geometry.Normals, 3)
}
