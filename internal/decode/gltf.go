package decode

import (
	"bytes"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/scene"
)

// decodeGLTF handles both .gltf (JSON with embedded buffers) and .glb.
func decodeGLTF(data []byte) (*scene.Node, []*animation.Clip, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, nil, err
	}

	b := &gltfBuilder{doc: doc, nodes: make([]*scene.Node, len(doc.Nodes)), names: scene.Names{}}
	root := scene.NewGroup("")
	for _, idx := range b.sceneRoots() {
		if err := b.addNode(root, idx, 0); err != nil {
			return nil, nil, err
		}
	}

	clips, err := b.clips()
	if err != nil {
		return nil, nil, err
	}
	return root, clips, nil
}

type gltfBuilder struct {
	doc   *gltf.Document
	nodes []*scene.Node // Scene node per glTF node index, once built
	names scene.Names
}

// sceneRoots returns the root node indices of the default scene, falling back to
// every node that is nobody's child.
func (b *gltfBuilder) sceneRoots() []int {
	doc := b.doc
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			s = *doc.Scene
		}
		return doc.Scenes[s].Nodes
	}
	child := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(child) {
				child[c] = true
			}
		}
	}
	var roots []int
	for i, isChild := range child {
		if !isChild {
			roots = append(roots, i)
		}
	}
	return roots
}

// uniqueName keeps node names distinct so animation tracks bind unambiguously.
func (b *gltfBuilder) uniqueName(name string, idx int) string {
	if name == "" {
		name = objectName("node", idx)
	}
	return b.names.Unique(name)
}

func (b *gltfBuilder) addNode(parent *scene.Node, idx, depth int) error {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return fmt.Errorf("node index %d out of range", idx)
	}
	if b.nodes[idx] != nil || depth > 256 {
		return nil // Shared or cyclic reference
	}
	src := b.doc.Nodes[idx]
	n := scene.NewGroup(b.uniqueName(src.Name, idx))
	b.nodes[idx] = n
	applyGLTFTransform(n, src)

	if src.Mesh != nil {
		if *src.Mesh < 0 || *src.Mesh >= len(b.doc.Meshes) {
			return fmt.Errorf("mesh index %d out of range", *src.Mesh)
		}
		mesh := b.doc.Meshes[*src.Mesh]
		for i, prim := range mesh.Primitives {
			child, err := b.primitive(prim)
			if err != nil {
				return fmt.Errorf("mesh %q primitive %d: %w", mesh.Name, i, err)
			}
			if child != nil {
				child.Name = fmt.Sprintf("%s:%d", n.Name, i)
				n.Add(child)
			}
		}
	}

	for _, c := range src.Children {
		if err := b.addNode(n, c, depth+1); err != nil {
			return err
		}
	}
	parent.Add(n)
	return nil
}

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func applyGLTFTransform(n *scene.Node, src *gltf.Node) {
	if src.Matrix != identityMatrix && src.Matrix != [16]float64{} {
		var m mgl32.Mat4
		for i, v := range src.Matrix {
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

	t := src.Translation
	n.Position = mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])}
	if r := src.Rotation; r != [4]float64{} {
		n.SetQuaternion(mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}})
	}
	if s := src.Scale; s != [3]float64{} {
		n.Scale = mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
	}
}

func (b *gltfBuilder) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(b.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return b.doc.Accessors[idx], nil
}

// primitive converts triangle and point primitives; other modes are skipped.
func (b *gltfBuilder) primitive(prim *gltf.Primitive) (*scene.Node, error) {
	if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != gltf.PrimitivePoints {
		return nil, nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	acr, err := b.accessor(posIdx)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(b.doc, acr, nil)
	if err != nil {
		return nil, err
	}
	geo := &scene.Geometry{Positions: vec3s(positions)}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acr, err := b.accessor(idx); err == nil {
			if normals, err := modeler.ReadNormal(b.doc, acr, nil); err == nil && len(normals) == len(positions) {
				geo.Normals = vec3s(normals)
			}
		}
	}
	if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		acr, err := b.accessor(idx)
		if err != nil {
			return nil, err
		}
		colors, err := b.readColors(acr)
		if err != nil {
			return nil, err
		}
		if len(colors) == len(positions) {
			geo.Colors = colors
		}
	}
	if prim.Indices != nil {
		acr, err := b.accessor(*prim.Indices)
		if err != nil {
			return nil, err
		}
		if geo.Indices, err = modeler.ReadIndices(b.doc, acr, nil); err != nil {
			return nil, err
		}
		for _, i := range geo.Indices {
			if int(i) >= len(positions) {
				return nil, fmt.Errorf("index %d out of range", i)
			}
		}
	}

	mat := b.material(prim.Material)
	if geo.HasColors() {
		if mat == nil {
			mat = scene.DefaultMaterial()
		}
		mat.VertexColors = true
	}

	if prim.Mode == gltf.PrimitivePoints {
		if mat == nil {
			mat = scene.DefaultMaterial()
		}
		return scene.NewPoints("", geo, mat), nil
	}
	if len(geo.Indices) == 0 && len(positions)%3 != 0 {
		return nil, fmt.Errorf("%d vertices do not form triangles", len(positions))
	}
	return scene.NewMesh("", geo, mat), nil
}

// readColors converts any COLOR_0 layout to RGB in 0-1.
func (b *gltfBuilder) readColors(acr *gltf.Accessor) ([]mgl32.Vec3, error) {
	data, err := modeler.ReadAccessor(b.doc, acr, nil)
	if err != nil {
		return nil, err
	}
	var out []mgl32.Vec3
	switch v := data.(type) {
	case [][3]float32:
		for _, c := range v {
			out = append(out, mgl32.Vec3(c))
		}
	case [][4]float32:
		for _, c := range v {
			out = append(out, mgl32.Vec3{c[0], c[1], c[2]})
		}
	case [][3]uint8:
		for _, c := range v {
			out = append(out, mgl32.Vec3{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255})
		}
	case [][4]uint8:
		for _, c := range v {
			out = append(out, mgl32.Vec3{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255})
		}
	case [][3]uint16:
		for _, c := range v {
			out = append(out, mgl32.Vec3{float32(c[0]) / 65535, float32(c[1]) / 65535, float32(c[2]) / 65535})
		}
	case [][4]uint16:
		for _, c := range v {
			out = append(out, mgl32.Vec3{float32(c[0]) / 65535, float32(c[1]) / 65535, float32(c[2]) / 65535})
		}
	default:
		return nil, fmt.Errorf("unsupported color accessor %T", data)
	}
	return out, nil
}

// material maps the metallic-roughness factors; textures are not sampled.
func (b *gltfBuilder) material(idx *int) *scene.Material {
	if idx == nil || *idx < 0 || *idx >= len(b.doc.Materials) {
		return nil
	}
	src := b.doc.Materials[*idx]
	mat := scene.DefaultMaterial()
	mat.Name = src.Name
	mat.Color = mgl32.Vec3{1, 1, 1}
	mat.Metalness, mat.Roughness = 1, 1
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if c := pbr.BaseColorFactor; c != nil {
			mat.Color = mgl32.Vec3{float32(c[0]), float32(c[1]), float32(c[2])}
			mat.Opacity = float32(c[3])
		}
		if m := pbr.MetallicFactor; m != nil {
			mat.Metalness = float32(*m)
		}
		if r := pbr.RoughnessFactor; r != nil {
			mat.Roughness = float32(*r)
		}
	}
	return mat
}

// gltfIndex reads an optional or required glTF index field.
func gltfIndex(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case *int:
		if x != nil {
			return *x, true
		}
	case uint32:
		return int(x), true
	case *uint32:
		if x != nil {
			return int(*x), true
		}
	}
	return 0, false
}

// clips converts glTF animations. Morph-target weights are not supported.
func (b *gltfBuilder) clips() ([]*animation.Clip, error) {
	var clips []*animation.Clip
	for ai, anim := range b.doc.Animations {
		var tracks []animation.Track
		for _, ch := range anim.Channels {
			nodeIdx, ok := gltfIndex(ch.Target.Node)
			if !ok || nodeIdx < 0 || nodeIdx >= len(b.nodes) || b.nodes[nodeIdx] == nil {
				continue
			}
			sIdx, ok := gltfIndex(ch.Sampler)
			if !ok || sIdx < 0 || sIdx >= len(anim.Samplers) {
				continue
			}

			tr := animation.Track{Node: b.nodes[nodeIdx].Name}
			switch ch.Target.Path {
			case gltf.TRSTranslation:
				tr.Path = animation.PathTranslation
			case gltf.TRSRotation:
				tr.Path = animation.PathRotation
			case gltf.TRSScale:
				tr.Path = animation.PathScale
			default:
				continue
			}

			sampler := anim.Samplers[sIdx]
			if sampler.Interpolation == gltf.InterpolationStep {
				tr.Interpolation = animation.InterpolationStep
			}
			if err := b.readSampler(sampler, &tr, sampler.Interpolation == gltf.InterpolationCubicSpline); err != nil {
				return nil, fmt.Errorf("animation %d: %w", ai, err)
			}
			tracks = append(tracks, tr)
		}
		if len(tracks) == 0 {
			continue
		}
		name := anim.Name
		if name == "" {
			name = objectName("animation", ai)
		}
		clip, err := animation.NewClip(name, 0, tracks)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

// readSampler fills times and values. Cubic-spline keys keep only their value
// element and are played back linearly.
func (b *gltfBuilder) readSampler(s *gltf.AnimationSampler, tr *animation.Track, cubic bool) error {
	in, ok1 := gltfIndex(s.Input)
	out, ok2 := gltfIndex(s.Output)
	if !ok1 || !ok2 {
		return fmt.Errorf("sampler without input or output")
	}
	inAcr, err := b.accessor(in)
	if err != nil {
		return err
	}
	outAcr, err := b.accessor(out)
	if err != nil {
		return err
	}

	rawTimes, err := modeler.ReadAccessor(b.doc, inAcr, nil)
	if err != nil {
		return err
	}
	times, ok := rawTimes.([]float32)
	if !ok {
		return fmt.Errorf("sampler input is %T, want float scalars", rawTimes)
	}
	tr.Times = times

	rawValues, err := modeler.ReadAccessor(b.doc, outAcr, nil)
	if err != nil {
		return err
	}
	var flat []float32
	switch v := rawValues.(type) {
	case [][3]float32:
		for _, x := range v {
			flat = append(flat, x[:]...)
		}
	case [][4]float32:
		for _, x := range v {
			flat = append(flat, x[:]...)
		}
	default:
		return fmt.Errorf("sampler output is %T", rawValues)
	}

	if cubic {
		// In-tangent, value, out-tangent per key.
		stride := tr.Path.Stride()
		var values []float32
		for k := 0; (k*3+1)*stride+stride <= len(flat); k++ {
			at := (k*3 + 1) * stride
			values = append(values, flat[at:at+stride]...)
		}
		flat = values
	}
	tr.Values = flat
	return nil
}
