package decode

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/pkg/formats"
)

// fbxTicksPerSecond is the KTime resolution.
const fbxTicksPerSecond = 46186158000

var errFBXNoObjects = errors.New("fbx has no Objects section")

type fbxObject struct {
	id      int64
	class   string // Model, Geometry, Material, AnimationStack, ...
	name    string
	subtype string // Mesh, Null, LimbNode, ...
	node    *formats.FBXNode
}

type fbxLink struct {
	child, parent int64
	prop          string // Set for object-property (OP) connections
}

// fbxScene indexes the object table and connection graph of a document.
type fbxScene struct {
	objects  map[int64]*fbxObject
	order    []int64 // Object ids in file order
	children map[int64][]fbxLink
	parents  map[int64][]fbxLink

	models map[int64]*scene.Node
	preRot map[int64]mgl32.Quat
	names  scene.Names // Models first, so tracks keep their model's own name
}

func decodeFBX(data []byte) (*scene.Node, []*animation.Clip, error) {
	doc, err := formats.ParseFBX(data)
	if err != nil {
		return nil, nil, err
	}
	objects := doc.Node("Objects")
	if objects == nil {
		return nil, nil, errFBXNoObjects
	}

	s := &fbxScene{
		objects:  make(map[int64]*fbxObject),
		children: make(map[int64][]fbxLink),
		parents:  make(map[int64][]fbxLink),
		models:   make(map[int64]*scene.Node),
		preRot:   make(map[int64]mgl32.Quat),
		names:    scene.Names{},
	}
	for _, n := range objects.Children {
		id, ok := n.Int64(0)
		if !ok {
			continue
		}
		name, _ := n.Str(1)
		sub, _ := n.Str(2)
		s.objects[id] = &fbxObject{id: id, class: n.Name, name: fbxName(name), subtype: sub, node: n}
		s.order = append(s.order, id)
	}
	for _, c := range doc.Node("Connections").ChildrenNamed("C") {
		child, ok1 := c.Int64(1)
		parent, ok2 := c.Int64(2)
		if !ok1 || !ok2 {
			continue
		}
		prop, _ := c.Str(3)
		l := fbxLink{child: child, parent: parent, prop: prop}
		s.children[parent] = append(s.children[parent], l)
		s.parents[child] = append(s.parents[child], l)
	}

	root := scene.NewGroup("")
	s.buildModels(root)
	if err := s.buildMeshes(root); err != nil {
		return nil, nil, err
	}
	clips, err := s.buildClips()
	if err != nil {
		return nil, nil, err
	}
	return root, clips, nil
}

// fbxName strips the class from "Name\x00\x01Class" and "Class::Name" forms.
func fbxName(raw string) string {
	if i := strings.Index(raw, "\x00\x01"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.Index(raw, "::"); i >= 0 {
		raw = raw[i+2:]
	}
	return raw
}

func (s *fbxScene) byClass(class string) []*fbxObject {
	var out []*fbxObject
	for _, id := range s.order {
		if o := s.objects[id]; o.class == class {
			out = append(out, o)
		}
	}
	return out
}

func (s *fbxScene) buildModels(root *scene.Node) {
	models := s.byClass("Model")
	for i, o := range models {
		name := o.name
		if name == "" {
			name = objectName("model", i)
		}
		g := scene.NewGroup(s.names.Unique(name))
		props := fbxProps(o.node)
		if v, ok := props["Lcl Translation"]; ok {
			g.Position = v
		}
		pre := mgl32.QuatIdent()
		if v, ok := props["PreRotation"]; ok {
			pre = fbxEuler(v)
		}
		s.preRot[o.id] = pre
		rot := pre
		if v, ok := props["Lcl Rotation"]; ok {
			rot = pre.Mul(fbxEuler(v))
		}
		g.SetQuaternion(rot)
		if v, ok := props["Lcl Scaling"]; ok {
			g.Scale = v
		}
		s.models[o.id] = g
	}

	for _, o := range models {
		g := s.models[o.id]
		parent := root
		for _, l := range s.parents[o.id] {
			if p, ok := s.models[l.parent]; ok && l.parent != o.id && !isAncestor(g, p) {
				parent = p
				break
			}
		}
		parent.Add(g)
	}
}

func (s *fbxScene) buildMeshes(root *scene.Node) error {
	for _, o := range s.byClass("Geometry") {
		if o.subtype != "" && o.subtype != "Mesh" {
			continue
		}
		geo, err := fbxGeometry(o.node)
		if err != nil {
			return fmt.Errorf("geometry %q: %w", o.name, err)
		}
		if geo == nil {
			continue
		}

		attached := false
		for _, l := range s.parents[o.id] {
			model, ok := s.models[l.parent]
			if !ok {
				continue
			}
			model.Add(scene.NewMesh(s.names.Unique(o.name), geo, s.material(l.parent)))
			attached = true
		}
		if !attached {
			root.Add(scene.NewMesh(s.names.Unique(o.name), geo, nil))
		}
	}
	return nil
}

// material returns the first material connected to a model.
func (s *fbxScene) material(modelID int64) *scene.Material {
	for _, l := range s.children[modelID] {
		o, ok := s.objects[l.child]
		if !ok || o.class != "Material" {
			continue
		}
		mat := scene.DefaultMaterial()
		mat.Name = o.name
		mat.Metalness = 0
		props := fbxProps(o.node)
		if c, ok := props["DiffuseColor"]; ok {
			mat.Color = c
		} else if c, ok := props["Diffuse"]; ok {
			mat.Color = c
		}
		return mat
	}
	return nil
}

// fbxGeometry reads Vertices and PolygonVertexIndex. Polygons end at a negative
// index (bitwise complement) and are fan-triangulated.
func fbxGeometry(n *formats.FBXNode) (*scene.Geometry, error) {
	verts := n.Child("Vertices").Float64s(0)
	polys := n.Child("PolygonVertexIndex").Int64s(0)
	if len(verts) == 0 || len(polys) == 0 {
		return nil, nil
	}

	geo := &scene.Geometry{Positions: make([]mgl32.Vec3, len(verts)/3)}
	for i := range geo.Positions {
		geo.Positions[i] = mgl32.Vec3{float32(verts[i*3]), float32(verts[i*3+1]), float32(verts[i*3+2])}
	}

	var poly []uint32
	for _, idx := range polys {
		last := idx < 0
		if last {
			idx = ^idx
		}
		if idx >= int64(len(geo.Positions)) {
			return nil, fmt.Errorf("polygon vertex %d out of range", idx)
		}
		poly = append(poly, uint32(idx))
		if !last {
			continue
		}
		for i := 1; i+1 < len(poly); i++ {
			geo.Indices = append(geo.Indices, poly[0], poly[i], poly[i+1])
		}
		poly = poly[:0]
	}
	if len(geo.Indices) == 0 {
		return nil, nil
	}
	return geo, nil
}

// fbxProps collects the numeric Properties70 entries of an object. Scalars
// land in the X component.
func fbxProps(n *formats.FBXNode) map[string]mgl32.Vec3 {
	out := make(map[string]mgl32.Vec3)
	for _, p := range n.Child("Properties70").ChildrenNamed("P") {
		name, ok := p.Str(0)
		if !ok {
			continue
		}
		var v mgl32.Vec3
		count := 0
		for i := range 3 {
			f, ok := p.Float64(4 + i)
			if !ok {
				break
			}
			v[i] = float32(f)
			count++
		}
		if count > 0 {
			out[name] = v
		}
	}
	return out
}

// fbxProp returns a scalar Properties70 entry.
func fbxProp(n *formats.FBXNode, name string) (*formats.FBXNode, bool) {
	for _, p := range n.Child("Properties70").ChildrenNamed("P") {
		if s, _ := p.Str(0); s == name {
			return p, true
		}
	}
	return nil, false
}

// fbxEuler converts FBX XYZ Euler degrees (X applied first) to a quaternion.
func fbxEuler(deg mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(mgl32.DegToRad(deg[0]), mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(mgl32.DegToRad(deg[1]), mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(mgl32.DegToRad(deg[2]), mgl32.Vec3{0, 0, 1})
	return qz.Mul(qy).Mul(qx)
}

// fbxCurve is one animated axis.
type fbxCurve struct {
	times  []int64
	values []float64
}

func (c *fbxCurve) sample(t int64) float64 {
	n := len(c.times)
	if t <= c.times[0] {
		return c.values[0]
	}
	if t >= c.times[n-1] {
		return c.values[n-1]
	}
	i := sort.Search(n, func(i int) bool { return c.times[i] > t }) - 1
	span := float64(c.times[i+1] - c.times[i])
	if span <= 0 {
		return c.values[i]
	}
	f := float64(t-c.times[i]) / span
	return c.values[i] + (c.values[i+1]-c.values[i])*f
}

// buildClips turns each AnimationStack into a clip. Curve nodes reach their
// stack through an AnimationLayer and drive a model's Lcl property.
func (s *fbxScene) buildClips() ([]*animation.Clip, error) {
	var clips []*animation.Clip
	for _, stack := range s.byClass("AnimationStack") {
		var tracks []animation.Track
		for _, ll := range s.children[stack.id] {
			layer, ok := s.objects[ll.child]
			if !ok || layer.class != "AnimationLayer" {
				continue
			}
			for _, cl := range s.children[layer.id] {
				cn, ok := s.objects[cl.child]
				if !ok || cn.class != "AnimationCurveNode" {
					continue
				}
				if tr, ok := s.curveNodeTrack(cn); ok {
					tracks = append(tracks, tr)
				}
			}
		}
		if len(tracks) == 0 {
			continue
		}

		var duration float32
		if p, ok := fbxProp(stack.node, "LocalStop"); ok {
			if ticks, ok := p.Int64(4); ok {
				duration = float32(float64(ticks) / fbxTicksPerSecond)
			}
		}
		clip, err := animation.NewClip(stack.name, duration, tracks)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

func (s *fbxScene) curveNodeTrack(cn *fbxObject) (animation.Track, bool) {
	var modelID int64
	var path animation.Path
	found := false
	for _, l := range s.parents[cn.id] {
		if _, ok := s.models[l.parent]; !ok {
			continue
		}
		switch l.prop {
		case "Lcl Translation":
			path = animation.PathTranslation
		case "Lcl Rotation":
			path = animation.PathRotation
		case "Lcl Scaling":
			path = animation.PathScale
		default:
			continue
		}
		modelID, found = l.parent, true
		break
	}
	if !found {
		return animation.Track{}, false
	}

	defaults := fbxProps(cn.node)
	var axes [3]*fbxCurve
	var keyTimes []int64
	for _, l := range s.children[cn.id] {
		o, ok := s.objects[l.child]
		if !ok || o.class != "AnimationCurve" {
			continue
		}
		axis := strings.Index("XYZ", strings.TrimPrefix(l.prop, "d|"))
		if axis < 0 || len(l.prop) != 3 {
			continue
		}
		c := &fbxCurve{
			times:  o.node.Child("KeyTime").Int64s(0),
			values: o.node.Child("KeyValueFloat").Float64s(0),
		}
		if len(c.times) == 0 || len(c.times) != len(c.values) {
			continue
		}
		axes[axis] = c
		keyTimes = append(keyTimes, c.times...)
	}
	if len(keyTimes) == 0 {
		return animation.Track{}, false
	}
	slices.Sort(keyTimes)
	keyTimes = slices.Compact(keyTimes)

	tr := animation.Track{Node: s.models[modelID].Name, Path: path}
	for _, t := range keyTimes {
		var v mgl32.Vec3
		for a := range 3 {
			if axes[a] != nil {
				v[a] = float32(axes[a].sample(t))
			} else {
				v[a] = fbxAxisDefault(defaults, a, path)
			}
		}
		tr.Times = append(tr.Times, float32(float64(t)/fbxTicksPerSecond))
		if path == animation.PathRotation {
			q := s.preRot[modelID].Mul(fbxEuler(v)).Normalize()
			tr.Values = append(tr.Values, q.V[0], q.V[1], q.V[2], q.W)
		} else {
			tr.Values = append(tr.Values, v[0], v[1], v[2])
		}
	}
	return tr, true
}

func fbxAxisDefault(defaults map[string]mgl32.Vec3, axis int, path animation.Path) float32 {
	// Curve node defaults are stored as separate "d|X" scalars.
	if v, ok := defaults[fmt.Sprintf("d|%c", "XYZ"[axis])]; ok {
		return v[0]
	}
	if path == animation.PathScale {
		return 1
	}
	return 0
}
