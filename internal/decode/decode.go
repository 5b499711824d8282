// Package decode turns raw model bytes into a scene graph plus animation clips.
// The format is chosen from the file extension; parsing is delegated to pkg/formats
// (or qmuntal/gltf) and every failure surfaces as a *DecodeError.
package decode

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/animation"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/pkg/encoding"
)

// Decode errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrDecodeFailure     = errors.New("failed to decode model")
	ErrEmptyScene        = errors.New("decoded scene contains no geometry")
)

// Format identifies a supported model format.
type Format int

const (
	FormatUnknown Format = iota
	FormatOBJ
	FormatFBX
	FormatSTL
	FormatGLTF
	FormatGLB
	FormatUSDZ
	FormatPLY
	Format3DS
	FormatRSM
)

// String returns the short format name.
func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "OBJ"
	case FormatFBX:
		return "FBX"
	case FormatSTL:
		return "STL"
	case FormatGLTF:
		return "glTF"
	case FormatGLB:
		return "GLB"
	case FormatUSDZ:
		return "USDZ"
	case FormatPLY:
		return "PLY"
	case Format3DS:
		return "3DS"
	case FormatRSM:
		return "RSM"
	default:
		return "unknown"
	}
}

// ReadMode tells the caller how the payload is interpreted.
type ReadMode int

const (
	ReadBinary ReadMode = iota
	ReadText
)

// decodeFunc builds a scene from a payload. Text formats receive UTF-8.
type decodeFunc func(data []byte) (*scene.Node, []*animation.Clip, error)

// Entry describes one supported format.
type Entry struct {
	Format     Format
	Extensions []string
	Mode       ReadMode
	// BakedMaterials is true when the file carries its own materials.
	BakedMaterials bool
	// VertexColors is true when the format may carry per-vertex colors that
	// should drive the material.
	VertexColors bool
	// Recenter centers the geometry on its own box and recomputes normals.
	Recenter bool

	decode decodeFunc
}

var table = []Entry{
	{Format: FormatOBJ, Extensions: []string{".obj"}, Mode: ReadText, decode: decodeOBJ},
	{Format: FormatFBX, Extensions: []string{".fbx"}, BakedMaterials: true, decode: decodeFBX},
	{Format: FormatSTL, Extensions: []string{".stl"}, Recenter: true, decode: decodeSTL},
	{Format: FormatGLTF, Extensions: []string{".gltf"}, BakedMaterials: true, VertexColors: true, decode: decodeGLTF},
	{Format: FormatGLB, Extensions: []string{".glb"}, BakedMaterials: true, VertexColors: true, decode: decodeGLTF},
	{Format: FormatUSDZ, Extensions: []string{".usdz"}, BakedMaterials: true, VertexColors: true, decode: decodeUSDZ},
	{Format: FormatPLY, Extensions: []string{".ply"}, VertexColors: true, Recenter: true, decode: decodePLY},
	{Format: Format3DS, Extensions: []string{".3ds"}, BakedMaterials: true, decode: decode3DS},
	{Format: FormatRSM, Extensions: []string{".rsm"}, decode: decodeRSM},
}

// Lookup returns the table entry for a file name's extension (case-insensitive).
func Lookup(name string) (Entry, error) {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range table {
		if slices.Contains(e.Extensions, ext) {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Extensions returns every supported extension, in table order.
func Extensions() []string {
	var out []string
	for _, e := range table {
		out = append(out, e.Extensions...)
	}
	return out
}

// DecodeError reports a failed decode of a supported format.
type DecodeError struct {
	FileName string
	Format   Format
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (%s): %v", e.FileName, e.Format, e.Err)
}

// Unwrap returns the underlying parser error.
func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes every DecodeError match ErrDecodeFailure.
func (e *DecodeError) Is(target error) bool { return target == ErrDecodeFailure }

// Result is a decoded model ready for normalization.
type Result struct {
	Object *scene.Node
	Clips  []*animation.Clip
	Format Format
}

// Decode parses data according to the extension of name. Unknown extensions fail
// with ErrUnsupportedFormat before any parsing; everything else that goes wrong,
// including parser panics, is returned as a *DecodeError.
func Decode(name string, data []byte) (res *Result, err error) {
	entry, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	log := logger.Named("decode").With(zap.String("file", name), zap.Stringer("format", entry.Format))

	defer func() {
		if r := recover(); r != nil {
			log.Debug("parser panic", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			res = nil
			err = &DecodeError{FileName: name, Format: entry.Format, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	payload := data
	if entry.Mode == ReadText {
		text, terr := encoding.DecodeText(data)
		if terr != nil {
			return nil, &DecodeError{FileName: name, Format: entry.Format, Err: terr}
		}
		payload = []byte(text)
	}

	obj, clips, err := entry.decode(payload)
	if err == nil && (obj == nil || len(obj.Meshes()) == 0) {
		err = ErrEmptyScene
	}
	if err != nil {
		log.Debug("decode failed", zap.Error(err))
		return nil, &DecodeError{FileName: name, Format: entry.Format, Err: err}
	}

	if obj.Name == "" {
		obj.Name = name
	}
	postProcess(obj, entry)

	log.Debug("decoded", zap.Int("meshes", len(obj.Meshes())), zap.Int("clips", len(clips)))
	return &Result{Object: obj, Clips: clips, Format: entry.Format}, nil
}

// isAncestor reports whether a is n or one of n's ancestors.
func isAncestor(a, n *scene.Node) bool {
	for p := n; p != nil; p = p.Parent() {
		if p == a {
			return true
		}
	}
	return false
}

func objectName(prefix string, i int) string {
	return fmt.Sprintf("%s_%d", prefix, i)
}

// postProcess forces double-sided materials, fills in defaults and recenters scans.
func postProcess(obj *scene.Node, entry Entry) {
	for _, n := range obj.Meshes() {
		geo := n.Geometry
		if entry.Recenter {
			geo.Center()
			if n.Kind == scene.KindMesh {
				geo.ComputeVertexNormals()
			}
		} else if len(geo.Normals) != len(geo.Positions) && n.Kind == scene.KindMesh {
			geo.ComputeVertexNormals()
		}

		switch {
		case entry.Recenter:
			if n.Material == nil {
				n.Material = scene.DefaultScanMaterial()
			}
		case n.Material == nil || !entry.BakedMaterials:
			n.Material = scene.DefaultMaterial()
		}
		if !entry.BakedMaterials {
			n.Material.VertexColors = entry.VertexColors && geo.HasColors()
		}
		n.Material.Side = scene.DoubleSide
	}
}
