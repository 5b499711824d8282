package formats

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// FBX format errors.
var (
	ErrInvalidFBXMagic = errors.New("invalid FBX magic: expected binary FBX header")
	ErrFBXASCII        = errors.New("ASCII FBX is not supported")
	ErrInvalidFBXNode  = errors.New("invalid FBX node record")
	ErrInvalidFBXProp  = errors.New("invalid FBX property")
)

const (
	fbxMagic      = "Kaydara FBX Binary  \x00"
	fbxHeaderSize = 27
	fbxMaxDepth   = 64
	fbxMaxArray   = 1 << 28
)

// FBXNode is one record of the FBX node tree.
// Properties hold int16, bool, int32, int64, float32, float64, string, []byte
// or slices of bool, int32, int64, float32 and float64.
type FBXNode struct {
	Name       string
	Properties []any
	Children   []*FBXNode
}

// FBX is a parsed binary FBX document.
type FBX struct {
	Version uint32
	Nodes   []*FBXNode
}

// Node returns the first top-level node with the given name, or nil.
func (f *FBX) Node(name string) *FBXNode {
	for _, n := range f.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Child returns the first child with the given name, or nil.
func (n *FBXNode) Child(name string) *FBXNode {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every child with the given name.
func (n *FBXNode) ChildrenNamed(name string) []*FBXNode {
	if n == nil {
		return nil
	}
	var out []*FBXNode
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Int64 returns property i as an integer, converting from any numeric type.
func (n *FBXNode) Int64(i int) (int64, bool) {
	if n == nil || i >= len(n.Properties) {
		return 0, false
	}
	switch v := n.Properties[i].(type) {
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float32:
		return int64(v), true
	case float64:
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Float64 returns property i as a float, converting from any numeric type.
func (n *FBXNode) Float64(i int) (float64, bool) {
	if n == nil || i >= len(n.Properties) {
		return 0, false
	}
	switch v := n.Properties[i].(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	iv, ok := n.Int64(i)
	return float64(iv), ok
}

// Str returns property i as a string.
func (n *FBXNode) Str(i int) (string, bool) {
	if n == nil || i >= len(n.Properties) {
		return "", false
	}
	s, ok := n.Properties[i].(string)
	return s, ok
}

// Float64s returns property i as a float slice, converting from any numeric array.
func (n *FBXNode) Float64s(i int) []float64 {
	if n == nil || i >= len(n.Properties) {
		return nil
	}
	switch v := n.Properties[i].(type) {
	case []float64:
		return v
	case []float32:
		out := make([]float64, len(v))
		for k, f := range v {
			out[k] = float64(f)
		}
		return out
	case []int32:
		out := make([]float64, len(v))
		for k, f := range v {
			out[k] = float64(f)
		}
		return out
	case []int64:
		out := make([]float64, len(v))
		for k, f := range v {
			out[k] = float64(f)
		}
		return out
	}
	return nil
}

// Int64s returns property i as an integer slice, converting from any integer array.
func (n *FBXNode) Int64s(i int) []int64 {
	if n == nil || i >= len(n.Properties) {
		return nil
	}
	switch v := n.Properties[i].(type) {
	case []int64:
		return v
	case []int32:
		out := make([]int64, len(v))
		for k, x := range v {
			out[k] = int64(x)
		}
		return out
	}
	return nil
}

// IsFBXASCII reports whether data looks like an ASCII FBX document.
func IsFBXASCII(data []byte) bool {
	head := data[:min(len(data), 1024)]
	return bytes.Contains(head, []byte("FBXHeaderExtension")) || bytes.HasPrefix(bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf"), []byte("; FBX"))
}

// ParseFBX parses a binary FBX document.
func ParseFBX(data []byte) (*FBX, error) {
	if len(data) < fbxHeaderSize || string(data[:len(fbxMagic)]) != fbxMagic {
		if IsFBXASCII(data) {
			return nil, ErrFBXASCII
		}
		return nil, ErrInvalidFBXMagic
	}

	r := newBinReader(data, binary.LittleEndian)
	r.skip(int64(len(fbxMagic)) + 2) // 0x1A 0x00
	doc := &FBX{Version: r.u32()}
	wide := doc.Version >= 7500

	for r.err == nil && r.remaining() > 0 {
		node, err := readFBXNode(r, wide, 0)
		if err != nil {
			return nil, err
		}
		if node == nil {
			break // Null record ends the top level; the footer follows.
		}
		doc.Nodes = append(doc.Nodes, node)
	}
	if r.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFBXNode, r.err)
	}
	return doc, nil
}

// readFBXNode reads one node record. A null record yields (nil, nil).
func readFBXNode(r *binReader, wide bool, depth int) (*FBXNode, error) {
	if depth > fbxMaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrInvalidFBXNode, fbxMaxDepth)
	}
	start := r.pos()
	var endOffset, numProps, propLen uint64
	if wide {
		endOffset, numProps, propLen = r.u64(), r.u64(), r.u64()
	} else {
		endOffset, numProps, propLen = uint64(r.u32()), uint64(r.u32()), uint64(r.u32())
	}
	nameLen := int(r.u8())
	if r.err != nil {
		return nil, r.err
	}
	if endOffset == 0 {
		return nil, nil
	}
	if endOffset <= uint64(start) || endOffset > uint64(r.r.Size()) {
		return nil, fmt.Errorf("%w: end offset %d at %d", ErrInvalidFBXNode, endOffset, start)
	}

	node := &FBXNode{Name: string(r.bytes(nameLen))}
	propsStart := r.pos()
	if numProps > propLen {
		return nil, fmt.Errorf("%w: %s: %d properties in %d bytes", ErrInvalidFBXNode, node.Name, numProps, propLen)
	}
	node.Properties = make([]any, 0, numProps)
	for i := uint64(0); i < numProps; i++ {
		p, err := readFBXProperty(r)
		if err != nil {
			return nil, fmt.Errorf("%s property %d: %w", node.Name, i, err)
		}
		node.Properties = append(node.Properties, p)
	}
	r.seek(propsStart + int64(propLen))

	for r.err == nil && uint64(r.pos()) < endOffset {
		child, err := readFBXNode(r, wide, depth+1)
		if err != nil {
			return nil, err
		}
		if child == nil {
			break
		}
		node.Children = append(node.Children, child)
	}
	r.seek(int64(endOffset))
	if r.err != nil {
		return nil, r.err
	}
	return node, nil
}

func readFBXProperty(r *binReader) (any, error) {
	code := r.u8()
	if r.err != nil {
		return nil, r.err
	}
	var v any
	switch code {
	case 'Y':
		v = int16(r.u16())
	case 'C':
		v = r.u8() != 0
	case 'I':
		v = r.i32()
	case 'F':
		v = r.f32()
	case 'D':
		v = math.Float64frombits(r.u64())
	case 'L':
		v = int64(r.u64())
	case 'S':
		v = string(r.bytes(int(r.u32())))
	case 'R':
		v = r.bytes(int(r.u32()))
	case 'f', 'd', 'l', 'i', 'b':
		return readFBXArray(r, code)
	default:
		return nil, fmt.Errorf("%w: type code %q", ErrInvalidFBXProp, code)
	}
	if r.err != nil {
		return nil, r.err
	}
	return v, nil
}

func readFBXArray(r *binReader, code byte) (any, error) {
	count := r.u32()
	enc := r.u32()
	compLen := r.u32()
	if r.err != nil {
		return nil, r.err
	}
	if count > fbxMaxArray {
		return nil, fmt.Errorf("%w: array of %d elements", ErrInvalidFBXProp, count)
	}
	elemSize := map[byte]int{'f': 4, 'd': 8, 'l': 8, 'i': 4, 'b': 1}[code]
	raw := r.bytes(int(compLen))
	if r.err != nil {
		return nil, r.err
	}

	switch enc {
	case 0:
	case 1:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFBXProp, err)
		}
		buf := make([]byte, int(count)*elemSize)
		if _, err := io.ReadFull(zr, buf); err != nil {
			return nil, fmt.Errorf("%w: inflating array: %v", ErrInvalidFBXProp, err)
		}
		raw = buf
	default:
		return nil, fmt.Errorf("%w: array encoding %d", ErrInvalidFBXProp, enc)
	}
	if len(raw) < int(count)*elemSize {
		return nil, fmt.Errorf("%w: array data too short", ErrInvalidFBXProp)
	}

	le := binary.LittleEndian
	switch code {
	case 'f':
		out := make([]float32, count)
		for i := range out {
			out[i] = math.Float32frombits(le.Uint32(raw[i*4:]))
		}
		return out, nil
	case 'd':
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(le.Uint64(raw[i*8:]))
		}
		return out, nil
	case 'l':
		out := make([]int64, count)
		for i := range out {
			out[i] = int64(le.Uint64(raw[i*8:]))
		}
		return out, nil
	case 'i':
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(le.Uint32(raw[i*4:]))
		}
		return out, nil
	default:
		out := make([]bool, count)
		for i := range out {
			out[i] = raw[i] != 0
		}
		return out, nil
	}
}
