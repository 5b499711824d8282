package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSTL is returned for malformed STL files.
var ErrInvalidSTL = errors.New("invalid STL data")

// STLTriangle is one facet.
type STLTriangle struct {
	Normal   [3]float32
	Vertices [3][3]float32
}

// STL is a parsed stereolithography file.
type STL struct {
	Name      string
	Binary    bool
	Triangles []STLTriangle
}

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50
)

// ParseSTL parses binary or ASCII STL, detecting the variant by content.
func ParseSTL(data []byte) (*STL, error) {
	if isBinarySTL(data) {
		return parseBinarySTL(data)
	}
	return parseASCIISTL(data)
}

// isBinarySTL reports whether data is laid out as binary STL. Binary files may
// also begin with "solid", so the declared triangle count is checked first.
func isBinarySTL(data []byte) bool {
	if len(data) >= stlHeaderSize+4 {
		n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if uint64(stlHeaderSize+4)+uint64(n)*stlTriangleSize == uint64(len(data)) {
			return true
		}
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return !bytes.HasPrefix(trimmed, []byte("solid"))
}

func parseBinarySTL(data []byte) (*STL, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSTL, ErrTruncated)
	}
	r := newBinReader(data, binary.LittleEndian)
	name := strings.TrimRight(string(r.bytes(stlHeaderSize)), "\x00 ")
	count := r.u32()
	if uint64(count)*stlTriangleSize > uint64(r.remaining()) {
		return nil, fmt.Errorf("%w: %d triangles declared: %w", ErrInvalidSTL, count, ErrTruncated)
	}

	out := &STL{Name: name, Binary: true, Triangles: make([]STLTriangle, count)}
	for i := range out.Triangles {
		tri := &out.Triangles[i]
		tri.Normal = r.vec3()
		for j := 0; j < 3; j++ {
			tri.Vertices[j] = r.vec3()
		}
		r.u16() // Attribute byte count
	}
	if r.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSTL, r.err)
	}
	return out, nil
}

func parseASCIISTL(data []byte) (*STL, error) {
	out := &STL{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var tri STLTriangle
	corner := -1 // -1 outside a facet
	lineNo := 0
	sawSolid := false
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "solid":
			sawSolid = true
			if out.Name == "" && len(fields) > 1 {
				out.Name = strings.Join(fields[1:], " ")
			}
		case "facet":
			if len(fields) < 5 || fields[1] != "normal" {
				return nil, fmt.Errorf("%w: line %d: malformed facet", ErrInvalidSTL, lineNo)
			}
			n, err := parseFloats3(fields[2:5])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSTL, lineNo, err)
			}
			tri = STLTriangle{Normal: n}
			corner = 0
		case "vertex":
			if corner < 0 || corner > 2 || len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: unexpected vertex", ErrInvalidSTL, lineNo)
			}
			v, err := parseFloats3(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSTL, lineNo, err)
			}
			tri.Vertices[corner] = v
			corner++
		case "endfacet":
			if corner != 3 {
				return nil, fmt.Errorf("%w: line %d: facet has %d vertices", ErrInvalidSTL, lineNo, corner)
			}
			out.Triangles = append(out.Triangles, tri)
			corner = -1
		case "outer", "endloop", "endsolid":
		default:
			return nil, fmt.Errorf("%w: line %d: unknown keyword %q", ErrInvalidSTL, lineNo, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSTL, err)
	}
	if !sawSolid {
		return nil, fmt.Errorf("%w: missing solid", ErrInvalidSTL)
	}
	if corner >= 0 {
		return nil, fmt.Errorf("%w: unterminated facet", ErrInvalidSTL)
	}
	return out, nil
}
