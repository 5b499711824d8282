package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PLY format errors.
var (
	ErrInvalidPLYHeader = errors.New("invalid PLY header")
	ErrInvalidPLYBody   = errors.New("invalid PLY body")
)

// PLYFormat is the body encoding declared in the header.
type PLYFormat int

const (
	PLYASCII PLYFormat = iota
	PLYBinaryLittleEndian
	PLYBinaryBigEndian
)

// String returns the header keyword.
func (f PLYFormat) String() string {
	switch f {
	case PLYASCII:
		return "ascii"
	case PLYBinaryLittleEndian:
		return "binary_little_endian"
	case PLYBinaryBigEndian:
		return "binary_big_endian"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// PLYProperty is one property declaration. List properties have a non-empty CountType.
type PLYProperty struct {
	Name      string
	Type      string
	CountType string
}

// IsList reports whether the property is a list.
func (p PLYProperty) IsList() bool { return p.CountType != "" }

// PLYElement is one element declaration.
type PLYElement struct {
	Name       string
	Count      int
	Properties []PLYProperty
}

// PLY is a parsed polygon file. Faces are fan-triangulated into Indices.
type PLY struct {
	Format   PLYFormat
	Elements []PLYElement
	Comments []string

	Vertices [][3]float32
	Normals  [][3]float32 // Empty unless nx/ny/nz are declared
	Colors   [][3]float32 // Empty unless red/green/blue are declared; 0-1
	Indices  []uint32
}

// HasFaces reports whether the file declared any faces.
func (p *PLY) HasFaces() bool { return len(p.Indices) > 0 }

// ParsePLY parses a PLY file.
func ParsePLY(data []byte) (*PLY, error) {
	ply, body, err := parsePLYHeader(data)
	if err != nil {
		return nil, err
	}
	if ply.Format == PLYASCII {
		err = ply.readASCII(string(body))
	} else {
		order := binary.ByteOrder(binary.LittleEndian)
		if ply.Format == PLYBinaryBigEndian {
			order = binary.BigEndian
		}
		err = ply.readBinary(newBinReader(body, order))
	}
	if err != nil {
		return nil, err
	}
	for _, idx := range ply.Indices {
		if int(idx) >= len(ply.Vertices) {
			return nil, fmt.Errorf("%w: face index %d out of range", ErrInvalidPLYBody, idx)
		}
	}
	return ply, nil
}

func parsePLYHeader(data []byte) (*PLY, []byte, error) {
	if !bytes.HasPrefix(data, []byte("ply")) {
		return nil, nil, fmt.Errorf("%w: missing magic", ErrInvalidPLYHeader)
	}
	end := bytes.Index(data, []byte("end_header"))
	if end < 0 {
		return nil, nil, fmt.Errorf("%w: missing end_header", ErrInvalidPLYHeader)
	}
	bodyStart := end + len("end_header")
	if bodyStart < len(data) && data[bodyStart] == '\r' {
		bodyStart++
	}
	if bodyStart < len(data) && data[bodyStart] == '\n' {
		bodyStart++
	}

	ply := &PLY{}
	sawFormat := false
	for _, line := range strings.Split(string(data[:end]), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "ply":
		case "format":
			if len(fields) < 2 {
				return nil, nil, fmt.Errorf("%w: malformed format line", ErrInvalidPLYHeader)
			}
			switch fields[1] {
			case "ascii":
				ply.Format = PLYASCII
			case "binary_little_endian":
				ply.Format = PLYBinaryLittleEndian
			case "binary_big_endian":
				ply.Format = PLYBinaryBigEndian
			default:
				return nil, nil, fmt.Errorf("%w: unknown format %q", ErrInvalidPLYHeader, fields[1])
			}
			sawFormat = true
		case "comment", "obj_info":
			ply.Comments = append(ply.Comments, strings.TrimSpace(strings.TrimPrefix(line, fields[0])))
		case "element":
			if len(fields) < 3 {
				return nil, nil, fmt.Errorf("%w: malformed element line", ErrInvalidPLYHeader)
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, nil, fmt.Errorf("%w: bad element count %q", ErrInvalidPLYHeader, fields[2])
			}
			ply.Elements = append(ply.Elements, PLYElement{Name: fields[1], Count: n})
		case "property":
			if len(ply.Elements) == 0 {
				return nil, nil, fmt.Errorf("%w: property before element", ErrInvalidPLYHeader)
			}
			el := &ply.Elements[len(ply.Elements)-1]
			var prop PLYProperty
			if len(fields) >= 5 && fields[1] == "list" {
				prop = PLYProperty{CountType: fields[2], Type: fields[3], Name: fields[4]}
			} else if len(fields) >= 3 {
				prop = PLYProperty{Type: fields[1], Name: fields[2]}
			} else {
				return nil, nil, fmt.Errorf("%w: malformed property line", ErrInvalidPLYHeader)
			}
			if plyTypeSize(prop.Type) == 0 || (prop.IsList() && plyTypeSize(prop.CountType) == 0) {
				return nil, nil, fmt.Errorf("%w: unknown property type in %q", ErrInvalidPLYHeader, strings.TrimSpace(line))
			}
			el.Properties = append(el.Properties, prop)
		default:
			return nil, nil, fmt.Errorf("%w: unknown keyword %q", ErrInvalidPLYHeader, fields[0])
		}
	}
	if !sawFormat {
		return nil, nil, fmt.Errorf("%w: missing format", ErrInvalidPLYHeader)
	}
	return ply, data[bodyStart:], nil
}

func plyTypeSize(t string) int {
	switch t {
	case "char", "uchar", "int8", "uint8":
		return 1
	case "short", "ushort", "int16", "uint16":
		return 2
	case "int", "uint", "int32", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	default:
		return 0
	}
}

func plyIsInteger(t string) bool {
	switch t {
	case "float", "float32", "double", "float64":
		return false
	}
	return true
}

// plyRecord collects the properties of one element instance we care about.
type plyRecord struct {
	values map[string]float64
	list   []float64
}

// store routes a decoded element instance into the PLY buffers.
func (p *PLY) store(el *PLYElement, rec *plyRecord) {
	switch el.Name {
	case "vertex":
		v := rec.values
		p.Vertices = append(p.Vertices, [3]float32{float32(v["x"]), float32(v["y"]), float32(v["z"])})
		if _, ok := v["nx"]; ok {
			p.Normals = append(p.Normals, [3]float32{float32(v["nx"]), float32(v["ny"]), float32(v["nz"])})
		}
		if _, ok := v["red"]; ok {
			p.Colors = append(p.Colors, [3]float32{float32(v["red"]), float32(v["green"]), float32(v["blue"])})
		}
	case "face":
		idx := rec.list
		for i := 1; i+1 < len(idx); i++ {
			p.Indices = append(p.Indices, uint32(idx[0]), uint32(idx[i]), uint32(idx[i+1]))
		}
	}
}

// plyValue scales integer color channels to 0-1.
func plyValue(prop PLYProperty, raw float64) float64 {
	switch prop.Name {
	case "red", "green", "blue", "alpha", "diffuse_red", "diffuse_green", "diffuse_blue":
		if plyIsInteger(prop.Type) {
			return raw / 255
		}
	}
	return raw
}

func plyPropertyName(name string) string {
	switch name {
	case "diffuse_red":
		return "red"
	case "diffuse_green":
		return "green"
	case "diffuse_blue":
		return "blue"
	}
	return name
}

func isFaceList(name string) bool {
	return name == "vertex_indices" || name == "vertex_index"
}

func (p *PLY) readASCII(body string) error {
	tokens := strings.Fields(body)
	pos := 0
	next := func() (float64, error) {
		if pos >= len(tokens) {
			return 0, fmt.Errorf("%w: %w", ErrInvalidPLYBody, ErrTruncated)
		}
		f, err := strconv.ParseFloat(tokens[pos], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad number %q", ErrInvalidPLYBody, tokens[pos])
		}
		pos++
		return f, nil
	}

	for ei := range p.Elements {
		el := &p.Elements[ei]
		for i := 0; i < el.Count; i++ {
			rec := plyRecord{values: map[string]float64{}}
			for _, prop := range el.Properties {
				if prop.IsList() {
					n, err := next()
					if err != nil {
						return err
					}
					if n < 0 || n > float64(len(tokens)-pos) {
						return fmt.Errorf("%w: bad list length %v", ErrInvalidPLYBody, n)
					}
					list := make([]float64, int(n))
					for k := range list {
						if list[k], err = next(); err != nil {
							return err
						}
					}
					if isFaceList(prop.Name) {
						rec.list = list
					}
					continue
				}
				v, err := next()
				if err != nil {
					return err
				}
				rec.values[plyPropertyName(prop.Name)] = plyValue(prop, v)
			}
			p.store(el, &rec)
		}
	}
	return nil
}

func (p *PLY) readBinary(r *binReader) error {
	for ei := range p.Elements {
		el := &p.Elements[ei]
		minSize := 0
		for _, prop := range el.Properties {
			if prop.IsList() {
				minSize += plyTypeSize(prop.CountType)
			} else {
				minSize += plyTypeSize(prop.Type)
			}
		}
		if el.Count*minSize > r.remaining() {
			return fmt.Errorf("%w: element %q: %w", ErrInvalidPLYBody, el.Name, ErrTruncated)
		}

		for i := 0; i < el.Count; i++ {
			rec := plyRecord{values: map[string]float64{}}
			for _, prop := range el.Properties {
				if prop.IsList() {
					n := readPLYScalar(r, prop.CountType)
					if n < 0 || int(n)*plyTypeSize(prop.Type) > r.remaining() {
						return fmt.Errorf("%w: bad list length %v", ErrInvalidPLYBody, n)
					}
					list := make([]float64, int(n))
					for k := range list {
						list[k] = readPLYScalar(r, prop.Type)
					}
					if isFaceList(prop.Name) {
						rec.list = list
					}
					continue
				}
				rec.values[plyPropertyName(prop.Name)] = plyValue(prop, readPLYScalar(r, prop.Type))
			}
			if r.err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidPLYBody, r.err)
			}
			p.store(el, &rec)
		}
	}
	return nil
}

func readPLYScalar(r *binReader, t string) float64 {
	switch t {
	case "char", "int8":
		return float64(int8(r.u8()))
	case "uchar", "uint8":
		return float64(r.u8())
	case "short", "int16":
		return float64(int16(r.u16()))
	case "ushort", "uint16":
		return float64(r.u16())
	case "int", "int32":
		return float64(r.i32())
	case "uint", "uint32":
		return float64(r.u32())
	case "float", "float32":
		return float64(r.f32())
	case "double", "float64":
		return math.Float64frombits(r.u64())
	}
	return 0
}
