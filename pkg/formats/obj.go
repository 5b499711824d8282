package formats

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidOBJ is returned for malformed Wavefront OBJ statements.
var ErrInvalidOBJ = errors.New("invalid OBJ data")

// OBJCorner references the position, texture coordinate and normal of one face corner.
// Missing references are -1.
type OBJCorner struct {
	V, T, N int
}

// OBJObject is a named run of triangles sharing a material.
type OBJObject struct {
	Name      string
	Material  string
	Triangles [][3]OBJCorner
}

// OBJ is a parsed Wavefront OBJ file. Faces are fan-triangulated.
type OBJ struct {
	Vertices  [][3]float32
	Colors    [][3]float32 // Parallel to Vertices when every "v" carried RGB
	Normals   [][3]float32
	TexCoords [][2]float32
	Objects   []OBJObject
	MtlLibs   []string
}

// TriangleCount returns the number of triangles across all objects.
func (o *OBJ) TriangleCount() int {
	n := 0
	for _, obj := range o.Objects {
		n += len(obj.Triangles)
	}
	return n
}

// ParseOBJ parses OBJ text.
func ParseOBJ(text string) (*OBJ, error) {
	out := &OBJ{}
	var colors [][3]float32
	allColored := true

	current := -1
	objectName := ""
	material := ""
	// startObject begins a new object unless the current one is still empty.
	startObject := func() {
		if current >= 0 && len(out.Objects[current].Triangles) == 0 {
			out.Objects[current].Name = objectName
			out.Objects[current].Material = material
			return
		}
		out.Objects = append(out.Objects, OBJObject{Name: objectName, Material: material})
		current = len(out.Objects) - 1
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		args := fields[1:]

		switch fields[0] {
		case "v":
			if len(args) < 3 {
				return nil, fmt.Errorf("%w: line %d: vertex needs 3 coordinates", ErrInvalidOBJ, lineNo)
			}
			p, err := parseFloats3(args[:3])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, lineNo, err)
			}
			out.Vertices = append(out.Vertices, p)
			if len(args) >= 6 {
				c, err := parseFloats3(args[3:6])
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, lineNo, err)
				}
				colors = append(colors, c)
			} else {
				allColored = false
			}

		case "vn":
			if len(args) < 3 {
				return nil, fmt.Errorf("%w: line %d: normal needs 3 components", ErrInvalidOBJ, lineNo)
			}
			n, err := parseFloats3(args[:3])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, lineNo, err)
			}
			out.Normals = append(out.Normals, n)

		case "vt":
			var uv [2]float32
			for i := 0; i < 2 && i < len(args); i++ {
				f, err := strconv.ParseFloat(args[i], 32)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, lineNo, err)
				}
				uv[i] = float32(f)
			}
			out.TexCoords = append(out.TexCoords, uv)

		case "f":
			if len(args) < 3 {
				return nil, fmt.Errorf("%w: line %d: face needs at least 3 vertices", ErrInvalidOBJ, lineNo)
			}
			corners := make([]OBJCorner, len(args))
			for i, a := range args {
				c, err := out.parseCorner(a)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, lineNo, err)
				}
				corners[i] = c
			}
			if current < 0 {
				startObject()
			}
			obj := &out.Objects[current]
			for i := 1; i+1 < len(corners); i++ {
				obj.Triangles = append(obj.Triangles, [3]OBJCorner{corners[0], corners[i], corners[i+1]})
			}

		case "o", "g":
			objectName = strings.Join(args, " ")
			startObject()

		case "usemtl":
			material = strings.Join(args, " ")
			startObject()

		case "mtllib":
			out.MtlLibs = append(out.MtlLibs, args...)

		default:
			// s, l, p and unknown statements carry nothing we draw.
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOBJ, err)
	}

	if allColored && len(colors) == len(out.Vertices) && len(colors) > 0 {
		out.Colors = colors
	}

	objects := out.Objects[:0]
	for _, obj := range out.Objects {
		if len(obj.Triangles) > 0 {
			objects = append(objects, obj)
		}
	}
	out.Objects = objects
	return out, nil
}

// parseCorner parses "v", "v/t", "v//n" or "v/t/n" with 1-based or negative indices.
func (o *OBJ) parseCorner(s string) (OBJCorner, error) {
	parts := strings.Split(s, "/")
	c := OBJCorner{V: -1, T: -1, N: -1}

	v, err := resolveOBJIndex(parts[0], len(o.Vertices))
	if err != nil {
		return c, err
	}
	c.V = v
	if len(parts) > 1 && parts[1] != "" {
		if c.T, err = resolveOBJIndex(parts[1], len(o.TexCoords)); err != nil {
			return c, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.N, err = resolveOBJIndex(parts[2], len(o.Normals)); err != nil {
			return c, err
		}
	}
	return c, nil
}

func resolveOBJIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return -1, fmt.Errorf("bad index %q", s)
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i = count + i
	default:
		return -1, fmt.Errorf("index 0 is not valid")
	}
	if i < 0 || i >= count {
		return -1, fmt.Errorf("index %s out of range (%d defined)", s, count)
	}
	return i, nil
}

func parseFloats3(fields []string) ([3]float32, error) {
	var v [3]float32
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(f)
	}
	return v, nil
}
