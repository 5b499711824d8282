package formats

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/h2non/filetype"
)

// USD format errors.
var (
	ErrInvalidUSDZ     = errors.New("invalid USDZ archive")
	ErrUSDCUnsupported = errors.New("binary USD (usdc) layers are not supported")
	ErrInvalidUSDA     = errors.New("invalid USDA layer")
)

// USDMesh holds the geometry attributes of a Mesh prim.
type USDMesh struct {
	Points            [][3]float32
	FaceVertexCounts  []int
	FaceVertexIndices []int
	Normals           [][3]float32
	DisplayColor      [][3]float32
}

// Triangles fan-triangulates the faces into point indices.
func (m *USDMesh) Triangles() ([]uint32, error) {
	var out []uint32
	cursor := 0
	for _, n := range m.FaceVertexCounts {
		if n < 0 || cursor+n > len(m.FaceVertexIndices) {
			return nil, fmt.Errorf("%w: face counts exceed index list", ErrInvalidUSDA)
		}
		face := m.FaceVertexIndices[cursor : cursor+n]
		for _, idx := range face {
			if idx < 0 || idx >= len(m.Points) {
				return nil, fmt.Errorf("%w: point index %d out of range", ErrInvalidUSDA, idx)
			}
		}
		for i := 1; i+1 < n; i++ {
			out = append(out, uint32(face[0]), uint32(face[i]), uint32(face[i+1]))
		}
		cursor += n
	}
	return out, nil
}

// USDPrim is a prim of the layer's namespace tree.
type USDPrim struct {
	Specifier string // def, over or class
	Type      string // Xform, Mesh, Scope, ...
	Name      string

	Translate    [3]float64
	RotateXYZ    [3]float64 // Degrees
	Scale        [3]float64
	Transform    *[16]float64 // Row-major matrix4d, when xformOp:transform is authored
	HasTranslate bool
	HasRotate    bool
	HasScale     bool

	Mesh     *USDMesh
	Children []*USDPrim
}

// USD is a parsed text layer.
type USD struct {
	UpAxis        string
	MetersPerUnit float64
	Prims         []*USDPrim
}

// Meshes returns every Mesh prim in depth-first order.
func (u *USD) Meshes() []*USDPrim {
	var out []*USDPrim
	var walk func([]*USDPrim)
	walk = func(prims []*USDPrim) {
		for _, p := range prims {
			if p.Mesh != nil {
				out = append(out, p)
			}
			walk(p.Children)
		}
	}
	walk(u.Prims)
	return out
}

// ParseUSDZ parses a USDZ package. The first layer in the archive is the root layer.
// A bare USDA text layer is accepted as well.
func ParseUSDZ(data []byte) (*USD, error) {
	if !filetype.Is(data, "zip") {
		if bytes.HasPrefix(data, []byte("#usda")) {
			return ParseUSDA(string(data))
		}
		if bytes.HasPrefix(data, []byte("PXR-USDC")) {
			return nil, ErrUSDCUnsupported
		}
		return nil, fmt.Errorf("%w: not a zip archive", ErrInvalidUSDZ)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUSDZ, err)
	}
	for _, f := range zr.File {
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".usdc":
			return nil, ErrUSDCUnsupported
		case ".usda", ".usd":
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidUSDZ, err)
			}
			layer, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidUSDZ, err)
			}
			if bytes.HasPrefix(layer, []byte("PXR-USDC")) {
				return nil, ErrUSDCUnsupported
			}
			return ParseUSDA(string(layer))
		}
	}
	return nil, fmt.Errorf("%w: no USD layer in archive", ErrInvalidUSDZ)
}

// ParseUSDA parses the subset of the USDA text syntax that describes static meshes.
func ParseUSDA(text string) (*USD, error) {
	p := &usdaParser{toks: tokenizeUSDA(text)}
	doc := &USD{UpAxis: "Y", MetersPerUnit: 1}

	if p.peek().text == "(" {
		meta, err := p.metadata()
		if err != nil {
			return nil, err
		}
		if s, ok := meta["upAxis"].(string); ok {
			doc.UpAxis = s
		}
		if f, ok := meta["metersPerUnit"].(float64); ok {
			doc.MetersPerUnit = f
		}
	}

	prims, err := p.block(false, nil)
	if err != nil {
		return nil, err
	}
	doc.Prims = prims
	return doc, nil
}

type usdaToken struct {
	text    string
	str     bool // Quoted string, asset path or prim path
	newline bool // First token on its line
}

type usdaParser struct {
	toks []usdaToken
	pos  int
}

const usdaPunct = "()[]{}=,;"

func tokenizeUSDA(s string) []usdaToken {
	var toks []usdaToken
	newline := true
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\n':
			newline = true
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case c == '"' || c == '\'':
			quote := string(c)
			if strings.HasPrefix(s[i:], strings.Repeat(quote, 3)) {
				end := strings.Index(s[i+3:], strings.Repeat(quote, 3))
				if end < 0 {
					end = len(s) - i - 3
				}
				toks = append(toks, usdaToken{text: s[i+3 : i+3+end], str: true, newline: newline})
				i += 3 + end + 3
			} else {
				j := i + 1
				var sb strings.Builder
				for j < len(s) && s[j] != c {
					if s[j] == '\\' && j+1 < len(s) {
						j++
					}
					sb.WriteByte(s[j])
					j++
				}
				toks = append(toks, usdaToken{text: sb.String(), str: true, newline: newline})
				i = j + 1
			}
			newline = false
		case c == '@' || c == '<':
			closing := byte('@')
			if c == '<' {
				closing = '>'
			}
			j := strings.IndexByte(s[i+1:], closing)
			if j < 0 {
				j = len(s) - i - 1
			}
			toks = append(toks, usdaToken{text: s[i+1 : i+1+j], str: true, newline: newline})
			i += j + 2
			newline = false
		case strings.IndexByte(usdaPunct, c) >= 0:
			toks = append(toks, usdaToken{text: string(c), newline: newline})
			i++
			newline = false
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \t\r\n#\"'@<", rune(s[j])) && strings.IndexByte(usdaPunct, s[j]) < 0 {
				j++
			}
			toks = append(toks, usdaToken{text: s[i:j], newline: newline})
			i = j
			newline = false
		}
	}
	return toks
}

func (p *usdaParser) peek() usdaToken {
	if p.pos >= len(p.toks) {
		return usdaToken{}
	}
	return p.toks[p.pos]
}

func (p *usdaParser) next() usdaToken {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *usdaParser) eof() bool { return p.pos >= len(p.toks) }

func (p *usdaParser) expect(text string) error {
	if t := p.next(); t.text != text || t.str {
		return fmt.Errorf("%w: expected %q, got %q", ErrInvalidUSDA, text, t.text)
	}
	return nil
}

// skipBalanced skips a bracketed group starting at the current open token.
func (p *usdaParser) skipBalanced() error {
	depth := 0
	for !p.eof() {
		t := p.next()
		if t.str {
			continue
		}
		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: unbalanced brackets", ErrInvalidUSDA)
}

// metadata parses "( key = value ... )" and returns the simple entries.
func (p *usdaParser) metadata() (map[string]any, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	meta := map[string]any{}
	var words []string
	for !p.eof() {
		t := p.peek()
		switch {
		case !t.str && t.text == ")":
			p.next()
			return meta, nil
		case !t.str && t.text == "=":
			p.next()
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			if len(words) > 0 {
				meta[words[len(words)-1]] = v
			}
			words = words[:0]
		case t.str:
			p.next() // Doc string
		case t.text == ";" || t.text == ",":
			p.next()
		default:
			p.next()
			words = append(words, t.text)
		}
	}
	return nil, fmt.Errorf("%w: unterminated metadata", ErrInvalidUSDA)
}

// value parses an attribute value: number, string, tuple, array or dictionary.
func (p *usdaParser) value() (any, error) {
	t := p.peek()
	if t.str {
		p.next()
		return t.text, nil
	}
	switch t.text {
	case "(", "[":
		closing := ")"
		if t.text == "[" {
			closing = "]"
		}
		p.next()
		var items []any
		for {
			if p.eof() {
				return nil, fmt.Errorf("%w: unterminated %s", ErrInvalidUSDA, t.text)
			}
			n := p.peek()
			if !n.str && n.text == closing {
				p.next()
				return items, nil
			}
			if !n.str && n.text == "," {
				p.next()
				continue
			}
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
	case "{":
		return nil, p.skipBalanced()
	case "":
		return nil, fmt.Errorf("%w: missing value", ErrInvalidUSDA)
	}
	p.next()
	if f, err := strconv.ParseFloat(t.text, 64); err == nil {
		return f, nil
	}
	return t.text, nil
}

// block parses statements until "}" (nested) or end of input.
// Attributes are applied to owner when non-nil.
func (p *usdaParser) block(nested bool, owner *USDPrim) ([]*USDPrim, error) {
	var prims []*USDPrim
	for {
		if p.eof() {
			if nested {
				return nil, fmt.Errorf("%w: unterminated prim body", ErrInvalidUSDA)
			}
			return prims, nil
		}
		t := p.peek()
		if !t.str && t.text == "}" {
			if !nested {
				return nil, fmt.Errorf("%w: unexpected }", ErrInvalidUSDA)
			}
			p.next()
			return prims, nil
		}
		switch t.text {
		case "def", "over", "class":
			prim, err := p.prim()
			if err != nil {
				return nil, err
			}
			prims = append(prims, prim)
		case "variantSet":
			p.next()
			for !p.eof() && p.peek().text != "{" {
				p.next()
			}
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
		default:
			if err := p.attribute(owner); err != nil {
				return nil, err
			}
		}
	}
}

func (p *usdaParser) prim() (*USDPrim, error) {
	prim := &USDPrim{Specifier: p.next().text, Scale: [3]float64{1, 1, 1}}
	if t := p.peek(); !t.str {
		prim.Type = p.next().text
	}
	name := p.next()
	if !name.str {
		return nil, fmt.Errorf("%w: prim name must be quoted, got %q", ErrInvalidUSDA, name.text)
	}
	prim.Name = name.text
	if p.peek().text == "(" && !p.peek().str {
		if err := p.skipBalanced(); err != nil {
			return nil, err
		}
	}
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	if prim.Type == "Mesh" {
		prim.Mesh = &USDMesh{}
	}
	children, err := p.block(true, prim)
	if err != nil {
		return nil, err
	}
	prim.Children = children
	return prim, nil
}

// attribute parses one property statement and applies known attributes to owner.
func (p *usdaParser) attribute(owner *USDPrim) error {
	var words []string
	for !p.eof() {
		t := p.peek()
		if !t.str && (t.text == "=" || t.text == "}" || t.text == "(") {
			break
		}
		if len(words) > 0 && t.newline {
			break
		}
		p.next()
		if t.text == "[" || t.text == "]" || t.str {
			continue
		}
		words = append(words, t.text)
	}

	var val any
	if t := p.peek(); !t.str && t.text == "=" {
		p.next()
		v, err := p.value()
		if err != nil {
			return err
		}
		val = v
	}
	if t := p.peek(); !t.str && t.text == "(" && !t.newline {
		if err := p.skipBalanced(); err != nil {
			return err
		}
	}
	if len(words) == 0 {
		// Stray token such as a lone ";" or ","; consume to make progress.
		if !p.eof() && p.peek().text != "}" {
			p.next()
		}
		return nil
	}
	if owner == nil || val == nil {
		return nil
	}
	return applyUSDAttribute(owner, words[len(words)-1], val)
}

func applyUSDAttribute(prim *USDPrim, name string, val any) error {
	var err error
	switch name {
	case "xformOp:translate":
		prim.Translate, err = usdVec3(val)
		prim.HasTranslate = err == nil
	case "xformOp:scale":
		prim.Scale, err = usdVec3(val)
		prim.HasScale = err == nil
	case "xformOp:rotateXYZ":
		prim.RotateXYZ, err = usdVec3(val)
		prim.HasRotate = err == nil
	case "xformOp:transform":
		var m [16]float64
		rows, ok := val.([]any)
		if !ok || len(rows) != 4 {
			return fmt.Errorf("%w: %s is not a 4x4 matrix", ErrInvalidUSDA, name)
		}
		for r, row := range rows {
			v, ok := row.([]any)
			if !ok || len(v) != 4 {
				return fmt.Errorf("%w: %s is not a 4x4 matrix", ErrInvalidUSDA, name)
			}
			for c := range v {
				f, ok := v[c].(float64)
				if !ok {
					return fmt.Errorf("%w: %s is not numeric", ErrInvalidUSDA, name)
				}
				m[r*4+c] = f
			}
		}
		prim.Transform = &m
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	mesh := prim.Mesh
	if mesh == nil {
		return nil
	}
	switch name {
	case "points":
		mesh.Points, err = usdVec3Array(val)
	case "normals", "primvars:normals":
		mesh.Normals, err = usdVec3Array(val)
	case "primvars:displayColor":
		mesh.DisplayColor, err = usdVec3Array(val)
	case "faceVertexCounts":
		mesh.FaceVertexCounts, err = usdIntArray(val)
	case "faceVertexIndices":
		mesh.FaceVertexIndices, err = usdIntArray(val)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func usdVec3(v any) ([3]float64, error) {
	var out [3]float64
	items, ok := v.([]any)
	if !ok || len(items) != 3 {
		return out, fmt.Errorf("%w: expected a 3-tuple", ErrInvalidUSDA)
	}
	for i, it := range items {
		f, ok := it.(float64)
		if !ok {
			return out, fmt.Errorf("%w: expected a number", ErrInvalidUSDA)
		}
		out[i] = f
	}
	return out, nil
}

func usdVec3Array(v any) ([][3]float32, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an array", ErrInvalidUSDA)
	}
	out := make([][3]float32, len(items))
	for i, it := range items {
		t, err := usdVec3(it)
		if err != nil {
			return nil, err
		}
		out[i] = [3]float32{float32(t[0]), float32(t[1]), float32(t[2])}
	}
	return out, nil
}

func usdIntArray(v any) ([]int, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an array", ErrInvalidUSDA)
	}
	out := make([]int, len(items))
	for i, it := range items {
		f, ok := it.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: expected an integer", ErrInvalidUSDA)
		}
		out[i] = int(f)
	}
	return out, nil
}
