package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// 3DS format errors.
var (
	ErrInvalid3DSMagic = errors.New("invalid 3DS magic: expected main chunk 0x4D4D")
	ErrInvalid3DSChunk = errors.New("invalid 3DS chunk")
)

// 3DS chunk identifiers.
const (
	chunkMain         = 0x4D4D
	chunkVersion      = 0x0002
	chunkEditor       = 0x3D3D
	chunkObject       = 0x4000
	chunkTriMesh      = 0x4100
	chunkVertices     = 0x4110
	chunkFaces        = 0x4120
	chunkFaceMaterial = 0x4130
	chunkLocalMatrix  = 0x4160
	chunkMaterial     = 0xAFFF
	chunkMatName      = 0xA000
	chunkMatDiffuse   = 0xA020
	chunkColorF       = 0x0010
	chunkColor24      = 0x0011
	chunkColor24Lin   = 0x0012
	chunkColorFLin    = 0x0013

	chunkHeaderSize = 6
)

// TDSFaceGroup assigns a material to a subset of an object's faces.
type TDSFaceGroup struct {
	Material string
	Faces    []uint16
}

// TDSObject is one triangle mesh object.
type TDSObject struct {
	Name      string
	Vertices  [][3]float32
	Faces     [][3]uint16
	Groups    []TDSFaceGroup
	Matrix    [12]float32 // 3x3 axes followed by origin
	HasMatrix bool
}

// TDSMaterial is a material definition with its diffuse color (0-1).
type TDSMaterial struct {
	Name    string
	Diffuse [3]float32
}

// TDS is a parsed 3D Studio file.
type TDS struct {
	Version   uint32
	Objects   []TDSObject
	Materials []TDSMaterial
}

// MaterialByName returns the named material, or nil.
func (t *TDS) MaterialByName(name string) *TDSMaterial {
	for i := range t.Materials {
		if t.Materials[i].Name == name {
			return &t.Materials[i]
		}
	}
	return nil
}

// Parse3DS parses a 3DS chunk file.
func Parse3DS(data []byte) (*TDS, error) {
	if len(data) < chunkHeaderSize {
		return nil, ErrTruncated
	}
	if binary.LittleEndian.Uint16(data) != chunkMain {
		return nil, ErrInvalid3DSMagic
	}

	out := &TDS{}
	r := newBinReader(data, binary.LittleEndian)
	end := chunkEnd(r, int64(len(data)))
	if r.err != nil {
		return nil, r.err
	}
	err := walkChunks(r, end, func(id uint16, end int64) error {
		switch id {
		case chunkVersion:
			out.Version = r.u32()
		case chunkEditor:
			return walkChunks(r, end, func(id uint16, end int64) error {
				switch id {
				case chunkObject:
					return out.readObject(r, end)
				case chunkMaterial:
					return out.readMaterial(r, end)
				}
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// chunkEnd reads the main chunk header and returns its end offset, clamped to limit.
// Some exporters write a main chunk length past the end of the file.
func chunkEnd(r *binReader, limit int64) int64 {
	start := r.pos()
	r.u16()
	length := r.u32()
	if r.err == nil && length < chunkHeaderSize {
		r.fail(fmt.Errorf("%w: length %d at offset %d", ErrInvalid3DSChunk, length, start))
	}
	return min(start+int64(length), limit)
}

// walkChunks visits each sub-chunk up to end. After fn returns the reader is
// moved to the end of the sub-chunk regardless of how much fn consumed.
func walkChunks(r *binReader, end int64, fn func(id uint16, end int64) error) error {
	for r.err == nil && r.pos()+chunkHeaderSize <= end {
		start := r.pos()
		id := r.u16()
		length := r.u32()
		if r.err != nil {
			break
		}
		subEnd := start + int64(length)
		if length < chunkHeaderSize || subEnd > end {
			return fmt.Errorf("%w: id 0x%04X length %d at offset %d", ErrInvalid3DSChunk, id, length, start)
		}
		if err := fn(id, subEnd); err != nil {
			return err
		}
		if r.err != nil {
			break
		}
		r.seek(subEnd)
	}
	return r.err
}

func (t *TDS) readObject(r *binReader, end int64) error {
	obj := TDSObject{Name: r.cString()}
	err := walkChunks(r, end, func(id uint16, end int64) error {
		if id != chunkTriMesh {
			return nil
		}
		return walkChunks(r, end, func(id uint16, end int64) error {
			switch id {
			case chunkVertices:
				n := int(r.u16())
				if n*12 > int(end-r.pos()) {
					return fmt.Errorf("%w: %d vertices overflow chunk", ErrInvalid3DSChunk, n)
				}
				obj.Vertices = make([][3]float32, n)
				for i := range obj.Vertices {
					obj.Vertices[i] = r.vec3()
				}
			case chunkFaces:
				n := int(r.u16())
				if n*8 > int(end-r.pos()) {
					return fmt.Errorf("%w: %d faces overflow chunk", ErrInvalid3DSChunk, n)
				}
				obj.Faces = make([][3]uint16, n)
				for i := range obj.Faces {
					r.read(&obj.Faces[i])
					r.u16() // Edge flags
				}
				return walkChunks(r, end, func(id uint16, end int64) error {
					if id != chunkFaceMaterial {
						return nil
					}
					g := TDSFaceGroup{Material: r.cString()}
					g.Faces = make([]uint16, r.u16())
					r.read(g.Faces)
					obj.Groups = append(obj.Groups, g)
					return nil
				})
			case chunkLocalMatrix:
				r.read(&obj.Matrix)
				obj.HasMatrix = true
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	for _, f := range obj.Faces {
		for _, idx := range f {
			if int(idx) >= len(obj.Vertices) {
				return fmt.Errorf("%w: object %q face index %d out of range", ErrInvalid3DSChunk, obj.Name, idx)
			}
		}
	}
	if len(obj.Faces) > 0 {
		t.Objects = append(t.Objects, obj)
	}
	return nil
}

func (t *TDS) readMaterial(r *binReader, end int64) error {
	mat := TDSMaterial{Diffuse: [3]float32{0.8, 0.8, 0.8}}
	err := walkChunks(r, end, func(id uint16, end int64) error {
		switch id {
		case chunkMatName:
			mat.Name = r.cString()
		case chunkMatDiffuse:
			return walkChunks(r, end, func(id uint16, end int64) error {
				switch id {
				case chunkColorF, chunkColorFLin:
					mat.Diffuse = r.vec3()
				case chunkColor24, chunkColor24Lin:
					rgb := r.bytes(3)
					if rgb != nil {
						mat.Diffuse = [3]float32{float32(rgb[0]) / 255, float32(rgb[1]) / 255, float32(rgb[2]) / 255}
					}
				}
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.Materials = append(t.Materials, mat)
	return nil
}
