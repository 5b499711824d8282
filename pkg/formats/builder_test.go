package formats

import (
	"bytes"
	"encoding/binary"
)

// byteBuilder assembles binary fixtures field by field.
type byteBuilder struct {
	buf   bytes.Buffer
	order binary.ByteOrder
}

func newLE() *byteBuilder { return &byteBuilder{order: binary.LittleEndian} }
func newBE() *byteBuilder { return &byteBuilder{order: binary.BigEndian} }

func (b *byteBuilder) put(v any) *byteBuilder {
	_ = binary.Write(&b.buf, b.order, v)
	return b
}

func (b *byteBuilder) raw(p []byte) *byteBuilder {
	b.buf.Write(p)
	return b
}

func (b *byteBuilder) str(s string) *byteBuilder {
	b.buf.WriteString(s)
	return b
}

// fixed writes s null-padded to n bytes.
func (b *byteBuilder) fixed(s string, n int) *byteBuilder {
	p := make([]byte, n)
	copy(p, s)
	b.buf.Write(p)
	return b
}

func (b *byteBuilder) zeros(n int) *byteBuilder {
	b.buf.Write(make([]byte, n))
	return b
}

func (b *byteBuilder) bytes() []byte {
	return b.buf.Bytes()
}

func (b *byteBuilder) len() int {
	return b.buf.Len()
}
