package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/Faultbox/meshview/pkg/encoding"
)

// ErrTruncated is returned when a binary file ends before a declared structure.
var ErrTruncated = errors.New("unexpected end of data")

// binReader reads fixed-size values and remembers the first error,
// so callers can read a whole structure and check once.
type binReader struct {
	r     *bytes.Reader
	order binary.ByteOrder
	err   error
}

func newBinReader(data []byte, order binary.ByteOrder) *binReader {
	return &binReader{r: bytes.NewReader(data), order: order}
}

func (b *binReader) read(v any) {
	if b.err != nil {
		return
	}
	if err := binary.Read(b.r, b.order, v); err != nil {
		b.fail(err)
	}
}

func (b *binReader) fail(err error) {
	if b.err != nil {
		return
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = ErrTruncated
	}
	b.err = err
}

func (b *binReader) u8() uint8 {
	var v uint8
	b.read(&v)
	return v
}

func (b *binReader) u16() uint16 {
	var v uint16
	b.read(&v)
	return v
}

func (b *binReader) i32() int32 {
	var v int32
	b.read(&v)
	return v
}

func (b *binReader) u32() uint32 {
	var v uint32
	b.read(&v)
	return v
}

func (b *binReader) u64() uint64 {
	var v uint64
	b.read(&v)
	return v
}

func (b *binReader) f32() float32 {
	var v float32
	b.read(&v)
	return v
}

func (b *binReader) vec3() [3]float32 {
	var v [3]float32
	b.read(&v)
	return v
}

// bytes returns the next n bytes.
func (b *binReader) bytes(n int) []byte {
	if b.err != nil {
		return nil
	}
	if n < 0 || n > b.r.Len() {
		b.fail(ErrTruncated)
		return nil
	}
	buf := make([]byte, n)
	_, err := io.ReadFull(b.r, buf)
	if err != nil {
		b.fail(err)
		return nil
	}
	return buf
}

// fixedString reads a null-padded name of the given size, decoding EUC-KR.
func (b *binReader) fixedString(n int) string {
	buf := b.bytes(n)
	if buf == nil {
		return ""
	}
	return encoding.FixedStringToUTF8(buf)
}

// cString reads bytes up to and including a terminating zero.
func (b *binReader) cString() string {
	var out []byte
	for b.err == nil {
		c := b.u8()
		if b.err != nil || c == 0 {
			break
		}
		out = append(out, c)
	}
	return string(out)
}

func (b *binReader) skip(n int64) {
	if b.err != nil {
		return
	}
	if n < 0 || n > int64(b.r.Len()) {
		b.fail(ErrTruncated)
		return
	}
	_, _ = b.r.Seek(n, io.SeekCurrent)
}

func (b *binReader) pos() int64 {
	return b.r.Size() - int64(b.r.Len())
}

func (b *binReader) remaining() int {
	return b.r.Len()
}

func (b *binReader) seek(off int64) {
	if b.err != nil {
		return
	}
	if off < 0 || off > b.r.Size() {
		b.fail(ErrTruncated)
		return
	}
	_, _ = b.r.Seek(off, io.SeekStart)
}

// count reads an int32 element count and validates it against a sanity limit
// and against what is left in the buffer assuming each element takes at least minSize bytes.
func (b *binReader) count(limit int32, minSize int) int {
	n := b.i32()
	if b.err != nil {
		return 0
	}
	if n < 0 || n > limit || int(n)*minSize > b.r.Len() {
		b.fail(ErrTruncated)
		return 0
	}
	return int(n)
}
