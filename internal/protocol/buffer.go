package protocol

import (
	"encoding/binary"
	"fmt"
)

// FieldWidth is the wire representation of one numeric field.
type FieldWidth uint8

const (
	U8 FieldWidth = iota
	I8
	U16
	I16
	U32
	I32
)

// Size returns the encoded size in bytes.
func (w FieldWidth) Size() int {
	switch w {
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	default:
		return 4
	}
}

func (w FieldWidth) String() string {
	switch w {
	case U8:
		return "u8"
	case I8:
		return "i8"
	case U16:
		return "u16"
	case I16:
		return "i16"
	case U32:
		return "u32"
	case I32:
		return "i32"
	default:
		return fmt.Sprintf("FieldWidth(%d)", uint8(w))
	}
}

// Reader consumes little-endian fields from a frame. Every read is bounds
// checked and returns ErrShortBuffer instead of panicking.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader over b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Offset returns the current read position.
func (r *Reader) Offset() int {
	return r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, r.off, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Peek returns the next byte without consuming it.
func (r *Reader) Peek() (byte, bool) {
	if r.Remaining() < 1 {
		return 0, false
	}
	return r.buf[r.off], true
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// Bytes consumes exactly n bytes and returns a copy.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Rest consumes all remaining bytes.
func (r *Reader) Rest() []byte {
	b := r.buf[r.off:]
	r.off = len(r.buf)
	return b
}

// Writer appends little-endian fields. Values are truncated to the field
// width using two's complement, so 200 written as I8 becomes -56.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with room for size bytes.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Put appends v with the given width.
func (w *Writer) Put(width FieldWidth, v int64) {
	switch width {
	case U8, I8:
		w.buf = append(w.buf, byte(v))
	case U16, I16:
		w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(v))
	default:
		w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
	}
}

// Bytes returns the encoded frame.
func (w *Writer) Bytes() []byte {
	return w.buf
}
