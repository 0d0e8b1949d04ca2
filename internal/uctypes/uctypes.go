// Package uctypes gives scripts C-struct style access to a byte buffer, as
// the MicroPython `uctypes` module does for memory-mapped registers.
package uctypes

import (
	"encoding/binary"
	"math"
)

// Type is a scalar field type.
type Type int

const (
	Uint8 Type = iota
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Uint64
	Int64
	Float32
	Float64
	Void
)

// Layout selects field byte order.
type Layout int

const (
	Native Layout = iota
	BigEndian
)

// LittleEndian is the RP2040's native order.
const LittleEndian = Native

// Field places a scalar at a byte offset.
type Field struct {
	Offset int
	Type   Type
}

// Descriptor names the fields of a struct.
type Descriptor map[string]Field

// Sizeof returns the width of t in bytes. Unknown types count as 4.
func Sizeof(t Type) int {
	switch t {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Uint64, Int64, Float64:
		return 8
	case Void:
		return 0
	}
	return 4
}

// SizeofDescriptor returns the extent of d in bytes.
func SizeofDescriptor(d Descriptor) int {
	n := 0
	for _, f := range d {
		n = max(n, f.Offset+Sizeof(f.Type))
	}
	return n
}

// Struct is a view of buf through a descriptor.
type Struct struct {
	buf   []byte
	desc  Descriptor
	order binary.ByteOrder
}

// NewStruct views buf. A nil buf allocates a zeroed backing store of the
// descriptor's size.
func NewStruct(buf []byte, desc Descriptor, layout Layout) *Struct {
	if buf == nil {
		buf = make([]byte, SizeofDescriptor(desc))
	}
	var order binary.ByteOrder = binary.LittleEndian
	if layout == BigEndian {
		order = binary.BigEndian
	}
	return &Struct{buf: buf, desc: desc, order: order}
}

// Bytes returns the backing buffer.
func (s *Struct) Bytes() []byte { return s.buf }

// Field returns the value of name. Undeclared fields and fields outside the
// buffer read as 0.
func (s *Struct) Field(name string) float64 {
	f, ok := s.desc[name]
	if !ok || !s.fits(f) {
		return 0
	}
	b := s.buf[f.Offset:]
	switch f.Type {
	case Uint8:
		return float64(b[0])
	case Int8:
		return float64(int8(b[0]))
	case Uint16:
		return float64(s.order.Uint16(b))
	case Int16:
		return float64(int16(s.order.Uint16(b)))
	case Uint32:
		return float64(s.order.Uint32(b))
	case Int32:
		return float64(int32(s.order.Uint32(b)))
	case Uint64:
		return float64(s.order.Uint64(b))
	case Int64:
		return float64(int64(s.order.Uint64(b)))
	case Float32:
		return float64(math.Float32frombits(s.order.Uint32(b)))
	case Float64:
		return math.Float64frombits(s.order.Uint64(b))
	}
	return 0
}

// SetField stores v into name, truncating to the field type. Writes to
// undeclared fields are ignored.
func (s *Struct) SetField(name string, v float64) {
	f, ok := s.desc[name]
	if !ok || !s.fits(f) {
		return
	}
	b := s.buf[f.Offset:]
	switch f.Type {
	case Uint8, Int8:
		b[0] = byte(int64(v))
	case Uint16, Int16:
		s.order.PutUint16(b, uint16(int64(v)))
	case Uint32, Int32:
		s.order.PutUint32(b, uint32(int64(v)))
	case Uint64, Int64:
		s.order.PutUint64(b, uint64(int64(v)))
	case Float32:
		s.order.PutUint32(b, math.Float32bits(float32(v)))
	case Float64:
		s.order.PutUint64(b, math.Float64bits(v))
	}
}

func (s *Struct) fits(f Field) bool {
	return f.Offset >= 0 && f.Offset+Sizeof(f.Type) <= len(s.buf)
}
