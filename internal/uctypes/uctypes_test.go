package uctypes_test

import (
	"testing"

	"github.com/micro-nova/pico-emu/internal/uctypes"
)

var reg = uctypes.Descriptor{
	"ctrl":   {Offset: 0, Type: uctypes.Uint8},
	"status": {Offset: 2, Type: uctypes.Int16},
	"count":  {Offset: 4, Type: uctypes.Uint32},
	"gain":   {Offset: 8, Type: uctypes.Float32},
}

func TestSizeof(t *testing.T) {
	tests := []struct {
		typ  uctypes.Type
		want int
	}{
		{uctypes.Uint8, 1},
		{uctypes.Int16, 2},
		{uctypes.Float32, 4},
		{uctypes.Int64, 8},
		{uctypes.Void, 0},
		{uctypes.Type(99), 4},
	}
	for _, tt := range tests {
		if got := uctypes.Sizeof(tt.typ); got != tt.want {
			t.Errorf("Sizeof(%d) = %d, want %d", tt.typ, got, tt.want)
		}
	}
	if got := uctypes.SizeofDescriptor(reg); got != 12 {
		t.Errorf("SizeofDescriptor() = %d, want 12", got)
	}
}

func TestStructFields(t *testing.T) {
	s := uctypes.NewStruct(nil, reg, uctypes.LittleEndian)
	if got := s.Field("count"); got != 0 {
		t.Errorf("fresh count = %v", got)
	}
	s.SetField("ctrl", 0x1FF)
	s.SetField("status", -2)
	s.SetField("count", 70000)
	s.SetField("gain", 1.5)
	s.SetField("missing", 7)

	tests := []struct {
		field string
		want  float64
	}{
		{"ctrl", 0xFF},
		{"status", -2},
		{"count", 70000},
		{"gain", 1.5},
		{"missing", 0},
	}
	for _, tt := range tests {
		if got := s.Field(tt.field); got != tt.want {
			t.Errorf("Field(%q) = %v, want %v", tt.field, got, tt.want)
		}
	}
}

func TestBigEndianLayout(t *testing.T) {
	buf := []byte{0, 0, 0x12, 0x34}
	s := uctypes.NewStruct(buf, uctypes.Descriptor{"v": {Offset: 2, Type: uctypes.Uint16}}, uctypes.BigEndian)
	if got := s.Field("v"); got != 0x1234 {
		t.Errorf("Field(v) = %#x, want 0x1234", int(got))
	}
}
