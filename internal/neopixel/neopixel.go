// Package neopixel simulates a WS2812 LED strip attached to a board pin.
package neopixel

import (
	"slices"

	"github.com/micro-nova/pico-emu/internal/events"
	"github.com/micro-nova/pico-emu/internal/machine"
)

// Color is one pixel: 3 channels for RGB strips, 4 for RGBW.
type Color []int

// Strip holds a frame buffer that is published on Write.
type Strip struct {
	b      *machine.Board
	pin    *machine.Pin
	bpp    int
	pixels []Color
}

// New creates a strip of n pixels with bpp channels each: 3 for RGB, 4 for RGBW.
func New(b *machine.Board, pin *machine.Pin, n, bpp int) (*Strip, error) {
	if n < 0 {
		return nil, machine.ValueErrorf("negative pixel count %d", n)
	}
	if bpp != 3 && bpp != 4 {
		return nil, machine.ValueErrorf("bpp %d, want 3 or 4", bpp)
	}
	s := &Strip{b: b, pin: pin, bpp: bpp, pixels: make([]Color, n)}
	for i := range s.pixels {
		s.pixels[i] = make(Color, bpp)
	}
	b.Store().Emit("neopixel_init", events.Fields{"pin": pin.ID(), "n": n, "bpp": bpp})
	return s, nil
}

// Len returns the number of pixels.
func (s *Strip) Len() int { return len(s.pixels) }

// BPP returns the channels per pixel.
func (s *Strip) BPP() int { return s.bpp }

// Get returns a copy of pixel i.
func (s *Strip) Get(i int) (Color, error) {
	if err := s.checkIndex(i); err != nil {
		return nil, err
	}
	return slices.Clone(s.pixels[i]), nil
}

// Set stores c at pixel i. Nothing is published until Write.
func (s *Strip) Set(i int, c Color) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if err := s.checkColor(c); err != nil {
		return err
	}
	s.pixels[i] = slices.Clone(c)
	return nil
}

// Fill sets every pixel to c.
func (s *Strip) Fill(c Color) error {
	if err := s.checkColor(c); err != nil {
		return err
	}
	for i := range s.pixels {
		s.pixels[i] = slices.Clone(c)
	}
	return nil
}

// Write publishes the whole frame as one neopixel_write event.
func (s *Strip) Write() {
	frame := make([][]int, len(s.pixels))
	for i, p := range s.pixels {
		frame[i] = slices.Clone(p)
	}
	s.b.Store().Emit("neopixel_write", events.Fields{"pin": s.pin.ID(), "pixels": frame})
}

func (s *Strip) checkIndex(i int) error {
	if i < 0 || i >= len(s.pixels) {
		return machine.IndexErrorf("neopixel index %d out of range [0, %d)", i, len(s.pixels))
	}
	return nil
}

func (s *Strip) checkColor(c Color) error {
	if len(c) != s.bpp {
		return machine.ValueErrorf("expected %d values, got %d", s.bpp, len(c))
	}
	return nil
}
