package machine

import (
	"encoding/hex"

	"github.com/micro-nova/pico-emu/internal/events"
)

const (
	SPIMSB = 0
	SPILSB = 1

	defaultSPIBaud = 1_000_000
)

// SPIOptions configures an SPI bus. Zero Baudrate and Bits select the
// defaults (1 MHz, 8 bits).
type SPIOptions struct {
	Baudrate        int
	Polarity, Phase int
	Bits            int
	FirstBit        int
	SCK, MOSI, MISO *Pin
}

func (o *SPIOptions) defaults() {
	if o.Baudrate <= 0 {
		o.Baudrate = defaultSPIBaud
	}
	if o.Bits <= 0 {
		o.Bits = 8
	}
}

// SPI is an SPI controller façade. Reads clock in zeros.
type SPI struct {
	b    *Board
	id   int
	opts SPIOptions
}

// SPI opens hardware bus id.
func (b *Board) SPI(id int, opts SPIOptions) *SPI {
	opts.defaults()
	s := &SPI{b: b, id: id, opts: opts}
	b.store.Emit("spi_init", events.Fields{
		"id":       id,
		"baudrate": opts.Baudrate,
		"polarity": opts.Polarity,
		"phase":    opts.Phase,
	})
	return s
}

// SoftSPI opens a bit-banged bus on id 0.
func (b *Board) SoftSPI(opts SPIOptions) (*SPI, error) {
	if opts.SCK == nil || opts.MOSI == nil || opts.MISO == nil {
		return nil, valueErrorf("soft spi requires sck, mosi and miso pins")
	}
	return b.SPI(0, opts), nil
}

// ID returns the bus number.
func (s *SPI) ID() int { return s.id }

// Baudrate returns the configured clock rate.
func (s *SPI) Baudrate() int { return s.opts.Baudrate }

// Init reconfigures clocking. Pin assignments are kept.
func (s *SPI) Init(opts SPIOptions) {
	opts.defaults()
	opts.SCK, opts.MOSI, opts.MISO = s.opts.SCK, s.opts.MOSI, s.opts.MISO
	s.opts = opts
}

// Deinit releases the bus.
func (s *SPI) Deinit() { s.b.store.Emit("spi_deinit", events.Fields{"id": s.id}) }

// Read clocks out n copies of write and returns what was received.
func (s *SPI) Read(n int, write byte) ([]byte, error) {
	if n < 0 {
		return nil, valueErrorf("negative read length %d", n)
	}
	s.b.store.Emit("spi_read", events.Fields{"id": s.id, "nbytes": n})
	return make([]byte, n), nil
}

// ReadInto fills buf with received bytes.
func (s *SPI) ReadInto(buf []byte, write byte) { clear(buf) }

// Write clocks out buf.
func (s *SPI) Write(buf []byte) {
	s.b.store.Emit("spi_write", events.Fields{"id": s.id, "data": hex.EncodeToString(buf)})
}

// WriteReadInto writes w while reading into r. The buffers must have equal
// length.
func (s *SPI) WriteReadInto(w, r []byte) error {
	if len(w) != len(r) {
		return valueErrorf("buffers differ in length (%d != %d)", len(w), len(r))
	}
	s.Write(w)
	s.ReadInto(r, 0)
	return nil
}
