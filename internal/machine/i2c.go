package machine

import (
	"encoding/hex"

	"github.com/micro-nova/pico-emu/internal/events"
	"github.com/micro-nova/pico-emu/internal/state"
)

const defaultI2CFreq = 400_000

// I2COptions configures an I2C bus. Zero values select the MicroPython
// defaults (400 kHz, 8-bit memory addresses).
type I2COptions struct {
	SCL, SDA *Pin
	Freq     int
	AddrSize int
}

// I2C is an I2C controller façade. Device presence and read data come from
// the Store.
type I2C struct {
	b        *Board
	id       int
	scl, sda *Pin
	freq     int
	addrSize int
}

// I2C opens hardware bus id.
func (b *Board) I2C(id int, opts I2COptions) *I2C {
	if opts.Freq <= 0 {
		opts.Freq = defaultI2CFreq
	}
	if opts.AddrSize <= 0 {
		opts.AddrSize = 8
	}
	bus := &I2C{b: b, id: id, scl: opts.SCL, sda: opts.SDA, freq: opts.Freq, addrSize: opts.AddrSize}
	b.store.Emit("i2c_init", events.Fields{
		"id":   id,
		"scl":  pinID(opts.SCL),
		"sda":  pinID(opts.SDA),
		"freq": opts.Freq,
	})
	return bus
}

// SoftI2C opens a bit-banged bus. It shares bus 0's simulated devices.
func (b *Board) SoftI2C(opts I2COptions) (*I2C, error) {
	if opts.SCL == nil || opts.SDA == nil {
		return nil, valueErrorf("soft i2c requires scl and sda pins")
	}
	return b.I2C(0, opts), nil
}

// ID returns the bus number.
func (i *I2C) ID() int { return i.id }

// Freq returns the bus clock in Hz.
func (i *I2C) Freq() int { return i.freq }

// Scan returns the addresses answering on the bus.
func (i *I2C) Scan() []int {
	devices := i.b.store.I2CDevices(i.id)
	i.b.store.Emit("i2c_scan", events.Fields{"id": i.id, "devices": devices})
	return devices
}

// RegisterDevice makes addr appear in Scan results.
func (i *I2C) RegisterDevice(addr int) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	i.b.store.RegisterI2CDevice(i.id, addr)
	return nil
}

// WriteTo writes buf to addr and returns the number of bytes acknowledged.
func (i *I2C) WriteTo(addr int, buf []byte, stop bool) (int, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	i.b.store.Emit("i2c_write", i.pins(events.Fields{
		"id":   i.id,
		"addr": addr,
		"data": hex.EncodeToString(buf),
		"stop": stop,
	}))
	return len(buf), nil
}

// ReadFrom reads n bytes from addr.
func (i *I2C) ReadFrom(addr, n int, stop bool) ([]byte, error) {
	if err := checkTransfer(addr, n); err != nil {
		return nil, err
	}
	resp := i.b.store.I2CResponse(i.id, addr, n, state.NoMemAddr)
	i.b.store.Emit("i2c_read", i.pins(events.Fields{
		"id":       i.id,
		"addr":     addr,
		"nbytes":   n,
		"response": hex.EncodeToString(resp),
		"stop":     stop,
	}))
	return resp, nil
}

// WriteToMem writes buf to register mem of addr.
func (i *I2C) WriteToMem(addr, mem int, buf []byte) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	if err := checkMem(mem); err != nil {
		return err
	}
	i.b.store.Emit("i2c_write_mem", i.pins(events.Fields{
		"id":       i.id,
		"addr":     addr,
		"memaddr":  mem,
		"data":     hex.EncodeToString(buf),
		"addrsize": i.addrSize,
	}))
	return nil
}

// ReadFromMem reads n bytes starting at register mem of addr.
func (i *I2C) ReadFromMem(addr, mem, n int) ([]byte, error) {
	if err := checkTransfer(addr, n); err != nil {
		return nil, err
	}
	if err := checkMem(mem); err != nil {
		return nil, err
	}
	resp := i.b.store.I2CResponse(i.id, addr, n, mem)
	i.b.store.Emit("i2c_read_mem", i.pins(events.Fields{
		"id":       i.id,
		"addr":     addr,
		"memaddr":  mem,
		"nbytes":   n,
		"response": hex.EncodeToString(resp),
		"addrsize": i.addrSize,
	}))
	return resp, nil
}

// ReadFromMemInto fills buf from register mem of addr.
func (i *I2C) ReadFromMemInto(addr, mem int, buf []byte) error {
	data, err := i.ReadFromMem(addr, mem, len(buf))
	if err != nil {
		return err
	}
	copy(buf, data)
	return nil
}

// WriteVTo writes the concatenation of vec to addr and returns the byte count.
func (i *I2C) WriteVTo(addr int, vec [][]byte, stop bool) (int, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	total := 0
	for _, b := range vec {
		total += len(b)
	}
	i.b.store.Emit("i2c_writevto", events.Fields{
		"id":     i.id,
		"addr":   addr,
		"nbytes": total,
		"stop":   stop,
	})
	return total, nil
}

// Start generates a START condition.
func (i *I2C) Start() { i.b.store.Emit("i2c_start", events.Fields{"id": i.id}) }

// Stop generates a STOP condition.
func (i *I2C) Stop() { i.b.store.Emit("i2c_stop", events.Fields{"id": i.id}) }

// ReadInto zero-fills buf; the raw primitives have no addressed device.
func (i *I2C) ReadInto(buf []byte, nack bool) {
	clear(buf)
	i.b.store.Emit("i2c_readinto", events.Fields{"id": i.id, "nbytes": len(buf), "nack": nack})
}

// Write puts raw bytes on the bus and returns the number of ACKs.
func (i *I2C) Write(buf []byte) int {
	i.b.store.Emit("i2c_write_raw", events.Fields{"id": i.id, "data": hex.EncodeToString(buf)})
	return len(buf)
}

func (i *I2C) pins(f events.Fields) events.Fields {
	f["scl"] = pinID(i.scl)
	f["sda"] = pinID(i.sda)
	return f
}

func checkAddr(addr int) error {
	if addr < 0 || addr > 0x7F {
		return valueErrorf("i2c address %#x out of range", addr)
	}
	return nil
}

func checkMem(mem int) error {
	if mem < 0 {
		return valueErrorf("negative register address %d", mem)
	}
	return nil
}

func checkTransfer(addr, n int) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	if n < 0 {
		return valueErrorf("negative read length %d", n)
	}
	return nil
}

// pinID returns the id of p, or nil for an unassigned pin so the event
// carries a JSON null.
func pinID(p *Pin) any {
	if p == nil {
		return nil
	}
	return p.ID()
}
