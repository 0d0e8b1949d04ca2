package state

import (
	"encoding/hex"
	"slices"

	"github.com/micro-nova/pico-emu/internal/events"
)

// NoMemAddr selects the plain (non-register) response of a device.
const NoMemAddr = -1

// FallbackI2CDevices is what a scan reports on an empty bus while
// auto-respond is enabled: MPU6050, SSD1306, BME280 and a PCF8574 LCD
// backpack. It exists so that `while not i2c.scan(): pass` terminates.
var FallbackI2CDevices = []int{0x68, 0x3C, 0x76, 0x27}

// Registers commonly used as WHO_AM_I; auto-responses echo the device address.
const (
	regWhoAmI0  = 0x00
	regWhoAmI75 = 0x75
)

// presentMarker is the first byte of a synthesized response.
const presentMarker = 0x01

type i2cKey struct {
	bus, addr, mem int
}

func newI2CKey(bus, addr, memaddr int) i2cKey {
	if memaddr < 0 {
		memaddr = NoMemAddr
	}
	return i2cKey{bus: bus, addr: addr, mem: memaddr}
}

// I2CDevices returns the addresses registered on bus. With no registered
// devices and auto-respond enabled it returns FallbackI2CDevices.
func (s *Store) I2CDevices(bus int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	devices := s.i2cDevices[bus]
	if len(devices) == 0 {
		if s.autoRespond {
			return slices.Clone(FallbackI2CDevices)
		}
		return []int{}
	}
	return slices.Clone(devices)
}

// RegisterI2CDevice adds addr to the bus. Registering twice is a no-op apart
// from the event.
func (s *Store) RegisterI2CDevice(bus, addr int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.i2cDevices[bus], addr) {
		s.i2cDevices[bus] = append(s.i2cDevices[bus], addr)
	}
	s.emit("i2c_device_registered", events.Fields{"bus": bus, "addr": addr})
}

// SetI2CDevices replaces the device list of a bus.
func (s *Store) SetI2CDevices(bus int, addrs []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var uniq []int
	for _, a := range addrs {
		if !slices.Contains(uniq, a) {
			uniq = append(uniq, a)
		}
	}
	s.i2cDevices[bus] = uniq
	s.emit("i2c_devices_set", events.Fields{"bus": bus, "addresses": slices.Clone(uniq)})
}

// I2CResponse returns exactly nbytes of response data for a read from addr
// (at register memaddr, or NoMemAddr for a plain read).
//
// A configured response is zero-padded or truncated to length. Without one,
// auto-respond synthesizes a "device present" answer: the device address for
// WHO_AM_I registers 0x00 and 0x75, otherwise 0x01. Everything after the first
// byte is zero. With auto-respond disabled the answer is all zeros.
func (s *Store) I2CResponse(bus, addr, nbytes, memaddr int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	nbytes = max(nbytes, 0)
	out := make([]byte, nbytes)
	if nbytes == 0 {
		return out
	}

	if resp, ok := s.i2cResp[newI2CKey(bus, addr, memaddr)]; ok {
		copy(out, resp)
		return out
	}
	if !s.autoRespond {
		return out
	}
	if memaddr == regWhoAmI0 || memaddr == regWhoAmI75 {
		out[0] = byte(addr)
	} else {
		out[0] = presentMarker
	}
	return out
}

// SetI2CResponse stores the bytes a device returns for reads at memaddr.
func (s *Store) SetI2CResponse(bus, addr int, data []byte, memaddr int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := newI2CKey(bus, addr, memaddr)
	s.i2cResp[key] = slices.Clone(data)

	var mem any
	if key.mem != NoMemAddr {
		mem = key.mem
	}
	s.emit("i2c_response_set", events.Fields{
		"bus":     bus,
		"addr":    addr,
		"memaddr": mem,
		"data":    hex.EncodeToString(data),
	})
}

// SetI2CAutoRespond toggles response synthesis for the whole session.
func (s *Store) SetI2CAutoRespond(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRespond = enabled
	s.emit("i2c_auto_respond", events.Fields{"enabled": enabled})
}

// I2CAutoRespond reports whether auto-respond is enabled.
func (s *Store) I2CAutoRespond() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoRespond
}
