package machine

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/micro-nova/pico-emu/internal/events"
)

// Reset causes.
const (
	PwronReset     = 1
	HardReset      = 2
	WDTReset       = 3
	DeepSleepReset = 4
	SoftReset      = 5
)

// Wake reasons.
const (
	WLANWake = 1
	PinWake  = 2
	RTCWake  = 3
)

// Reset reports a hard reset request. The returned error is a *Halt; the
// script returns it to end the session.
func (b *Board) Reset() error {
	b.store.Emit("machine_reset", nil)
	return &Halt{Kind: HaltReset, Message: "Machine reset requested"}
}

// SoftReset reports a soft reset request.
func (b *Board) SoftReset() error {
	b.store.Emit("soft_reset", nil)
	return &Halt{Kind: HaltSoftReset, Message: "Soft reset requested"}
}

// DeepSleep reports a deep sleep request.
func (b *Board) DeepSleep(ms int) error {
	b.store.Emit("deepsleep", events.Fields{"time_ms": ms})
	return &Halt{Kind: HaltDeepSleep, Message: "Deep sleep requested"}
}

// Bootloader reports a request to enter the USB bootloader.
func (b *Board) Bootloader(timeoutMs int) error {
	b.store.Emit("bootloader", events.Fields{"timeout": timeoutMs})
	return &Halt{Kind: HaltBootloader, Message: "Bootloader mode requested"}
}

// Freq returns the CPU frequency in Hz.
func (b *Board) Freq() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cpuFreq
}

// SetFreq changes the CPU frequency.
func (b *Board) SetFreq(hz int) {
	b.mu.Lock()
	b.cpuFreq = hz
	b.mu.Unlock()
	b.store.Emit("freq", events.Fields{"hz": hz})
}

// UniqueID returns the board serial.
func (b *Board) UniqueID() []byte {
	return []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
}

func (b *Board) ResetCause() int { return PwronReset }
func (b *Board) WakeReason() int { return PinWake }

// Idle waits for an interrupt, which returns immediately.
func (b *Board) Idle() {}

// LightSleep sleeps for ms milliseconds, or returns at once when ms <= 0.
func (b *Board) LightSleep(ctx context.Context, ms int) error {
	return b.SleepMs(ctx, ms)
}

func (b *Board) DisableIRQ() int { return 0 }
func (b *Board) EnableIRQ(int) {}

// TimePulseUs times a pulse of level on pin. The result is a synthetic
// duration in [100, 1000] microseconds; the pin is left at the idle level.
func (b *Board) TimePulseUs(pin *Pin, level, timeoutUs int) int {
	b.store.Emit("time_pulse_us", events.Fields{
		"pin":         pin.ID(),
		"pulse_level": level,
		"timeout_us":  timeoutUs,
	})
	b.store.UpdatePin(pin.ID(), 1-bit(level), "")
	return b.randRange(100, 1000)
}

// Bitstream transmits data on pin using encoding and timing in ns.
func (b *Board) Bitstream(pin *Pin, encoding int, timing []int, data []byte) {
	b.store.Emit("bitstream", events.Fields{
		"pin":      pin.ID(),
		"encoding": encoding,
		"timing":   timing,
		"data":     hex.EncodeToString(data),
	})
}

// Uptime returns the time since the board was created, on the store clock.
func (b *Board) Uptime() time.Duration { return b.store.Now().Sub(b.start) }

func bit(v int) int {
	if v != 0 {
		return 1
	}
	return 0
}
