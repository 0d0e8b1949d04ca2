package machine

import (
	"github.com/micro-nova/pico-emu/internal/events"
)

const (
	maxDutyU16 = 65535
	nsPerSec   = 1_000_000_000
)

// PWM is a pulse-width modulation façade on one pin.
type PWM struct {
	b       *Board
	pin     *Pin
	freq    int
	dutyU16 int
	active  bool
}

// PWM starts PWM output on pin with the given frequency and duty cycle.
func (b *Board) PWM(pin *Pin, freq, dutyU16 int) *PWM {
	p := &PWM{b: b, pin: pin, freq: freq, dutyU16: clampDuty(dutyU16), active: true}
	b.store.Emit("pwm_init", events.Fields{
		"pin":      pin.ID(),
		"freq":     p.freq,
		"duty_u16": p.dutyU16,
	})
	p.mirror()
	return p
}

// Init reconfigures the output. Zero arguments keep the current setting; a
// non-zero dutyU16 takes precedence over dutyNs.
func (p *PWM) Init(freq, dutyU16, dutyNs int) {
	if freq > 0 {
		p.freq = freq
	}
	switch {
	case dutyU16 > 0:
		p.dutyU16 = clampDuty(dutyU16)
	case dutyNs > 0:
		p.dutyU16 = p.nsToU16(dutyNs)
	}
	p.active = true
	p.b.store.Emit("pwm_init", events.Fields{
		"pin":      p.pin.ID(),
		"freq":     p.freq,
		"duty_u16": p.dutyU16,
	})
	p.mirror()
}

// Freq returns the configured frequency in Hz.
func (p *PWM) Freq() int { return p.freq }

// SetFreq changes the frequency.
func (p *PWM) SetFreq(hz int) {
	p.freq = hz
	p.b.store.Emit("pwm_freq", events.Fields{"pin": p.pin.ID(), "freq": hz})
}

// DutyU16 returns the duty cycle in [0, 65535].
func (p *PWM) DutyU16() int { return p.dutyU16 }

// SetDutyU16 changes the duty cycle, clamping to [0, 65535].
func (p *PWM) SetDutyU16(v int) {
	p.dutyU16 = clampDuty(v)
	p.emitDuty()
}

// DutyNs returns the high time of one period in nanoseconds.
func (p *PWM) DutyNs() int {
	return p.dutyU16 * p.periodNs() / maxDutyU16
}

// SetDutyNs sets the high time of one period in nanoseconds.
func (p *PWM) SetDutyNs(ns int) {
	p.dutyU16 = p.nsToU16(ns)
	p.emitDuty()
}

// Deinit stops the output and drives the pin low.
func (p *PWM) Deinit() {
	p.active = false
	p.dutyU16 = 0
	p.b.store.Emit("pwm_deinit", events.Fields{"pin": p.pin.ID()})
	p.mirror()
}

// Active reports whether the output is running.
func (p *PWM) Active() bool { return p.active }

func (p *PWM) emitDuty() {
	p.b.store.Emit("pwm_duty", events.Fields{
		"pin":      p.pin.ID(),
		"duty_u16": p.dutyU16,
		"duty_ns":  p.DutyNs(),
	})
	p.mirror()
}

func (p *PWM) mirror() {
	level := 0
	if p.active && p.dutyU16 > 0 {
		level = 1
	}
	p.b.store.UpdatePin(p.pin.ID(), level, "")
}

func (p *PWM) periodNs() int {
	if p.freq <= 0 {
		return 0
	}
	return nsPerSec / p.freq
}

func (p *PWM) nsToU16(ns int) int {
	period := p.periodNs()
	if period == 0 {
		period = 1
	}
	return clampDuty(ns * maxDutyU16 / period)
}

func clampDuty(v int) int {
	return max(0, min(maxDutyU16, v))
}
