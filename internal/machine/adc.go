package machine

import (
	"github.com/micro-nova/pico-emu/internal/events"
)

const (
	adcMid      = 32768
	adcNoise    = 1000
	tempNominal = 27000
	tempNoise   = 500
	vrefUV      = 3_300_000
)

// ADC is an analog input façade. Readings come from the Store override for
// the channel when one is set, otherwise from a noisy synthetic source.
type ADC struct {
	b  *Board
	id string
}

// ADC opens channel id. Ids "4", "ADC4" and "TEMP" select the on-die
// temperature sensor.
func (b *Board) ADC(id string) *ADC {
	b.store.Emit("adc_init", events.Fields{"pin": id})
	return &ADC{b: b, id: id}
}

// ADCPin opens the channel wired to pin.
func (b *Board) ADCPin(pin *Pin) *ADC { return b.ADC(pin.ID()) }

// ID returns the channel identifier.
func (a *ADC) ID() string { return a.id }

// ReadU16 returns a 16-bit reading.
func (a *ADC) ReadU16() int {
	v, ok := a.b.store.ADCValue(a.id)
	if !ok {
		if a.isTemp() {
			v = a.b.randRange(tempNominal-tempNoise, tempNominal+tempNoise)
		} else {
			v = a.b.randRange(adcMid-adcNoise, adcMid+adcNoise)
		}
	}
	a.b.store.Emit("adc_read", events.Fields{
		"pin":        a.id,
		"value":      v,
		"voltage_mv": v * vrefUV / maxDutyU16 / 1000,
	})
	return v
}

// Read returns a 12-bit reading.
func (a *ADC) Read() int { return a.ReadU16() >> 4 }

// ReadUV returns the reading in microvolts against a 3.3 V reference.
func (a *ADC) ReadUV() int { return a.ReadU16() * vrefUV / maxDutyU16 }

// SetSimulatedValue overrides the channel in the Store.
func (a *ADC) SetSimulatedValue(v int) { a.b.store.SetADCValue(a.id, v) }

func (a *ADC) isTemp() bool {
	switch a.id {
	case "4", "ADC4", "TEMP":
		return true
	}
	return false
}
