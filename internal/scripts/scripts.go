// Package scripts holds the built-in demo programs shipped with the
// emulator.
package scripts

import (
	"context"
	"slices"

	"github.com/micro-nova/pico-emu/internal/machine"
	"github.com/micro-nova/pico-emu/internal/runner"
)

// Demo is a named built-in script.
type Demo struct {
	Name        string
	Description string
	Run         runner.Script
}

var registry = []Demo{
	{"blink", "Blink the onboard LED on GP25", Blink},
	{"pwm", "Fade the onboard LED with PWM", PWMFade},
	{"gpio", "Chase GP2-GP8", GPIOChase},
	{"adc", "Read ADC0-2 and the temperature sensor", ADCChannels},
	{"i2c", "Scan I2C0 and read WHO_AM_I", I2CScan},
	{"uart", "Loop messages through UART0", UARTLoopback},
	{"timer", "Periodic timer driven from the main loop", TimerTick},
	{"neopixel", "Colour cycle an 8 pixel strip on GP28", NeoPixelCycle},
	{"wlan", "Join a network and scan (Pico W)", WLANConnect},
	{"pio", "Start a PIO state machine", PIOBlink},
	{"accel", "Decode MPU-6050 accelerometer registers", AccelRead},
	{"pico", "Run every Pico demo in sequence", PicoTour},
}

// All returns the demos in display order.
func All() []Demo { return slices.Clone(registry) }

// Lookup finds a demo by name.
func Lookup(name string) (Demo, bool) {
	i := slices.IndexFunc(registry, func(d Demo) bool { return d.Name == name })
	if i < 0 {
		return Demo{}, false
	}
	return registry[i], true
}

func announce(ctx context.Context, b *machine.Board, title string) error {
	b.Printf("\n==================================================\n  %s\n==================================================\n", title)
	return b.SleepMs(ctx, 300)
}

// PicoTour runs the board tour from the Pico demo.
func PicoTour(ctx context.Context, b *machine.Board) error {
	for _, demo := range []runner.Script{Blink, PWMFade, GPIOChase, ADCChannels, I2CScan, UARTLoopback} {
		if err := demo(ctx, b); err != nil {
			return err
		}
		if err := b.SleepMs(ctx, 1000); err != nil {
			return err
		}
	}
	b.Printf("\n  PICO DEMO COMPLETE!\n")
	return nil
}
