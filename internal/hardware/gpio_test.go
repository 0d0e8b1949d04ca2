package hardware_test

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/micro-nova/pico-emu/internal/events"
	"github.com/micro-nova/pico-emu/internal/hardware"
	"github.com/micro-nova/pico-emu/internal/machine"
	"github.com/micro-nova/pico-emu/internal/state"
)

func TestParseMapping(t *testing.T) {
	got, err := hardware.ParseMapping("LED=GPIO17, GP15 = GPIO27,")
	if err != nil {
		t.Fatalf("ParseMapping: %v", err)
	}
	if len(got) != 2 || got["LED"] != "GPIO17" || got["GP15"] != "GPIO27" {
		t.Errorf("ParseMapping = %v", got)
	}
}

func TestParseMapping_Errors(t *testing.T) {
	for _, in := range []string{"", "LED", "LED=", "=GPIO4", "LED=GPIO4,LED=GPIO5"} {
		if _, err := hardware.ParseMapping(in); err == nil {
			t.Errorf("ParseMapping(%q) succeeded, want error", in)
		}
	}
}

func newMirror() (*hardware.Mirror, *gpiotest.Pin, *gpiotest.Pin) {
	led := &gpiotest.Pin{N: "GPIO17", Num: 17}
	btn := &gpiotest.Pin{N: "GPIO27", Num: 27}
	m := hardware.NewMirror(map[string]gpio.PinOut{"LED": led, "GP15": btn})
	return m, led, btn
}

func TestMirror_FollowsBoard(t *testing.T) {
	m, led, _ := newMirror()
	ch := events.NewChannel(nil)
	ch.AddObserver(m.Observe)
	b := machine.NewBoard(state.New(ch, state.Options{ThrottleWindow: -1}), machine.DefaultOptions())

	p := b.Pin("LED", machine.PinOut)
	if led.Read() != gpio.Low {
		t.Fatalf("LED line = %v after register, want Low", led.Read())
	}
	p.On()
	if led.Read() != gpio.High {
		t.Errorf("LED line = %v after On, want High", led.Read())
	}
	p.Toggle()
	if led.Read() != gpio.Low {
		t.Errorf("LED line = %v after Toggle, want Low", led.Read())
	}
}

func TestMirror_IgnoresUnmappedPins(t *testing.T) {
	m, led, btn := newMirror()
	m.Observe(events.New("pin_update", events.Fields{"pin": "GP2", "value": 1}))
	if led.Read() != gpio.Low || btn.Read() != gpio.Low {
		t.Error("unmapped pin changed a host line")
	}
}

func TestMirror_ResetDrivesLow(t *testing.T) {
	m, led, btn := newMirror()
	m.Observe(events.New("pin_update", events.Fields{"pin": "LED", "value": 1}))
	m.Observe(events.New("pin_update", events.Fields{"pin": "GP15", "value": float64(1)}))
	if m.Level("LED") != gpio.High || m.Level("GP15") != gpio.High {
		t.Fatalf("levels = %v/%v, want High/High", m.Level("LED"), m.Level("GP15"))
	}

	m.Observe(events.New("reset", nil))
	if led.Read() != gpio.Low || btn.Read() != gpio.Low {
		t.Error("reset did not drive lines low")
	}
}

type brokenLine struct{ *gpiotest.Pin }

func (brokenLine) Out(gpio.Level) error { return errors.New("line busy") }

func TestMirror_WriteErrorKeepsLevel(t *testing.T) {
	m := hardware.NewMirror(map[string]gpio.PinOut{"LED": brokenLine{&gpiotest.Pin{N: "GPIO4"}}})
	m.Observe(events.New("pin_update", events.Fields{"pin": "LED", "value": 1}))
	if m.Level("LED") != gpio.Low {
		t.Error("level recorded despite write failure")
	}
}

func TestMirror_Pins(t *testing.T) {
	m, _, _ := newMirror()
	got := m.Pins()
	if len(got) != 2 || got[0] != "GP15" || got[1] != "LED" {
		t.Errorf("Pins() = %v, want [GP15 LED]", got)
	}
}
