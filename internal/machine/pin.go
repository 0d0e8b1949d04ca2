package machine

import (
	"github.com/micro-nova/pico-emu/internal/state"
)

// PinMode is the MicroPython pin mode constant.
type PinMode int

const (
	PinIn PinMode = iota
	PinOut
	PinPullUp
	PinPullDown
)

// Pull is the MicroPython pull resistor constant. PullNone means no resistor.
type Pull int

const (
	PullNone Pull = -1
	PullUp   Pull = 2
	PullDown Pull = 3
)

// IRQTrigger is a bit set of edges that run a pin handler.
type IRQTrigger int

const (
	IRQFalling IRQTrigger = 1 << iota
	IRQRising
)

var pinModeNames = map[PinMode]state.Mode{
	PinIn:       state.ModeIn,
	PinOut:      state.ModeOut,
	PinPullUp:   state.ModePullUp,
	PinPullDown: state.ModePullDown,
}

func (m PinMode) stateMode() state.Mode {
	if name, ok := pinModeNames[m]; ok {
		return name
	}
	return state.ModeOut
}

func pinModeOf(m state.Mode) PinMode {
	for k, v := range pinModeNames {
		if v == m {
			return k
		}
	}
	return PinOut
}

// PinOption adjusts Pin construction and Init.
type PinOption func(*pinConfig)

type pinConfig struct {
	pull  Pull
	value *int
}

// WithPull selects a pull resistor.
func WithPull(p Pull) PinOption {
	return func(c *pinConfig) { c.pull = p }
}

// WithValue drives an initial output level.
func WithValue(v int) PinOption {
	return func(c *pinConfig) { c.value = &v }
}

// Pin is a GPIO façade. Its level and mode live in the Store; the façade only
// keeps the pull setting and IRQ registration.
type Pin struct {
	b    *Board
	id   string
	pull Pull

	handler func(*Pin)
	trigger IRQTrigger
}

// Pin registers id with the Store and returns its façade.
func (b *Board) Pin(id string, mode PinMode, opts ...PinOption) *Pin {
	cfg := pinConfig{pull: PullNone}
	for _, o := range opts {
		o(&cfg)
	}
	p := &Pin{b: b, id: id, pull: cfg.pull}
	initial := 0
	if cfg.value != nil {
		initial = *cfg.value
	}
	b.store.RegisterPin(id, mode.stateMode(), initial)
	if cfg.value != nil {
		p.SetValue(*cfg.value)
	}
	return p
}

// ID returns the pin identifier.
func (p *Pin) ID() string { return p.id }

// Init reconfigures the pin.
func (p *Pin) Init(mode PinMode, opts ...PinOption) {
	cfg := pinConfig{pull: p.pull}
	for _, o := range opts {
		o(&cfg)
	}
	p.pull = cfg.pull
	value := p.Value()
	if cfg.value != nil {
		value = *cfg.value
	}
	p.b.store.UpdatePin(p.id, value, mode.stateMode())
}

// Value returns the stored level.
func (p *Pin) Value() int { return p.b.store.PinValue(p.id) }

// SetValue drives the pin to v (normalized to 0/1).
func (p *Pin) SetValue(v int) {
	p.b.store.UpdatePin(p.id, v, state.ModeOut)
}

func (p *Pin) On() { p.SetValue(1) }
func (p *Pin) Off() { p.SetValue(0) }
func (p *Pin) High() { p.SetValue(1) }
func (p *Pin) Low() { p.SetValue(0) }

// Toggle inverts the stored level.
func (p *Pin) Toggle() { p.SetValue(1 - p.Value()) }

// Mode returns the stored mode.
func (p *Pin) Mode() PinMode {
	st, ok := p.b.store.Pin(p.id)
	if !ok {
		return PinOut
	}
	return pinModeOf(st.Mode)
}

// SetMode changes the stored mode, keeping the level.
func (p *Pin) SetMode(m PinMode) {
	p.b.store.UpdatePin(p.id, p.Value(), m.stateMode())
}

func (p *Pin) Pull() Pull { return p.pull }
func (p *Pin) SetPull(v Pull) { p.pull = v }
func (p *Pin) Drive() int { return 0 }
func (p *Pin) SetDrive(int) {}

// IRQ stores handler for the given edges. Handlers run from Board.Pump after
// an injected level change matching trigger. A nil handler disables the IRQ.
func (p *Pin) IRQ(handler func(*Pin), trigger IRQTrigger) {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	p.handler = handler
	p.trigger = trigger
	list := p.b.pins[p.id]
	for _, q := range list {
		if q == p {
			return
		}
	}
	p.b.pins[p.id] = append(list, p)
}

// InjectPin sets the level of id from outside the script, as a button press
// or external driver would, and queues the IRQ handlers of every Pin on id
// whose trigger matches the resulting edge.
func (b *Board) InjectPin(id string, v int) {
	old := b.store.PinValue(id)
	if v != 0 {
		v = 1
	}
	b.store.UpdatePin(id, v, "")

	var edge IRQTrigger
	switch {
	case old == 0 && v == 1:
		edge = IRQRising
	case old == 1 && v == 0:
		edge = IRQFalling
	default:
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.pins[id] {
		if p.handler == nil || p.trigger&edge == 0 {
			continue
		}
		h, pin := p.handler, p
		b.pending = append(b.pending, func() { h(pin) })
	}
}
