// Package state owns all live simulated peripheral state for one emulator
// session. It is the single source of truth shared by every peripheral façade,
// and it decides which mutations are reported on the event stream.
package state

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/micro-nova/pico-emu/internal/events"
)

// Mode is a pin's electrical configuration as reported to the visualizer.
type Mode string

const (
	ModeIn       Mode = "IN"
	ModeOut      Mode = "OUT"
	ModePullUp   Mode = "PULL_UP"
	ModePullDown Mode = "PULL_DOWN"
)

// Valid reports whether m is one of the four known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeIn, ModeOut, ModePullUp, ModePullDown:
		return true
	}
	return false
}

// DefaultThrottleWindow is the minimum interval between two pin_update events
// for the same pin.
const DefaultThrottleWindow = time.Millisecond

// PinState is the stored state of one pin.
type PinState struct {
	ID    string `json:"pin"`
	Mode  Mode   `json:"mode"`
	Value int    `json:"value"`
}

// Emitter is where the Store sends its events. *events.Channel implements it.
type Emitter interface {
	Emit(ev events.Event) error
}

// Options configures a Store.
type Options struct {
	// ThrottleWindow bounds pin_update volume per pin. Zero selects
	// DefaultThrottleWindow; a negative value disables throttling.
	ThrottleWindow time.Duration

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Store is the authoritative state table. All methods are safe for
// concurrent use; events are emitted while the lock is held so the event
// stream order always matches mutation order. Observers attached to the
// Emitter must therefore never call back into the Store.
type Store struct {
	mu    sync.Mutex
	em    Emitter
	clock func() time.Time

	pins        map[string]*PinState
	adc         map[string]int
	i2cDevices  map[int][]int
	i2cResp     map[i2cKey][]byte
	autoRespond bool
	throttle    *throttle
}

// New creates a Store in its reset state. It does not emit the reset event;
// callers that need the process-start marker call Reset explicitly.
func New(em Emitter, opts Options) *Store {
	window := opts.ThrottleWindow
	if window == 0 {
		window = DefaultThrottleWindow
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	s := &Store{
		em:       em,
		clock:    clock,
		throttle: newThrottle(window),
	}
	s.clear()
	return s
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.clock()
}

func (s *Store) clear() {
	s.pins = make(map[string]*PinState)
	s.adc = make(map[string]int)
	s.i2cDevices = make(map[int][]int)
	s.i2cResp = make(map[i2cKey][]byte)
	s.autoRespond = true
	s.throttle.clear()
}

// Reset clears every table, re-enables I2C auto-respond and emits one reset
// event. It is idempotent and safe to call at any time.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.emit("reset", nil)
}

// Emit sends a peripheral-specific event that has no typed helper.
func (s *Store) Emit(typ string, fields events.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit(typ, fields)
}

// emit must be called with s.mu held. Failures never reach the caller.
func (s *Store) emit(typ string, fields events.Fields) {
	if s.em == nil {
		return
	}
	if err := s.em.Emit(events.New(typ, fields)); err != nil {
		slog.Debug("state: emit failed", "type", typ, "err", err)
	}
}

// RegisterPin inserts or overwrites a pin. Registration is never throttled.
func (s *Store) RegisterPin(id string, mode Mode, initial int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !mode.Valid() {
		mode = ModeOut
	}
	value := bit(initial)
	s.pins[id] = &PinState{ID: id, Mode: mode, Value: value}
	s.emit("pin_register", events.Fields{"pin": id, "mode": string(mode), "value": value})
}

// UpdatePin stores value (and mode, when non-empty) for id. The value is
// always stored; the pin_update event is dropped when the previous event for
// this pin was emitted less than the throttle window ago.
func (s *Store) UpdatePin(id string, value int, mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value = bit(value)
	p, ok := s.pins[id]
	if !ok {
		initial := mode
		if !initial.Valid() {
			initial = ModeOut
		}
		p = &PinState{ID: id, Mode: initial}
		s.pins[id] = p
	} else if mode.Valid() {
		p.Mode = mode
	}
	p.Value = value

	if !s.throttle.allow(id, s.clock()) {
		return
	}
	fields := events.Fields{"pin": id, "value": value}
	if mode.Valid() {
		fields["mode"] = string(mode)
	}
	s.emit("pin_update", fields)
}

// PinValue returns the stored value, or 0 for an unknown pin.
func (s *Store) PinValue(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pins[id]; ok {
		return p.Value
	}
	return 0
}

// Pin returns a copy of a pin's state.
func (s *Store) Pin(id string) (PinState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pins[id]; ok {
		return *p, true
	}
	return PinState{}, false
}

// Snapshot returns all pins sorted by identifier.
func (s *Store) Snapshot() []PinState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PinState, 0, len(s.pins))
	for _, p := range s.pins {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetADCValue forces the reading of an ADC channel, clamped to [0, 65535].
func (s *Store) SetADCValue(id string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value = max(0, min(65535, value))
	s.adc[id] = value
	s.emit("adc_set", events.Fields{"pin": id, "value": value})
}

// ADCValue returns the forced reading for id. ok is false when the façade
// should synthesize a value instead.
func (s *Store) ADCValue(id string) (value int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok = s.adc[id]
	return value, ok
}

// ClearADCValue removes a forced reading so the channel reverts to noise.
func (s *Store) ClearADCValue(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.adc, id)
}

func bit(v int) int {
	if v != 0 {
		return 1
	}
	return 0
}
