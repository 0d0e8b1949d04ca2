// Package hardware mirrors simulated pins onto real GPIO lines of the host,
// so a script driving "LED" in the emulator can light an LED on a Raspberry Pi
// header.
package hardware

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/micro-nova/pico-emu/internal/events"
)

// ParseMapping parses a mirror flag value of the form
// "LED=GPIO17,GP15=GPIO27" into simulated pin id -> host line name.
func ParseMapping(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sim, line, ok := strings.Cut(part, "=")
		sim, line = strings.TrimSpace(sim), strings.TrimSpace(line)
		if !ok || sim == "" || line == "" {
			return nil, fmt.Errorf("gpio: bad mapping %q, want PIN=LINE", part)
		}
		if _, dup := out[sim]; dup {
			return nil, fmt.Errorf("gpio: pin %s mapped twice", sim)
		}
		out[sim] = line
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("gpio: empty mapping")
	}
	return out, nil
}

// Mirror drives host output lines to follow simulated pin levels. Its
// Observe method is an events.Observer.
type Mirror struct {
	mu    sync.Mutex
	lines map[string]gpio.PinOut
	level map[string]gpio.Level
}

// NewMirror creates a Mirror over already opened lines, keyed by simulated
// pin id.
func NewMirror(lines map[string]gpio.PinOut) *Mirror {
	return &Mirror{
		lines: lines,
		level: make(map[string]gpio.Level),
	}
}

// OpenMirror initializes the periph.io host drivers and opens every line
// named in mapping.
func OpenMirror(mapping map[string]string) (*Mirror, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio: host init failed: %w", err)
	}

	lines := make(map[string]gpio.PinOut, len(mapping))
	for sim, name := range mapping {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("gpio: failed to open %s (for %s)", name, sim)
		}
		lines[sim] = p
	}
	m := NewMirror(lines)
	if err := m.drive(gpio.Low); err != nil {
		return nil, err
	}
	slog.Debug("gpio: mirror ready", "lines", m.Pins())
	return m, nil
}

// Pins returns the mirrored simulated pin ids, sorted.
func (m *Mirror) Pins() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.lines))
	for id := range m.lines {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Level returns the last level written for pin id.
func (m *Mirror) Level(id string) gpio.Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level[id]
}

// Observe applies one emulator event. pin_register and pin_update set the
// line; reset drives every line low.
func (m *Mirror) Observe(ev events.Event) {
	switch ev.Type {
	case "pin_register", "pin_update":
		id, _ := ev.Get("pin").(string)
		if err := m.set(id, levelOf(ev.Get("value"))); err != nil {
			slog.Warn("gpio: mirror write failed", "pin", id, "err", err)
		}
	case "reset":
		if err := m.drive(gpio.Low); err != nil {
			slog.Warn("gpio: mirror reset failed", "err", err)
		}
	}
}

func (m *Mirror) set(id string, l gpio.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[id]
	if !ok {
		return nil
	}
	if err := line.Out(l); err != nil {
		return fmt.Errorf("gpio: %s: %w", line.Name(), err)
	}
	m.level[id] = l
	return nil
}

func (m *Mirror) drive(l gpio.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, line := range m.lines {
		if err := line.Out(l); err != nil {
			return fmt.Errorf("gpio: %s: %w", line.Name(), err)
		}
		m.level[id] = l
	}
	return nil
}

func levelOf(v any) gpio.Level {
	switch n := v.(type) {
	case int:
		return n != 0
	case float64:
		return n != 0
	case bool:
		return gpio.Level(n)
	}
	return gpio.Low
}
