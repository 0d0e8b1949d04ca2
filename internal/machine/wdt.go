package machine

import (
	"github.com/micro-nova/pico-emu/internal/events"
)

// WDT is a watchdog façade. It never expires.
type WDT struct {
	b       *Board
	timeout int
}

// WDT starts the watchdog with timeoutMs (5000 when not positive).
func (b *Board) WDT(timeoutMs int) *WDT {
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}
	b.store.Emit("wdt_init", events.Fields{"timeout": timeoutMs})
	return &WDT{b: b, timeout: timeoutMs}
}

// Timeout returns the configured timeout in milliseconds.
func (w *WDT) Timeout() int { return w.timeout }

// Feed resets the watchdog.
func (w *WDT) Feed() { w.b.store.Emit("wdt_feed", nil) }
