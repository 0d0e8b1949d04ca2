package events

import (
	"io"
	"log/slog"
	"sync"
)

// Observer receives every emitted event, in emission order.
type Observer func(Event)

type observerEntry struct {
	id int
	fn Observer
}

// Channel serializes events to a text stream and fans them out to in-process
// observers. Emission is synchronous: when Emit returns, the line has been
// written and every observer has run.
type Channel struct {
	mu        sync.Mutex
	w         io.Writer
	observers []observerEntry
	nextID    int
}

// NewChannel returns a Channel writing prefixed lines to w. A nil w disables
// the text stream and leaves only the observers.
func NewChannel(w io.Writer) *Channel {
	return &Channel{w: w}
}

// AddObserver registers fn and returns a function that removes it again.
func (c *Channel) AddObserver(fn Observer) (remove func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.observers = append(c.observers, observerEntry{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// ClearObservers removes all registered observers.
func (c *Channel) ClearObservers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = nil
}

// Emit writes ev to the stream and then delivers it to each observer.
// A panicking observer is logged and skipped; the remaining observers still
// run. The returned error reports only encoding or stream write failures.
func (c *Channel) Emit(ev Event) error {
	line, err := ev.Line()
	if err != nil {
		return err
	}

	c.mu.Lock()
	var werr error
	if c.w != nil {
		_, werr = c.w.Write(line)
	}
	observers := make([]observerEntry, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, o := range observers {
		notify(o.fn, ev)
	}
	return werr
}

func notify(fn Observer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("events: observer panicked", "type", ev.Type, "panic", r)
		}
	}()
	fn(ev)
}

// WriteTo returns an Observer that writes each event as a prefixed line to w.
// Write errors are logged at debug level and otherwise ignored.
func WriteTo(w io.Writer) Observer {
	var mu sync.Mutex
	return func(ev Event) {
		line, err := ev.Line()
		if err != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if _, err := w.Write(line); err != nil {
			slog.Debug("events: sink write failed", "type", ev.Type, "err", err)
		}
	}
}
