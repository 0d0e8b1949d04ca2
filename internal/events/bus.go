package events

import (
	"log/slog"
	"sync"
)

const subBufferSize = 64

type subscriber struct {
	ch      chan Event
	types   map[string]bool // nil accepts every type
	dropped int
}

// Bus fans events out to in-process subscribers such as SSE clients.
// Publish never blocks: a subscriber whose buffer is full misses the event,
// and the miss is counted.
type Bus struct {
	mu   sync.Mutex
	subs map[string]*subscriber
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]*subscriber),
	}
}

// Subscribe creates a subscription with the given ID. When types are given,
// only events of those types are delivered. Call Unsubscribe when done.
func (b *Bus) Subscribe(id string, types ...string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &subscriber{ch: make(chan Event, subBufferSize)}
	if len(types) > 0 {
		sub.types = make(map[string]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}
	if old, ok := b.subs[id]; ok {
		close(old.ch)
	}
	b.subs[id] = sub
	return sub.ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(sub.ch)
	if sub.dropped > 0 {
		slog.Debug("events: subscriber dropped events", "id", id, "dropped", sub.dropped)
	}
}

// Publish delivers ev to every matching subscriber. It has the Observer
// signature so a Bus can be attached directly to a Channel.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.types != nil && !sub.types[ev.Type] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			sub.dropped++
		}
	}
}

// Dropped returns how many events subscriber id has missed so far.
func (b *Bus) Dropped(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		return sub.dropped
	}
	return 0
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
