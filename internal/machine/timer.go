package machine

import (
	"time"

	"github.com/micro-nova/pico-emu/internal/events"
)

// TimerMode is the MicroPython timer mode. The zero value is periodic.
type TimerMode int

const (
	TimerPeriodic TimerMode = iota
	TimerOneShot
)

func (m TimerMode) String() string {
	if m == TimerOneShot {
		return "ONE_SHOT"
	}
	return "PERIODIC"
}

// TimerOptions configures Timer.Init. Freq in Hz takes precedence over
// Period in milliseconds.
type TimerOptions struct {
	Mode     TimerMode
	Freq     int
	Period   int
	Callback func(*Timer)
}

// Timer is a hardware timer façade. When its callback runs is decided by the
// board's TimerPolicy.
type Timer struct {
	b  *Board
	id int

	// guarded by b.mu
	opts     TimerOptions
	active   bool
	interval time.Duration
	deadline time.Time
}

// Timer returns timer id. Id -1 is a virtual timer.
func (b *Board) Timer(id int) *Timer {
	t := &Timer{b: b, id: id}
	b.mu.Lock()
	b.timers = append(b.timers, t)
	b.mu.Unlock()
	return t
}

// ID returns the timer number.
func (t *Timer) ID() int { return t.id }

// Init arms the timer.
func (t *Timer) Init(opts TimerOptions) {
	interval := time.Duration(opts.Period) * time.Millisecond
	if opts.Freq > 0 {
		interval = time.Second / time.Duration(opts.Freq)
	}

	t.b.mu.Lock()
	t.opts = opts
	t.active = true
	t.interval = interval
	t.deadline = t.b.store.Now().Add(interval)
	t.b.mu.Unlock()

	t.b.store.Emit("timer_init", events.Fields{
		"id":     t.id,
		"mode":   opts.Mode.String(),
		"freq":   opts.Freq,
		"period": opts.Period,
	})

	if t.b.policy == TimerImmediate && opts.Callback != nil {
		opts.Callback(t)
	}
}

// Deinit disarms the timer and drops its callback.
func (t *Timer) Deinit() {
	t.b.mu.Lock()
	t.active = false
	t.opts.Callback = nil
	t.b.mu.Unlock()
	t.b.store.Emit("timer_deinit", events.Fields{"id": t.id})
}

// Active reports whether the timer is armed.
func (t *Timer) Active() bool {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	return t.active
}

// Value returns a millisecond counter.
func (t *Timer) Value() int {
	return int(t.b.store.Now().UnixMilli() & 0xFFFFFFFF)
}

// due returns the callback invocation when the timer has expired at now and
// reschedules it. Callers hold b.mu.
func (t *Timer) due(now time.Time) func() {
	if !t.active || t.opts.Callback == nil || now.Before(t.deadline) {
		return nil
	}
	cb := t.opts.Callback
	if t.opts.Mode == TimerOneShot {
		t.active = false
	} else {
		t.deadline = t.deadline.Add(t.interval)
		if !t.deadline.After(now) {
			t.deadline = now.Add(t.interval)
		}
	}
	return func() { cb(t) }
}
