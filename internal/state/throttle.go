package state

import (
	"time"

	"golang.org/x/time/rate"
)

// throttle is the per-pin emission ledger. Each pin gets a limiter with a
// single token refilled once per window, so an event is allowed exactly when
// at least one window has passed since the last allowed event.
type throttle struct {
	window   time.Duration
	limiters map[string]*rate.Limiter
}

func newThrottle(window time.Duration) *throttle {
	return &throttle{window: window, limiters: make(map[string]*rate.Limiter)}
}

func (t *throttle) allow(id string, now time.Time) bool {
	if t.window <= 0 {
		return true
	}
	l, ok := t.limiters[id]
	if !ok {
		l = rate.NewLimiter(rate.Every(t.window), 1)
		t.limiters[id] = l
	}
	return l.AllowN(now, 1)
}

func (t *throttle) clear() {
	clear(t.limiters)
}
