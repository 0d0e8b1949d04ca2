package machine

import (
	"context"
	"time"
)

// Ticks wrap like the port's small-int counters.
const (
	ticksPeriod = 1 << 30
	ticksMask   = ticksPeriod - 1
	ticksHalf   = ticksPeriod / 2

	minSleep = 100 * time.Microsecond
)

// TicksMs returns a wrapping millisecond counter.
func (b *Board) TicksMs() int { return int(b.Uptime().Milliseconds()) & ticksMask }

// TicksUs returns a wrapping microsecond counter.
func (b *Board) TicksUs() int { return int(b.Uptime().Microseconds()) & ticksMask }

// TicksDiff returns the signed distance end - start, accounting for wrap.
func TicksDiff(end, start int) int {
	return ((end-start+ticksHalf)&ticksMask) - ticksHalf
}

// TicksAdd offsets a tick value, wrapping.
func TicksAdd(ticks, delta int) int { return (ticks + delta) & ticksMask }

// SleepMs blocks for ms milliseconds or until ctx is done.
func (b *Board) SleepMs(ctx context.Context, ms int) error {
	return b.Sleep(ctx, time.Duration(ms)*time.Millisecond)
}

// SleepUs blocks for us microseconds. Sleeps under 100µs return at once.
func (b *Board) SleepUs(ctx context.Context, us int) error {
	return b.Sleep(ctx, time.Duration(us)*time.Microsecond)
}

// Sleep blocks for d on the board's sleeper.
func (b *Board) Sleep(ctx context.Context, d time.Duration) error {
	if d < minSleep {
		return ctx.Err()
	}
	return b.sleep(ctx, d)
}
