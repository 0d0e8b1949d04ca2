package scripts_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/micro-nova/pico-emu/internal/events"
	"github.com/micro-nova/pico-emu/internal/machine"
	"github.com/micro-nova/pico-emu/internal/runner"
	"github.com/micro-nova/pico-emu/internal/scripts"
	"github.com/micro-nova/pico-emu/internal/state"
)

// newBoard returns a board whose sleeps advance a manual clock.
func newBoard(t *testing.T) (*machine.Board, map[string]int) {
	t.Helper()
	counts := make(map[string]int)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ch := events.NewChannel(nil)
	ch.AddObserver(func(ev events.Event) { counts[ev.Type]++ })
	store := state.New(ch, state.Options{Clock: func() time.Time { return now }})
	opts := machine.DefaultOptions()
	opts.Seed = 1
	opts.Sleep = func(ctx context.Context, d time.Duration) error {
		now = now.Add(d)
		return ctx.Err()
	}
	return machine.NewBoard(store, opts), counts
}

func TestDemosComplete(t *testing.T) {
	for _, d := range scripts.All() {
		t.Run(d.Name, func(t *testing.T) {
			b, counts := newBoard(t)
			res := runner.Run(context.Background(), b, d.Name, d.Run)
			if res.Status != runner.StatusOK {
				t.Fatalf("Run() = %s (%v)", res.Status, res.Err)
			}
			if counts["complete"] != 1 {
				t.Errorf("complete events = %d", counts["complete"])
			}
		})
	}
}

func TestBlinkEmitsEveryEdge(t *testing.T) {
	b, counts := newBoard(t)
	runner.Run(context.Background(), b, "blink", scripts.Blink)
	if counts["pin_update"] != 10 {
		t.Errorf("pin_update = %d, want 10", counts["pin_update"])
	}
}

func TestTimerDemoTicks(t *testing.T) {
	b, counts := newBoard(t)
	runner.Run(context.Background(), b, "timer", scripts.TimerTick)
	// Pumped every 20ms for 980ms at 5 Hz.
	if counts["pin_update"] != 4 {
		t.Errorf("pin_update = %d, want 4", counts["pin_update"])
	}
}

func TestLookup(t *testing.T) {
	if _, ok := scripts.Lookup("blink"); !ok {
		t.Error("Lookup(blink) failed")
	}
	if _, ok := scripts.Lookup("nope"); ok {
		t.Error("Lookup(nope) succeeded")
	}
}

func TestAccelDecodesBigEndian(t *testing.T) {
	var out bytes.Buffer
	store := state.New(nil, state.Options{})
	opts := machine.DefaultOptions()
	opts.Console = &out
	opts.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	b := machine.NewBoard(store, opts)

	res := runner.Run(context.Background(), b, "accel", scripts.AccelRead, runner.WithPrepare(func(s *state.Store) error {
		s.SetI2CResponse(0, 0x68, []byte{0x00, 0x10, 0xFF, 0xE0, 0x40, 0x00}, 0x3B)
		return nil
	}))
	if res.Status != runner.StatusOK {
		t.Fatalf("Run() = %s (%v)", res.Status, res.Err)
	}
	if got := strings.Count(out.String(), "x=16 y=-32 z=16384"); got != 3 {
		t.Errorf("decoded lines = %d, want 3; output:\n%s", got, out.String())
	}
}
