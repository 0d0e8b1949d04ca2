// Package machine provides the simulated MicroPython `machine` API for one
// emulator session. A Board ties the peripheral façades to a state.Store;
// façades validate their call contracts, read and mutate the store, and report
// peripheral-specific transitions through it.
package machine

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/micro-nova/pico-emu/internal/state"
)

// TimerPolicy decides when Timer callbacks run. There is no interrupt
// substrate, so a callback only ever runs synchronously on the caller's
// goroutine.
type TimerPolicy string

const (
	// TimerPump fires due callbacks only when the script calls Board.Pump.
	TimerPump TimerPolicy = "pump"
	// TimerImmediate invokes the callback once from Timer.Init.
	TimerImmediate TimerPolicy = "immediate"
	// TimerNever stores callbacks without ever invoking them.
	TimerNever TimerPolicy = "never"
)

// Valid reports whether p is a known policy.
func (p TimerPolicy) Valid() bool {
	switch p {
	case TimerPump, TimerImmediate, TimerNever:
		return true
	}
	return false
}

// Options configures a Board.
type Options struct {
	// Name is the board identifier ("pico", "pico_w", "pico2w", "esp32").
	Name string

	// UARTLoopback is the initial session-wide loopback flag.
	UARTLoopback bool

	// TimerPolicy selects callback delivery. Empty means TimerPump.
	TimerPolicy TimerPolicy

	// Seed seeds the noise generator; 0 picks a random seed.
	Seed uint64

	// Sleep blocks for d. Defaults to a context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error

	// Console receives script output. Defaults to io.Discard.
	Console io.Writer
}

// DefaultOptions returns the emulator defaults: a Pico with UART loopback on
// and pumped timers.
func DefaultOptions() Options {
	return Options{Name: "pico", UARTLoopback: true, TimerPolicy: TimerPump}
}

// Board is the session context shared by every façade instance.
type Board struct {
	store   *state.Store
	name    string
	policy  TimerPolicy
	sleep   func(ctx context.Context, d time.Duration) error
	start   time.Time
	console io.Writer

	mu           sync.Mutex
	rng          *rand.Rand
	uartLoopback bool
	cpuFreq      int
	pins         map[string][]*Pin
	timers       []*Timer
	uarts        []*UART
	pending      []func()

	mem8, mem16, mem32 *Mem
}

// NewBoard creates a Board bound to store.
func NewBoard(store *state.Store, opts Options) *Board {
	if !opts.TimerPolicy.Valid() {
		opts.TimerPolicy = TimerPump
	}
	if opts.Name == "" {
		opts.Name = "pico"
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Console == nil {
		opts.Console = io.Discard
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	b := &Board{
		store:        store,
		name:         opts.Name,
		policy:       opts.TimerPolicy,
		sleep:        opts.Sleep,
		start:        store.Now(),
		console:      opts.Console,
		rng:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		uartLoopback: opts.UARTLoopback,
		cpuFreq:      defaultCPUFreq(opts.Name),
		pins:         make(map[string][]*Pin),
	}
	b.mem8 = newMem(b, 1)
	b.mem16 = newMem(b, 2)
	b.mem32 = newMem(b, 4)
	return b
}

// Store returns the session state store.
func (b *Board) Store() *state.Store { return b.store }

// Name returns the board identifier.
func (b *Board) Name() string { return b.name }

// TimerPolicy returns the configured callback policy.
func (b *Board) TimerPolicy() TimerPolicy { return b.policy }

// SetUARTLoopback toggles loopback for every UART on the board.
func (b *Board) SetUARTLoopback(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uartLoopback = enabled
}

// UARTLoopback reports the session-wide loopback flag.
func (b *Board) UARTLoopback() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uartLoopback
}

// Printf writes script output to the console, like print() on the REPL.
func (b *Board) Printf(format string, args ...any) {
	fmt.Fprintf(b.console, format, args...)
}

// randRange returns a uniform value in [lo, hi].
func (b *Board) randRange(lo, hi int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return lo + b.rng.IntN(hi-lo+1)
}

// Pump runs everything the emulator deferred on the script's behalf: pin IRQ
// handlers queued by InjectPin, then Timer callbacks that are due on the
// store clock. It returns the number of callbacks invoked. Scripts call it
// from their main loop; nothing else ever runs user callbacks.
func (b *Board) Pump() int {
	b.mu.Lock()
	calls := b.pending
	b.pending = nil
	now := b.store.Now()
	if b.policy == TimerPump {
		for _, t := range b.timers {
			if fn := t.due(now); fn != nil {
				calls = append(calls, fn)
			}
		}
	}
	b.mu.Unlock()

	for _, fn := range calls {
		fn()
	}
	return len(calls)
}

// GPIO formats a numeric pin id the way the emulator keys pins.
func GPIO(n int) string { return strconv.Itoa(n) }

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func defaultCPUFreq(board string) int {
	switch board {
	case "esp32":
		return 240_000_000
	case "pico2", "pico2w", "pico2_w":
		return 150_000_000
	}
	return 125_000_000
}
