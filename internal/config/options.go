package config

import (
	"time"
)

// Timer policies accepted in Options.TimerPolicy.
const (
	TimerPump      = "pump"
	TimerImmediate = "immediate"
	TimerNever     = "never"
)

// Boards accepted in Options.Board.
var Boards = []string{"pico", "pico_w", "pico2w", "esp32"}

// Options are the persisted emulator settings.
type Options struct {
	Board        string `json:"board"`
	ThrottleMS   int    `json:"throttle_ms"`
	AutoRespond  bool   `json:"auto_respond"`
	UARTLoopback bool   `json:"uart_loopback"`
	TimerPolicy  string `json:"timer_policy"`
	Seed         uint64 `json:"seed"`
	APIAddr      string `json:"api_addr"`
	MDNS         bool   `json:"mdns"`
}

// DefaultOptions returns the out-of-the-box settings.
func DefaultOptions() Options {
	return Options{
		Board:        "pico",
		ThrottleMS:   1,
		AutoRespond:  true,
		UARTLoopback: true,
		TimerPolicy:  TimerPump,
	}
}

// ThrottleWindow converts ThrottleMS for state.Options. Zero disables
// throttling, which the store expresses as a negative window.
func (o *Options) ThrottleWindow() time.Duration {
	if o.ThrottleMS <= 0 {
		return -1
	}
	return time.Duration(o.ThrottleMS) * time.Millisecond
}
