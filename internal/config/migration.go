package config

import (
	"encoding/json"
	"log/slog"
	"slices"
)

const maxThrottleMS = 1000

// decodeOptions unmarshals data over the defaults so fields missing from
// older files keep their default values.
func decodeOptions(data []byte) (*Options, error) {
	opts := DefaultOptions()
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, err
	}
	migrateOptions(&opts)
	return &opts, nil
}

// migrateOptions replaces invalid values with defaults.
func migrateOptions(opts *Options) {
	def := DefaultOptions()

	if !slices.Contains(Boards, opts.Board) {
		slog.Warn("config: unknown board, using default", "board", opts.Board, "default", def.Board)
		opts.Board = def.Board
	}

	if opts.ThrottleMS < 0 || opts.ThrottleMS > maxThrottleMS {
		slog.Warn("config: throttle_ms out of range, clamping", "throttle_ms", opts.ThrottleMS)
		opts.ThrottleMS = max(0, min(maxThrottleMS, opts.ThrottleMS))
	}

	switch opts.TimerPolicy {
	case TimerPump, TimerImmediate, TimerNever:
	default:
		slog.Warn("config: unknown timer policy, using default", "timer_policy", opts.TimerPolicy)
		opts.TimerPolicy = def.TimerPolicy
	}
}
