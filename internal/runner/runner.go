// Package runner hosts one script execution: it resets the session, reports
// the lifecycle on the event stream and turns the script's outcome into a
// process exit code.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/micro-nova/pico-emu/internal/events"
	"github.com/micro-nova/pico-emu/internal/machine"
	"github.com/micro-nova/pico-emu/internal/state"
)

// Script is a board program.
type Script func(ctx context.Context, b *machine.Board) error

// Exit codes.
const (
	CodeOK          = 0
	CodeFailed      = 1
	CodeInterrupted = 130
)

// ExitError ends a script with an explicit status, like sys.exit.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// Exit returns an *ExitError for code.
func Exit(code int) error { return &ExitError{Code: code} }

// Status classifies how a run ended.
type Status string

const (
	StatusOK          Status = "ok"
	StatusExit        Status = "exit"
	StatusHalt        Status = "halt"
	StatusInterrupted Status = "interrupted"
	StatusException   Status = "exception"
)

// Result is the outcome of Run.
type Result struct {
	Session string
	Status  Status
	Code    int
	Err     error
}

// Option customizes Run.
type Option func(*runConfig)

type runConfig struct {
	session string
	prepare []func(*state.Store) error
}

// WithSession sets the session id reported in the start event. By default a
// random UUID is used.
func WithSession(id string) Option {
	return func(c *runConfig) { c.session = id }
}

// WithPrepare runs fn on the freshly reset store before the script starts,
// e.g. to apply input overrides that the reset would otherwise discard.
func WithPrepare(fn func(*state.Store) error) Option {
	return func(c *runConfig) { c.prepare = append(c.prepare, fn) }
}

// Run resets the board's store, emits start, runs script and emits the
// terminal event. Panics in the script are recovered and reported as an
// exception. A failing prepare step is reported the same way and the script
// does not run.
func Run(ctx context.Context, b *machine.Board, name string, script Script, opts ...Option) Result {
	var cfg runConfig
	for _, o := range opts {
		o(&cfg)
	}

	store := b.Store()
	store.Reset()

	session := cfg.session
	if session == "" {
		session = uuid.NewString()
	}
	store.Emit("start", events.Fields{"script": name, "board": b.Name(), "session": session})
	slog.Debug("runner: start", "script", name, "board", b.Name(), "session", session)

	for _, fn := range cfg.prepare {
		if err := fn(store); err != nil {
			res := classify(ctx, fmt.Errorf("runner: prepare: %w", err), "", store.Emit)
			res.Session = session
			return res
		}
	}

	err, trace := call(ctx, b, script)
	res := classify(ctx, err, trace, store.Emit)
	res.Session = session
	slog.Debug("runner: done", "script", name, "status", res.Status, "code", res.Code)
	return res
}

type panicError struct {
	value any
}

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

func call(ctx context.Context, b *machine.Board, script Script) (err error, trace string) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
			trace = string(debug.Stack())
		}
	}()
	return script(ctx, b), ""
}

func classify(ctx context.Context, err error, trace string, emit func(string, events.Fields)) Result {
	var (
		exit *ExitError
		halt *machine.Halt
		pe   *panicError
	)
	switch {
	case err == nil:
		emit("complete", events.Fields{"status": "ok"})
		return Result{Status: StatusOK, Code: CodeOK}

	case errors.As(err, &halt):
		emit("exit", events.Fields{"code": CodeOK, "message": halt.Message, "reason": string(halt.Kind)})
		return Result{Status: StatusHalt, Code: CodeOK, Err: err}

	case errors.As(err, &exit):
		emit("exit", events.Fields{"code": exit.Code})
		return Result{Status: StatusExit, Code: exit.Code, Err: err}

	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		emit("exit", events.Fields{"code": CodeInterrupted, "message": "Script interrupted by user"})
		return Result{Status: StatusInterrupted, Code: CodeInterrupted, Err: err}

	case errors.As(err, &pe):
		emit("exception", events.Fields{
			"message":   "Unhandled exception during execution",
			"traceback": fmt.Sprintf("%s\n%s", pe.Error(), trace),
		})
		return Result{Status: StatusException, Code: CodeFailed, Err: err}
	}

	fields := events.Fields{"message": err.Error(), "traceback": err.Error()}
	if hint := hintFor(err); hint != "" {
		fields["hint"] = hint
	}
	emit("exception", fields)
	return Result{Status: StatusException, Code: CodeFailed, Err: err}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, machine.ErrValue):
		return "ValueError: a peripheral argument is outside its valid range."
	case errors.Is(err, machine.ErrIndex):
		return "IndexError: an index is outside the peripheral's range."
	}
	return ""
}
