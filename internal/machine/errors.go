package machine

import (
	"errors"
	"fmt"
)

// Contract violations mirror the exception types raised by real MicroPython
// so that error-handling code written against the emulator transfers to a
// board. Façades wrap them with context; test with errors.Is.
var (
	ErrValue = errors.New("value error")
	ErrIndex = errors.New("index error")
)

func valueErrorf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValue)
}

func indexErrorf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrIndex)
}

// ValueErrorf builds an error wrapping ErrValue, for façades in sibling
// packages.
func ValueErrorf(format string, args ...any) error { return valueErrorf(format, args...) }

// IndexErrorf builds an error wrapping ErrIndex.
func IndexErrorf(format string, args ...any) error { return indexErrorf(format, args...) }

// HaltKind identifies why a script asked the device to stop.
type HaltKind string

const (
	HaltReset      HaltKind = "reset"
	HaltSoftReset  HaltKind = "soft_reset"
	HaltDeepSleep  HaltKind = "deepsleep"
	HaltBootloader HaltKind = "bootloader"
)

// Halt is the terminal status returned by Reset, SoftReset, DeepSleep and
// Bootloader. It is not a failure: the script returns it and the runner ends
// the session with a clean exit.
type Halt struct {
	Kind    HaltKind
	Message string
}

func (h *Halt) Error() string { return h.Message }
