// Package rp2 simulates the RP2040-specific `rp2` module: PIO blocks, their
// state machines, the internal flash block device and the BOOTSEL button.
package rp2

import (
	"github.com/micro-nova/pico-emu/internal/events"
	"github.com/micro-nova/pico-emu/internal/machine"
)

const (
	numPIO      = 2
	smPerPIO    = 4
	PIO0Base    = 0x50200000
	PIO1Base    = 0x50300000
	defaultSMHz = -1
)

// Program is an assembled PIO program. The emulator never executes it.
type Program []uint16

// PIO is one programmable I/O block.
type PIO struct {
	b  *machine.Board
	id int
}

// NewPIO opens PIO block id (0 or 1).
func NewPIO(b *machine.Board, id int) (*PIO, error) {
	if id < 0 || id >= numPIO {
		return nil, machine.ValueErrorf("invalid PIO %d", id)
	}
	b.Store().Emit("pio_init", events.Fields{"id": id})
	return &PIO{b: b, id: id}, nil
}

// ID returns the block number.
func (p *PIO) ID() int { return p.id }

// StateMachine returns state machine i (0-3) of this block, loaded with
// prog. freq <= 0 runs at the system clock.
func (p *PIO) StateMachine(i int, prog Program, freq int) (*StateMachine, error) {
	if i < 0 || i >= smPerPIO {
		return nil, machine.ValueErrorf("invalid state machine %d", i)
	}
	return NewStateMachine(p.b, p.id*smPerPIO+i, prog, freq)
}

// StateMachine is a PIO state machine façade. FIFOs are always empty.
type StateMachine struct {
	b      *machine.Board
	id     int
	prog   Program
	freq   int
	active bool
}

// NewStateMachine creates global state machine id (0-7).
func NewStateMachine(b *machine.Board, id int, prog Program, freq int) (*StateMachine, error) {
	if id < 0 || id >= numPIO*smPerPIO {
		return nil, machine.ValueErrorf("invalid state machine %d", id)
	}
	if freq <= 0 {
		freq = defaultSMHz
	}
	b.Store().Emit("pio_sm_init", events.Fields{"id": id, "freq": freq})
	return &StateMachine{b: b, id: id, prog: prog, freq: freq}, nil
}

func (sm *StateMachine) ID() int { return sm.id }
func (sm *StateMachine) Active() bool { return sm.active }

// SetActive starts or stops the machine.
func (sm *StateMachine) SetActive(on bool) {
	sm.active = on
	sm.b.Store().Emit("pio_sm_active", events.Fields{"id": sm.id, "active": on})
}

// Restart resets the machine's internal state.
func (sm *StateMachine) Restart() {
	sm.b.Store().Emit("pio_sm_restart", events.Fields{"id": sm.id})
}

// Exec runs one instruction.
func (sm *StateMachine) Exec(instr uint16) {
	sm.b.Store().Emit("pio_sm_exec", events.Fields{"id": sm.id, "instr": instr})
}

// Put pushes a word to the TX FIFO.
func (sm *StateMachine) Put(v uint32) {
	sm.b.Store().Emit("pio_sm_put", events.Fields{"id": sm.id, "value": v})
}

// Get pops a word from the RX FIFO.
func (sm *StateMachine) Get() uint32 { return 0 }

func (sm *StateMachine) TxFIFO() int { return 0 }
func (sm *StateMachine) RxFIFO() int { return 0 }

// BootselButton reports whether BOOTSEL is held.
func BootselButton() int { return 0 }
