package machine

import (
	"fmt"
	"sync"

	"github.com/micro-nova/pico-emu/internal/events"
)

// Mem is a memory-mapped register view of a fixed width. Unwritten
// addresses read as zero.
type Mem struct {
	b     *Board
	width int
	event string

	mu    sync.Mutex
	cells map[uint32]uint32
}

func newMem(b *Board, width int) *Mem {
	return &Mem{
		b:     b,
		width: width,
		event: fmt.Sprintf("mem%d_write", width*8),
		cells: make(map[uint32]uint32),
	}
}

func (b *Board) Mem8() *Mem { return b.mem8 }
func (b *Board) Mem16() *Mem { return b.mem16 }
func (b *Board) Mem32() *Mem { return b.mem32 }

// Get reads addr.
func (m *Mem) Get(addr uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cells[addr]
}

// Set writes v masked to the view width.
func (m *Mem) Set(addr, v uint32) {
	v &= uint32(uint64(1)<<(m.width*8) - 1)
	m.mu.Lock()
	m.cells[addr] = v
	m.mu.Unlock()
	m.b.store.Emit(m.event, events.Fields{"addr": fmt.Sprintf("%#x", addr), "value": v})
}
