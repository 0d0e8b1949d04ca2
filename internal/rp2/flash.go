package rp2

import (
	"github.com/micro-nova/pico-emu/internal/machine"
)

const (
	flashSize      = 2 << 20
	flashBlockSize = 4096

	IOCtlBlockCount = 4
	IOCtlBlockSize  = 5
)

// Flash is the on-board flash as a block device.
type Flash struct {
	data []byte
}

// NewFlash returns an erased (zeroed) 2 MiB flash.
func NewFlash() *Flash {
	return &Flash{data: make([]byte, flashSize)}
}

// ReadBlocks fills buf starting offset bytes into block.
func (f *Flash) ReadBlocks(block int, buf []byte, offset int) error {
	start, err := f.span(block, offset, len(buf))
	if err != nil {
		return err
	}
	copy(buf, f.data[start:])
	return nil
}

// WriteBlocks stores buf starting offset bytes into block.
func (f *Flash) WriteBlocks(block int, buf []byte, offset int) error {
	start, err := f.span(block, offset, len(buf))
	if err != nil {
		return err
	}
	copy(f.data[start:], buf)
	return nil
}

// IOCtl answers block device control queries. Unknown ops return 0.
func (f *Flash) IOCtl(op, arg int) int {
	switch op {
	case IOCtlBlockCount:
		return len(f.data) / flashBlockSize
	case IOCtlBlockSize:
		return flashBlockSize
	}
	return 0
}

func (f *Flash) span(block, offset, n int) (int, error) {
	start := block*flashBlockSize + offset
	if block < 0 || offset < 0 || start+n > len(f.data) {
		return 0, machine.IndexErrorf("flash access [%d, %d) out of range", start, start+n)
	}
	return start, nil
}
