package rp2_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/micro-nova/pico-emu/internal/events"
	"github.com/micro-nova/pico-emu/internal/machine"
	"github.com/micro-nova/pico-emu/internal/rp2"
	"github.com/micro-nova/pico-emu/internal/state"
)

func TestStateMachineIDs(t *testing.T) {
	var got []events.Event
	ch := events.NewChannel(nil)
	ch.AddObserver(func(ev events.Event) { got = append(got, ev) })
	b := machine.NewBoard(state.New(ch, state.Options{}), machine.DefaultOptions())

	pio, err := rp2.NewPIO(b, 1)
	if err != nil {
		t.Fatal(err)
	}
	sm, err := pio.StateMachine(2, rp2.Program{0xe001}, 2000)
	if err != nil {
		t.Fatal(err)
	}
	if sm.ID() != 6 {
		t.Errorf("ID() = %d, want 6", sm.ID())
	}
	sm.SetActive(true)
	sm.Put(0xff)
	if !sm.Active() || sm.Get() != 0 || sm.TxFIFO() != 0 {
		t.Errorf("active=%v get=%d tx=%d", sm.Active(), sm.Get(), sm.TxFIFO())
	}

	var types []string
	for _, ev := range got {
		types = append(types, ev.Type)
	}
	want := []string{"pio_init", "pio_sm_init", "pio_sm_active", "pio_sm_put"}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, types[i], want[i])
		}
	}

	if _, err := pio.StateMachine(4, nil, 0); !errors.Is(err, machine.ErrValue) {
		t.Errorf("StateMachine(4) err = %v", err)
	}
	if _, err := rp2.NewPIO(b, 2); !errors.Is(err, machine.ErrValue) {
		t.Errorf("NewPIO(2) err = %v", err)
	}
}

func TestFlashBlocks(t *testing.T) {
	f := rp2.NewFlash()
	if got := f.IOCtl(rp2.IOCtlBlockCount, 0); got != 512 {
		t.Errorf("block count = %d, want 512", got)
	}
	if got := f.IOCtl(rp2.IOCtlBlockSize, 0); got != 4096 {
		t.Errorf("block size = %d, want 4096", got)
	}

	if err := f.WriteBlocks(3, []byte("hello"), 10); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 5)
	if err := f.ReadBlocks(3, buf, 10); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, []byte("hello")) {
		t.Errorf("ReadBlocks() = %q", buf)
	}
	if err := f.ReadBlocks(512, buf, 0); !errors.Is(err, machine.ErrIndex) {
		t.Errorf("read past end err = %v", err)
	}
}
