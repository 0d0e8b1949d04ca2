package machine

import (
	"bytes"
	"encoding/hex"
	"sync"

	"github.com/micro-nova/pico-emu/internal/events"
)

// Parity selects UART parity. The zero value is no parity.
type Parity int

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) value() any {
	switch p {
	case ParityEven:
		return 0
	case ParityOdd:
		return 1
	}
	return nil
}

const defaultUARTBaud = 9600

// UARTOptions configures a UART. Zero values select 9600 8N1.
type UARTOptions struct {
	Baudrate int
	Bits     int
	Parity   Parity
	Stop     int
	TX, RX   *Pin
	Loopback bool
}

func (o *UARTOptions) defaults() {
	if o.Baudrate <= 0 {
		o.Baudrate = defaultUARTBaud
	}
	if o.Bits <= 0 {
		o.Bits = 8
	}
	if o.Stop <= 0 {
		o.Stop = 1
	}
}

// UART is a serial port façade. Received bytes come from loopback of its own
// writes and from Board.InjectUART.
type UART struct {
	b        *Board
	id       int
	tx       *Pin
	baud     int
	loopback bool

	mu sync.Mutex
	rx []byte
}

// UART opens port id.
func (b *Board) UART(id int, opts UARTOptions) *UART {
	opts.defaults()
	u := &UART{b: b, id: id, tx: opts.TX, baud: opts.Baudrate, loopback: opts.Loopback}
	b.mu.Lock()
	b.uarts = append(b.uarts, u)
	board := b.uartLoopback
	b.mu.Unlock()

	b.store.Emit("uart_init", events.Fields{
		"id":       id,
		"baudrate": opts.Baudrate,
		"bits":     opts.Bits,
		"parity":   opts.Parity.value(),
		"stop":     opts.Stop,
		"tx":       pinID(opts.TX),
		"rx":       pinID(opts.RX),
		"loopback": opts.Loopback || board,
	})
	return u
}

// InjectUART appends data to the receive buffer of every open UART with id.
func (b *Board) InjectUART(id int, data []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, u := range b.uarts {
		if u.id != id {
			continue
		}
		u.mu.Lock()
		u.rx = append(u.rx, data...)
		u.mu.Unlock()
		n++
	}
	return n
}

// ID returns the port number.
func (u *UART) ID() int { return u.id }

// Baudrate returns the configured rate.
func (u *UART) Baudrate() int { return u.baud }

// Init reconfigures the port.
func (u *UART) Init(opts UARTOptions) {
	opts.defaults()
	u.baud = opts.Baudrate
}

// Deinit closes the port; it stops receiving injected data.
func (u *UART) Deinit() {
	u.b.mu.Lock()
	for i, o := range u.b.uarts {
		if o == u {
			u.b.uarts = append(u.b.uarts[:i], u.b.uarts[i+1:]...)
			break
		}
	}
	u.b.mu.Unlock()
	u.b.store.Emit("uart_deinit", events.Fields{"id": u.id})
}

// Any returns the number of buffered bytes.
func (u *UART) Any() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.rx)
}

// Read removes up to n buffered bytes; n < 0 reads everything. It returns
// nil when nothing is buffered.
func (u *UART) Read(n int) []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	if n < 0 || n > len(u.rx) {
		n = len(u.rx)
	}
	if n == 0 {
		return nil
	}
	data := bytes.Clone(u.rx[:n])
	u.rx = u.rx[n:]
	return data
}

// ReadInto fills buf from the buffer and returns the byte count.
func (u *UART) ReadInto(buf []byte) int {
	return copy(buf, u.Read(len(buf)))
}

// ReadLine removes and returns one newline-terminated line, or nil when no
// complete line is buffered.
func (u *UART) ReadLine() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	idx := bytes.IndexByte(u.rx, '\n')
	if idx < 0 {
		return nil
	}
	line := bytes.Clone(u.rx[:idx+1])
	u.rx = u.rx[idx+1:]
	return line
}

// Write transmits buf and returns the byte count.
func (u *UART) Write(buf []byte) int {
	u.b.store.Emit("uart_write", events.Fields{
		"id":   u.id,
		"data": hex.EncodeToString(buf),
		"tx":   pinID(u.tx),
	})
	if u.loopback || u.b.UARTLoopback() {
		u.mu.Lock()
		u.rx = append(u.rx, buf...)
		u.mu.Unlock()
	}
	return len(buf)
}

// SendBreak sends a break condition.
func (u *UART) SendBreak() { u.b.store.Emit("uart_break", events.Fields{"id": u.id}) }

// TxDone reports whether transmission finished; writes are instantaneous.
func (u *UART) TxDone() bool { return true }

// Flush waits for transmission to finish.
func (u *UART) Flush() {}
