package events

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// OpenSerial opens a serial device as an additional event sink, e.g. for a
// companion board that renders the pin panel on real LEDs. Pair it with
// WriteTo to attach it to a Channel.
func OpenSerial(dev string, baud int) (io.WriteCloser, error) {
	if baud <= 0 {
		baud = 115200
	}
	port, err := serial.Open(dev, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("events: open serial %s: %w", dev, err)
	}
	return port, nil
}
