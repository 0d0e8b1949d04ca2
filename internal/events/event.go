// Package events implements the emulator event stream: the tagged Event record,
// the line-oriented Channel that writes it for the host editor, and a pub/sub
// Bus for in-process consumers such as SSE clients.
package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Prefix marks an event line on the output stream. The host visualizer scans
// stdout for lines starting with it and parses the JSON object that follows.
const Prefix = "__EMU__"

// Fields is the event-specific payload of an Event.
type Fields map[string]any

// Event is a single state transition notification.
type Event struct {
	Type   string
	Fields Fields
}

// New builds an Event. A nil fields map is allowed.
func New(typ string, fields Fields) Event {
	return Event{Type: typ, Fields: fields}
}

// Get returns a payload field, or nil when absent.
func (e Event) Get(key string) any {
	if e.Fields == nil {
		return nil
	}
	return e.Fields[key]
}

// MarshalJSON flattens the event into one object with a "type" member.
// A "type" key inside Fields is ignored.
func (e Event) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := e.encode(&buf); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON is the inverse of MarshalJSON. Numbers decode as float64.
func (e *Event) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	typ, ok := m["type"].(string)
	if !ok {
		return fmt.Errorf("events: missing type field")
	}
	delete(m, "type")
	e.Type = typ
	e.Fields = m
	return nil
}

// Line renders the event as one prefixed line, including the trailing newline.
func (e Event) Line() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Prefix)
	if err := e.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e Event) encode(buf *bytes.Buffer) error {
	m := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		m[k] = v
	}
	m["type"] = e.Type

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("events: encode %s: %w", e.Type, err)
	}
	return nil
}

// ParseLine decodes a prefixed event line. ok is false for lines that are not
// events (ordinary script output).
func ParseLine(line string) (ev Event, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimRight(line, "\r\n"), Prefix)
	if !found {
		return Event{}, false
	}
	if err := json.Unmarshal([]byte(rest), &ev); err != nil {
		return Event{}, false
	}
	return ev, true
}
