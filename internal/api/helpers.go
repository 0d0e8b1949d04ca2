// Package api implements the HTTP control API of the emulator: input
// injection from the host editor and an SSE mirror of the event stream.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/micro-nova/pico-emu/internal/events"
	"github.com/micro-nova/pico-emu/internal/identity"
	"github.com/micro-nova/pico-emu/internal/state"
)

// maxBodyBytes caps request bodies, UART payloads included.
const maxBodyBytes = 64 << 10

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	board  Emulator
	events EventBus
	info   func() identity.Info
}

// Emulator is the part of a running board the API drives. *machine.Board
// implements it.
type Emulator interface {
	Store() *state.Store
	InjectPin(id string, v int)
	InjectUART(id int, data []byte) int
}

// EventBus is the interface for subscribing to emulator events.
type EventBus interface {
	Subscribe(id string, types ...string) <-chan events.Event
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	var appErr *AppError
	if errors.As(err, &appErr) {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(ErrInternal(err.Error()))
}

// intParam reads an integer path parameter by name.
func intParam(r *http.Request, name string) (int, error) {
	s := chi.URLParam(r, name)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fieldError(name, "invalid "+name+" parameter")
	}
	return n, nil
}

// addrParam reads a 7-bit I2C address path parameter. Hex (0x3c) is accepted.
func addrParam(r *http.Request, name string) (int, error) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 0, 0)
	if err != nil || n < 0 || n > 0x7F {
		return 0, fieldError(name, "i2c address must be 0..0x7f")
	}
	return int(n), nil
}

// decodeBody decodes a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return ErrBadRequest("invalid JSON: " + err.Error())
	}
	return nil
}
