package api

import (
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/micro-nova/pico-emu/internal/state"
)

func (h *Handlers) setI2CDevices(w http.ResponseWriter, r *http.Request) {
	bus, err := intParam(r, "bus")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Devices []int `json:"devices"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	for _, a := range req.Devices {
		if a < 0 || a > 0x7F {
			writeError(w, fieldError("devices", "i2c address must be 0..0x7f"))
			return
		}
	}
	st := h.board.Store()
	st.SetI2CDevices(bus, req.Devices)
	writeJSON(w, http.StatusOK, map[string]interface{}{"bus": bus, "devices": st.I2CDevices(bus)})
}

func (h *Handlers) registerI2CDevice(w http.ResponseWriter, r *http.Request) {
	bus, err := intParam(r, "bus")
	if err != nil {
		writeError(w, err)
		return
	}
	addr, err := addrParam(r, "addr")
	if err != nil {
		writeError(w, err)
		return
	}
	st := h.board.Store()
	st.RegisterI2CDevice(bus, addr)
	writeJSON(w, http.StatusOK, map[string]interface{}{"bus": bus, "devices": st.I2CDevices(bus)})
}

// setI2CResponse takes the response bytes as a hex string body. The optional
// memaddr query parameter scopes it to register reads.
func (h *Handlers) setI2CResponse(w http.ResponseWriter, r *http.Request) {
	bus, err := intParam(r, "bus")
	if err != nil {
		writeError(w, err)
		return
	}
	addr, err := addrParam(r, "addr")
	if err != nil {
		writeError(w, err)
		return
	}
	memaddr := state.NoMemAddr
	if s := r.URL.Query().Get("memaddr"); s != "" {
		n, err := strconv.ParseInt(s, 0, 0)
		if err != nil || n < 0 {
			writeError(w, fieldError("memaddr", "invalid memaddr parameter"))
			return
		}
		memaddr = int(n)
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, ErrBadRequest("read body: "+err.Error()))
		return
	}
	data, err := hex.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		writeError(w, fieldError("data", "body must be hex: "+err.Error()))
		return
	}
	h.board.Store().SetI2CResponse(bus, addr, data, memaddr)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) setAutoRespond(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Enabled == nil {
		writeError(w, fieldError("enabled", "enabled is required"))
		return
	}
	h.board.Store().SetI2CAutoRespond(*req.Enabled)
	writeJSON(w, http.StatusOK, map[string]interface{}{"enabled": *req.Enabled})
}
