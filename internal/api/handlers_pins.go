package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type pinValue struct {
	Value *int `json:"value"`
}

func (h *Handlers) getPins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"pins": h.board.Store().Snapshot()})
}

func (h *Handlers) setPin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req pinValue
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Value == nil {
		writeError(w, fieldError("value", "value is required"))
		return
	}
	h.board.InjectPin(id, *req.Value)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pin":   id,
		"value": h.board.Store().PinValue(id),
	})
}

func (h *Handlers) setADC(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "pin")
	var req pinValue
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Value == nil {
		writeError(w, fieldError("value", "value is required"))
		return
	}
	st := h.board.Store()
	st.SetADCValue(id, *req.Value)
	v, _ := st.ADCValue(id)
	writeJSON(w, http.StatusOK, map[string]interface{}{"pin": id, "value": v})
}

func (h *Handlers) clearADC(w http.ResponseWriter, r *http.Request) {
	h.board.Store().ClearADCValue(chi.URLParam(r, "pin"))
	w.WriteHeader(http.StatusNoContent)
}
