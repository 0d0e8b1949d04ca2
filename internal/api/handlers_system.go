package api

import (
	"io"
	"net/http"
)

func (h *Handlers) injectUART(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, ErrBadRequest("read body: "+err.Error()))
		return
	}
	n := h.board.InjectUART(id, data)
	if n == 0 {
		writeError(w, ErrNotFound("no open UART with that id"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"uart": id, "bytes": len(data), "instances": n})
}

func (h *Handlers) reset(w http.ResponseWriter, r *http.Request) {
	h.board.Store().Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.info())
}
