package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/micro-nova/pico-emu/internal/events"
)

// keepAlive is how often an idle stream gets a comment line, so proxies and
// the browser EventSource don't time it out between script bursts.
const keepAlive = 15 * time.Second

// sseEvents streams emulator events. The first frame is a "snapshot" of the
// pin table; after that every event is sent as it is emitted, named by its
// type. ?types=pin_update,adc_read limits the stream to those types.
// Slow clients miss events rather than stall the script.
func (h *Handlers) sseEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, ErrInternal("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	var types []string
	for _, t := range strings.Split(r.URL.Query().Get("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	id := uuid.NewString()
	ch := h.events.Subscribe(id, types...)
	defer h.events.Unsubscribe(id)

	snap := events.New("snapshot", events.Fields{"pins": h.board.Store().Snapshot()})
	if sendSSE(w, flusher, snap) != nil {
		return
	}

	tick := time.NewTicker(keepAlive)
	defer tick.Stop()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if sendSSE(w, flusher, ev) != nil {
				return
			}
		case <-tick.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// sendSSE writes ev as one SSE frame. A write error means the client is gone.
func sendSSE(w http.ResponseWriter, flusher http.Flusher, ev events.Event) error {
	data, err := ev.MarshalJSON()
	if err != nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
