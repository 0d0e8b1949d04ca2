package config

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/micro-nova/pico-emu/internal/state"
)

// Watcher keeps a Store in sync with an inputs file. ADC channels removed
// from the file are cleared on the next reload.
type Watcher struct {
	mu    sync.Mutex
	path  string
	store *state.Store
	prev  *Inputs
	watch *FileWatch
}

// NewWatcher applies path to store and re-applies it whenever the file is
// written. If the file cannot be watched the failure is logged and the
// initial inputs still apply.
func NewWatcher(path string, store *state.Store) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{path: abs, store: store}
	if err := w.Reload(); err != nil {
		return nil, err
	}

	w.watch, err = WatchFile(abs, func(removed bool) {
		if removed {
			// Keep the last inputs until the file comes back.
			return
		}
		if err := w.Reload(); err != nil {
			slog.Warn("config: failed to reload inputs", "path", w.path, "err", err)
		}
	})
	if err != nil {
		slog.Warn("config: inputs will not be reloaded", "err", err)
	}
	return w, nil
}

// Path returns the watched inputs file.
func (w *Watcher) Path() string { return w.path }

// Reload re-reads the inputs file and applies it.
func (w *Watcher) Reload() error {
	in, err := LoadInputs(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.prev != nil {
		for id := range w.prev.ADC {
			if _, ok := in.ADC[id]; !ok {
				w.store.ClearADCValue(id)
			}
		}
	}
	if err := in.Apply(w.store); err != nil {
		return err
	}
	w.prev = in
	slog.Debug("config: applied inputs", "path", w.path, "adc", len(in.ADC), "i2c_responses", len(in.I2CResponses))
	return nil
}

// Close stops the file watcher.
func (w *Watcher) Close() {
	if w.watch != nil {
		w.watch.Close()
	}
}
