package config

import (
	"sync"
)

// MemStore is an in-memory Store for tests that never writes to disk.
type MemStore struct {
	mu   sync.Mutex
	opts *Options
}

// NewMemStore returns an empty in-memory store (Load yields DefaultOptions).
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load returns a copy of the stored options, or DefaultOptions if none were saved.
func (m *MemStore) Load() (*Options, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opts == nil {
		def := DefaultOptions()
		return &def, nil
	}
	cp := *m.opts
	return &cp, nil
}

// Save stores a copy of opts.
func (m *MemStore) Save(opts *Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *opts
	m.opts = &cp
	return nil
}

// Path returns ":memory:" to indicate this is an in-memory store.
func (m *MemStore) Path() string { return ":memory:" }

var (
	_ Store = (*MemStore)(nil)
	_ Store = (*JSONStore)(nil)
)
