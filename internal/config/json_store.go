package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const configFileName = "picoemu.json"

// JSONStore keeps Options in picoemu.json. Writes go through a temp file and
// rename, so a crash never leaves a half-written file behind.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONStore returns a store for picoemu.json in configDir.
func NewJSONStore(configDir string) *JSONStore {
	return &JSONStore{path: filepath.Join(configDir, configFileName)}
}

// Path returns the options file path.
func (s *JSONStore) Path() string { return s.path }

// Load reads the options file. A missing or corrupt file yields
// DefaultOptions; only I/O errors are returned.
func (s *JSONStore) Load() (*Options, error) {
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		def := DefaultOptions()
		return &def, nil
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", s.path, err)
	}

	opts, err := decodeOptions(data)
	if err != nil {
		slog.Warn("config: corrupt options file, using defaults", "path", s.path, "err", err)
		def := DefaultOptions()
		return &def, nil
	}
	return opts, nil
}

// Save normalizes a copy of opts the way Load does and writes it out.
// The caller's value is left untouched.
func (s *JSONStore) Save(opts *Options) error {
	cp := *opts
	migrateOptions(&cp)
	data, err := json.MarshalIndent(&cp, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode options: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	tmp, err := os.CreateTemp(dir, configFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("config: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: write %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("config: rename %s: %w", tmp.Name(), err)
	}
	slog.Debug("config: options written", "path", s.path)
	return nil
}
