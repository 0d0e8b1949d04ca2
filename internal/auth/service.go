// Package auth guards the control API with optional API keys.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/micro-nova/pico-emu/internal/config"
)

const keysFileName = "keys.json"

// Key is one entry of keys.json, indexed by client name.
type Key struct {
	AccessKey string `json:"access_key"`
	Created   string `json:"created,omitempty"`
}

// Service holds the accepted API keys: the non-empty access keys of
// keys.json, reloaded when the file changes, plus an optional static key.
// With no key at all the API is open.
type Service struct {
	path   string
	static []byte

	mu       sync.RWMutex
	accepted [][]byte

	watch *config.FileWatch
}

// NewService loads keys.json from configDir and keeps following it.
// staticKey may be empty. A corrupt keys file is an error; a missing one is not.
func NewService(configDir, staticKey string) (*Service, error) {
	s := &Service{path: filepath.Join(configDir, keysFileName)}
	if staticKey != "" {
		s.static = []byte(staticKey)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}

	w, err := config.WatchFile(s.path, func(bool) {
		if err := s.Reload(); err != nil {
			slog.Warn("auth: keeping previous keys", "path", s.path, "err", err)
		}
	})
	if err != nil {
		slog.Warn("auth: keys.json changes will not be picked up", "err", err)
	}
	s.watch = w
	return s, nil
}

// Reload re-reads keys.json. A missing file clears the file keys.
func (s *Service) Reload() error {
	keys, err := readKeys(s.path)
	if err != nil {
		return err
	}
	var accepted [][]byte
	for name, k := range keys {
		if k.AccessKey == "" {
			slog.Debug("auth: ignoring empty access key", "name", name)
			continue
		}
		accepted = append(accepted, []byte(k.AccessKey))
	}

	s.mu.Lock()
	s.accepted = accepted
	s.mu.Unlock()
	slog.Debug("auth: keys loaded", "path", s.path, "count", len(accepted))
	return nil
}

func readKeys(path string) (map[string]Key, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	var keys map[string]Key
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("auth: parse %s: %w", path, err)
	}
	return keys, nil
}

// IsOpenMode reports whether no key is configured, so every request passes.
func (s *Service) IsOpenMode() bool {
	if s.static != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accepted) == 0
}

// VerifyKey reports whether key matches the static key or a keys.json key.
// Comparisons are constant-time.
func (s *Service) VerifyKey(key string) bool {
	if key == "" {
		return false
	}
	k := []byte(key)
	if s.static != nil && subtle.ConstantTimeCompare(k, s.static) == 1 {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accepted {
		if subtle.ConstantTimeCompare(k, a) == 1 {
			return true
		}
	}
	return false
}

// Close stops following keys.json.
func (s *Service) Close() {
	if s.watch != nil {
		s.watch.Close()
	}
}
