// Package config loads and saves emulator options and the simulation
// inputs that seed a session's state.
package config

// Store persists emulator options.
type Store interface {
	// Load returns the current options, or DefaultOptions if none exist.
	Load() (*Options, error)

	// Save persists opts before returning.
	Save(opts *Options) error

	// Path returns the file path used by this store.
	Path() string
}
