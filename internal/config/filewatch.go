package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileWatch reports changes to a single file. It watches the parent
// directory so editors that save by rename are still seen.
type FileWatch struct {
	path string
	fw   *fsnotify.Watcher
	done chan struct{}
}

// WatchFile calls onChange from a background goroutine each time the file at
// path is written, created or removed. removed is true for deletes and
// renames away.
func WatchFile(path string, onChange func(removed bool)) (*FileWatch, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", abs, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", abs, err)
	}
	f := &FileWatch{path: abs, fw: fw, done: make(chan struct{})}
	go f.loop(onChange)
	return f, nil
}

// Path returns the absolute path being watched.
func (f *FileWatch) Path() string { return f.path }

// Close stops watching and waits for the last onChange call to return.
func (f *FileWatch) Close() {
	f.fw.Close()
	<-f.done
}

func (f *FileWatch) loop(onChange func(removed bool)) {
	defer close(f.done)
	for {
		select {
		case ev, ok := <-f.fw.Events:
			if !ok {
				return
			}
			if ev.Name != f.path {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				onChange(true)
			case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create):
				onChange(false)
			}
		case err, ok := <-f.fw.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watcher error", "path", f.path, "err", err)
		}
	}
}
