package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/micro-nova/pico-emu/internal/config"
)

// --- JSONStore tests ---

func newTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "picoemu-config-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestJSONStore_LoadMissingFile_ReturnsDefault(t *testing.T) {
	store := config.NewJSONStore(newTempDir(t))

	opts, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if *opts != config.DefaultOptions() {
		t.Errorf("Load() = %+v, want defaults", *opts)
	}
}

func TestJSONStore_SaveLoadRoundTrip(t *testing.T) {
	store := config.NewJSONStore(newTempDir(t))

	opts := config.DefaultOptions()
	opts.Board = "pico2w"
	opts.ThrottleMS = 5
	opts.UARTLoopback = false
	opts.APIAddr = ":8080"

	if err := store.Save(&opts); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != opts {
		t.Errorf("Load() = %+v, want %+v", *loaded, opts)
	}
}

func TestJSONStore_CorruptJSON_ReturnsDefault(t *testing.T) {
	dir := newTempDir(t)
	store := config.NewJSONStore(dir)
	writeFile(t, filepath.Join(dir, "picoemu.json"), "{invalid json!!!")

	opts, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if *opts != config.DefaultOptions() {
		t.Errorf("corrupt JSON: Load() = %+v, want defaults", *opts)
	}
}

func TestJSONStore_PartialFile_KeepsDefaults(t *testing.T) {
	dir := newTempDir(t)
	store := config.NewJSONStore(dir)
	writeFile(t, filepath.Join(dir, "picoemu.json"), `{"board": "esp32"}`)

	opts, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if opts.Board != "esp32" {
		t.Errorf("Board = %q, want esp32", opts.Board)
	}
	if !opts.AutoRespond || !opts.UARTLoopback || opts.ThrottleMS != 1 {
		t.Errorf("missing fields lost defaults: %+v", *opts)
	}
}

func TestJSONStore_Migrates(t *testing.T) {
	tests := []struct {
		name string
		json string
		want func(*config.Options) bool
	}{
		{"unknown board", `{"board": "arduino"}`, func(o *config.Options) bool { return o.Board == "pico" }},
		{"negative throttle", `{"throttle_ms": -4}`, func(o *config.Options) bool { return o.ThrottleMS == 0 }},
		{"huge throttle", `{"throttle_ms": 99999}`, func(o *config.Options) bool { return o.ThrottleMS == 1000 }},
		{"unknown policy", `{"timer_policy": "threads"}`, func(o *config.Options) bool { return o.TimerPolicy == "pump" }},
		{"valid policy", `{"timer_policy": "never"}`, func(o *config.Options) bool { return o.TimerPolicy == "never" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newTempDir(t)
			writeFile(t, filepath.Join(dir, "picoemu.json"), tt.json)
			opts, err := config.NewJSONStore(dir).Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !tt.want(opts) {
				t.Errorf("Load() = %+v", *opts)
			}
		})
	}
}

func TestJSONStore_Path(t *testing.T) {
	dir := newTempDir(t)
	store := config.NewJSONStore(dir)
	if want := filepath.Join(dir, "picoemu.json"); store.Path() != want {
		t.Errorf("Path() = %q, want %q", store.Path(), want)
	}
}

func TestJSONStore_SaveTwice_LastWins(t *testing.T) {
	store := config.NewJSONStore(newTempDir(t))

	first := config.DefaultOptions()
	first.Board = "pico_w"
	second := config.DefaultOptions()
	second.Board = "esp32"

	if err := store.Save(&first); err != nil {
		t.Fatalf("First Save() error = %v", err)
	}
	if err := store.Save(&second); err != nil {
		t.Fatalf("Second Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Board != "esp32" {
		t.Errorf("Board = %q, want %q", loaded.Board, "esp32")
	}
}

// Save must be durable on return: no timer, no separate flush step.
func TestJSONStore_Save_WritesBeforeReturn(t *testing.T) {
	dir := newTempDir(t)
	store := config.NewJSONStore(filepath.Join(dir, "nested"))

	opts := config.DefaultOptions()
	opts.Board = "esp32"
	if err := store.Save(&opts); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("options file missing right after Save: %v", err)
	}
	if !strings.Contains(string(data), `"board": "esp32"`) {
		t.Errorf("file = %s, want board esp32", data)
	}
	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("config dir holds %v, want only picoemu.json", names)
	}
}

func TestOptions_ThrottleWindow(t *testing.T) {
	opts := config.DefaultOptions()
	if got := opts.ThrottleWindow(); got.Milliseconds() != 1 {
		t.Errorf("ThrottleWindow() = %v, want 1ms", got)
	}
	opts.ThrottleMS = 0
	if got := opts.ThrottleWindow(); got >= 0 {
		t.Errorf("ThrottleWindow() with throttle_ms 0 = %v, want negative (disabled)", got)
	}
}

// --- MemStore tests ---

func TestMemStore_LoadBeforeSave_ReturnsDefault(t *testing.T) {
	opts, err := config.NewMemStore().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *opts != config.DefaultOptions() {
		t.Errorf("Load() = %+v, want defaults", *opts)
	}
}

func TestMemStore_MutationIsolation(t *testing.T) {
	store := config.NewMemStore()
	opts := config.DefaultOptions()
	if err := store.Save(&opts); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	opts.Board = "esp32"

	loaded, _ := store.Load()
	if loaded.Board != "pico" {
		t.Errorf("mutating the saved value leaked into the store: Board = %q", loaded.Board)
	}
	loaded.Board = "pico_w"
	again, _ := store.Load()
	if again.Board != "pico" {
		t.Errorf("mutating a loaded value leaked into the store: Board = %q", again.Board)
	}
}

func TestMemStore_Path(t *testing.T) {
	if got := config.NewMemStore().Path(); got != ":memory:" {
		t.Errorf("Path() = %q, want :memory:", got)
	}
}

func TestJSONStore_Save_Normalizes(t *testing.T) {
	store := config.NewJSONStore(newTempDir(t))

	opts := config.DefaultOptions()
	opts.ThrottleMS = 5000
	opts.TimerPolicy = "sometimes"
	if err := store.Save(&opts); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"throttle_ms": 1000`) {
		t.Errorf("file does not hold clamped throttle_ms:\n%s", data)
	}
	if opts.ThrottleMS != 5000 {
		t.Error("Save() modified the caller's options")
	}
}
