// Package identity describes the running emulator instance for the control
// API and mDNS advertisement.
package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime/debug"
)

// DefaultVersion is the fallback version string when no build or metadata
// version is available.
const DefaultVersion = "0.1.0-dev"

// Info holds instance identity information.
type Info struct {
	Hostname string `json:"hostname"`
	Version  string `json:"version"`
	Board    string `json:"board"`
	Session  string `json:"session,omitempty"`
}

// TXT renders Info as DNS-SD TXT records.
func (i Info) TXT() []string {
	txt := []string{"version=" + i.Version, "board=" + i.Board}
	if i.Session != "" {
		txt = append(txt, "session="+i.Session)
	}
	return txt
}

// GetHostname returns the system hostname.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "picoemu"
	}
	return h
}

// GetVersion returns the module version stamped by `go install`, or
// DefaultVersion for development builds.
func GetVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" || bi.Main.Version == "(devel)" {
		return DefaultVersion
	}
	return bi.Main.Version
}

// GetVersionFromDir reads "version" from metadata.json in dir, falling back
// to GetVersion when the file is missing or unreadable.
func GetVersionFromDir(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return GetVersion()
	}

	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return GetVersion()
	}

	if v, ok := meta["version"].(string); ok && v != "" {
		return v
	}
	return GetVersion()
}
