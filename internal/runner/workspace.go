package runner

import (
	"os"
	"path/filepath"
)

// Markers identify a MicroPython project root.
var Markers = []string{
	"config.py",
	"main.py",
	".micropico",
	"py_scripts",
	"boot.py",
}

const maxWorkspaceDepth = 10

// FindWorkspaceRoot walks up from dir, at most ten levels, and returns the
// first directory containing one of Markers. It returns dir when none does.
func FindWorkspaceRoot(dir string) string {
	start, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	cur := start
	for range maxWorkspaceDepth {
		for _, m := range Markers {
			if _, err := os.Stat(filepath.Join(cur, m)); err == nil {
				return cur
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return start
}
