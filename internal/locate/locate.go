// Package locate finds tool configuration files by walking a directory
// tree upward from a starting point.
package locate

import (
	"os"
	"path/filepath"
)

// Result describes a successful upward search: the directory that
// contained a candidate, which candidate name matched, and the joined
// full path.
type Result struct {
	Dir  string
	Name string
	Path string
}

// Find searches startDir and each of its ancestors for the first
// directory containing any of the candidate names, checked in order.
// The boolean is false when no ancestor up to the filesystem root
// contains a candidate. Find has no side effects and is deterministic
// for a stable filesystem snapshot.
func Find(startDir string, names []string) (Result, bool) {
	dir := filepath.Clean(startDir)

	for {
		for _, name := range names {
			candidate := filepath.Join(dir, name)

			info, err := os.Stat(candidate)
			if err == nil && !info.IsDir() {
				return Result{Dir: dir, Name: name, Path: candidate}, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Result{}, false
		}

		dir = parent
	}
}
