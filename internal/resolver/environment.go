package resolver

import (
	"os"
	"path/filepath"
)

// Environment supplies the base directories to search, in priority order.
type Environment interface {
	BaseDirectories() []string
}

// StaticEnvironment is a fixed list of base directories.
type StaticEnvironment []string

// BaseDirectories implements Environment.
func (s StaticEnvironment) BaseDirectories() []string {
	return append([]string(nil), s...)
}

// OSEnvironment reads base directories from the running process.
//
// The order is:
//  1. The directory containing the executable (application base directory)
//  2. The current working directory, when IncludeWorkingDir is set
//  3. SearchDirs, in the given order
//
// Empty entries and duplicates are dropped, keeping the first occurrence.
type OSEnvironment struct {
	// SearchDirs are additional directories searched after the built-in ones.
	SearchDirs []string

	// IncludeWorkingDir adds the current working directory after the
	// application base directory.
	IncludeWorkingDir bool
}

// BaseDirectories implements Environment.
func (e OSEnvironment) BaseDirectories() []string {
	var dirs []string

	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		dirs = append(dirs, filepath.Dir(exe))
	}

	if e.IncludeWorkingDir {
		if wd, err := os.Getwd(); err == nil {
			dirs = append(dirs, wd)
		}
	}

	dirs = append(dirs, e.SearchDirs...)
	return dedupe(dirs)
}

// FileExists reports whether path names an existing regular file.
// It is the default ExistsFunc.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// dedupe removes empty and repeated directories, preserving order.
func dedupe(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d == "" {
			continue
		}
		clean := filepath.Clean(d)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}
