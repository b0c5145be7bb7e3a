// Package home resolves the user's home directory once and pretty-prints
// paths under it.
package home

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var dir = sync.OnceValue(func() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.Getenv("HOME")
})

// Dir returns the user's home directory.
func Dir() string { return dir() }

// Short replaces the home directory prefix of path with ~.
func Short(path string) string {
	home := Dir()
	if home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return filepath.Join("~", rest)
	}
	return path
}

// Long expands a leading ~ back into the home directory.
func Long(path string) string {
	if path == "~" {
		return Dir()
	}
	if rest, ok := strings.CutPrefix(path, "~"+string(filepath.Separator)); ok {
		return filepath.Join(Dir(), rest)
	}
	return path
}
