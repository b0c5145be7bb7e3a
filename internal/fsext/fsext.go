// Package fsext finds dataset files on disk.
package fsext

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	ignore "github.com/sabhiram/go-gitignore"
)

// commonIgnore are directories never worth descending into when looking
// for datasets.
var commonIgnore = []string{
	".git",
	".hg",
	".svn",
	".idea",
	".vscode",
	"node_modules",
	"vendor",
	"__pycache__",
}

// dataPatterns match the file kinds the tool can open.
var dataPatterns = []string{
	"*.csv",
	"*.jsonl",
	"*.ndjson",
	"*.db",
	"*.sqlite",
	"*.sqlite3",
}

// IsDataFile reports whether path names a file kind the tool can open.
func IsDataFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, pattern := range dataPatterns {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// ListDatasets walks root and returns the dataset files under it, relative
// to root and sorted. A .gitignore at root is honored. With limit > 0 the
// walk stops after limit hits; the second result reports whether it was
// cut short.
func ListDatasets(root string, limit int) ([]string, bool, error) {
	var ign *ignore.GitIgnore
	if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		ign = ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
	}

	var (
		mu        sync.Mutex
		found     []string
		truncated bool
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			if slices.Contains(commonIgnore, d.Name()) {
				return filepath.SkipDir
			}
			if ign != nil && ign.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsDataFile(path) {
			return nil
		}
		if ign != nil && ign.MatchesPath(rel) {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		if limit > 0 && len(found) >= limit {
			truncated = true
			return filepath.SkipAll
		}
		found = append(found, rel)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	slices.Sort(found)
	return found, truncated, nil
}
