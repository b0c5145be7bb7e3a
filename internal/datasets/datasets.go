// Package datasets discovers the data files a user can open, across the
// project directory and the shared data directory.
package datasets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rowpane/rowpane/internal/config"
	"github.com/rowpane/rowpane/internal/fsext"
)

const (
	projectPrefix = "project:"
	dataPrefix    = "data:"
)

// Each source is capped so a dataset dump or a giant monorepo cannot
// stall discovery.
const perSourceLimit = 500

// Dataset is one openable data file.
type Dataset struct {
	ID   string // stable id such as "project:logs:app.jsonl"
	Path string // absolute path
}

type datasetSource struct {
	path   string
	prefix string
}

// List returns every dataset found under the known sources. Sources that
// do not exist are skipped, not errors.
func List(cfg *config.Config) ([]Dataset, error) {
	return loadAll(buildSources(cfg))
}

// Resolve turns a user argument into an absolute file path: either an
// existing path, or a dataset ID as printed by List.
func Resolve(cfg *config.Config, arg string) (string, bool) {
	if _, err := os.Stat(arg); err == nil {
		abs, err := filepath.Abs(arg)
		return abs, err == nil
	}
	found, err := List(cfg)
	if err != nil {
		return "", false
	}
	for _, d := range found {
		if d.ID == arg {
			return d.Path, true
		}
	}
	return "", false
}

func buildSources(cfg *config.Config) []datasetSource {
	return []datasetSource{
		{path: cfg.WorkingDir(), prefix: projectPrefix},
		{path: cfg.DataDirectory(), prefix: dataPrefix},
	}
}

func loadAll(sources []datasetSource) ([]Dataset, error) {
	var datasets []Dataset
	for _, source := range sources {
		found, err := loadFromSource(source)
		if err != nil {
			continue
		}
		datasets = append(datasets, found...)
	}
	return datasets, nil
}

func loadFromSource(source datasetSource) ([]Dataset, error) {
	if _, err := os.Stat(source.path); err != nil {
		return nil, err
	}
	files, _, err := fsext.ListDatasets(source.path, perSourceLimit)
	if err != nil {
		return nil, err
	}

	datasets := make([]Dataset, 0, len(files))
	for _, rel := range files {
		datasets = append(datasets, Dataset{
			ID:   buildDatasetID(rel, source.prefix),
			Path: filepath.Join(source.path, rel),
		})
	}
	return datasets, nil
}

func buildDatasetID(relPath, prefix string) string {
	parts := strings.Split(relPath, string(filepath.Separator))
	return prefix + strings.Join(parts, ":")
}
