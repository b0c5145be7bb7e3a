package config

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qjebbs/go-jsons"
)

// Load reads and merges every config file that applies to workingDir:
// the global file first, then the project files, so the most local value
// wins. Missing files are fine; a file that fails to parse is not.
func Load(workingDir string, debug bool) (*Config, error) {
	cfg, err := loadFromConfigPaths([]string{
		GlobalConfig(),
		filepath.Join(workingDir, appName+".json"),
		filepath.Join(workingDir, "."+appName+".json"),
	})
	if err != nil {
		return nil, err
	}
	cfg.workingDir = workingDir
	cfg.Options.Debug = cfg.Options.Debug || debug
	if err := cfg.Options.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromConfigPaths(configPaths []string) (*Config, error) {
	var configs [][]byte
	for _, path := range configPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		configs = append(configs, data)
	}
	return loadFromConfigData(configs...)
}

func loadFromConfigData(data ...[]byte) (*Config, error) {
	// The empty-object seed keeps the merge well-defined with no files.
	inputs := []any{[]byte("{}")}
	for _, d := range data {
		inputs = append(inputs, d)
	}
	merged, err := jsons.Merge(inputs...)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config files: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(merged, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse merged config: %w", err)
	}
	if cfg.Options == nil {
		cfg.Options = &Options{}
	}
	cfg.Options.applyDefaults()
	return cfg, nil
}

func (o *Options) applyDefaults() {
	o.Overscan = cmp.Or(o.Overscan, DefaultOverscan)
	o.Padding = cmp.Or(o.Padding, DefaultPadding)
	o.SampleRows = cmp.Or(o.SampleRows, DefaultSampleRows)
	o.PendingGlyph = cmp.Or(o.PendingGlyph, DefaultPendingGlyph)
}

func (o *Options) validate() error {
	if o.Overscan < 0 {
		return fmt.Errorf("overscan must not be negative, got %d", o.Overscan)
	}
	if o.Padding < 0 {
		return fmt.Errorf("padding must not be negative, got %d", o.Padding)
	}
	if o.SampleRows < 1 {
		return fmt.Errorf("sample_rows must be positive, got %d", o.SampleRows)
	}
	return nil
}
