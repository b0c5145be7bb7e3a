// Package config loads rowpane's configuration: built-in defaults, the
// global config file and per-project files, merged in that order.
package config

import (
	"cmp"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rowpane/rowpane/internal/home"
)

const appName = "rowpane"

// Defaults for the viewport knobs. A zero value in a config file means
// "use the default".
const (
	DefaultOverscan     = 20
	DefaultPadding      = 10
	DefaultSampleRows   = 100
	DefaultPendingGlyph = "…"
)

// Config is the merged configuration.
type Config struct {
	Schema  string   `json:"$schema,omitempty"`
	Options *Options `json:"options,omitempty"`

	workingDir string
}

// Options holds the user-tunable knobs.
type Options struct {
	Overscan      int    `json:"overscan,omitempty" jsonschema:"description=Rows fetched beyond the visible window in each direction,default=20"`
	Padding       int    `json:"padding,omitempty" jsonschema:"description=Extra rows kept rendered around the fetch window,default=10"`
	SampleRows    int    `json:"sample_rows,omitempty" jsonschema:"description=Rows sampled when discovering JSONL columns,default=100"`
	PendingGlyph  string `json:"pending_glyph,omitempty" jsonschema:"description=Glyph shown while a cell is still loading,default=…"`
	Follow        bool   `json:"follow,omitempty" jsonschema:"description=Keep reading growing files like tail -f"`
	Debug         bool   `json:"debug,omitempty" jsonschema:"description=Write debug logs"`
	DataDirectory string `json:"data_directory,omitempty" jsonschema:"description=Extra directory searched for datasets"`
}

// WorkingDir returns the directory the tool was started in.
func (c *Config) WorkingDir() string { return c.workingDir }

// DataDirectory returns the configured dataset directory, defaulting to
// the global data dir.
func (c *Config) DataDirectory() string {
	return cmp.Or(c.Options.DataDirectory, GlobalDataDir())
}

// LogPath returns where the log file lives.
func (c *Config) LogPath() string {
	return filepath.Join(GlobalDataDir(), "logs", appName+".log")
}

// GlobalConfig returns the path of the global config file.
func GlobalConfig() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName, appName+".json")
	}

	// localized for windows
	if runtime.GOOS == "windows" {
		localAppData := cmp.Or(os.Getenv("LOCALAPPDATA"), filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local"))
		return filepath.Join(localAppData, appName, appName+".json")
	}

	return filepath.Join(home.Dir(), ".config", appName, appName+".json")
}

// GlobalDataDir returns the main data directory.
// For windows, it is `%LOCALAPPDATA%/rowpane/`.
// For linux and macOS, it is `$HOME/.local/share/rowpane/`.
func GlobalDataDir() string {
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, appName)
	}

	if runtime.GOOS == "windows" {
		localAppData := cmp.Or(os.Getenv("LOCALAPPDATA"), filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local"))
		return filepath.Join(localAppData, appName)
	}

	return filepath.Join(home.Dir(), ".local", "share", appName)
}
