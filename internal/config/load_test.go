package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(t.TempDir(), false)
	require.NoError(t, err)
	require.Equal(t, DefaultOverscan, cfg.Options.Overscan)
	require.Equal(t, DefaultPadding, cfg.Options.Padding)
	require.Equal(t, DefaultSampleRows, cfg.Options.SampleRows)
	require.Equal(t, DefaultPendingGlyph, cfg.Options.PendingGlyph)
	require.False(t, cfg.Options.Follow)
	require.False(t, cfg.Options.Debug)
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	require.NoError(t, os.MkdirAll(filepath.Join(configHome, "rowpane"), 0o755))
	globalContent := []byte(`{"options": {"overscan": 5, "pending_glyph": "?"}}`)
	require.NoError(t, os.WriteFile(filepath.Join(configHome, "rowpane", "rowpane.json"), globalContent, 0o644))

	workingDir := t.TempDir()
	projectContent := []byte(`{"options": {"overscan": 7, "follow": true}}`)
	require.NoError(t, os.WriteFile(filepath.Join(workingDir, "rowpane.json"), projectContent, 0o644))

	cfg, err := Load(workingDir, false)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Options.Overscan, "project value wins")
	require.Equal(t, "?", cfg.Options.PendingGlyph, "global value survives where the project is silent")
	require.True(t, cfg.Options.Follow)
	require.Equal(t, DefaultPadding, cfg.Options.Padding)
	require.Equal(t, workingDir, cfg.WorkingDir())
}

func TestLoad_DebugFlagWins(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(t.TempDir(), true)
	require.NoError(t, err)
	require.True(t, cfg.Options.Debug)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	workingDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workingDir, "rowpane.json"), []byte(`{"options": {"overscan": -1}}`), 0o644))

	_, err := Load(workingDir, false)
	require.ErrorContains(t, err, "overscan")
}

func TestLoad_RejectsMalformedJSON(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	workingDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workingDir, "rowpane.json"), []byte(`{"options":`), 0o644))

	_, err := Load(workingDir, false)
	require.Error(t, err)
}

func TestGlobalPaths(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("XDG_DATA_HOME", tmp)

	require.Equal(t, filepath.Join(tmp, "rowpane", "rowpane.json"), GlobalConfig())
	require.Equal(t, filepath.Join(tmp, "rowpane"), GlobalDataDir())
}

func TestDataDirectoryOverride(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg := &Config{Options: &Options{DataDirectory: "/srv/datasets"}}
	require.Equal(t, "/srv/datasets", cfg.DataDirectory())

	cfg = &Config{Options: &Options{}}
	require.Equal(t, GlobalDataDir(), cfg.DataDirectory())
}
