package fsext

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestIsDataFile(t *testing.T) {
	t.Parallel()
	require.True(t, IsDataFile("people.csv"))
	require.True(t, IsDataFile("/var/log/app.jsonl"))
	require.True(t, IsDataFile("events.NDJSON"))
	require.True(t, IsDataFile("cache.sqlite3"))
	require.False(t, IsDataFile("main.go"))
	require.False(t, IsDataFile("README.md"))
	require.False(t, IsDataFile("csv"))
}

func TestListDatasets(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, root, "people.csv")
	writeFile(t, root, "logs/app.jsonl")
	writeFile(t, root, "db/cache.sqlite")
	writeFile(t, root, "main.go")
	writeFile(t, root, "node_modules/dep/data.csv")
	writeFile(t, root, "tmp/scratch.csv")
	writeFile(t, root, "secret.db")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("tmp/\nsecret.db\n"), 0o644))

	found, truncated, err := ListDatasets(root, 0)
	require.NoError(t, err)
	require.False(t, truncated)
	require.Equal(t, []string{
		filepath.Join("db", "cache.sqlite"),
		filepath.Join("logs", "app.jsonl"),
		"people.csv",
	}, found)
}

func TestListDatasetsLimit(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		writeFile(t, root, name)
	}

	found, truncated, err := ListDatasets(root, 2)
	require.NoError(t, err)
	require.True(t, truncated)
	require.Len(t, found, 2)
}
