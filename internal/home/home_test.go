package home

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShort(t *testing.T) {
	t.Parallel()
	home := Dir()
	require.NotEmpty(t, home)

	require.Equal(t, "~", Short(home))
	require.Equal(t, filepath.Join("~", "data"), Short(filepath.Join(home, "data")))
	require.Equal(t, "/etc/passwd", Short("/etc/passwd"))

	// A sibling directory sharing the prefix is not under home.
	require.Equal(t, home+"2", Short(home+"2"))
}

func TestLong(t *testing.T) {
	t.Parallel()
	home := Dir()
	require.Equal(t, home, Long("~"))
	require.Equal(t, filepath.Join(home, "data"), Long(filepath.Join("~", "data")))
	require.Equal(t, "/tmp/x", Long("/tmp/x"))
}
