package ui

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowpane/rowpane/internal/grid"
)

func TestColumnWidths(t *testing.T) {
	t.Parallel()

	rows := [][]grid.Cell{
		{grid.CellOf("ada lovelace"), grid.CellOf(int64(36))},
		{grid.CellOf("bob"), {}},
	}
	widths := columnWidths([]string{"name", "id"}, rows)

	require.Equal(t, []int{12, minColWidth}, widths)
}

func TestColumnWidthsClampsLongValues(t *testing.T) {
	t.Parallel()

	long := grid.CellOf("this value goes on for far longer than any column should")
	widths := columnWidths([]string{"note"}, [][]grid.Cell{{long}})

	require.Equal(t, []int{maxColWidth}, widths)
}

func TestFitColumns(t *testing.T) {
	t.Parallel()

	widths := []int{10, 10, 10}

	// 10 + gap + 10 fits in 24, the third column does not.
	require.Equal(t, 2, fitColumns(widths, 0, 24))
	// At least one column renders even when it does not fit.
	require.Equal(t, 1, fitColumns(widths, 0, 4))
	require.Equal(t, 3, fitColumns(widths, 0, 100))
	require.Equal(t, 3, fitColumns(widths, 2, 10))
}

func TestEnsureColumnVisible(t *testing.T) {
	t.Parallel()

	widths := []int{10, 10, 10, 10}

	// Cursor left of the offset snaps the offset back.
	require.Equal(t, 1, ensureColumnVisible(widths, 2, 1, 24))
	// Cursor already visible leaves the offset alone.
	require.Equal(t, 0, ensureColumnVisible(widths, 0, 1, 24))
	// Cursor past the last visible column advances the offset minimally.
	require.Equal(t, 2, ensureColumnVisible(widths, 0, 3, 24))
}

func TestPad(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ada ", pad("ada", 4))
	require.Equal(t, "ada…", pad("ada lovelace", 4))
	require.Equal(t, "ada", pad("ada", 3))
}
