package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/exp/golden"
	"github.com/stretchr/testify/require"

	"github.com/rowpane/rowpane/internal/grid"
)

func TestValueText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", valueText(nil))
	require.Equal(t, "true", valueText(true))
	require.Equal(t, "false", valueText(false))
	require.Equal(t, "36", valueText(int64(36)))
	require.Equal(t, "9.5", valueText(9.5))
	require.Equal(t, "ada", valueText("ada"))
	require.Equal(t, "raw", valueText([]byte("raw")))
	require.Equal(t, "0xfff0", valueText([]byte{0xff, 0xf0}))
}

func TestBuildTSV(t *testing.T) {
	rows := [][]grid.Cell{
		{grid.CellOf("ada"), grid.CellOf(int64(36)), grid.CellOf(true)},
		{grid.CellOf("bob"), grid.CellOf(int64(41)), grid.CellOf(false)},
		{grid.CellOf("eve"), grid.CellOf(nil), grid.CellOf(true)},
	}

	text, copied := buildTSV([]string{"name", "age", "active"}, rows)
	require.Equal(t, 3, copied)
	golden.RequireEqual(t, []byte(text))
}

func TestBuildTSVSkipsPendingRows(t *testing.T) {
	t.Parallel()

	rows := [][]grid.Cell{
		{grid.CellOf("ada"), grid.CellOf(int64(36))},
		{grid.CellOf("bob"), {}},
		{grid.CellOf("eve"), grid.CellOf(int64(29))},
	}

	text, copied := buildTSV([]string{"name", "age"}, rows)
	require.Equal(t, 2, copied)
	require.NotContains(t, text, "bob")
	require.Contains(t, text, "eve\t29")
}

func TestBuildTSVFlattensControlCharacters(t *testing.T) {
	t.Parallel()

	rows := [][]grid.Cell{
		{grid.CellOf("a\tb\nc\r")},
	}

	text, copied := buildTSV([]string{"note"}, rows)
	require.Equal(t, 1, copied)
	require.Equal(t, "note\na b c\n", text)
}

func TestClampClipboardKeepsSmallPayloads(t *testing.T) {
	t.Parallel()

	content := "name\tage\nada\t36\n"
	require.Equal(t, content, clampClipboard(content))
}

func TestClampClipboardMarksDroppedMiddle(t *testing.T) {
	t.Parallel()

	line := strings.Repeat("x", 99) + "\n"
	content := strings.Repeat(line, 2*maxClipboardLength/100)

	clamped := clampClipboard(content)
	require.Less(t, len(clamped), len(content))
	require.Contains(t, clamped, "omitted")
	require.True(t, strings.HasPrefix(clamped, content[:100]))
	require.True(t, strings.HasSuffix(clamped, content[len(content)-100:]))
}
