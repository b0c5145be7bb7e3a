package ui

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/ui/styles"
)

const (
	minColWidth = 4
	maxColWidth = 32
	colGap      = 2
)

// columnWidths sizes every column from its header and the rows currently on
// screen, clamped so one long value cannot eat the viewport.
func columnWidths(cols []string, rows [][]grid.Cell) []int {
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = lipgloss.Width(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			v, ok := cell.Value()
			if !ok {
				continue
			}
			if w := lipgloss.Width(flatten.Replace(valueText(v))); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i, w := range widths {
		widths[i] = min(max(w, minColWidth), maxColWidth)
	}
	return widths
}

// fitColumns returns one past the last column that fits in avail cells when
// rendering starts at column offset.
func fitColumns(widths []int, offset, avail int) int {
	end := offset
	used := 0
	for end < len(widths) {
		need := widths[end]
		if end > offset {
			need += colGap
		}
		if used+need > avail && end > offset {
			break
		}
		used += need
		end++
	}
	return end
}

// ensureColumnVisible moves the horizontal offset the minimal amount that
// brings the cursor column fully on screen.
func ensureColumnVisible(widths []int, offset, cursor, avail int) int {
	if cursor < offset {
		return cursor
	}
	for offset < cursor && fitColumns(widths, offset, avail) <= cursor {
		offset++
	}
	return offset
}

func pad(text string, width int) string {
	text = ansi.Truncate(text, width, "…")
	if gap := width - lipgloss.Width(text); gap > 0 {
		text += strings.Repeat(" ", gap)
	}
	return text
}

type gridGeometry struct {
	gutter   int
	widths   []int
	firstCol int
	lastCol  int
}

func (m *UI) gridGeometry(width int, rows [][]grid.Cell) gridGeometry {
	cols := m.engine.Columns()
	widths := columnWidths(cols, rows)

	gutter := len(strconv.Itoa(max(m.engine.NumRows(), 1)))
	avail := width - gutter - 3 // selection bar + gutter gap + separator
	m.colOffset = ensureColumnVisible(widths, m.colOffset, m.colCursor, avail)

	return gridGeometry{
		gutter:   gutter,
		widths:   widths,
		firstCol: m.colOffset,
		lastCol:  fitColumns(widths, m.colOffset, avail),
	}
}

// renderHeader paints the column-name line: sort direction on ordered
// columns, emphasis on the cursor column.
func (m *UI) renderHeader(geo gridGeometry, width int) string {
	t := m.styles
	cols := m.engine.Columns()
	order := m.engine.Order()

	dirs := make(map[string]grid.Direction, len(order))
	for _, key := range order {
		dirs[key.Column] = key.Direction
	}

	parts := make([]string, 0, geo.lastCol-geo.firstCol)
	for i := geo.firstCol; i < geo.lastCol; i++ {
		w := geo.widths[i]
		name := cols[i]
		style := t.Header.Column
		if i == m.colCursor {
			style = t.Header.Cursor
		}

		dir, sorted := dirs[name]
		if !sorted {
			parts = append(parts, style.Render(pad(name, w)))
			continue
		}

		icon := styles.SortAscIcon
		if dir == grid.Descending {
			icon = styles.SortDescIcon
		}
		if i != m.colCursor {
			style = t.Header.Sorted
		}
		name = pad(name, max(w-2, 1))
		parts = append(parts, style.Render(name+" ")+t.Header.Direction.Render(icon))
	}

	gap := t.Header.Base.Render(strings.Repeat(" ", colGap))
	line := t.Header.Base.Render(strings.Repeat(" ", geo.gutter+2)) +
		t.Header.Gutter.Render(styles.BorderThin) +
		strings.Join(parts, gap)
	return t.Header.Base.Width(width).MaxHeight(1).Render(line)
}

// renderRows paints height data rows starting at the scroll offset. Pending
// cells show the configured glyph; the host never guesses at their value.
func (m *UI) renderRows(geo gridGeometry, rows [][]grid.Cell, width, height int) string {
	t := m.styles
	sel := m.engine.Selection()
	numRows := m.engine.NumRows()

	lines := make([]string, 0, height)
	for i := range height {
		row := m.top + i
		if row >= numRows || i >= len(rows) {
			lines = append(lines, "")
			continue
		}

		isCursor := row == m.cursor
		isSelected, _ := sel.IsSelected(row) // row is within [0, numRows)

		rowStyle := t.Grid.Cell
		switch {
		case isCursor:
			rowStyle = t.Grid.CursorRow
		case isSelected:
			rowStyle = t.Grid.SelectedRow
		}

		bar := " "
		if isSelected {
			bar = t.Grid.SelectedBar.String()
		}

		gutterStyle := t.Grid.RowNumber
		if isCursor {
			gutterStyle = rowStyle
		}
		gutter := gutterStyle.Render(leftPad(strconv.Itoa(row), geo.gutter) + " ")

		parts := make([]string, 0, geo.lastCol-geo.firstCol)
		for c := geo.firstCol; c < geo.lastCol; c++ {
			w := geo.widths[c]
			cell := grid.Cell{}
			if c < len(rows[i]) {
				cell = rows[i][c]
			}

			style := rowStyle
			if !isCursor && !isSelected && c == m.colCursor {
				style = t.Grid.CursorColumn
			}

			text := m.pendingGlyph
			if v, ok := cell.Value(); ok {
				text = flatten.Replace(valueText(v))
			} else {
				style = style.Foreground(t.Grid.Pending.GetForeground())
			}
			parts = append(parts, style.Render(pad(text, w)))
		}

		line := bar + gutter + t.Subtle.Render(styles.BorderThin) +
			strings.Join(parts, rowStyle.Render(strings.Repeat(" ", colGap)))
		lines = append(lines, ansi.Truncate(line, width, ""))
	}
	return strings.Join(lines, "\n")
}

func leftPad(s string, width int) string {
	if gap := width - len(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}
