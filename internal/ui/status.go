package ui

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/ui/styles"
	"github.com/rowpane/rowpane/internal/uiutil"
)

// renderStatus paints the one-line status bar: dataset tag, row and
// selection counts, sort order, and on the right either a transient report,
// a spinner while data is loading, or the last background failure.
func (m *UI) renderStatus(width int) string {
	t := m.styles

	left := t.Status.Source.Render(m.name)

	counts := humanize.Comma(int64(m.engine.NumRows())) + " rows"
	if n := m.engine.Selection().Count(); n > 0 {
		counts += ", " + humanize.Comma(int64(n)) + " selected"
	}
	left += t.Status.Counts.Render(" " + counts)

	if order := m.engine.Order(); len(order) > 0 {
		left += t.Status.Bar.Render("  ") + t.Status.Order.Render(orderLabel(order))
	}

	var right string
	switch {
	case m.hasInfo:
		right = infoLabel(&t, m.info)
	case m.spinning:
		right = t.Status.Bar.Render(m.spinner.View() + " loading")
	case m.engine.Err() != nil:
		right = t.TagError.Render(styles.ErrorIcon + " " + ansi.Truncate(m.engine.Err().Error(), width/2, "…"))
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		right = ""
		gap = max(width-lipgloss.Width(left), 0)
	}
	bar := left + t.Status.Bar.Render(strings.Repeat(" ", gap)) + right
	return t.Status.Bar.MaxHeight(1).Render(ansi.Truncate(bar, width, ""))
}

func orderLabel(order grid.OrderBy) string {
	parts := make([]string, len(order))
	for i, key := range order {
		icon := styles.SortAscIcon
		if key.Direction == grid.Descending {
			icon = styles.SortDescIcon
		}
		parts[i] = key.Column + " " + icon
	}
	return strings.Join(parts, ", ")
}

func infoLabel(t *styles.Styles, info uiutil.InfoMsg) string {
	switch info.Type {
	case uiutil.InfoTypeError:
		return t.TagError.Render(styles.ErrorIcon + " " + info.Msg)
	case uiutil.InfoTypeWarn:
		return t.TagWarning.Render(styles.WarningIcon + " " + info.Msg)
	case uiutil.InfoTypeSuccess:
		return t.TagInfo.Render(styles.CheckIcon + " " + info.Msg)
	default:
		return t.TagInfo.Render(styles.InfoIcon + " " + info.Msg)
	}
}
