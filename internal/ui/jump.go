package ui

import (
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/rivo/uniseg"
	"github.com/sahilm/fuzzy"

	"github.com/rowpane/rowpane/internal/ui/styles"
	"github.com/rowpane/rowpane/internal/uiutil"
)

const jumpMaxItems = 8

type (
	jumpPickedMsg struct{ column int }
	jumpClosedMsg struct{}
)

type jumpItem struct {
	name   string
	column int
	match  fuzzy.Match
}

// Jump is the fuzzy column finder overlay.
type Jump struct {
	t       *styles.Styles
	keyMap  KeyMap
	input   textinput.Model
	help    help.Model
	columns []string
	items   []jumpItem
	focused int
	width   int
}

func NewJump(t *styles.Styles, keyMap KeyMap, columns []string) *Jump {
	j := &Jump{
		t:       t,
		keyMap:  keyMap,
		columns: columns,
		width:   40,
	}

	j.input = textinput.New()
	j.input.SetVirtualCursor(false)
	j.input.Placeholder = "Type to filter"
	j.input.SetStyles(t.TextInput)
	j.input.Focus()

	j.help = help.New()
	j.help.Styles = t.DialogHelpStyles()

	j.filter("")
	return j
}

// Update handles key presses while the finder is open. Everything that is
// not a finder gesture feeds the filter input.
func (j *Jump) Update(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches(msg, j.keyMap.Jump.Close):
		return uiutil.CmdHandler(jumpClosedMsg{})
	case key.Matches(msg, j.keyMap.Jump.Select):
		if len(j.items) == 0 {
			return uiutil.CmdHandler(jumpClosedMsg{})
		}
		return uiutil.CmdHandler(jumpPickedMsg{column: j.items[j.focused].column})
	case key.Matches(msg, j.keyMap.Jump.Next):
		if len(j.items) > 0 {
			j.focused = (j.focused + 1) % len(j.items)
		}
	case key.Matches(msg, j.keyMap.Jump.Previous):
		if len(j.items) > 0 {
			j.focused = (j.focused + len(j.items) - 1) % len(j.items)
		}
	default:
		input, cmd := j.input.Update(msg)
		j.input = input
		j.filter(j.input.Value())
		return cmd
	}
	return nil
}

// filter rebuilds the item list for query, keeping source order for an empty
// query and fuzzy score order otherwise.
func (j *Jump) filter(query string) {
	j.items = j.items[:0]
	if strings.TrimSpace(query) == "" {
		for i, col := range j.columns {
			j.items = append(j.items, jumpItem{name: col, column: i})
		}
	} else {
		for _, m := range fuzzy.Find(query, j.columns) {
			j.items = append(j.items, jumpItem{name: m.Str, column: m.Index, match: m})
		}
	}
	if j.focused >= len(j.items) {
		j.focused = 0
	}
}

func (j *Jump) View() string {
	t := j.t
	inner := j.width - t.Dialog.View.GetHorizontalFrameSize()
	j.input.SetWidth(inner - 1)

	parts := []string{
		t.Dialog.Title.Render(ansi.Truncate("Jump to column", inner, "…")),
		"",
		t.Dialog.InputPrompt.Render(j.input.View()),
	}

	shown := min(len(j.items), jumpMaxItems)
	for i := range shown {
		item := j.items[i]
		parts = append(parts, j.renderItem(item, i == j.focused, inner))
	}
	if len(j.items) == 0 {
		parts = append(parts, t.Subtle.Render("No matching columns"))
	}

	j.help.SetWidth(inner)
	parts = append(parts, "", t.Dialog.HelpView.Render(j.help.ShortHelpView([]key.Binding{
		j.keyMap.Jump.Select,
		j.keyMap.Jump.Close,
	})))

	return t.Dialog.View.Width(j.width).Render(strings.Join(parts, "\n"))
}

// renderItem draws one column candidate, underlining the runs of the fuzzy
// match.
func (j *Jump) renderItem(item jumpItem, focused bool, width int) string {
	style := j.t.Dialog.NormalItem
	if focused {
		style = j.t.Dialog.SelectedItem
	}

	name := ansi.Truncate(item.name, max(0, width-style.GetHorizontalFrameSize()), "…")
	content := name
	if len(item.match.MatchedIndexes) > 0 {
		var lastPos int
		parts := make([]string, 0)
		for _, rng := range matchedRanges(item.match.MatchedIndexes) {
			start, stop := bytePosToVisibleCharPos(name, rng)
			if start > lastPos {
				parts = append(parts, name[lastPos:start])
			}
			// [ansi.Style] toggles just the underline attribute, so the
			// item style underneath survives the highlight.
			parts = append(parts,
				ansi.NewStyle().Underline(true).String(),
				name[start:stop+1],
				ansi.NewStyle().Underline(false).String(),
			)
			lastPos = stop + 1
		}
		if lastPos < len(name) {
			parts = append(parts, name[lastPos:])
		}
		content = strings.Join(parts, "")
	}

	return style.Width(width).Render(content)
}

// Cursor returns the filter input's cursor, offset into the dialog frame.
func (j *Jump) Cursor() *tea.Cursor {
	cur := j.input.Cursor()
	if cur == nil {
		return nil
	}
	view := j.t.Dialog.View
	cur.X += view.GetBorderLeftSize() + view.GetPaddingLeft()
	// title and its trailing blank line sit above the input
	cur.Y += view.GetBorderTopSize() + view.GetPaddingTop() + 2
	return cur
}

var _ uiutil.Cursor = (*Jump)(nil)

func matchedRanges(in []int) [][2]int {
	if len(in) == 0 {
		return [][2]int{}
	}
	current := [2]int{in[0], in[0]}
	if len(in) == 1 {
		return [][2]int{current}
	}
	var out [][2]int
	for i := 1; i < len(in); i++ {
		if in[i] == current[1]+1 {
			current[1] = in[i]
		} else {
			out = append(out, current)
			current = [2]int{in[i], in[i]}
		}
	}
	out = append(out, current)
	return out
}

func bytePosToVisibleCharPos(str string, rng [2]int) (int, int) {
	bytePos, byteStart, byteStop := 0, rng[0], rng[1]
	pos, start, stop := 0, 0, 0
	gr := uniseg.NewGraphemes(str)
	for byteStart > bytePos {
		if !gr.Next() {
			break
		}
		bytePos += len(gr.Str())
		pos += max(1, gr.Width())
	}
	start = pos
	for byteStop > bytePos {
		if !gr.Next() {
			break
		}
		bytePos += len(gr.Str())
		pos += max(1, gr.Width())
	}
	stop = pos
	return start, stop
}
