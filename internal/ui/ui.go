// Package ui hosts the terminal front end: a virtualized grid over an
// engine, plus the status bar, help, and the column finder overlay. All row
// math lives in the engine; this package only turns raw input into engine
// gestures and paints what the engine reports.
package ui

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/ultraviolet/screen"

	"github.com/rowpane/rowpane/internal/config"
	"github.com/rowpane/rowpane/internal/grid"
	"github.com/rowpane/rowpane/internal/grid/engine"
	"github.com/rowpane/rowpane/internal/pubsub"
	"github.com/rowpane/rowpane/internal/ui/styles"
	"github.com/rowpane/rowpane/internal/uiutil"
)

const (
	minWidth  = 24
	minHeight = 5

	wheelRows      = 3
	defaultInfoTTL = 4 * time.Second
)

type sortedMsg struct{}

type UI struct {
	ctx    context.Context
	engine *engine.Engine
	name   string

	width, height int
	layout        layout

	keyMap   KeyMap
	styles   styles.Styles
	help     help.Model
	spinner  spinner.Model
	spinning bool

	jump *Jump

	top       int
	cursor    int
	colCursor int
	colOffset int

	pendingGlyph string
	events       <-chan pubsub.Event[grid.Event]

	info    uiutil.InfoMsg
	hasInfo bool
}

// New builds the UI over an engine. The context bounds the event
// subscription; cancel it when the program exits.
func New(ctx context.Context, eng *engine.Engine, name string, cfg *config.Config) *UI {
	m := &UI{
		ctx:          ctx,
		engine:       eng,
		name:         name,
		keyMap:       DefaultKeyMap(),
		styles:       styles.DefaultStyles(),
		pendingGlyph: cfg.Options.PendingGlyph,
		events:       eng.Events().Subscribe(ctx),
	}

	m.help = help.New()
	m.help.Styles = m.styles.Help

	m.spinner = spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(m.styles.Spinner),
	)

	return m
}

func (m *UI) Init() tea.Cmd {
	return m.listenEvents()
}

// listenEvents pumps one source event into the update loop; the handler
// re-arms it.
func (m *UI) listenEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return nil
		}
		return ev
	}
}

func (m *UI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout = m.generateLayout(m.width, m.height)
		m.help.SetWidth(m.width)
		if cmd := m.applyViewport(); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.KeyPressMsg:
		if cmd := m.handleKeyPressMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.MouseClickMsg:
		if m.jump == nil && image.Pt(msg.X, msg.Y).In(m.layout.body) {
			row := m.top + msg.Y - m.layout.body.Min.Y
			if row < m.engine.NumRows() {
				m.cursor = row
			}
		}

	case tea.MouseWheelMsg:
		if m.jump != nil {
			break
		}
		switch msg.Button {
		case tea.MouseWheelUp:
			cmds = append(cmds, m.scrollBy(-wheelRows))
		case tea.MouseWheelDown:
			cmds = append(cmds, m.scrollBy(wheelRows))
		}

	case pubsub.Event[grid.Event]:
		if msg.Type == pubsub.DeletedEvent {
			// New source identity: nothing on screen survives.
			m.top, m.cursor, m.colCursor, m.colOffset = 0, 0, 0, 0
		}
		m.clampCursor()
		if cmd := m.applyViewport(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, m.listenEvents())

	case spinner.TickMsg:
		if !m.engine.Busy() {
			m.spinning = false
			break
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case sortedMsg:
		// Conversion done; the repaint picks up the re-mapped selection.

	case jumpPickedMsg:
		m.jump = nil
		m.colCursor = msg.column

	case jumpClosedMsg:
		m.jump = nil

	case uiutil.InfoMsg:
		m.info = msg
		m.hasInfo = true
		ttl := msg.TTL
		if ttl == 0 {
			ttl = defaultInfoTTL
		}
		cmds = append(cmds, tea.Tick(ttl, func(time.Time) tea.Msg {
			return uiutil.ClearStatusMsg{}
		}))

	case uiutil.ClearStatusMsg:
		m.hasInfo = false
	}

	if m.engine.Busy() && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}

	return m, tea.Batch(cmds...)
}

func (m *UI) handleKeyPressMsg(msg tea.KeyPressMsg) tea.Cmd {
	if key.Matches(msg, m.keyMap.Quit) && m.jump == nil {
		return tea.Quit
	}

	// Route everything to the finder while it is open.
	if m.jump != nil {
		return m.jump.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout = m.generateLayout(m.width, m.height)
		return m.applyViewport()

	case key.Matches(msg, m.keyMap.Grid.Up):
		return m.moveCursor(-1)
	case key.Matches(msg, m.keyMap.Grid.Down):
		return m.moveCursor(1)
	case key.Matches(msg, m.keyMap.Grid.PageUp):
		return m.moveCursor(-max(m.layout.body.Dy(), 1))
	case key.Matches(msg, m.keyMap.Grid.PageDown):
		return m.moveCursor(max(m.layout.body.Dy(), 1))
	case key.Matches(msg, m.keyMap.Grid.Home):
		return m.moveCursor(-m.engine.NumRows())
	case key.Matches(msg, m.keyMap.Grid.End):
		return m.moveCursor(m.engine.NumRows())

	case key.Matches(msg, m.keyMap.Grid.Left):
		m.colCursor = max(m.colCursor-1, 0)
	case key.Matches(msg, m.keyMap.Grid.Right):
		m.colCursor = min(m.colCursor+1, max(len(m.engine.Columns())-1, 0))

	case key.Matches(msg, m.keyMap.Grid.ToggleRow):
		if m.engine.NumRows() == 0 {
			break
		}
		if err := m.engine.ToggleRow(m.cursor); err != nil {
			return uiutil.ReportError(err)
		}
	case key.Matches(msg, m.keyMap.Grid.ExtendUp):
		return m.extendTo(-1)
	case key.Matches(msg, m.keyMap.Grid.ExtendDown):
		return m.extendTo(1)
	case key.Matches(msg, m.keyMap.Grid.SelectAll):
		if m.engine.NumRows() == 0 {
			break
		}
		if err := m.engine.ToggleAll(); err != nil {
			return uiutil.ReportError(err)
		}
	case key.Matches(msg, m.keyMap.Grid.ClearSelection):
		m.engine.ClearSelection()

	case key.Matches(msg, m.keyMap.Grid.Sort):
		return m.cycleSort(true)
	case key.Matches(msg, m.keyMap.Grid.SortMore):
		return m.cycleSort(false)

	case key.Matches(msg, m.keyMap.Grid.Copy):
		return m.copyRows()

	case key.Matches(msg, m.keyMap.Grid.Jump):
		m.jump = NewJump(&m.styles, m.keyMap, m.engine.Columns())
	}
	return nil
}

// moveCursor shifts the row cursor and scrolls the minimal amount to keep it
// on screen.
func (m *UI) moveCursor(delta int) tea.Cmd {
	numRows := m.engine.NumRows()
	if numRows == 0 {
		return nil
	}
	m.cursor = min(max(m.cursor+delta, 0), numRows-1)

	h := max(m.layout.body.Dy(), 1)
	if m.cursor < m.top {
		m.top = m.cursor
	} else if m.cursor >= m.top+h {
		m.top = m.cursor - h + 1
	}
	return m.applyViewport()
}

// scrollBy moves the window without a deliberate cursor gesture; the cursor
// is dragged along only when it would fall off screen.
func (m *UI) scrollBy(delta int) tea.Cmd {
	numRows := m.engine.NumRows()
	if numRows == 0 {
		return nil
	}
	h := max(m.layout.body.Dy(), 1)
	m.top = min(max(m.top+delta, 0), max(numRows-h, 0))
	m.cursor = min(max(m.cursor, m.top), m.top+h-1)
	m.cursor = min(m.cursor, numRows-1)
	return m.applyViewport()
}

func (m *UI) extendTo(delta int) tea.Cmd {
	numRows := m.engine.NumRows()
	if numRows == 0 {
		return nil
	}
	m.cursor = min(max(m.cursor+delta, 0), numRows-1)
	if err := m.engine.ExtendTo(m.cursor); err != nil {
		return uiutil.ReportError(err)
	}
	return m.moveCursor(0)
}

func (m *UI) clampCursor() {
	numRows := m.engine.NumRows()
	if numRows == 0 {
		m.top, m.cursor = 0, 0
		return
	}
	m.cursor = min(m.cursor, numRows-1)
	m.top = min(m.top, max(numRows-1, 0))
}

// applyViewport feeds the current scroll position to the engine, which
// schedules whatever fetch the new window needs.
func (m *UI) applyViewport() tea.Cmd {
	_, err := m.engine.SetViewport(
		float64(m.top),
		float64(max(m.layout.body.Dy(), 0)),
		float64(m.engine.NumRows()),
	)
	if err != nil {
		return uiutil.ReportError(err)
	}
	return nil
}

// cycleSort advances the cursor column through ascending, descending, off.
// single replaces the whole order; otherwise the other keys stay in place.
func (m *UI) cycleSort(single bool) tea.Cmd {
	cols := m.engine.Columns()
	if m.colCursor >= len(cols) {
		return nil
	}
	order := cycleOrder(m.engine.Order(), cols[m.colCursor], single)
	return func() tea.Msg {
		if err := m.engine.SetOrderBy(m.ctx, order); err != nil && !grid.IsAborted(err) {
			return uiutil.InfoMsg{Type: uiutil.InfoTypeError, Msg: err.Error()}
		}
		return sortedMsg{}
	}
}

func cycleOrder(order grid.OrderBy, col string, single bool) grid.OrderBy {
	at := -1
	for i, key := range order {
		if key.Column == col {
			at = i
			break
		}
	}

	switch {
	case at < 0:
		key := grid.SortKey{Column: col, Direction: grid.Ascending}
		if single {
			return grid.OrderBy{key}
		}
		return append(append(grid.OrderBy{}, order...), key)
	case order[at].Direction == grid.Ascending:
		if single {
			return grid.OrderBy{{Column: col, Direction: grid.Descending}}
		}
		next := append(grid.OrderBy{}, order...)
		next[at].Direction = grid.Descending
		return next
	default:
		if single {
			return nil
		}
		return append(append(grid.OrderBy{}, order[:at]...), order[at+1:]...)
	}
}

// copyRows copies the selected rows, or the cursor row when nothing is
// selected, as TSV. Rows with pending cells are skipped; resolvedness is the
// engine's call, not ours.
func (m *UI) copyRows() tea.Cmd {
	if m.engine.NumRows() == 0 {
		return uiutil.ReportWarn("Nothing to copy")
	}

	ranges := m.engine.Selection().Ranges()
	if len(ranges) == 0 {
		ranges = []grid.Range{{Start: m.cursor, End: m.cursor + 1}}
	}

	var rows [][]grid.Cell
	for _, r := range ranges {
		rows = append(rows, m.engine.Rows(r)...)
	}

	text, copied := buildTSV(m.engine.Columns(), rows)
	if copied == 0 {
		return uiutil.ReportWarn("Rows are still loading, try again")
	}

	report := fmt.Sprintf("Copied %d rows", copied)
	if skipped := len(rows) - copied; skipped > 0 {
		report = fmt.Sprintf("%s (%d still loading)", report, skipped)
	}

	text = clampClipboard(text)
	if err := writeClipboard(text); err != nil {
		// No system clipboard reachable; let the terminal take it via OSC 52.
		return tea.Batch(tea.SetClipboard(text), uiutil.ReportSuccess(report))
	}
	return uiutil.ReportSuccess(report)
}

// Draw implements [tea.Layer] and draws the UI model.
func (m *UI) Draw(scr uv.Screen, area uv.Rectangle) {
	layout := m.generateLayout(area.Dx(), area.Dy())
	if m.layout != layout {
		m.layout = layout
	}

	screen.Clear(scr)

	if area.Dx() < minWidth || area.Dy() < minHeight {
		small := uv.NewStyledString(m.styles.WindowTooSmall.Render("Window too small"))
		small.Draw(scr, area)
		return
	}

	width := layout.body.Dx()
	rows := m.engine.Rows(grid.Range{Start: m.top, End: m.top + layout.body.Dy()})
	geo := m.gridGeometry(width, rows)

	header := uv.NewStyledString(m.renderHeader(geo, width))
	header.Draw(scr, layout.header)

	body := uv.NewStyledString(m.renderRows(geo, rows, width, layout.body.Dy()))
	body.Draw(scr, layout.body)

	status := uv.NewStyledString(m.renderStatus(layout.status.Dx()))
	status.Draw(scr, layout.status)

	helpView := uv.NewStyledString(m.help.View(m))
	helpView.Draw(scr, layout.help)

	// This needs to come last to overlay on top of everything
	if m.jump != nil {
		view := m.jump.View()
		rect := centerRect(area, lipgloss.Width(view), lipgloss.Height(view))
		uv.NewStyledString(view).Draw(scr, rect)
	}
}

// Cursor returns the cursor position and properties for the UI model. It
// returns nil if the cursor should not be shown.
func (m *UI) Cursor() *tea.Cursor {
	if m.jump == nil {
		return nil
	}
	cur := m.jump.Cursor()
	if cur == nil {
		return nil
	}
	view := m.jump.View()
	rect := centerRect(m.layout.area, lipgloss.Width(view), lipgloss.Height(view))
	cur.X += rect.Min.X
	cur.Y += rect.Min.Y
	return cur
}

// View renders the UI model's view.
func (m *UI) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.BackgroundColor = m.styles.Background
	v.Cursor = m.Cursor()
	v.MouseMode = tea.MouseModeCellMotion

	canvas := uv.NewScreenBuffer(m.width, m.height)
	m.Draw(canvas, canvas.Bounds())

	content := strings.ReplaceAll(canvas.Render(), "\r\n", "\n") // normalize newlines
	contentLines := strings.Split(content, "\n")
	for i, line := range contentLines {
		// Trim trailing spaces for concise rendering
		contentLines[i] = strings.TrimRight(line, " ")
	}
	v.Content = strings.Join(contentLines, "\n")

	return v
}

// ShortHelp implements [help.KeyMap].
func (m *UI) ShortHelp() []key.Binding {
	k := &m.keyMap
	if m.jump != nil {
		return []key.Binding{k.Jump.Select, k.Jump.Close}
	}
	return []key.Binding{
		k.Grid.ToggleRow,
		k.Grid.Sort,
		k.Grid.Jump,
		k.Grid.Copy,
		k.Quit,
		k.Help,
	}
}

// FullHelp implements [help.KeyMap].
func (m *UI) FullHelp() [][]key.Binding {
	k := &m.keyMap
	help := k.Help
	help.SetHelp("?", "less")
	return [][]key.Binding{
		{k.Grid.Up, k.Grid.Down, k.Grid.Left, k.Grid.Right},
		{k.Grid.PageUp, k.Grid.PageDown, k.Grid.Home, k.Grid.End},
		{k.Grid.ToggleRow, k.Grid.ExtendUp, k.Grid.ExtendDown, k.Grid.SelectAll, k.Grid.ClearSelection},
		{k.Grid.Sort, k.Grid.SortMore, k.Grid.Jump, k.Grid.Copy},
		{k.Quit, help},
	}
}

// layout defines the positioning of UI elements.
type layout struct {
	area   uv.Rectangle
	header uv.Rectangle
	body   uv.Rectangle
	status uv.Rectangle
	help   uv.Rectangle
}

// generateLayout calculates the layout rectangles for all UI components
// based on the window size.
func (m *UI) generateLayout(w, h int) layout {
	// The screen area we're working with
	area := image.Rect(0, 0, w, h)

	helpHeight := 1
	if m.help.ShowAll {
		for _, row := range m.FullHelp() {
			helpHeight = max(helpHeight, len(row))
		}
	}

	// Layout
	//
	// header
	// ------
	// body
	// ------
	// status
	// ------
	// help
	appRect, helpRect := uv.SplitVertical(area, uv.Fixed(max(area.Dy()-helpHeight, 0)))
	headerRect, rest := uv.SplitVertical(appRect, uv.Fixed(min(1, appRect.Dy())))
	bodyRect, statusRect := uv.SplitVertical(rest, uv.Fixed(max(rest.Dy()-1, 0)))

	return layout{
		area:   area,
		header: headerRect,
		body:   bodyRect,
		status: statusRect,
		help:   helpRect,
	}
}

// centerRect returns a new [Rectangle] centered within the given area with
// the specified width and height.
func centerRect(area uv.Rectangle, width, height int) uv.Rectangle {
	centerX := area.Min.X + area.Dx()/2
	centerY := area.Min.Y + area.Dy()/2
	minX := centerX - width/2
	minY := centerY - height/2
	maxX := minX + width
	maxY := minY + height
	return image.Rect(minX, minY, maxX, maxY)
}
