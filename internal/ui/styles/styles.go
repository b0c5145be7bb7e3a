package styles

import (
	"image/color"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

const (
	CheckIcon   string = "✓"
	ErrorIcon   string = "×"
	WarningIcon string = "⚠"
	InfoIcon    string = "ⓘ"

	SortAscIcon  string = "▲"
	SortDescIcon string = "▼"

	SelectedBar string = "▌"
	BorderThin  string = "│"
)

type Styles struct {
	WindowTooSmall lipgloss.Style

	// Reusable text styles
	Base   lipgloss.Style
	Muted  lipgloss.Style
	Subtle lipgloss.Style

	// Tags
	TagBase    lipgloss.Style
	TagError   lipgloss.Style
	TagWarning lipgloss.Style
	TagInfo    lipgloss.Style

	// Inputs
	TextInput textinput.Styles

	// Help
	Help help.Styles

	// Spinner
	Spinner lipgloss.Style

	// Background
	Background color.Color

	// Column header line
	Header struct {
		Base      lipgloss.Style
		Column    lipgloss.Style
		Cursor    lipgloss.Style
		Sorted    lipgloss.Style
		Direction lipgloss.Style
		Gutter    lipgloss.Style
	}

	// Grid body
	Grid struct {
		Cell         lipgloss.Style
		Pending      lipgloss.Style
		RowNumber    lipgloss.Style
		CursorRow    lipgloss.Style
		SelectedRow  lipgloss.Style
		SelectedBar  lipgloss.Style
		CursorColumn lipgloss.Style
	}

	// Status bar
	Status struct {
		Bar    lipgloss.Style
		Source lipgloss.Style
		Counts lipgloss.Style
		Order  lipgloss.Style
	}

	// Dialogs
	Dialog struct {
		View         lipgloss.Style
		Title        lipgloss.Style
		InputPrompt  lipgloss.Style
		List         lipgloss.Style
		NormalItem   lipgloss.Style
		SelectedItem lipgloss.Style
		HelpView     lipgloss.Style
	}
}

// DialogHelpStyles returns the help styles for use inside dialogs, where the
// surface sits on the overlay background instead of the base one.
func (s *Styles) DialogHelpStyles() help.Styles {
	hs := s.Help
	hs.ShortKey = hs.ShortKey.UnsetBackground()
	hs.ShortDesc = hs.ShortDesc.UnsetBackground()
	return hs
}

func DefaultStyles() Styles {
	var (
		primary   = charmtone.Charple
		secondary = charmtone.Dolly
		tertiary  = charmtone.Bok

		// Backgrounds
		bgBase        = charmtone.Pepper
		bgBaseLighter = charmtone.BBQ
		bgSubtle      = charmtone.Charcoal
		bgOverlay     = charmtone.Iron

		// Foregrounds
		fgBase      = charmtone.Ash
		fgMuted     = charmtone.Squid
		fgHalfMuted = charmtone.Smoke
		fgSubtle    = charmtone.Oyster
		fgSelected  = charmtone.Salt

		// Borders
		border = charmtone.Charcoal

		// Status
		warning = charmtone.Zest

		// Colors
		white     = charmtone.Butter
		green     = charmtone.Julep
		blueLight = charmtone.Sardine
		redDark   = charmtone.Sriracha
	)

	base := lipgloss.NewStyle().Foreground(fgBase)

	s := Styles{}

	s.Background = bgBase

	s.TextInput = textinput.Styles{
		Focused: textinput.StyleState{
			Text:        base,
			Placeholder: base.Foreground(fgSubtle),
			Prompt:      base.Foreground(tertiary),
			Suggestion:  base.Foreground(fgSubtle),
		},
		Blurred: textinput.StyleState{
			Text:        base.Foreground(fgMuted),
			Placeholder: base.Foreground(fgSubtle),
			Prompt:      base.Foreground(fgMuted),
			Suggestion:  base.Foreground(fgSubtle),
		},
		Cursor: textinput.CursorStyle{
			Color: secondary,
			Shape: tea.CursorBar,
			Blink: true,
		},
	}

	s.Help = help.Styles{
		ShortKey:       base.Foreground(fgMuted),
		ShortDesc:      base.Foreground(fgSubtle),
		ShortSeparator: base.Foreground(border),
		Ellipsis:       base.Foreground(border),
		FullKey:        base.Foreground(fgMuted),
		FullDesc:       base.Foreground(fgSubtle),
		FullSeparator:  base.Foreground(border),
	}

	// text presets
	s.Base = lipgloss.NewStyle().Foreground(fgBase)
	s.Muted = lipgloss.NewStyle().Foreground(fgMuted)
	s.Subtle = lipgloss.NewStyle().Foreground(fgSubtle)

	s.WindowTooSmall = s.Muted

	// tag presets
	s.TagBase = lipgloss.NewStyle().Padding(0, 1).Foreground(white)
	s.TagError = s.TagBase.Background(redDark)
	s.TagWarning = s.TagBase.Background(warning).Foreground(bgBase)
	s.TagInfo = s.TagBase.Background(blueLight)

	s.Spinner = s.Base.Foreground(green)

	// header line
	s.Header.Base = lipgloss.NewStyle().Background(bgBaseLighter)
	s.Header.Column = s.Header.Base.Foreground(fgHalfMuted).Bold(true)
	s.Header.Cursor = s.Header.Base.Foreground(white).Bold(true)
	s.Header.Sorted = s.Header.Base.Foreground(secondary).Bold(true)
	s.Header.Direction = s.Header.Base.Foreground(primary)
	s.Header.Gutter = s.Header.Base.Foreground(fgMuted)

	// grid body
	s.Grid.Cell = s.Base
	s.Grid.Pending = s.Subtle
	s.Grid.RowNumber = s.Muted
	s.Grid.CursorRow = lipgloss.NewStyle().Foreground(fgSelected).Background(bgOverlay)
	s.Grid.SelectedRow = lipgloss.NewStyle().Foreground(fgBase).Background(bgSubtle)
	s.Grid.SelectedBar = lipgloss.NewStyle().Foreground(primary).SetString(SelectedBar)
	s.Grid.CursorColumn = s.Base.Foreground(white)

	// status bar
	s.Status.Bar = lipgloss.NewStyle().Background(bgBaseLighter).Foreground(fgMuted)
	s.Status.Source = s.TagBase.Background(primary)
	s.Status.Counts = s.Status.Bar.Foreground(fgHalfMuted)
	s.Status.Order = s.Status.Bar.Foreground(secondary)

	// dialogs
	s.Dialog.View = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	s.Dialog.Title = s.Base.Foreground(secondary).Bold(true)
	s.Dialog.InputPrompt = lipgloss.NewStyle().PaddingBottom(1)
	s.Dialog.List = lipgloss.NewStyle()
	s.Dialog.NormalItem = s.Muted.PaddingLeft(1)
	s.Dialog.SelectedItem = lipgloss.NewStyle().
		Foreground(fgSelected).
		Background(primary).
		PaddingLeft(1)
	s.Dialog.HelpView = lipgloss.NewStyle()

	return s
}
