package ui

import "charm.land/bubbles/v2/key"

type KeyMap struct {
	Grid struct {
		Up       key.Binding
		Down     key.Binding
		Left     key.Binding
		Right    key.Binding
		PageUp   key.Binding
		PageDown key.Binding
		Home     key.Binding
		End      key.Binding

		// Selection key maps
		ToggleRow      key.Binding
		ExtendUp       key.Binding
		ExtendDown     key.Binding
		SelectAll      key.Binding
		ClearSelection key.Binding

		Sort     key.Binding
		SortMore key.Binding
		Copy     key.Binding
		Jump     key.Binding
	}

	Jump struct {
		Next,
		Previous,
		Select,
		Close key.Binding
	}

	// Global key maps
	Quit key.Binding
	Help key.Binding
}

func DefaultKeyMap() KeyMap {
	km := KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "ctrl+g"),
			key.WithHelp("?", "more"),
		),
	}

	km.Grid.Up = key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑", "up"),
	)
	km.Grid.Down = key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓", "down"),
	)
	km.Grid.Left = key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←", "prev column"),
	)
	km.Grid.Right = key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→", "next column"),
	)
	km.Grid.PageUp = key.NewBinding(
		key.WithKeys("pgup", "b"),
		key.WithHelp("pgup", "page up"),
	)
	km.Grid.PageDown = key.NewBinding(
		key.WithKeys("pgdown", "f"),
		key.WithHelp("pgdn", "page down"),
	)
	km.Grid.Home = key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("home", "first row"),
	)
	km.Grid.End = key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("end", "last row"),
	)
	km.Grid.ToggleRow = key.NewBinding(
		key.WithKeys("space"),
		key.WithHelp("space", "select row"),
	)
	km.Grid.ExtendUp = key.NewBinding(
		key.WithKeys("shift+up", "K"),
		key.WithHelp("shift+↑", "extend up"),
	)
	km.Grid.ExtendDown = key.NewBinding(
		key.WithKeys("shift+down", "J"),
		key.WithHelp("shift+↓", "extend down"),
	)
	km.Grid.SelectAll = key.NewBinding(
		key.WithKeys("ctrl+a"),
		key.WithHelp("ctrl+a", "select all"),
	)
	km.Grid.ClearSelection = key.NewBinding(
		key.WithKeys("esc", "alt+esc"),
		key.WithHelp("esc", "clear selection"),
	)
	km.Grid.Sort = key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sort column"),
	)
	km.Grid.SortMore = key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "add sort key"),
	)
	km.Grid.Copy = key.NewBinding(
		key.WithKeys("c", "ctrl+y"),
		key.WithHelp("c", "copy rows"),
	)
	km.Grid.Jump = key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "jump to column"),
	)

	km.Jump.Next = key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "next item"),
	)
	km.Jump.Previous = key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "previous item"),
	)
	km.Jump.Select = key.NewBinding(
		key.WithKeys("enter", "ctrl+y"),
		key.WithHelp("enter", "jump"),
	)
	km.Jump.Close = key.NewBinding(
		key.WithKeys("esc", "alt+esc"),
		key.WithHelp("esc", "cancel"),
	)

	return km
}
