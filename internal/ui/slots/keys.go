// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package slots

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings of both pages.
type KeyMap struct {
	// List page
	Up           key.Binding
	Down         key.Binding
	Add          key.Binding
	Select       key.Binding
	Edit         key.Binding
	Delete       key.Binding
	Retry        key.Binding
	ChangeApiKey key.Binding
	QuickChat    key.Binding

	// Detail page
	NextField  key.Binding
	PrevField  key.Binding
	Save       key.Binding
	DeleteOpen key.Binding
	Back       key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "down"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		ChangeApiKey: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "change key"),
		),
		QuickChat: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quick chat"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab/↓", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("S-tab/↑", "prev field"),
		),
		Save: key.NewBinding(
			key.WithKeys("enter", "ctrl+s"),
			key.WithHelp("enter", "save"),
		),
		DeleteOpen: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "delete"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}

func helpPairs(bindings ...key.Binding) [][2]string {
	out := make([][2]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, [2]string{h.Key, h.Desc})
	}
	return out
}
