// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the bindings handled by the root model.
type KeyMap struct {
	Quit key.Binding

	// Credential form
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding

	// Quick chat
	Back key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "check key"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}

func helpPairs(bindings ...key.Binding) [][2]string {
	pairs := make([][2]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		pairs = append(pairs, [2]string{h.Key, h.Desc})
	}
	return pairs
}
