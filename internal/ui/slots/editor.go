// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package slots

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigrun-slots/internal/model"
	"github.com/jeranaias/rigrun-slots/internal/util"
)

const (
	fieldName = iota
	fieldAssistant
	fieldSystem
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Assistant", "System prompt"}

// editor holds the unsaved edits of the slot open in the detail page.
type editor struct {
	base   model.Slot
	inputs [fieldCount]textinput.Model
	focus  int
}

func newEditor(slot model.Slot, width int) editor {
	e := editor{base: slot}
	values := [fieldCount]string{slot.Name, slot.Assistant, slot.System}
	for i := range e.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		in.Width = width
		in.SetValue(values[i])
		in.CursorEnd()
		e.inputs[i] = in
	}
	e.inputs[fieldSystem].CharLimit = 4096
	e.inputs[fieldName].Placeholder = string(slot.Type)
	e.inputs[fieldName].Focus()
	return e
}

func (e *editor) move(delta int) tea.Cmd {
	e.inputs[e.focus].Blur()
	e.focus = (e.focus + delta + fieldCount) % fieldCount
	return e.inputs[e.focus].Focus()
}

func (e *editor) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	e.inputs[e.focus], cmd = e.inputs[e.focus].Update(msg)
	return cmd
}

// slot returns the edited slot. Selection and type are not editable here.
func (e editor) slot() model.Slot {
	s := e.base
	s.Name = util.NormalizeName(e.inputs[fieldName].Value())
	s.Assistant = e.inputs[fieldAssistant].Value()
	s.System = e.inputs[fieldSystem].Value()
	return s
}

func (e editor) dirty() bool {
	return e.slot() != e.base
}
