// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package slots

import (
	"errors"
	"strings"

	"github.com/jeranaias/rigrun-slots/internal/machine/page"
	"github.com/jeranaias/rigrun-slots/internal/messenger"
	"github.com/jeranaias/rigrun-slots/internal/model"
	"github.com/jeranaias/rigrun-slots/internal/slots"
	"github.com/jeranaias/rigrun-slots/internal/ui/styles"
	"github.com/jeranaias/rigrun-slots/internal/util"
)

// View renders the current page.
func (m Model) View() string {
	switch m.machine.State {
	case page.StateLoadingSlots:
		return m.theme.Pending.Render(styles.StatusIndicators.Pending + " Loading slots...")
	case page.StateLoadFailed:
		return m.viewLoadFailed()
	case page.StateSlotDetail:
		return m.viewDetail()
	}
	return m.viewList()
}

// ErrorText splits err into the title and message shown to the user.
func ErrorText(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	var re *messenger.RemoteError
	if errors.As(err, &re) {
		return re.Name(), re.Message
	}
	return messenger.ErrorName(err), err.Error()
}

func (m Model) viewLoadFailed() string {
	title, msg := ErrorText(m.machine.LoadErr)
	var b strings.Builder
	b.WriteString(m.theme.ErrorTitle.Render(styles.StatusIndicators.Error + " " + title))
	b.WriteString("\n")
	b.WriteString(m.theme.ErrorBody.Render(msg))
	b.WriteString("\n")
	b.WriteString(m.theme.RenderHelp(helpPairs(m.keys.Retry)...))
	return b.String()
}

func (m Model) viewList() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Slots"))
	b.WriteString("\n\n")

	if len(m.machine.Slots) == 0 {
		b.WriteString(m.theme.Empty.Render("No slots yet. Press a to add one."))
		b.WriteString("\n")
	}

	nameWidth := m.theme.ContentWidth() - 16
	for i, slot := range m.machine.Slots {
		b.WriteString(m.renderRow(slot, i == m.cursor, nameWidth))
		b.WriteString("\n")
	}

	b.WriteString(m.theme.RenderHelp(helpPairs(
		m.keys.Add, m.keys.Select, m.keys.Edit, m.keys.Delete,
		m.keys.ChangeApiKey, m.keys.QuickChat,
	)...))
	return b.String()
}

func (m Model) renderRow(slot model.Slot, cursor bool, nameWidth int) string {
	mark := "  "
	if slot.IsSelected {
		mark = m.theme.SelectedMark.Render("● ")
	}
	name := util.PadWidth(util.TruncateWidth(slot.DisplayName(), nameWidth), nameWidth)
	line := mark + name + " " + m.theme.SlotType.Render(string(slot.Type))
	if cursor {
		return m.theme.RowCursor.Render(line)
	}
	return m.theme.Row.Render(line)
}

func (m Model) viewDetail() string {
	var b strings.Builder
	selected := m.machine.SelectedSlot
	if selected == nil {
		return ""
	}

	b.WriteString(m.theme.Title.Render("Slot: " + util.TruncateWidth(selected.DisplayName(), m.theme.ContentWidth()-6)))
	if _, ok := slots.FindSlot(m.machine.Slots, selected.ID); !ok {
		b.WriteString("  ")
		b.WriteString(styles.RenderWarning("deleted"))
	} else if m.editor.dirty() {
		b.WriteString("  ")
		b.WriteString(m.theme.Subtitle.Render("unsaved"))
	}
	b.WriteString("\n\n")

	b.WriteString(m.theme.Label.Render("Type"))
	b.WriteString(string(selected.Type))
	b.WriteString("\n")
	for i, in := range m.editor.inputs {
		label := m.theme.Label
		if i == m.editor.focus {
			label = m.theme.LabelFocused
		}
		b.WriteString(label.Render(fieldLabels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	b.WriteString(m.theme.RenderHelp(helpPairs(
		m.keys.NextField, m.keys.PrevField, m.keys.Save, m.keys.DeleteOpen, m.keys.Back,
	)...))
	return b.String()
}
