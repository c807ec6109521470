// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/rigrun-slots/internal/machine/bootstrap"
	"github.com/jeranaias/rigrun-slots/internal/model"
	"github.com/jeranaias/rigrun-slots/internal/ui/slots"
	"github.com/jeranaias/rigrun-slots/internal/ui/styles"
)

// View renders the screen of the current state.
func (m Model) View() string {
	var body string
	switch m.machine.State {
	case bootstrap.StateInit:
		body = m.theme.Pending.Render(styles.StatusIndicators.Pending + " Checking stored key...")
	case bootstrap.StateNoApiKey, bootstrap.StateCheckingApiKey:
		body = m.viewCredential()
	case bootstrap.StateSlotListPage:
		body = m.page.View()
	case bootstrap.StateQuickChat:
		body = m.viewQuickChat()
	}
	return m.theme.Header.Render("rigrun slots") + "\n\n" + body + "\n"
}

func (m Model) viewCredential() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Enter your API key"))
	b.WriteString("\n\n")

	for i, in := range m.form.inputs {
		label := m.theme.Label
		if i == m.form.focus {
			label = m.theme.LabelFocused
		}
		b.WriteString(label.Render(fieldLabels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.machine.Matches(bootstrap.StateCheckingApiKey) {
		b.WriteString(m.spinner.View())
		b.WriteString(m.theme.Pending.Render(" Checking key..."))
		b.WriteString("\n")
		return b.String()
	}

	if m.machine.CheckErr != nil {
		title, msg := slots.ErrorText(m.machine.CheckErr)
		b.WriteString(m.theme.ErrorTitle.Render(styles.StatusIndicators.Error + " " + title))
		b.WriteString("\n")
		b.WriteString(m.theme.ErrorBody.Render(msg))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.RenderHelp(helpPairs(m.keys.NextField, m.keys.Submit, m.keys.Quit)...))
	return b.String()
}

func (m Model) viewQuickChat() string {
	md := quickChatMarkdown(m.chatSlot, m.chatOK)
	out := md
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(md); err == nil {
			out = rendered
		}
	}
	return m.theme.Panel.Render(strings.TrimRight(out, "\n")) + "\n" +
		m.theme.RenderHelp(helpPairs(m.keys.Back, m.keys.Quit)...)
}

// quickChatMarkdown summarises the slot a quick chat would use.
func quickChatMarkdown(slot model.Slot, ok bool) string {
	var b strings.Builder
	b.WriteString("# Quick chat\n\n")
	if !ok {
		b.WriteString("No slot is selected. Go back and select one first.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "**Slot:** %s\n\n", slot.DisplayName())
	fmt.Fprintf(&b, "**Type:** %s\n\n", slot.Type)
	if slot.Assistant != "" {
		fmt.Fprintf(&b, "**Assistant:** %s\n\n", slot.Assistant)
	}
	if slot.System != "" {
		b.WriteString("**System prompt:**\n\n")
		for _, line := range strings.Split(slot.System, "\n") {
			b.WriteString("> " + line + "\n")
		}
	}
	return b.String()
}

// newRenderer returns nil when glamour cannot be set up; the markdown is
// then shown as is.
func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}
