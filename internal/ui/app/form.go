// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigrun-slots/internal/model"
)

const (
	fieldAccessKey = iota
	fieldSecret
	fieldToken
	fieldCount
)

var fieldLabels = [fieldCount]string{"Access key ID", "Secret access key", "Session token"}

// credentialForm collects a credential. Every field is masked.
type credentialForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
}

func newCredentialForm(cred model.Credential, width int) credentialForm {
	var f credentialForm
	values := [fieldCount]string{cred.AccessKeyID, cred.SecretAccessKey, cred.SessionToken}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
		in.CharLimit = 128
		in.Width = width
		in.SetValue(values[i])
		in.CursorEnd()
		f.inputs[i] = in
	}
	f.inputs[fieldToken].CharLimit = 2048
	f.inputs[fieldToken].Placeholder = "optional"
	f.inputs[fieldAccessKey].Focus()
	return f
}

func (f *credentialForm) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

func (f *credentialForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// credential returns the typed values with surrounding space removed.
func (f credentialForm) credential() model.Credential {
	return model.Credential{
		AccessKeyID:     strings.TrimSpace(f.inputs[fieldAccessKey].Value()),
		SecretAccessKey: strings.TrimSpace(f.inputs[fieldSecret].Value()),
		SessionToken:    strings.TrimSpace(f.inputs[fieldToken].Value()),
	}
}
