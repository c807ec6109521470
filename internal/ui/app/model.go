// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/rigrun-slots/internal/machine/bootstrap"
	"github.com/jeranaias/rigrun-slots/internal/messenger"
	"github.com/jeranaias/rigrun-slots/internal/model"
	"github.com/jeranaias/rigrun-slots/internal/ui/slots"
	"github.com/jeranaias/rigrun-slots/internal/ui/styles"
)

// DefaultRequestTimeout bounds credential requests to the background.
const DefaultRequestTimeout = 10 * time.Second

// =============================================================================
// MESSAGES
// =============================================================================

type credentialLoadedMsg struct{ cred model.Credential }

type credentialLoadFailedMsg struct{ err error }

type credentialSavedMsg struct{}

type credentialSaveFailedMsg struct{ err error }

// =============================================================================
// MODEL
// =============================================================================

// Model is the root of the terminal interface.
type Model struct {
	machine   bootstrap.Machine
	pending   []bootstrap.Effect
	messenger messenger.Messenger
	theme     *styles.Theme
	keys      KeyMap
	timeout   time.Duration

	form    credentialForm
	spinner spinner.Model
	page    slots.Model

	// Quick chat
	chatSlot model.Slot
	chatOK   bool
	renderer *glamour.TermRenderer
}

// Option customises a Model.
type Option func(*Model)

// WithRequestTimeout overrides DefaultRequestTimeout for every request,
// including the slot fetch of the page sessions.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// New builds the root model. ms is used by every screen.
func New(ms messenger.Messenger, theme *styles.Theme, opts ...Option) Model {
	machine, effects := bootstrap.New()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Pending

	m := Model{
		machine:   machine,
		pending:   effects,
		messenger: ms,
		theme:     theme,
		keys:      DefaultKeyMap(),
		timeout:   DefaultRequestTimeout,
		spinner:   sp,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Machine returns the current bootstrap machine.
func (m Model) Machine() bootstrap.Machine {
	return m.machine
}

// Page returns the active slot page session. It is only meaningful in
// slot_list_page.
func (m Model) Page() slots.Model {
	return m.page
}

// Init starts the credential fetch.
func (m Model) Init() tea.Cmd {
	return m.run(m.pending)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.theme.SetSize(msg.Width, msg.Height)
		if m.machine.State == bootstrap.StateQuickChat {
			m.renderer = newRenderer(m.theme.ContentWidth())
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m.updateKey(msg)

	case credentialLoadedMsg:
		return m.send(bootstrap.CredentialLoaded{Credential: msg.cred})
	case credentialLoadFailedMsg:
		return m.send(bootstrap.CredentialLoadFailed{Err: msg.err})
	case credentialSavedMsg:
		return m.send(bootstrap.CredentialSaved{})
	case credentialSaveFailedMsg:
		return m.send(bootstrap.CredentialSaveFailed{Err: msg.err})

	case slots.ChangeApiKeyMsg:
		return m.send(bootstrap.ResetApiKey{})
	case slots.QuickChatMsg:
		m.chatSlot, m.chatOK = msg.Slot, msg.OK
		return m.send(bootstrap.GoToQuickChat{})

	case spinner.TickMsg:
		if m.machine.State != bootstrap.StateCheckingApiKey {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.machine.State == bootstrap.StateSlotListPage {
		return m.updatePage(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.machine.State {
	case bootstrap.StateNoApiKey:
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m.send(bootstrap.CheckApiKey{Credential: m.form.credential()})
		case key.Matches(msg, m.keys.NextField):
			return m, m.form.move(1)
		case key.Matches(msg, m.keys.PrevField):
			return m, m.form.move(-1)
		}
		return m, m.form.update(msg)

	case bootstrap.StateSlotListPage:
		return m.updatePage(msg)

	case bootstrap.StateQuickChat:
		if key.Matches(msg, m.keys.Back) {
			return m.send(bootstrap.ExitQuickChat{})
		}
	}
	return m, nil
}

func (m Model) updatePage(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.page, cmd = m.page.Update(msg)
	return m, cmd
}

// send applies ev, prepares the screen of the new state and runs the
// resulting effects.
func (m Model) send(ev bootstrap.Event) (tea.Model, tea.Cmd) {
	before := m.machine.State
	next, effects := bootstrap.Transition(m.machine, ev)
	m.machine = next

	var cmds []tea.Cmd
	if next.State != before {
		switch next.State {
		case bootstrap.StateNoApiKey:
			m.form = newCredentialForm(next.Credential, max(m.theme.ContentWidth()-22, 10))
		case bootstrap.StateCheckingApiKey:
			cmds = append(cmds, m.spinner.Tick)
		case bootstrap.StateSlotListPage:
			m.page = slots.New(m.messenger, m.theme, slots.WithFetchTimeout(m.timeout))
			cmds = append(cmds, m.page.Init())
		case bootstrap.StateQuickChat:
			m.renderer = newRenderer(m.theme.ContentWidth())
		}
	}
	cmds = append(cmds, m.run(effects))
	return m, tea.Batch(cmds...)
}

// run executes effects. ResetCredential is sent immediately; the requests
// become commands.
func (m Model) run(effects []bootstrap.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, eff := range effects {
		switch e := eff.(type) {
		case bootstrap.FetchCredential:
			cmds = append(cmds, fetchCredential(m.messenger, m.timeout))
		case bootstrap.SaveCredential:
			cmds = append(cmds, saveCredential(m.messenger, m.timeout, e.Credential))
		case bootstrap.ResetCredential:
			m.messenger.Send(messenger.ResetApiKey())
		}
	}
	return tea.Batch(cmds...)
}

func fetchCredential(ms messenger.Messenger, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		cred, err := messenger.Call[model.Credential](ctx, ms, messenger.GetApiKey())
		if err != nil {
			return credentialLoadFailedMsg{err: err}
		}
		return credentialLoadedMsg{cred: cred}
	}
}

func saveCredential(ms messenger.Messenger, timeout time.Duration, cred model.Credential) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := ms.SendAsync(ctx, messenger.SaveApiKey(cred)); err != nil {
			return credentialSaveFailedMsg{err: err}
		}
		return credentialSavedMsg{}
	}
}
