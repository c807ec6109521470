// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package slots

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigrun-slots/internal/machine/page"
	"github.com/jeranaias/rigrun-slots/internal/messenger"
	"github.com/jeranaias/rigrun-slots/internal/model"
	"github.com/jeranaias/rigrun-slots/internal/slots"
	"github.com/jeranaias/rigrun-slots/internal/ui/styles"
)

// DefaultFetchTimeout bounds the initial GetSlots request.
const DefaultFetchTimeout = 10 * time.Second

// =============================================================================
// MESSAGES
// =============================================================================

// ChangeApiKeyMsg asks the parent to leave the page and reset the key.
type ChangeApiKeyMsg struct{}

// QuickChatMsg asks the parent to open quick chat with the selected slot.
type QuickChatMsg struct {
	Slot model.Slot
	OK   bool
}

// Fetch replies carry the session that asked, so a reply that arrives after
// the page was left and re-entered is dropped.
type slotsLoadedMsg struct {
	session uint64
	slots   []model.Slot
}

type slotsFailedMsg struct {
	session uint64
	err     error
}

var sessionSeq atomic.Uint64

// =============================================================================
// MODEL
// =============================================================================

// Model is one page session. A new Model is built every time the page is
// entered, so each session starts from a fresh fetch.
type Model struct {
	session   uint64
	machine   page.Machine
	pending   []page.Effect
	messenger messenger.Messenger
	theme     *styles.Theme
	keys      KeyMap
	timeout   time.Duration

	cursor int
	editor editor
}

// Option customises a Model.
type Option func(*Model)

// WithFetchTimeout overrides DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithKeyMap overrides DefaultKeyMap.
func WithKeyMap(km KeyMap) Option {
	return func(m *Model) { m.keys = km }
}

// New creates a page session talking to ms.
func New(ms messenger.Messenger, theme *styles.Theme, opts ...Option) Model {
	machine, effects := page.New()
	m := Model{
		session:   sessionSeq.Add(1),
		machine:   machine,
		pending:   effects,
		messenger: ms,
		theme:     theme,
		keys:      DefaultKeyMap(),
		timeout:   DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Machine returns the current page machine.
func (m Model) Machine() page.Machine {
	return m.machine
}

// Init runs the effects of entering the page.
func (m Model) Init() tea.Cmd {
	return m.run(m.pending)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case slotsLoadedMsg:
		if msg.session != m.session {
			return m, nil
		}
		return m.send(page.SlotsLoaded{Slots: msg.slots})

	case slotsFailedMsg:
		if msg.session != m.session {
			return m, nil
		}
		return m.send(page.SlotsLoadFailed{Err: msg.err})

	case tea.KeyMsg:
		switch m.machine.State {
		case page.StateLoadFailed:
			if key.Matches(msg, m.keys.Retry) {
				return m.send(page.Retry{})
			}
		case page.StateSlotList:
			return m.updateList(msg)
		case page.StateSlotDetail:
			return m.updateDetail(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.machine.Slots)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Add):
		slot := model.NewSlot(model.WithSelected(len(m.machine.Slots) == 0))
		var addCmd, showCmd tea.Cmd
		m, addCmd = m.send(page.AddSlot{Slot: slot})
		m.cursor = len(m.machine.Slots) - 1
		m, showCmd = m.send(page.ShowDetail{SlotID: slot.ID})
		return m, tea.Batch(addCmd, showCmd)

	case key.Matches(msg, m.keys.Select):
		if id, ok := m.cursorID(); ok {
			return m.send(page.SelectSlot{SlotID: id})
		}

	case key.Matches(msg, m.keys.Edit):
		if id, ok := m.cursorID(); ok {
			return m.send(page.ShowDetail{SlotID: id})
		}

	case key.Matches(msg, m.keys.Delete):
		if id, ok := m.cursorID(); ok {
			return m.send(page.DeleteSlot{SlotID: id})
		}

	case key.Matches(msg, m.keys.ChangeApiKey):
		return m.send(page.ChangeApiKey{})

	case key.Matches(msg, m.keys.QuickChat):
		selected, ok := slots.GetSelectedSlot(m.machine.Slots)
		return m, func() tea.Msg { return QuickChatMsg{Slot: selected, OK: ok} }
	}
	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.send(page.Back{})

	case key.Matches(msg, m.keys.Save):
		if m.machine.SelectedSlot == nil {
			return m, nil
		}
		return m.send(page.UpdateSlot{Slot: m.editor.slot()})

	case key.Matches(msg, m.keys.DeleteOpen):
		if m.machine.SelectedSlot == nil {
			return m, nil
		}
		return m.send(page.DeleteSlot{SlotID: m.machine.SelectedSlot.ID})

	case key.Matches(msg, m.keys.NextField):
		return m, m.editor.move(1)

	case key.Matches(msg, m.keys.PrevField):
		return m, m.editor.move(-1)
	}
	return m, m.editor.update(msg)
}

// send applies ev and runs the resulting effects.
func (m Model) send(ev page.Event) (Model, tea.Cmd) {
	before := m.machine.State
	next, effects := page.Transition(m.machine, ev)
	m.machine = next

	if next.State == page.StateSlotDetail && (before != page.StateSlotDetail || isUpdate(ev)) && next.SelectedSlot != nil {
		m.editor = newEditor(*next.SelectedSlot, m.theme.ContentWidth()-20)
	}
	if m.cursor >= len(next.Slots) {
		m.cursor = len(next.Slots) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m, m.run(effects)
}

func isUpdate(ev page.Event) bool {
	_, ok := ev.(page.UpdateSlot)
	return ok
}

// run executes effects. Notify is performed immediately since Send never
// blocks, which keeps notifications in event order.
func (m Model) run(effects []page.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, eff := range effects {
		switch e := eff.(type) {
		case page.FetchSlots:
			cmds = append(cmds, fetchSlots(m.messenger, m.session, m.timeout))
		case page.Notify:
			m.messenger.Send(e.Message)
		case page.ExitPage:
			cmds = append(cmds, func() tea.Msg { return ChangeApiKeyMsg{} })
		}
	}
	return tea.Batch(cmds...)
}

func fetchSlots(ms messenger.Messenger, session uint64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		got, err := messenger.Call[[]model.Slot](ctx, ms, messenger.GetSlots())
		if err != nil {
			return slotsFailedMsg{session: session, err: err}
		}
		return slotsLoadedMsg{session: session, slots: got}
	}
}

func (m Model) cursorID() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.machine.Slots) {
		return "", false
	}
	return m.machine.Slots[m.cursor].ID, true
}
