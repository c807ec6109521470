// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package slots

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-slots/internal/machine/page"
	"github.com/jeranaias/rigrun-slots/internal/messenger"
	"github.com/jeranaias/rigrun-slots/internal/model"
	"github.com/jeranaias/rigrun-slots/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeMessenger answers GetSlots from a queue of results and records
// notifications.
type fakeMessenger struct {
	mu      sync.Mutex
	results []any // []model.Slot or error
	sent    []messenger.Message
}

func (f *fakeMessenger) Send(msg messenger.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
}

func (f *fakeMessenger) SendAsync(_ context.Context, msg messenger.Message) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg.Type != messenger.TypeGetSlots || len(f.results) == 0 {
		return nil, fmt.Errorf("%w: unexpected %s", messenger.ErrTransport, msg.Type)
	}
	next := f.results[0]
	f.results = f.results[1:]
	if err, ok := next.(error); ok {
		return nil, err
	}
	return json.Marshal(next)
}

func (f *fakeMessenger) Close() error { return nil }

func (f *fakeMessenger) sentTypes() []messenger.MessageType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]messenger.MessageType, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Type
	}
	return out
}

// drain runs cmd and every command it batches, returning the messages.
// Commands that do not finish promptly, such as cursor blinks, are dropped.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(100 * time.Millisecond):
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// feed delivers msgs to m, following any messages the page sends itself.
func feed(m Model, msgs ...tea.Msg) (Model, []tea.Msg) {
	var external []tea.Msg
	queue := append([]tea.Msg(nil), msgs...)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		switch msg.(type) {
		case ChangeApiKeyMsg, QuickChatMsg:
			external = append(external, msg)
			continue
		}
		var cmd tea.Cmd
		m, cmd = m.Update(msg)
		queue = append(queue, drain(cmd)...)
	}
	return m, external
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, fm *fakeMessenger) Model {
	t.Helper()
	m := New(fm, styles.NewTheme())
	m, _ = feed(m, drain(m.Init())...)
	require.Equal(t, page.StateSlotList, m.Machine().State)
	return m
}

var (
	slotA = model.Slot{ID: "a", Name: "Work", Type: model.SlotTypeChatGPT, IsSelected: true}
	slotB = model.Slot{ID: "b", Name: "Home", Type: model.SlotTypeBedrock}
)

// =============================================================================
// LOADING
// =============================================================================

func TestModel_InitialFetch(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{slotA, slotB}}}
	m := New(fm, styles.NewTheme())
	assert.Equal(t, page.StateLoadingSlots, m.Machine().State)
	assert.Contains(t, m.View(), "Loading")

	m, _ = feed(m, drain(m.Init())...)
	assert.Equal(t, []model.Slot{slotA, slotB}, m.Machine().Slots)

	view := m.View()
	assert.Contains(t, view, "Work")
	assert.Contains(t, view, "Home")
	assert.Empty(t, fm.sentTypes(), "loading sends no notifications")
}

func TestModel_FetchFailureAndRetry(t *testing.T) {
	fm := &fakeMessenger{results: []any{
		fmt.Errorf("%w: connection refused", messenger.ErrTransport),
		[]model.Slot{slotA},
	}}
	m := New(fm, styles.NewTheme())
	m, _ = feed(m, drain(m.Init())...)

	require.Equal(t, page.StateLoadFailed, m.Machine().State)
	assert.Contains(t, m.View(), "TransportError")
	assert.Contains(t, m.View(), "connection refused")

	// Only retry is accepted
	m, _ = feed(m, runes("a"))
	assert.Equal(t, page.StateLoadFailed, m.Machine().State)

	m, _ = feed(m, runes("r"))
	assert.Equal(t, page.StateSlotList, m.Machine().State)
	assert.Equal(t, []model.Slot{slotA}, m.Machine().Slots)
}

func TestModel_EmptyList(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{}}}
	m := loaded(t, fm)
	assert.Contains(t, m.View(), "No slots yet")

	// Actions on an empty list are no-ops
	m, _ = feed(m, tea.KeyMsg{Type: tea.KeyEnter}, runes("e"), runes("d"))
	assert.Equal(t, page.StateSlotList, m.Machine().State)
	assert.Empty(t, fm.sentTypes())
}

// =============================================================================
// LIST ACTIONS
// =============================================================================

func TestModel_SelectSendsNotification(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{slotA, slotB}}}
	m := loaded(t, fm)

	m, _ = feed(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	got := m.Machine().Slots
	assert.False(t, got[0].IsSelected)
	assert.True(t, got[1].IsSelected)
	require.Len(t, fm.sent, 1)
	assert.Equal(t, messenger.SelectSlot("b"), fm.sent[0])
}

func TestModel_AddOpensDetail(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{slotA}}}
	m := loaded(t, fm)

	m, _ = feed(m, runes("a"))

	mach := m.Machine()
	require.Len(t, mach.Slots, 2)
	assert.Equal(t, page.StateSlotDetail, mach.State)
	require.NotNil(t, mach.SelectedSlot)
	assert.Equal(t, mach.Slots[1].ID, mach.SelectedSlot.ID)
	assert.Equal(t, model.SlotTypeChatGPT, mach.Slots[1].Type)
	assert.Equal(t, []messenger.MessageType{messenger.TypeAddNewSlot}, fm.sentTypes())
}

func TestModel_AddFirstSlotIsSelected(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{}}}
	m := loaded(t, fm)

	m, _ = feed(m, runes("a"))

	mach := m.Machine()
	require.Len(t, mach.Slots, 1)
	assert.True(t, mach.Slots[0].IsSelected)

	require.Len(t, fm.sent, 1)
	require.Equal(t, messenger.TypeAddNewSlot, fm.sent[0].Type)
	var added model.Slot
	require.NoError(t, fm.sent[0].Decode(&added))
	assert.Equal(t, mach.Slots[0].ID, added.ID)
	assert.True(t, added.IsSelected)
}

func TestModel_AddToNonEmptyIsNotSelected(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{slotA}}}
	m := loaded(t, fm)

	m, _ = feed(m, runes("a"))

	mach := m.Machine()
	require.Len(t, mach.Slots, 2)
	assert.True(t, mach.Slots[0].IsSelected)
	assert.False(t, mach.Slots[1].IsSelected)

	var added model.Slot
	require.Len(t, fm.sent, 1)
	require.NoError(t, fm.sent[0].Decode(&added))
	assert.False(t, added.IsSelected)
}

func TestModel_DeleteFromList(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{slotA, slotB}}}
	m := loaded(t, fm)

	m, _ = feed(m, tea.KeyMsg{Type: tea.KeyDown}, runes("d"))

	assert.Equal(t, []model.Slot{slotA}, m.Machine().Slots)
	assert.Equal(t, []messenger.Message{messenger.DeleteSlot("b")}, fm.sent)

	// Cursor is clamped to the shorter list
	m, _ = feed(m, runes("d"))
	assert.Empty(t, m.Machine().Slots)
}

func TestModel_ChangeApiKeyExits(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{slotA}}}
	m := loaded(t, fm)

	_, out := feed(m, runes("k"))
	assert.Equal(t, []tea.Msg{ChangeApiKeyMsg{}}, out)
}

func TestModel_QuickChatCarriesSelection(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{slotA, slotB}}}
	m := loaded(t, fm)

	_, out := feed(m, runes("q"))
	assert.Equal(t, []tea.Msg{QuickChatMsg{Slot: slotA, OK: true}}, out)
}

// =============================================================================
// DETAIL ACTIONS
// =============================================================================

func TestModel_EditAndSave(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{slotA, slotB}}}
	m := loaded(t, fm)

	m, _ = feed(m, runes("e"))
	require.Equal(t, page.StateSlotDetail, m.Machine().State)
	assert.Equal(t, "a", m.Machine().SelectedSlot.ID)

	m, _ = feed(m, runes("!"))
	assert.Contains(t, m.View(), "unsaved")

	m, _ = feed(m, tea.KeyMsg{Type: tea.KeyEnter})

	want := slotA
	want.Name = "Work!"
	assert.Equal(t, page.StateSlotDetail, m.Machine().State)
	assert.Equal(t, want, *m.Machine().SelectedSlot)
	assert.Equal(t, want, m.Machine().Slots[0])
	assert.Equal(t, []messenger.Message{messenger.UpdateSlotData(want)}, fm.sent)
	assert.NotContains(t, m.View(), "unsaved")

	m, _ = feed(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, page.StateSlotList, m.Machine().State)
	assert.Nil(t, m.Machine().SelectedSlot)
}

func TestModel_TypeIsNotEditable(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{slotA}}}
	m := loaded(t, fm)

	// ctrl+t is not bound while editing
	m, _ = feed(m, runes("e"), tea.KeyMsg{Type: tea.KeyCtrlT}, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, model.SlotTypeChatGPT, m.Machine().SelectedSlot.Type)
	assert.Equal(t, model.SlotTypeChatGPT, m.Machine().Slots[0].Type)
	require.Len(t, fm.sent, 1)
	var updated model.Slot
	require.NoError(t, fm.sent[0].Decode(&updated))
	assert.Equal(t, model.SlotTypeChatGPT, updated.Type)
}

func TestModel_DetailHelpShowsArrowKeys(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{slotA}}}
	m := loaded(t, fm)

	m, _ = feed(m, runes("e"))
	view := m.View()
	assert.Contains(t, view, "tab/↓")
	assert.Contains(t, view, "S-tab/↑")
}

func TestModel_BackDiscardsEdits(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{slotA}}}
	m := loaded(t, fm)

	m, _ = feed(m, runes("e"), runes("xyz"), tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, []model.Slot{slotA}, m.Machine().Slots)
	assert.Empty(t, fm.sent)
}

func TestModel_DeleteFromDetailStays(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{slotA, slotB}}}
	m := loaded(t, fm)

	m, _ = feed(m, runes("e"), tea.KeyMsg{Type: tea.KeyCtrlD})

	assert.Equal(t, page.StateSlotDetail, m.Machine().State)
	assert.Equal(t, []model.Slot{slotB}, m.Machine().Slots)
	assert.Equal(t, []messenger.Message{messenger.DeleteSlot("a")}, fm.sent)
	assert.Contains(t, m.View(), "deleted")
}

func TestModel_DetailKeysDoNotLeakToList(t *testing.T) {
	fm := &fakeMessenger{results: []any{[]model.Slot{slotA}}}
	m := loaded(t, fm)

	// k and q are text while editing
	m, out := feed(m, runes("e"), runes("k"), runes("q"))
	assert.Empty(t, out)
	assert.Equal(t, page.StateSlotDetail, m.Machine().State)
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestModel_StaleFetchReplyIsDropped(t *testing.T) {
	stale := &fakeMessenger{results: []any{[]model.Slot{slotB}}}
	old := New(stale, styles.NewTheme())
	staleMsgs := drain(old.Init())
	require.Len(t, staleMsgs, 1)

	fm := &fakeMessenger{results: []any{[]model.Slot{slotA}}}
	m := New(fm, styles.NewTheme())

	// A reply from the earlier session arriving first does not load the page
	m, _ = feed(m, staleMsgs...)
	assert.Equal(t, page.StateLoadingSlots, m.Machine().State)
	assert.Empty(t, m.Machine().Slots)

	m, _ = feed(m, drain(m.Init())...)
	require.Equal(t, page.StateSlotList, m.Machine().State)
	assert.Equal(t, []model.Slot{slotA}, m.Machine().Slots)

	// Or after it loaded
	m, _ = feed(m, staleMsgs...)
	assert.Equal(t, []model.Slot{slotA}, m.Machine().Slots)
}

func TestModel_StaleFetchFailureIsDropped(t *testing.T) {
	stale := &fakeMessenger{results: []any{fmt.Errorf("%w: gone", messenger.ErrTransport)}}
	old := New(stale, styles.NewTheme())
	staleMsgs := drain(old.Init())
	require.Len(t, staleMsgs, 1)

	fm := &fakeMessenger{results: []any{[]model.Slot{slotA}}}
	m := loaded(t, fm)

	m, _ = feed(m, staleMsgs...)
	assert.Equal(t, page.StateSlotList, m.Machine().State)
	assert.NotContains(t, m.View(), "gone")
}
