// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package page

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-slots/internal/messenger"
	"github.com/jeranaias/rigrun-slots/internal/model"
)

// loaded returns a machine already in slot_list with the given slots.
func loaded(t *testing.T, c ...model.Slot) Machine {
	t.Helper()
	m, _ := New()
	m, effects := Transition(m, SlotsLoaded{Slots: c})
	require.Empty(t, effects)
	require.True(t, m.Matches(StateSlotList))
	return m
}

// notified returns the single message carried by a Notify effect.
func notified(t *testing.T, effects []Effect) messenger.Message {
	t.Helper()
	require.Len(t, effects, 1)
	n, ok := effects[0].(Notify)
	require.True(t, ok, "expected Notify, got %T", effects[0])
	return n.Message
}

// =============================================================================
// LOADING
// =============================================================================

func TestNew_StartsFetch(t *testing.T) {
	m, effects := New()

	assert.Equal(t, StateLoadingSlots, m.State)
	assert.Equal(t, []Effect{FetchSlots{}}, effects)
}

func TestLoadEmptyThenAdd(t *testing.T) {
	m, _ := New()
	m, _ = Transition(m, SlotsLoaded{Slots: []model.Slot{}})
	require.Equal(t, StateSlotList, m.State)
	require.Empty(t, m.Slots)

	slot := model.NewSlot(model.WithSelected(len(m.Slots) == 0))
	m, effects := Transition(m, AddSlot{Slot: slot})

	assert.Equal(t, StateSlotList, m.State)
	assert.Len(t, m.Slots, 1)
	msg := notified(t, effects)
	assert.Equal(t, messenger.TypeAddNewSlot, msg.Type)
}

func TestLoadNilSlotsBecomesEmpty(t *testing.T) {
	m, _ := New()
	m, _ = Transition(m, SlotsLoaded{})
	assert.NotNil(t, m.Slots)
	assert.Empty(t, m.Slots)
}

func TestLoadFailureAndRetry(t *testing.T) {
	m, _ := New()
	boom := errors.New("unreachable")

	m, effects := Transition(m, SlotsLoadFailed{Err: boom})
	assert.Equal(t, StateLoadFailed, m.State)
	assert.Equal(t, boom, m.LoadErr)
	assert.Empty(t, effects)

	m, effects = Transition(m, AddSlot{Slot: model.NewSlot()})
	assert.Equal(t, StateLoadFailed, m.State, "mutations are ignored until loaded")
	assert.Empty(t, effects)

	m, effects = Transition(m, Retry{})
	assert.Equal(t, StateLoadingSlots, m.State)
	assert.Nil(t, m.LoadErr)
	assert.Equal(t, []Effect{FetchSlots{}}, effects)
}

func TestLoadingIgnoresUserEvents(t *testing.T) {
	m, _ := New()
	next, effects := Transition(m, SelectSlot{SlotID: "x"})
	assert.Equal(t, m, next)
	assert.Empty(t, effects)
}

// =============================================================================
// SLOT LIST
// =============================================================================

func TestSelectSlot(t *testing.T) {
	m := loaded(t, model.Slot{ID: "1", IsSelected: true}, model.Slot{ID: "2"})

	m, effects := Transition(m, SelectSlot{SlotID: "2"})

	assert.Equal(t, StateSlotList, m.State)
	assert.False(t, m.Slots[0].IsSelected)
	assert.True(t, m.Slots[1].IsSelected)
	msg := notified(t, effects)
	assert.Equal(t, messenger.SelectSlot("2"), msg)
}

func TestShowDetailAndBack(t *testing.T) {
	m := loaded(t, model.Slot{ID: "1", Name: "one"})

	m, effects := Transition(m, ShowDetail{SlotID: "1"})
	assert.Empty(t, effects)
	require.Equal(t, StateSlotDetail, m.State)
	require.NotNil(t, m.SelectedSlot)
	assert.Equal(t, "one", m.SelectedSlot.Name)

	m, effects = Transition(m, Back{})
	assert.Empty(t, effects)
	assert.Equal(t, StateSlotList, m.State)
	assert.Nil(t, m.SelectedSlot)
}

func TestShowDetailUnknownIDIsIgnored(t *testing.T) {
	m := loaded(t, model.Slot{ID: "1"})

	m, _ = Transition(m, ShowDetail{SlotID: "missing"})

	assert.Equal(t, StateSlotList, m.State)
	assert.Nil(t, m.SelectedSlot)
}

func TestAddThenShowDetail(t *testing.T) {
	m := loaded(t)
	slot := model.NewSlot(model.WithSelected(true))

	m, _ = Transition(m, AddSlot{Slot: slot})
	m, _ = Transition(m, ShowDetail{SlotID: slot.ID})

	require.Equal(t, StateSlotDetail, m.State)
	assert.Equal(t, slot, *m.SelectedSlot)
}

func TestDeleteFromList(t *testing.T) {
	m := loaded(t, model.Slot{ID: "1"}, model.Slot{ID: "2"})

	m, effects := Transition(m, DeleteSlot{SlotID: "1"})

	assert.Equal(t, StateSlotList, m.State)
	require.Len(t, m.Slots, 1)
	assert.Equal(t, "2", m.Slots[0].ID)
	assert.Equal(t, messenger.DeleteSlot("1"), notified(t, effects))
}

func TestChangeApiKeyExitsPage(t *testing.T) {
	m := loaded(t)
	next, effects := Transition(m, ChangeApiKey{})
	assert.Equal(t, m, next)
	assert.Equal(t, []Effect{ExitPage{}}, effects)
}

func TestListIgnoresDetailEvents(t *testing.T) {
	m := loaded(t, model.Slot{ID: "1"})

	next, effects := Transition(m, UpdateSlot{Slot: model.Slot{ID: "1", Name: "x"}})
	assert.Equal(t, m, next)
	assert.Empty(t, effects)
}

// =============================================================================
// SLOT DETAIL
// =============================================================================

func TestUpdateInDetail(t *testing.T) {
	m := loaded(t, model.Slot{ID: "1"}, model.Slot{ID: "2"})
	m, _ = Transition(m, ShowDetail{SlotID: "2"})

	updated := model.Slot{ID: "2", Name: "writer", System: "be terse"}
	m, effects := Transition(m, UpdateSlot{Slot: updated})

	assert.Equal(t, StateSlotDetail, m.State)
	assert.Equal(t, updated, m.Slots[1])
	assert.Equal(t, updated, *m.SelectedSlot)
	assert.Equal(t, messenger.UpdateSlotData(updated), notified(t, effects))
}

func TestDeleteFromDetailThenBack(t *testing.T) {
	m := loaded(t, model.Slot{ID: "1"})
	m, _ = Transition(m, ShowDetail{SlotID: "1"})

	m, effects := Transition(m, DeleteSlot{SlotID: "1"})
	assert.Equal(t, StateSlotDetail, m.State)
	assert.Empty(t, m.Slots)
	assert.Equal(t, messenger.DeleteSlot("1"), notified(t, effects))

	m, _ = Transition(m, Back{})
	assert.Equal(t, StateSlotList, m.State)
}

func TestDetailIgnoresSelect(t *testing.T) {
	m := loaded(t, model.Slot{ID: "1"})
	m, _ = Transition(m, ShowDetail{SlotID: "1"})

	next, effects := Transition(m, SelectSlot{SlotID: "1"})
	assert.Equal(t, m, next)
	assert.Empty(t, effects)
}

func TestEveryMutationIsMirrored(t *testing.T) {
	m := loaded(t)
	slot := model.NewSlot(model.WithSelected(true))

	var sent []messenger.MessageType
	step := func(ev Event) {
		var effects []Effect
		m, effects = Transition(m, ev)
		for _, e := range effects {
			if n, ok := e.(Notify); ok {
				sent = append(sent, n.Message.Type)
			}
		}
	}

	step(AddSlot{Slot: slot})
	step(SelectSlot{SlotID: slot.ID})
	step(ShowDetail{SlotID: slot.ID})
	step(UpdateSlot{Slot: slot})
	step(DeleteSlot{SlotID: slot.ID})
	step(Back{})

	assert.Equal(t, []messenger.MessageType{
		messenger.TypeAddNewSlot,
		messenger.TypeSelectSlot,
		messenger.TypeUpdateSlotData,
		messenger.TypeDeleteSlot,
	}, sent)
}
