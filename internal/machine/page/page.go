// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package page implements the slot management page state machine.
//
// The machine owns the in-memory slot collection for one UI session. It is
// populated once by a fetch and then every local mutation is applied
// optimistically and mirrored to the background as a fire-and-forget
// notification effect.
package page

import (
	"github.com/jeranaias/rigrun-slots/internal/messenger"
	"github.com/jeranaias/rigrun-slots/internal/model"
	"github.com/jeranaias/rigrun-slots/internal/slots"
)

// =============================================================================
// STATES
// =============================================================================

// State is the navigation state of the page.
type State string

const (
	StateLoadingSlots State = "loading_slots"
	StateLoadFailed   State = "load_failed"
	StateSlotList     State = "slot_list"
	StateSlotDetail   State = "slot_detail"
)

// =============================================================================
// EVENTS
// =============================================================================

// Event drives a transition.
type Event interface{ pageEvent() }

// SlotsLoaded carries the result of a successful initial fetch.
type SlotsLoaded struct{ Slots []model.Slot }

// SlotsLoadFailed carries the error of the initial fetch.
type SlotsLoadFailed struct{ Err error }

// Retry re-enters loading_slots after a failed fetch.
type Retry struct{}

// AddSlot appends a slot built by the caller.
type AddSlot struct{ Slot model.Slot }

// SelectSlot makes SlotID the only selected slot.
type SelectSlot struct{ SlotID string }

// ShowDetail opens the detail view for SlotID.
type ShowDetail struct{ SlotID string }

// UpdateSlot replaces the slot with the same id.
type UpdateSlot struct{ Slot model.Slot }

// DeleteSlot removes SlotID.
type DeleteSlot struct{ SlotID string }

// Back leaves the detail view.
type Back struct{}

// ChangeApiKey asks the parent to leave the page for credential entry.
type ChangeApiKey struct{}

func (SlotsLoaded) pageEvent()     {}
func (SlotsLoadFailed) pageEvent() {}
func (Retry) pageEvent()           {}
func (AddSlot) pageEvent()         {}
func (SelectSlot) pageEvent()      {}
func (ShowDetail) pageEvent()      {}
func (UpdateSlot) pageEvent()      {}
func (DeleteSlot) pageEvent()      {}
func (Back) pageEvent()            {}
func (ChangeApiKey) pageEvent()    {}

// =============================================================================
// EFFECTS
// =============================================================================

// Effect is work the host must perform after a transition.
type Effect interface{ pageEffect() }

// FetchSlots requests the full collection from the background. The host
// answers with SlotsLoaded or SlotsLoadFailed.
type FetchSlots struct{}

// Notify sends Message to the background without waiting.
type Notify struct{ Message messenger.Message }

// ExitPage tells the parent to leave slot management.
type ExitPage struct{}

func (FetchSlots) pageEffect() {}
func (Notify) pageEffect()     {}
func (ExitPage) pageEffect()   {}

// =============================================================================
// MACHINE
// =============================================================================

// Machine is the page state plus its context.
type Machine struct {
	State State

	// Slots is the session's working copy of the collection.
	Slots []model.Slot

	// SelectedSlot is the slot open in the detail view. It is nil outside
	// slot_detail.
	SelectedSlot *model.Slot

	// LoadErr is the error of the last failed fetch.
	LoadErr error
}

// New returns a machine entering loading_slots and the fetch it requires.
func New() (Machine, []Effect) {
	return Machine{State: StateLoadingSlots, Slots: []model.Slot{}}, []Effect{FetchSlots{}}
}

// Matches reports whether the machine is in state s.
func (m Machine) Matches(s State) bool {
	return m.State == s
}

// Transition applies ev to m.
func Transition(m Machine, ev Event) (Machine, []Effect) {
	switch m.State {
	case StateLoadingSlots:
		return loadingSlots(m, ev)
	case StateLoadFailed:
		if _, ok := ev.(Retry); ok {
			m.State = StateLoadingSlots
			m.LoadErr = nil
			return m, []Effect{FetchSlots{}}
		}
	case StateSlotList:
		return slotList(m, ev)
	case StateSlotDetail:
		return slotDetail(m, ev)
	}
	return m, nil
}

func loadingSlots(m Machine, ev Event) (Machine, []Effect) {
	switch e := ev.(type) {
	case SlotsLoaded:
		m.State = StateSlotList
		m.Slots = e.Slots
		if m.Slots == nil {
			m.Slots = []model.Slot{}
		}
	case SlotsLoadFailed:
		m.State = StateLoadFailed
		m.LoadErr = e.Err
	}
	return m, nil
}

func slotList(m Machine, ev Event) (Machine, []Effect) {
	switch e := ev.(type) {
	case AddSlot:
		m.Slots = slots.AddSlot(m.Slots, e.Slot)
		return m, notify(messenger.AddNewSlot(e.Slot))

	case SelectSlot:
		m.Slots = slots.SelectSlot(m.Slots, e.SlotID)
		return m, notify(messenger.SelectSlot(e.SlotID))

	case ShowDetail:
		found, ok := slots.FindSlot(m.Slots, e.SlotID)
		if !ok {
			return m, nil
		}
		m.State = StateSlotDetail
		m.SelectedSlot = &found

	case DeleteSlot:
		return deleteSlot(m, e)

	case ChangeApiKey:
		return m, []Effect{ExitPage{}}
	}
	return m, nil
}

func slotDetail(m Machine, ev Event) (Machine, []Effect) {
	switch e := ev.(type) {
	case UpdateSlot:
		m.Slots = slots.UpdateSlot(m.Slots, e.Slot)
		if m.SelectedSlot != nil && m.SelectedSlot.ID == e.Slot.ID {
			updated := e.Slot
			m.SelectedSlot = &updated
		}
		return m, notify(messenger.UpdateSlotData(e.Slot))

	case DeleteSlot:
		return deleteSlot(m, e)

	case Back:
		m.State = StateSlotList
		m.SelectedSlot = nil
	}
	return m, nil
}

func deleteSlot(m Machine, e DeleteSlot) (Machine, []Effect) {
	m.Slots = slots.DeleteSlot(m.Slots, e.SlotID)
	return m, notify(messenger.DeleteSlot(e.SlotID))
}

func notify(msg messenger.Message) []Effect {
	return []Effect{Notify{Message: msg}}
}
