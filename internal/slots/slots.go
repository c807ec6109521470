// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package slots implements the operations over an ordered slot collection.
package slots

import (
	"github.com/jeranaias/rigrun-slots/internal/model"
)

// GetSelectedSlot returns the selected slot. If a broken collection has more
// than one, the first in sequence order wins.
func GetSelectedSlot(c []model.Slot) (model.Slot, bool) {
	for _, s := range c {
		if s.IsSelected {
			return s, true
		}
	}
	return model.Slot{}, false
}

// FindSlot returns the first slot with the given id.
func FindSlot(c []model.Slot, id string) (model.Slot, bool) {
	for _, s := range c {
		if s.ID == id {
			return s, true
		}
	}
	return model.Slot{}, false
}

// AddSlot appends slot to the end of the collection.
func AddSlot(c []model.Slot, slot model.Slot) []model.Slot {
	out := make([]model.Slot, 0, len(c)+1)
	out = append(out, c...)
	return append(out, slot)
}

// UpdateSlot replaces the entry whose id matches updated.ID, keeping its
// position. It never inserts.
func UpdateSlot(c []model.Slot, updated model.Slot) []model.Slot {
	out := clone(c)
	for i := range out {
		if out[i].ID == updated.ID {
			out[i] = updated
		}
	}
	return out
}

// DeleteSlot removes the entry with the given id. The selection flag is not
// moved to another slot.
func DeleteSlot(c []model.Slot, id string) []model.Slot {
	out := make([]model.Slot, 0, len(c))
	for _, s := range c {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

// SelectSlot marks the slot with the given id selected and every other slot
// unselected. An unknown id leaves the collection with no selection.
func SelectSlot(c []model.Slot, id string) []model.Slot {
	out := clone(c)
	for i := range out {
		out[i].IsSelected = out[i].ID == id
	}
	return out
}

func clone(c []model.Slot) []model.Slot {
	out := make([]model.Slot, len(c))
	copy(out, c)
	return out
}
