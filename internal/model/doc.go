// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the foreground and
// background contexts.
//
// # Key Types
//
//   - Slot: A named, typed assistant configuration profile
//   - SlotType: Tag identifying the assistant backend a slot configures
//   - Credential: The accessKeyId / secretAccessKey / sessionToken bundle
//
// # Usage
//
// Create the first slot of an empty collection:
//
//	slot := model.NewSlot(model.WithSelected(len(slots) == 0))
//
// Show a slot in a list:
//
//	fmt.Println(slot.DisplayName())
//
// Slots travel over the wire as JSON with camelCase field names (id, name,
// type, isSelected, assistant, system).
package model
