// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package machine groups the finite-state machines that drive the
// foreground context.
//
// Each machine is a value plus a pure Transition function:
//
//	next, effects := page.Transition(current, page.SelectSlot{SlotID: id})
//
// Transition never performs I/O. Side effects (fetches, notifications to the
// background) are returned as Effect values and executed by the UI layer,
// which feeds their outcome back as further events. A (state, event) pair
// with no transition returns the machine unchanged and no effects.
//
// # Subpackages
//
//   - bootstrap: credential gate in front of slot management
//   - page: slot list / slot detail navigation and optimistic edits
package machine
