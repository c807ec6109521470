// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package slots implements the operations over an ordered slot collection.
//
// Every function is pure: the input slice is never modified and the result
// is a fresh slice. Operations addressed at an id that is not present are
// not errors; they return an unchanged copy.
//
// The single-selection invariant (at most one selected slot) is enforced in
// exactly one place, SelectSlot. AddSlot trusts the caller to decide the
// selection flag of the new slot.
package slots
