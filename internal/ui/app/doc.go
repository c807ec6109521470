// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model of the terminal interface.
//
// It drives the bootstrap machine: credential entry until the background
// accepts a key, then the slot list page, with quick chat reachable from
// the list. Every entry to the slot list page starts a fresh page session.
package app
