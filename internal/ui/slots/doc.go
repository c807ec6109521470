// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package slots provides the slot list and slot detail pages.
//
// Model is a Bubble Tea adapter around machine/page: key presses become
// page events, the pure transition decides the next state, and the
// returned effects run here. Notifications are handed to the messenger
// inside Update, in event order; the initial fetch runs as a tea.Cmd.
//
// The page never leaves on its own. ChangeApiKeyMsg and QuickChatMsg are
// returned to the parent model, which owns the application machine.
package slots
