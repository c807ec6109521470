// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package daemon assembles the background context from configuration.
//
// OpenBackend locks the data directory and opens the stores behind a
// background.Service. Run serves that service over WebSocket and follows
// config file edits until its context is cancelled. The embedded TUI mode
// uses OpenBackend directly with an in-process messenger.Pipe.
package daemon
