// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package background holds the authoritative slot collection and the
// assistant credential, and answers messenger requests about them.
//
// The Service is transport agnostic: the daemon serves it over WebSocket
// and the embedded TUI mode drives it through a messenger.Pipe.
//
// # Usage
//
//	svc := background.NewService(slotStore, credStore, background.WithLogger(logger))
//	pipe := messenger.NewPipe(svc)
package background
