// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package messenger connects the foreground context to the background
// context.
//
// Two primitives are offered over an asynchronous transport:
//
//   - Send: fire-and-forget. Best effort, no acknowledgement, no retry.
//   - SendAsync: request/response. Returns the background's reply payload,
//     an ErrTransport-wrapped error when the background is unreachable, or
//     a *RemoteError when the background answered with an explicit failure.
//
// Messages are a tagged union keyed by Type with a JSON Data payload whose
// shape depends on the type. The messenger is a transport, not a router: it
// never looks inside Data.
//
// # Transports
//
//   - Pipe: in-process, one ordered queue drained by one goroutine
//   - Client: WebSocket connection to a running daemon
//
// Both deliver messages from one sender in send order.
package messenger
