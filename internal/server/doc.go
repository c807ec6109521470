// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes the background context to foreground sessions.
//
// # Endpoints
//
//   - GET /ws      - WebSocket carrying messenger envelopes
//   - GET /metrics - Prometheus metrics
//   - GET /healthz - Liveness and connection count
//
// Each WebSocket connection is one ordered pipe: envelopes are dispatched
// to the handler one at a time in arrival order. Requests are answered with
// a response envelope; notifications are not. A token bucket per connection
// slows down (rather than drops) a client that sends too fast.
//
// # Usage
//
//	srv := server.New(server.Config{Addr: "127.0.0.1:7433"}, svc, server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package server
