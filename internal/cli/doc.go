// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the rigrun-slots command line.
//
// # Commands
//
//	rigrun-slots [tui]              interactive slot manager (default)
//	rigrun-slots daemon             serve the background over WebSocket
//	rigrun-slots slots list         print the slot collection
//	rigrun-slots slots select ID    select a slot
//	rigrun-slots slots delete ID    delete a slot
//	rigrun-slots slots export       write the collection as YAML
//	rigrun-slots shell              line-oriented REPL
//	rigrun-slots config show|path|init
//	rigrun-slots version
//
// Every foreground command reaches the background through a messenger. By
// default that is a WebSocket connection to the daemon; with --embedded
// (or client.embedded in the config) the background runs in-process over a
// pipe and takes the data directory lock itself.
package cli
