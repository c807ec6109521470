// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// rigrun-slots.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - DaemonConfig: Background daemon listener and rate limits
//   - ClientConfig: How the TUI reaches the background
//   - StorageConfig: Data directory and credential passphrase
//   - LogConfig: Log level and format
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RIGRUN_SLOTS_*)
//   - ~/.rigrun-slots/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// A running daemon can follow edits to the file:
//
//	w, err := config.Watch(ctx, path, func(cfg *config.Config) { ... })
package config
