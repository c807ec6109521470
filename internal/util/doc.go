// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the storage and UI layers.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// String Utilities:
//   - NormalizeName: NFC-normalised, control-free slot names
//   - TruncateWidth: Display-width aware truncation with ellipsis
//   - PadWidth: Right-pad to a display width
//
// # Usage
//
//	err := util.AtomicWriteFile(path, sealed, 0600)
//	row := util.PadWidth(util.TruncateWidth(slot.Name, 24), 24)
package util
