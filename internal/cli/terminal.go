// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/jeranaias/rigrun-slots/internal/logging"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// LOGGING
// =============================================================================

func newLogger(w io.Writer, level, format string) (*slog.Logger, *slog.LevelVar) {
	return logging.New(logging.Options{Level: level, Format: format, Output: w})
}
