// rigrun-slots - slot manager for the rigrun assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/rigrun-slots/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

func init() {
	cli.Version = Version
	cli.BuildTime = BuildTime
}

func main() {
	os.Exit(cli.Execute())
}
