// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-slots/internal/logging"
	"github.com/jeranaias/rigrun-slots/internal/ui/app"
	"github.com/jeranaias/rigrun-slots/internal/ui/styles"
)

// TUILogName is the log file of the interactive interface, under the data
// directory.
const TUILogName = "tui.log"

func newTUICommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive slot manager (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *globalOptions) error {
	if !IsTTY() || !IsStdoutTTY() {
		return errors.New("the interactive interface needs a terminal; use `rigrun-slots slots list` or `rigrun-slots shell` instead")
	}
	if opts.noColor || os.Getenv("NO_COLOR") != "" {
		styles.DisableColor()
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	dataDir, err := cfg.DataDir()
	if err != nil {
		return err
	}

	// The TUI owns the terminal; logs go to a file.
	logFile, err := logging.OpenFile(filepath.Join(dataDir, TUILogName))
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger, _ := newLogger(logFile, cfg.Log.Level, cfg.Log.Format)

	ctx := cmd.Context()
	ms, closeFn, err := opts.connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	logger.Info("tui started", "version", Version, "embedded", opts.embedded || cfg.Client.Embedded)
	model := app.New(ms, styles.NewTheme(), app.WithRequestTimeout(cfg.Client.RequestTimeout()))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
