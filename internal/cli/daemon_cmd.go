// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigrun-slots/internal/daemon"
	"github.com/jeranaias/rigrun-slots/internal/storage"
)

func newDaemonCommand(opts *globalOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Serve the background over WebSocket",
		Long: `Runs the background that stores slots and the API key, serving
foreground sessions at ws://<listen_addr>/ws. Metrics are exposed at
/metrics and liveness at /healthz. Only one daemon may use a data directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Daemon.ListenAddr = listen
			}
			path, err := opts.resolvedConfigPath()
			if err != nil {
				return err
			}

			logger, levelVar := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			logger.Info("daemon starting", "version", Version, "listen_addr", cfg.Daemon.ListenAddr)

			err = daemon.Run(cmd.Context(), cfg, daemon.Options{
				ConfigPath: path,
				Logger:     logger,
				LevelVar:   levelVar,
				Version:    Version,
			})
			if errors.Is(err, storage.ErrLocked) {
				return fmt.Errorf("another daemon or embedded session is using the data directory: %w", err)
			}
			if err != nil {
				return err
			}
			logger.Info("daemon stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides daemon.listen_addr)")
	return cmd
}
