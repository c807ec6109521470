// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/rigrun-slots/internal/background"
	"github.com/jeranaias/rigrun-slots/internal/config"
	"github.com/jeranaias/rigrun-slots/internal/logging"
	"github.com/jeranaias/rigrun-slots/internal/server"
	"github.com/jeranaias/rigrun-slots/internal/storage"
)

// =============================================================================
// BACKEND
// =============================================================================

// Backend owns the data directory for the lifetime of a background context.
type Backend struct {
	Service *background.Service

	lock  *storage.Lock
	slots *storage.SlotStore
}

// OpenBackend locks the configured data dir and opens its stores. It fails
// with storage.ErrLocked while another daemon or embedded session runs.
func OpenBackend(cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	dir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}

	lock, err := storage.AcquireLock(dir)
	if err != nil {
		return nil, err
	}

	slots, err := storage.OpenSlotStore(filepath.Join(dir, storage.SlotsDBName))
	if err != nil {
		lock.Release()
		return nil, err
	}

	creds, err := storage.OpenCredentialStore(dir, cfg.Storage.Passphrase)
	if err != nil {
		slots.Close()
		lock.Release()
		return nil, err
	}

	logger.Info("backend opened", "data_dir", dir)
	return &Backend{
		Service: background.NewService(slots, creds, background.WithLogger(logger)),
		lock:    lock,
		slots:   slots,
	}, nil
}

// Close releases the stores and the data dir lock.
func (b *Backend) Close() error {
	return errors.Join(b.slots.Close(), b.lock.Release())
}

// =============================================================================
// RUN
// =============================================================================

// Options carries the pieces of the daemon that outlive a config reload.
type Options struct {
	// ConfigPath is watched for edits when the file exists
	ConfigPath string
	Logger     *slog.Logger
	// LevelVar receives log level changes from reloaded config
	LevelVar *slog.LevelVar
	Version  string
}

// Run serves the background until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	backend, err := OpenBackend(cfg, logger)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer backend.Close()

	srv := server.New(server.Config{
		Addr:           cfg.Daemon.ListenAddr,
		AllowedOrigins: cfg.Daemon.AllowedOrigins,
		RateLimit:      cfg.Daemon.RateLimit,
		RateBurst:      cfg.Daemon.RateBurst,
		Version:        opts.Version,
	}, backend.Service, server.WithLogger(logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if opts.ConfigPath != "" {
		if _, statErr := os.Stat(opts.ConfigPath); statErr == nil {
			w, err := config.NewWatcher(opts.ConfigPath, func(next *config.Config) {
				applyReload(cfg, next, opts.LevelVar, logger)
			}, config.WithWatchLogger(logger))
			if err != nil {
				logger.Warn("config watch disabled", "error", err)
			} else {
				g.Go(func() error { return w.Run(gctx) })
			}
		}
	}

	return g.Wait()
}

// applyReload applies the settings that can change without a restart and
// warns about the rest.
func applyReload(current, next *config.Config, levelVar *slog.LevelVar, logger *slog.Logger) {
	if levelVar != nil {
		if level, err := logging.ParseLevel(next.Log.Level); err == nil && level != levelVar.Level() {
			levelVar.Set(level)
			logger.Info("log level changed", "level", level)
		}
	}
	if next.Daemon.ListenAddr != current.Daemon.ListenAddr || next.Storage.DataDir != current.Storage.DataDir {
		logger.Warn("listen_addr and data_dir changes take effect on restart")
	}
}
