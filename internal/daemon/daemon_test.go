// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-slots/internal/config"
	"github.com/jeranaias/rigrun-slots/internal/logging"
	"github.com/jeranaias/rigrun-slots/internal/messenger"
	"github.com/jeranaias/rigrun-slots/internal/model"
	"github.com/jeranaias/rigrun-slots/internal/storage"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()
	addr := freeAddr(t)
	cfg.Daemon.ListenAddr = addr
	cfg.Client.DaemonURL = fmt.Sprintf("ws://%s/ws", addr)
	return cfg
}

func TestOpenBackend_ExclusiveDataDir(t *testing.T) {
	cfg := testConfig(t)

	first, err := OpenBackend(cfg, nil)
	require.NoError(t, err)

	_, err = OpenBackend(cfg, nil)
	assert.ErrorIs(t, err, storage.ErrLocked)

	require.NoError(t, first.Close())

	second, err := OpenBackend(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestRun_ServesAndStops(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, Options{Version: "test"}) }()

	var client *messenger.Client
	require.Eventually(t, func() bool {
		dialCtx, dialCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer dialCancel()
		c, err := messenger.Dial(dialCtx, cfg.Client.DaemonURL)
		if err != nil {
			return false
		}
		client = c
		return true
	}, 5*time.Second, 50*time.Millisecond)
	defer client.Close()

	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()

	slot := model.NewSlot(model.WithName("daemon"))
	client.Send(messenger.AddNewSlot(slot))
	got, err := messenger.Call[[]model.Slot](callCtx, client, messenger.GetSlots())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, slot.ID, got[0].ID)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not stop")
	}

	// Lock released on exit
	b, err := OpenBackend(cfg, nil)
	require.NoError(t, err)
	b.Close()
}

func TestRun_ReloadsLogLevel(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, config.SaveTOML(cfg, path))

	logger, levelVar := logging.New(logging.Options{Level: "info", Output: io.Discard})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg, Options{ConfigPath: path, Logger: logger, LevelVar: levelVar})
	}()

	// Give the watcher time to register before editing
	time.Sleep(200 * time.Millisecond)
	edited := *cfg
	edited.Log.Level = "debug"
	require.NoError(t, config.SaveTOML(&edited, path))

	require.Eventually(t, func() bool {
		return levelVar.Level() == slog.LevelDebug
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}
