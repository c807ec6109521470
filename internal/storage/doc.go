// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable state for the background context.
//
// # Key Types
//
//   - SlotStore: The slot collection in SQLite, in display order
//   - CredentialStore: The AWS credential, sealed with AES-256-GCM
//   - Sealer: Authenticated encryption used by CredentialStore
//   - Lock: Exclusive lock on the data directory
//
// # Usage
//
//	lock, err := storage.AcquireLock(dataDir)
//	defer lock.Release()
//
//	slots, err := storage.OpenSlotStore(filepath.Join(dataDir, storage.SlotsDBName))
//	current, err := slots.Load(ctx)
//
//	creds, err := storage.OpenCredentialStore(dataDir, passphrase)
//	cred, err := creds.Load()
//
// # Storage Location
//
// Everything lives under the configured data dir (default ~/.rigrun-slots/):
// slots.db, credential.enc, master.key (or credential.salt when a
// passphrase is configured) and daemon.lock.
package storage
