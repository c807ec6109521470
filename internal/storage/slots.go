// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/jeranaias/rigrun-slots/internal/model"
)

// SlotsDBName is the database file name inside the data dir.
const SlotsDBName = "slots.db"

const slotsSchema = `
CREATE TABLE IF NOT EXISTS slots (
	id            TEXT PRIMARY KEY,
	position      INTEGER NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	type          TEXT NOT NULL,
	is_selected   INTEGER NOT NULL DEFAULT 0,
	assistant     TEXT NOT NULL DEFAULT '',
	system_prompt TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_slots_position ON slots(position);
`

// =============================================================================
// SLOT STORE
// =============================================================================

// SlotStore persists the slot collection. The collection is always written
// as a whole so the stored order is the collection order.
type SlotStore struct {
	db *sql.DB
}

// OpenSlotStore opens (creating if needed) the SQLite database at path.
func OpenSlotStore(path string) (*SlotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(slotsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SlotStore{db: db}, nil
}

// Close releases the database.
func (s *SlotStore) Close() error {
	return s.db.Close()
}

// Load returns the stored collection in order. An empty store yields an
// empty, non-nil collection.
func (s *SlotStore) Load(ctx context.Context) ([]model.Slot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, is_selected, assistant, system_prompt
		FROM slots ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	out := []model.Slot{}
	for rows.Next() {
		var (
			slot     model.Slot
			slotType string
			selected int
		)
		if err := rows.Scan(&slot.ID, &slot.Name, &slotType, &selected, &slot.Assistant, &slot.System); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slot.Type = model.SlotType(slotType)
		slot.IsSelected = selected != 0
		out = append(out, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read slots: %w", err)
	}
	return out, nil
}

// Save replaces the stored collection with slots in a single transaction.
func (s *SlotStore) Save(ctx context.Context, slots []model.Slot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM slots"); err != nil {
		return fmt.Errorf("failed to clear slots: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO slots (id, position, name, type, is_selected, assistant, system_prompt)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, slot := range slots {
		selected := 0
		if slot.IsSelected {
			selected = 1
		}
		if _, err := stmt.ExecContext(ctx, slot.ID, i, slot.Name, string(slot.Type), selected, slot.Assistant, slot.System); err != nil {
			return fmt.Errorf("failed to insert slot %s: %w", slot.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit slots: %w", err)
	}
	return nil
}
