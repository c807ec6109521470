// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/rigrun-slots/internal/model"
	"github.com/jeranaias/rigrun-slots/internal/util"
)

const (
	// CredentialFileName holds the sealed credential
	CredentialFileName = "credential.enc"
	// MasterKeyFileName holds the random sealing key
	MasterKeyFileName = "master.key"
	// SaltFileName holds the PBKDF2 salt when a passphrase is configured
	SaltFileName = "credential.salt"
)

// ErrNotFound is returned when no credential has been stored.
var ErrNotFound = errors.New("credential not found")

// =============================================================================
// CREDENTIAL STORE
// =============================================================================

// CredentialStore keeps at most one credential, sealed on disk.
type CredentialStore struct {
	mu     sync.Mutex
	path   string
	sealer *Sealer
}

// OpenCredentialStore prepares a store in dir. With an empty passphrase the
// sealing key is a random master key kept next to the credential; otherwise
// it is derived from the passphrase and a stored salt.
func OpenCredentialStore(dir, passphrase string) (*CredentialStore, error) {
	var key []byte
	if passphrase == "" {
		k, err := loadOrCreateSecret(filepath.Join(dir, MasterKeyFileName), KeySize)
		if err != nil {
			return nil, fmt.Errorf("failed to load master key: %w", err)
		}
		key = k
	} else {
		salt, err := loadOrCreateSecret(filepath.Join(dir, SaltFileName), SaltSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load salt: %w", err)
		}
		key = DeriveKey(passphrase, salt)
	}
	defer ZeroBytes(key)

	sealer, err := NewSealer(key)
	if err != nil {
		return nil, err
	}
	return &CredentialStore{
		path:   filepath.Join(dir, CredentialFileName),
		sealer: sealer,
	}, nil
}

// Load returns the stored credential or ErrNotFound.
func (s *CredentialStore) Load() (model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.Credential{}, ErrNotFound
	}
	if err != nil {
		return model.Credential{}, fmt.Errorf("failed to read credential: %w", err)
	}

	plaintext, err := s.sealer.Open(string(data))
	if err != nil {
		return model.Credential{}, fmt.Errorf("failed to open credential: %w", err)
	}
	defer ZeroBytes(plaintext)

	var cred model.Credential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return model.Credential{}, fmt.Errorf("failed to decode credential: %w", err)
	}
	return cred, nil
}

// Save seals and atomically replaces the stored credential.
func (s *CredentialStore) Save(cred model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plaintext, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	defer ZeroBytes(plaintext)

	sealed, err := s.sealer.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("failed to seal credential: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, []byte(sealed), 0600); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	return nil
}

// Clear erases the stored credential. Clearing an empty store succeeds.
func (s *CredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	return nil
}
