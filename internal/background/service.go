// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jeranaias/rigrun-slots/internal/logging"
	"github.com/jeranaias/rigrun-slots/internal/messenger"
	"github.com/jeranaias/rigrun-slots/internal/model"
	"github.com/jeranaias/rigrun-slots/internal/slots"
	"github.com/jeranaias/rigrun-slots/internal/storage"
)

// =============================================================================
// REPOSITORIES
// =============================================================================

// SlotRepository persists the slot collection as a whole.
type SlotRepository interface {
	Load(ctx context.Context) ([]model.Slot, error)
	Save(ctx context.Context, slots []model.Slot) error
}

// CredentialRepository persists at most one credential. Load returns
// storage.ErrNotFound when nothing is stored.
type CredentialRepository interface {
	Load() (model.Credential, error)
	Save(cred model.Credential) error
	Clear() error
}

// =============================================================================
// SERVICE
// =============================================================================

// Service implements messenger.Handler.
type Service struct {
	// mu serializes read-modify-write cycles on the collection
	mu     sync.Mutex
	slots  SlotRepository
	creds  CredentialRepository
	logger *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service over the given repositories.
func NewService(slotRepo SlotRepository, credRepo CredentialRepository, opts ...Option) *Service {
	s := &Service{
		slots:  slotRepo,
		creds:  credRepo,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ messenger.Handler = (*Service)(nil)

// Handle routes one message. Unknown types are a bad request.
func (s *Service) Handle(ctx context.Context, msg messenger.Message) (any, error) {
	start := time.Now()
	result, err := s.route(ctx, msg)

	outcome := "ok"
	if err != nil {
		outcome = string(messenger.AsRemoteError(err).Code)
		s.logger.Warn("message failed", "type", msg.Type, "error", err)
	} else {
		s.logger.Debug("message handled", "type", msg.Type, "duration", time.Since(start))
	}
	messagesTotal.WithLabelValues(string(msg.Type), outcome).Inc()
	messageDuration.WithLabelValues(string(msg.Type)).Observe(time.Since(start).Seconds())

	return result, err
}

func (s *Service) route(ctx context.Context, msg messenger.Message) (any, error) {
	switch msg.Type {
	case messenger.TypeGetSlots:
		return s.GetSlots(ctx)

	case messenger.TypeAddNewSlot:
		var slot model.Slot
		if err := decode(msg, &slot); err != nil {
			return nil, err
		}
		return nil, s.AddNewSlot(ctx, slot)

	case messenger.TypeSelectSlot:
		var id string
		if err := decode(msg, &id); err != nil {
			return nil, err
		}
		return nil, s.SelectSlot(ctx, id)

	case messenger.TypeUpdateSlotData:
		var slot model.Slot
		if err := decode(msg, &slot); err != nil {
			return nil, err
		}
		return nil, s.UpdateSlotData(ctx, slot)

	case messenger.TypeDeleteSlot:
		var id string
		if err := decode(msg, &id); err != nil {
			return nil, err
		}
		return nil, s.DeleteSlot(ctx, id)

	case messenger.TypeGetApiKey:
		return s.GetApiKey()

	case messenger.TypeSaveApiKey:
		var cred model.Credential
		if err := decode(msg, &cred); err != nil {
			return nil, err
		}
		return nil, s.SaveApiKey(cred)

	case messenger.TypeResetApiKey:
		return nil, s.ResetApiKey()
	}
	return nil, messenger.NewRemoteError(messenger.CodeBadRequest, "unknown message type %q", msg.Type)
}

func decode(msg messenger.Message, v any) error {
	if err := msg.Decode(v); err != nil {
		return messenger.NewRemoteError(messenger.CodeBadRequest, "%s: %v", msg.Type, err)
	}
	return nil
}

// =============================================================================
// SLOT OPERATIONS
// =============================================================================

// GetSlots returns the stored collection.
func (s *Service) GetSlots(ctx context.Context) ([]model.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.slots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	if c == nil {
		c = []model.Slot{}
	}
	slotCount.Set(float64(len(c)))
	return c, nil
}

// AddNewSlot appends slot to the stored collection.
func (s *Service) AddNewSlot(ctx context.Context, slot model.Slot) error {
	if slot.ID == "" {
		return messenger.NewRemoteError(messenger.CodeValidation, "slot id is required")
	}
	if slot.Type == "" {
		slot.Type = model.DefaultSlotType
	}
	if !slot.Type.Valid() {
		return messenger.NewRemoteError(messenger.CodeValidation, "unknown slot type %q", slot.Type)
	}
	return s.mutate(ctx, func(c []model.Slot) []model.Slot {
		return slots.AddSlot(c, slot)
	})
}

// SelectSlot makes id the only selected slot.
func (s *Service) SelectSlot(ctx context.Context, id string) error {
	return s.mutate(ctx, func(c []model.Slot) []model.Slot {
		return slots.SelectSlot(c, id)
	})
}

// UpdateSlotData replaces the stored slot with the same id. A slot's type is
// fixed at creation, so the stored type is kept whatever the update carries.
func (s *Service) UpdateSlotData(ctx context.Context, slot model.Slot) error {
	if slot.Type != "" && !slot.Type.Valid() {
		return messenger.NewRemoteError(messenger.CodeValidation, "unknown slot type %q", slot.Type)
	}
	return s.mutate(ctx, func(c []model.Slot) []model.Slot {
		if existing, ok := slots.FindSlot(c, slot.ID); ok {
			slot.Type = existing.Type
		}
		return slots.UpdateSlot(c, slot)
	})
}

// DeleteSlot removes id. Deleting a missing id succeeds.
func (s *Service) DeleteSlot(ctx context.Context, id string) error {
	return s.mutate(ctx, func(c []model.Slot) []model.Slot {
		return slots.DeleteSlot(c, id)
	})
}

func (s *Service) mutate(ctx context.Context, apply func([]model.Slot) []model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.slots.Load(ctx)
	if err != nil {
		return fmt.Errorf("load slots: %w", err)
	}
	next := apply(current)
	if err := s.slots.Save(ctx, next); err != nil {
		return fmt.Errorf("save slots: %w", err)
	}
	slotCount.Set(float64(len(next)))
	return nil
}

// =============================================================================
// CREDENTIAL OPERATIONS
// =============================================================================

// GetApiKey returns the stored credential, or a not_found RemoteError.
func (s *Service) GetApiKey() (model.Credential, error) {
	cred, err := s.creds.Load()
	if errors.Is(err, storage.ErrNotFound) {
		return model.Credential{}, messenger.NewRemoteError(messenger.CodeNotFound, "no API key stored")
	}
	if err != nil {
		return model.Credential{}, fmt.Errorf("load credential: %w", err)
	}
	return cred, nil
}

// SaveApiKey validates and stores cred.
func (s *Service) SaveApiKey(cred model.Credential) error {
	if err := ValidateCredential(cred); err != nil {
		return err
	}
	if err := s.creds.Save(cred); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	s.logger.Info("api key saved", "access_key_id", cred.Redacted().AccessKeyID)
	return nil
}

// ResetApiKey erases the stored credential.
func (s *Service) ResetApiKey() error {
	if err := s.creds.Clear(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	s.logger.Info("api key reset")
	return nil
}
