// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the foreground and
// background contexts.
package model

import (
	"github.com/google/uuid"
)

// =============================================================================
// SLOT TYPE
// =============================================================================

// SlotType identifies the assistant backend a slot configures.
type SlotType string

const (
	// SlotTypeChatGPT is the type every new slot is created with.
	SlotTypeChatGPT SlotType = "ChatGPT"
	// SlotTypeBedrock configures an AWS Bedrock hosted assistant.
	SlotTypeBedrock SlotType = "Bedrock"
)

// DefaultSlotType is used by NewSlot when no type option is given.
const DefaultSlotType = SlotTypeChatGPT

// Valid reports whether t is one of the known slot types.
func (t SlotType) Valid() bool {
	switch t {
	case SlotTypeChatGPT, SlotTypeBedrock:
		return true
	}
	return false
}

// String returns the type tag.
func (t SlotType) String() string {
	return string(t)
}

// =============================================================================
// SLOT
// =============================================================================

// Slot is a configuration profile for the chat assistant.
//
// ID is assigned at creation and never changes. Type is fixed at creation.
// Assistant and System only mean something for slot types that use a
// persona and a system prompt.
type Slot struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Type       SlotType `json:"type" yaml:"type"`
	IsSelected bool     `json:"isSelected" yaml:"isSelected"`

	// Type-specific fields
	Assistant string `json:"assistant,omitempty" yaml:"assistant,omitempty"`
	System    string `json:"system,omitempty" yaml:"system,omitempty"`
}

// DisplayName returns the name shown in lists. Unnamed slots show their type.
func (s Slot) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.Type)
}

// SlotOption customises a slot built by NewSlot.
type SlotOption func(*Slot)

// WithSelected sets the initial selection flag.
func WithSelected(selected bool) SlotOption {
	return func(s *Slot) {
		s.IsSelected = selected
	}
}

// WithType overrides the slot type.
func WithType(t SlotType) SlotOption {
	return func(s *Slot) {
		s.Type = t
	}
}

// WithName sets the display name.
func WithName(name string) SlotOption {
	return func(s *Slot) {
		s.Name = name
	}
}

// NewSlot creates an unselected ChatGPT slot with a fresh ID and empty
// type-specific fields.
func NewSlot(opts ...SlotOption) Slot {
	s := Slot{
		ID:   uuid.NewString(),
		Type: DefaultSlotType,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
