// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package messenger connects the foreground context to the background
// context.
package messenger

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/rigrun-slots/internal/model"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// MessageType is the discriminant of a Message.
type MessageType string

const (
	// TypeGetSlots requests the full slot collection. Request/response.
	TypeGetSlots MessageType = "GetSlots"
	// TypeAddNewSlot appends a Slot. Fire-and-forget.
	TypeAddNewSlot MessageType = "AddNewSlot"
	// TypeSelectSlot selects the slot with the given id. Fire-and-forget.
	TypeSelectSlot MessageType = "SelectSlot"
	// TypeUpdateSlotData replaces the slot with the same id. Fire-and-forget.
	TypeUpdateSlotData MessageType = "UpdateSlotData"
	// TypeDeleteSlot removes the slot with the given id. Fire-and-forget.
	TypeDeleteSlot MessageType = "DeleteSlot"
	// TypeGetApiKey fetches the stored credential. Request/response.
	TypeGetApiKey MessageType = "GetApiKey"
	// TypeSaveApiKey validates and stores a Credential. Request/response.
	TypeSaveApiKey MessageType = "SaveApiKey"
	// TypeResetApiKey erases the stored credential. Fire-and-forget.
	TypeResetApiKey MessageType = "ResetApiKey"
)

// Message is the unit exchanged between the contexts.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage builds a message with data encoded as JSON. A nil data leaves
// the payload empty.
func NewMessage(t MessageType, data any) (Message, error) {
	msg := Message{Type: t}
	if data == nil {
		return msg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	msg.Data = raw
	return msg, nil
}

// mustMessage is used by the typed constructors, whose payloads always encode.
func mustMessage(t MessageType, data any) Message {
	msg, err := NewMessage(t, data)
	if err != nil {
		panic(err)
	}
	return msg
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s: %w", m.Type, ErrNoPayload)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// GetSlots asks for the full slot collection.
func GetSlots() Message { return Message{Type: TypeGetSlots} }

// AddNewSlot announces an appended slot.
func AddNewSlot(slot model.Slot) Message { return mustMessage(TypeAddNewSlot, slot) }

// SelectSlot announces a selection change.
func SelectSlot(id string) Message { return mustMessage(TypeSelectSlot, id) }

// UpdateSlotData announces an edited slot.
func UpdateSlotData(slot model.Slot) Message { return mustMessage(TypeUpdateSlotData, slot) }

// DeleteSlot announces a removed slot.
func DeleteSlot(id string) Message { return mustMessage(TypeDeleteSlot, id) }

// GetApiKey asks for the stored credential.
func GetApiKey() Message { return Message{Type: TypeGetApiKey} }

// SaveApiKey submits a credential for validation and storage.
func SaveApiKey(cred model.Credential) Message { return mustMessage(TypeSaveApiKey, cred) }

// ResetApiKey tells the background to forget the stored credential.
func ResetApiKey() Message { return Message{Type: TypeResetApiKey} }

// =============================================================================
// ENVELOPE
// =============================================================================

// Kind says how an envelope must be treated by the receiver.
type Kind string

const (
	KindRequest  Kind = "request"
	KindNotify   Kind = "notify"
	KindResponse Kind = "response"
)

// Envelope is the wire frame. Requests and responses share an ID;
// notifications carry none.
type Envelope struct {
	ID      string          `json:"id,omitempty"`
	Kind    Kind            `json:"kind"`
	Message *Message        `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *RemoteError    `json:"error,omitempty"`
}
