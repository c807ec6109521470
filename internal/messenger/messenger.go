// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package messenger connects the foreground context to the background
// context.
package messenger

import (
	"context"
	"encoding/json"
	"fmt"
)

// Messenger is the foreground's only way to reach the background.
type Messenger interface {
	// Send delivers msg without waiting. Failures are logged and dropped.
	Send(msg Message)

	// SendAsync delivers msg and waits for the reply payload.
	SendAsync(ctx context.Context, msg Message) (json.RawMessage, error)

	// Close releases the transport. Pending requests fail with ErrClosed.
	Close() error
}

// Handler is implemented by the background. The returned value is encoded
// as the reply payload of request messages and discarded for notifications.
type Handler interface {
	Handle(ctx context.Context, msg Message) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) (any, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, msg Message) (any, error) {
	return f(ctx, msg)
}

// Call sends a request and decodes the reply into T.
func Call[T any](ctx context.Context, m Messenger, msg Message) (T, error) {
	var out T
	raw, err := m.SendAsync(ctx, msg)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s reply: %w", msg.Type, err)
	}
	return out, nil
}

// Dispatch runs h for one incoming envelope. For requests it returns the
// response envelope; for notifications it returns nil and the handler
// error, which the caller may only log.
func Dispatch(ctx context.Context, h Handler, env Envelope) (*Envelope, error) {
	if env.Message == nil {
		if env.Kind != KindRequest {
			return nil, fmt.Errorf("envelope %q has no message", env.ID)
		}
		return &Envelope{ID: env.ID, Kind: KindResponse, Error: NewRemoteError(CodeBadRequest, "missing message")}, nil
	}

	result, err := h.Handle(ctx, *env.Message)
	if env.Kind != KindRequest {
		return nil, err
	}

	resp := &Envelope{ID: env.ID, Kind: KindResponse}
	if err != nil {
		resp.Error = AsRemoteError(err)
		return resp, nil
	}
	if result != nil {
		raw, mErr := json.Marshal(result)
		if mErr != nil {
			resp.Error = NewRemoteError(CodeInternal, "encode reply: %v", mErr)
			return resp, nil
		}
		resp.Data = raw
	}
	return resp, nil
}
