// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package messenger connects the foreground context to the background
// context.
package messenger

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrTransport is wrapped by every failure to reach the background.
	ErrTransport = errors.New("background unreachable")
	// ErrClosed is returned after Close. It wraps ErrTransport.
	ErrClosed = fmt.Errorf("%w: messenger closed", ErrTransport)
	// ErrNoPayload is returned by Decode when the message carries no data.
	ErrNoPayload = errors.New("message has no payload")
)

func transportErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransport, fmt.Sprintf(format, args...))
}

// ErrorCode classifies an explicit failure reported by the background.
type ErrorCode string

const (
	CodeNotFound   ErrorCode = "not_found"
	CodeValidation ErrorCode = "validation"
	CodeBadRequest ErrorCode = "bad_request"
	CodeInternal   ErrorCode = "internal"
)

// RemoteError is an explicit failure returned by the background. It crosses
// the wire inside a response envelope.
type RemoteError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// NewRemoteError builds a RemoteError with a formatted message.
func NewRemoteError(code ErrorCode, format string, args ...any) *RemoteError {
	return &RemoteError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Name is the short title shown above the message in the UI.
func (e *RemoteError) Name() string {
	switch e.Code {
	case CodeNotFound:
		return "NotFoundError"
	case CodeValidation:
		return "ValidationError"
	case CodeBadRequest:
		return "BadRequestError"
	}
	return "Error"
}

// AsRemoteError converts any handler error into the form sent over the
// wire. Errors that are not already a RemoteError become internal errors.
func AsRemoteError(err error) *RemoteError {
	if err == nil {
		return nil
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re
	}
	return &RemoteError{Code: CodeInternal, Message: err.Error()}
}

// ErrorName returns a display title for any error returned by SendAsync.
func ErrorName(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Name()
	}
	if errors.Is(err, ErrTransport) {
		return "TransportError"
	}
	return "Error"
}
