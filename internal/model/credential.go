// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the foreground and
// background contexts.
package model

import "strings"

// Credential is the key bundle that gates slot management. It is opaque to
// the foreground; only the background decides whether it is valid.
type Credential struct {
	AccessKeyID     string `json:"accessKeyId" validate:"required,len=20,alphanum,uppercase"`
	SecretAccessKey string `json:"secretAccessKey" validate:"required,len=40"`
	SessionToken    string `json:"sessionToken" validate:"omitempty,min=16"`
}

// IsEmpty reports whether no field is set. The reset credential is empty.
func (c Credential) IsEmpty() bool {
	return c.AccessKeyID == "" && c.SecretAccessKey == "" && c.SessionToken == ""
}

// Redacted returns a form safe for logs: the access key id keeps its first
// four characters and the secrets are masked.
func (c Credential) Redacted() Credential {
	return Credential{
		AccessKeyID:     mask(c.AccessKeyID, 4),
		SecretAccessKey: mask(c.SecretAccessKey, 0),
		SessionToken:    mask(c.SessionToken, 0),
	}
}

func mask(s string, keep int) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	if keep > len(runes) {
		keep = len(runes)
	}
	return string(runes[:keep]) + strings.Repeat("*", len(runes)-keep)
}
