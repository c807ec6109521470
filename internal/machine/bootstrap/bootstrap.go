// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bootstrap implements the application state machine that gates
// slot management behind a credential accepted by the background.
package bootstrap

import (
	"github.com/jeranaias/rigrun-slots/internal/model"
)

// =============================================================================
// STATES
// =============================================================================

// State is the top-level screen of the application.
type State string

const (
	StateInit           State = "init"
	StateNoApiKey       State = "no_api_key"
	StateCheckingApiKey State = "checking_api_key"
	StateSlotListPage   State = "slot_list_page"
	StateQuickChat      State = "quick_chat"
)

// TagNoApiKeyPage marks the states rendered by the credential entry page.
const TagNoApiKeyPage = "noApiKeyPage"

var stateTags = map[State][]string{
	StateNoApiKey:       {TagNoApiKeyPage},
	StateCheckingApiKey: {TagNoApiKeyPage},
}

// =============================================================================
// EVENTS
// =============================================================================

// Event drives a transition.
type Event interface{ bootstrapEvent() }

// CredentialLoaded is the successful result of the initial credential fetch.
type CredentialLoaded struct{ Credential model.Credential }

// CredentialLoadFailed is the failed result of the initial credential fetch.
type CredentialLoadFailed struct{ Err error }

// CheckApiKey submits a credential typed by the user.
type CheckApiKey struct{ Credential model.Credential }

// CredentialSaved means the background accepted and stored the credential.
type CredentialSaved struct{}

// CredentialSaveFailed means the background rejected the credential or
// could not be reached.
type CredentialSaveFailed struct{ Err error }

// ResetApiKey forgets the credential and returns to credential entry.
type ResetApiKey struct{}

// GoToQuickChat opens the quick chat screen.
type GoToQuickChat struct{}

// ExitQuickChat returns to the slot list.
type ExitQuickChat struct{}

func (CredentialLoaded) bootstrapEvent()     {}
func (CredentialLoadFailed) bootstrapEvent() {}
func (CheckApiKey) bootstrapEvent()          {}
func (CredentialSaved) bootstrapEvent()      {}
func (CredentialSaveFailed) bootstrapEvent() {}
func (ResetApiKey) bootstrapEvent()          {}
func (GoToQuickChat) bootstrapEvent()        {}
func (ExitQuickChat) bootstrapEvent()        {}

// =============================================================================
// EFFECTS
// =============================================================================

// Effect is work the host must perform after a transition.
type Effect interface{ bootstrapEffect() }

// FetchCredential asks the background for the stored credential. The host
// answers with CredentialLoaded or CredentialLoadFailed.
type FetchCredential struct{}

// SaveCredential submits Credential for validation and storage. The host
// answers with CredentialSaved or CredentialSaveFailed.
type SaveCredential struct{ Credential model.Credential }

// ResetCredential tells the background to forget the stored credential,
// without waiting.
type ResetCredential struct{}

func (FetchCredential) bootstrapEffect() {}
func (SaveCredential) bootstrapEffect()  {}
func (ResetCredential) bootstrapEffect() {}

// =============================================================================
// MACHINE
// =============================================================================

// Machine is the application state plus its context.
type Machine struct {
	State State

	// Credential is the last loaded or submitted credential. After a failed
	// check it still holds what the user typed so it can be corrected.
	Credential model.Credential

	// CheckErr is the error of the last failed check, kept for display.
	CheckErr error
}

// New returns a machine in init and the credential fetch it requires.
func New() (Machine, []Effect) {
	return Machine{State: StateInit}, []Effect{FetchCredential{}}
}

// Matches reports whether the machine is in state s.
func (m Machine) Matches(s State) bool {
	return m.State == s
}

// HasTag reports whether the current state carries tag.
func (m Machine) HasTag(tag string) bool {
	for _, t := range stateTags[m.State] {
		if t == tag {
			return true
		}
	}
	return false
}

// Transition applies ev to m.
func Transition(m Machine, ev Event) (Machine, []Effect) {
	switch m.State {
	case StateInit:
		switch e := ev.(type) {
		case CredentialLoaded:
			m.State = StateSlotListPage
			m.Credential = e.Credential
		case CredentialLoadFailed:
			m.State = StateNoApiKey
		}

	case StateNoApiKey:
		if e, ok := ev.(CheckApiKey); ok {
			m.State = StateCheckingApiKey
			m.Credential = e.Credential
			return m, []Effect{SaveCredential{Credential: e.Credential}}
		}

	case StateCheckingApiKey:
		switch e := ev.(type) {
		case CredentialSaved:
			m.State = StateSlotListPage
			m.CheckErr = nil
		case CredentialSaveFailed:
			m.State = StateNoApiKey
			m.CheckErr = e.Err
		}

	case StateSlotListPage:
		switch ev.(type) {
		case ResetApiKey:
			m.State = StateNoApiKey
			m.Credential = model.Credential{}
			return m, []Effect{ResetCredential{}}
		case GoToQuickChat:
			m.State = StateQuickChat
		}

	case StateQuickChat:
		if _, ok := ev.(ExitQuickChat); ok {
			m.State = StateSlotListPage
		}
	}
	return m, nil
}
