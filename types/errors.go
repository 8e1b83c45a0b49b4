// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "errors"

// Input errors are recoverable and reported back to the caller; they never
// affect the round for any other participant.
var (
	ErrMalformedMessage     = errors.New("malformed message")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrUnknownSigner        = errors.New("unknown signer")
	ErrWrongPhase           = errors.New("wrong phase for this operation")
	ErrDuplicateMessage     = errors.New("duplicate message")
	ErrInsufficientEvidence = errors.New("insufficient evidence of misbehavior")
	ErrDuplicateID          = errors.New("participant id already present")
	ErrUnknownParticipant   = errors.New("unknown participant")
	ErrAlreadySlashed       = errors.New("participant already slashed")
)

// Protocol errors are logged and surfaced via metrics; they do not halt
// the engine.
var (
	ErrTimedOut                  = errors.New("round timed out")
	ErrInsufficientParticipation = errors.New("insufficient participation to reach quorum")
	ErrConflictingCommits        = errors.New("conflicting commit certificates observed")
)

// Fatal errors halt the engine and require operator intervention.
var (
	ErrPersistenceUnavailable = errors.New("persistence collaborator unavailable")
	ErrKeystoreUnavailable    = errors.New("keystore collaborator unavailable")
	ErrConfigurationInvalid   = errors.New("configuration invalid")
)
