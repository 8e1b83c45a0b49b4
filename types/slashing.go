// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "fmt"

// SlashingReason classifies the misbehavior that triggered a SlashingEvent.
type SlashingReason uint8

const (
	// Equivocation is a single signer producing two signed messages with
	// the same (round, role) but different content.
	Equivocation SlashingReason = iota
	// InvalidProposal is a proposal rejected by the game-rule validator.
	InvalidProposal
	// InvalidVote is a vote cast outside the round's participant snapshot
	// or otherwise structurally invalid.
	InvalidVote
	// Inactivity is repeated failure to vote within the voting window.
	Inactivity
	// Collusion is detected coordinated misbehavior across participants.
	Collusion
	// FalseDispute penalizes a disputer whose dispute was rejected.
	FalseDispute
)

func (r SlashingReason) String() string {
	switch r {
	case Equivocation:
		return "equivocation"
	case InvalidProposal:
		return "invalid_proposal"
	case InvalidVote:
		return "invalid_vote"
	case Inactivity:
		return "inactivity"
	case Collusion:
		return "collusion"
	case FalseDispute:
		return "false_dispute"
	default:
		return fmt.Sprintf("slashing_reason(%d)", uint8(r))
	}
}

// SlashingEvent is a durable record of a penalty applied to a participant.
type SlashingEvent struct {
	Offender ParticipantID
	Reason   SlashingReason
	Evidence []byte
	Penalty  uint64
	Round    RoundID
}
