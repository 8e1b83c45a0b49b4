// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "fmt"

// Status is a participant's membership state. A participant that leaves
// Active never returns to it under the same id.
type Status uint8

const (
	// Active participants may propose, vote and have their signatures
	// counted toward quorum.
	Active Status = iota
	// Slashed participants were removed for misbehavior; see SlashingEvent.
	Slashed
	// Departed participants left voluntarily.
	Departed
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Slashed:
		return "slashed"
	case Departed:
		return "departed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Participant is a member of the consensus set.
type Participant struct {
	ID        ParticipantID
	PublicKey []byte
	Stake     uint64
	Status    Status
	JoinRound RoundID
}

// Active reports whether the participant may currently propose or vote.
func (p *Participant) Active() bool {
	return p.Status == Active
}
