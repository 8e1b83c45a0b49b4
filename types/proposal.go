// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

// Proposal is a game-specific state transition proposed for a round.
// It is uniquely identified by (RoundID, Proposer, PayloadHash); exactly
// one proposal per proposer per round is valid (I2-style single message
// per signer, applied to proposals instead of votes).
type Proposal struct {
	RoundID     RoundID
	Proposer    ParticipantID
	Payload     []byte
	PayloadHash Hash
	Timestamp   uint64
	Signature   []byte
}

// ProposalKey identifies a proposal within a round by its proposer.
// Two proposals with the same Key() but different PayloadHash are
// proposer equivocation.
type ProposalKey struct {
	RoundID  RoundID
	Proposer ParticipantID
}

// Key returns the (round, proposer) key this proposal is stored under.
func (p *Proposal) Key() ProposalKey {
	return ProposalKey{RoundID: p.RoundID, Proposer: p.Proposer}
}
