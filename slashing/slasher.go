// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package slashing implements C6, the Equivocation Detector & Slasher:
// turning equivocation proofs into SlashingEvents, applying
// reason-dependent penalties and removing offenders from the
// participant set.
package slashing

import (
	safemath "github.com/throneforge/bftconsensus/utils/math"

	"github.com/throneforge/bftconsensus/participant"
	"github.com/throneforge/bftconsensus/types"
)

// PenaltyRates are the fraction of stake slashed per SlashingReason,
// expressed in basis points out of 10000 (§4.6 defaults).
var PenaltyRates = map[types.SlashingReason]uint64{
	types.Equivocation:    10000,
	types.InvalidProposal: 2000,
	types.InvalidVote:     500,
	types.Inactivity:      100,
	types.Collusion:       10000,
	types.FalseDispute:    500,
}

// Announcer broadcasts a finalized SlashingEvent to peers, e.g. over
// the transport collaborator.
type Announcer interface {
	AnnounceSlashing(*types.SlashingEvent)
}

// Slasher applies penalties and removes offenders from a Set.
type Slasher struct {
	set      *participant.Set
	announce Announcer
	rates    map[types.SlashingReason]uint64
}

// New returns a Slasher operating against set, broadcasting finalized
// events through announce, using the package default PenaltyRates.
func New(set *participant.Set, announce Announcer) *Slasher {
	return NewWithRates(set, announce, PenaltyRates)
}

// NewWithRates is like New but applies custom per-reason penalty rates,
// e.g. sourced from a deployment's Config rather than the package
// defaults.
func NewWithRates(set *participant.Set, announce Announcer, rates map[types.SlashingReason]uint64) *Slasher {
	return &Slasher{set: set, announce: announce, rates: rates}
}

// RecordEquivocation slashes offender for Equivocation, attaching
// proofBytes as the event's evidence. It does not decode or re-verify
// the proof: the two signed messages are taken as already checked by
// the caller (proposal.Pool or vote.Tally, which verified both
// signatures and found the same (round_id, signer) with distinct
// content), and ErrInsufficientEvidence is never returned.
func (s *Slasher) RecordEquivocation(offender types.ParticipantID, round types.RoundID, proofBytes []byte) (*types.SlashingEvent, error) {
	return s.Slash(offender, types.Equivocation, round, proofBytes)
}

// Slash marks offender Slashed, computes the reason-dependent penalty
// against its pre-slash stake, builds a SlashingEvent, broadcasts it
// through the Announcer and returns it; the event is not persisted
// here. It fails ErrUnknownParticipant if offender is not a
// member, and ErrAlreadySlashed if already removed — slashing an
// already-slashed participant a second time would double-count the
// penalty.
func (s *Slasher) Slash(offender types.ParticipantID, reason types.SlashingReason, round types.RoundID, evidence []byte) (*types.SlashingEvent, error) {
	p, ok := s.set.Get(offender)
	if !ok {
		return nil, types.ErrUnknownParticipant
	}
	if !p.Active() {
		return nil, types.ErrAlreadySlashed
	}

	penalty := applyRate(p.Stake, s.rates[reason])

	if err := s.set.Remove(offender, types.Slashed); err != nil {
		return nil, err
	}

	event := &types.SlashingEvent{
		Offender: offender,
		Reason:   reason,
		Evidence: evidence,
		Penalty:  penalty,
		Round:    round,
	}
	if s.announce != nil {
		s.announce.AnnounceSlashing(event)
	}
	return event, nil
}

// applyRate computes stake*bps/10000, capping at stake on overflow
// rather than wrapping, since a penalty can never exceed the full
// stake it is drawn from.
func applyRate(stake, bps uint64) uint64 {
	product, err := safemath.Mul64(stake, bps)
	if err != nil {
		return stake
	}
	return product / 10000
}
