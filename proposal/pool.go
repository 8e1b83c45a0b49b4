// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package proposal implements C4, the Proposal Pool: per-round
// deduplication, signature and phase validation, proposer-equivocation
// detection and the deterministic tie-break rule among competing
// proposals.
package proposal

import (
	"bytes"
	"sync"

	"github.com/throneforge/bftconsensus/codec"
	"github.com/throneforge/bftconsensus/crypto"
	"github.com/throneforge/bftconsensus/participant"
	"github.com/throneforge/bftconsensus/types"
)

// GameRuleValidator is the external collaborator that decides whether a
// proposal's payload is semantically valid for the game being played.
// C4 only needs the boolean result and caches it to avoid repeated
// evaluation of the same payload.
type GameRuleValidator interface {
	ValidateProposal(payload []byte) error
}

// EquivocationProof is two signed proposals from the same proposer in
// the same round with different payload hashes — a self-contained,
// third-party-verifiable proof of misbehavior.
type EquivocationProof struct {
	First  *types.Proposal
	Second *types.Proposal
}

// Pool stores accepted proposals for a single round, keyed by proposer,
// and tracks proposers already caught equivocating so their later
// messages are rejected outright.
type Pool struct {
	mu          sync.Mutex
	roundID     types.RoundID
	snapshot    *participant.Snapshot
	validator   GameRuleValidator
	byProposer  map[types.ParticipantID]*types.Proposal
	validCache  map[types.Hash]bool
	equivocated map[types.ParticipantID]bool
}

// NewPool returns an empty pool scoped to one round.
func NewPool(roundID types.RoundID, snapshot *participant.Snapshot, validator GameRuleValidator) *Pool {
	return &Pool{
		roundID:     roundID,
		snapshot:    snapshot,
		validator:   validator,
		byProposer:  make(map[types.ParticipantID]*types.Proposal),
		validCache:  make(map[types.Hash]bool),
		equivocated: make(map[types.ParticipantID]bool),
	}
}

// Submit validates and stores p. It returns a non-nil EquivocationProof
// when p is a second, distinct proposal from a proposer who already has
// one on file; the proposal itself is rejected and the proposer is
// barred from further submissions this round.
func (pool *Pool) Submit(phase types.Phase, publicKey []byte, p *types.Proposal) (*EquivocationProof, error) {
	if phase != types.Proposing {
		return nil, types.ErrWrongPhase
	}
	if p.RoundID != pool.roundID {
		return nil, types.ErrWrongPhase
	}
	if !pool.snapshot.Has(p.Proposer) {
		return nil, types.ErrUnknownSigner
	}

	signed := codec.SignedBytesProposal(p)
	if err := crypto.Verify(publicKey, signed, p.Signature); err != nil {
		return nil, err
	}

	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.equivocated[p.Proposer] {
		return nil, types.ErrDuplicateMessage
	}

	if existing, ok := pool.byProposer[p.Proposer]; ok {
		if existing.PayloadHash == p.PayloadHash {
			return nil, types.ErrDuplicateMessage
		}
		pool.equivocated[p.Proposer] = true
		return &EquivocationProof{First: existing, Second: p}, nil
	}

	valid, cached := pool.validCache[p.PayloadHash]
	if !cached {
		err := pool.validator.ValidateProposal(p.Payload)
		valid = err == nil
		pool.validCache[p.PayloadHash] = valid
		if err != nil {
			return nil, err
		}
	} else if !valid {
		return nil, types.ErrMalformedMessage
	}

	cp := *p
	pool.byProposer[p.Proposer] = &cp
	return nil, nil
}

// Proposals returns every accepted proposal for the round, in no
// particular order.
func (pool *Pool) Proposals() []*types.Proposal {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	out := make([]*types.Proposal, 0, len(pool.byProposer))
	for _, p := range pool.byProposer {
		out = append(out, p)
	}
	return out
}

// Winner applies the tie-break rule — lexicographically smallest
// payload_hash — among all accepted proposals, deterministically
// selecting the same proposal across every honest participant (§4.4:
// "leader_selection... not required for safety").
func (pool *Pool) Winner() (*types.Proposal, bool) {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	var winner *types.Proposal
	for _, p := range pool.byProposer {
		if winner == nil || bytes.Compare(p.PayloadHash[:], winner.PayloadHash[:]) < 0 {
			winner = p
		}
	}
	return winner, winner != nil
}

// Len returns the number of distinct proposers with an accepted
// proposal on file.
func (pool *Pool) Len() int {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return len(pool.byProposer)
}
