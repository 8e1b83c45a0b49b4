// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vote implements C5, the Vote Tally: accepting signed votes,
// detecting double-voting (equivocation), and testing for quorum. The
// authoritative tally is always derived from the signed vote set on
// demand; the bag.Bag counter is an optimization, reconciled against
// the set whenever CheckQuorum is called (§9: "do not use lock-free
// counters as the authoritative tally").
package vote

import (
	"sync"

	"github.com/throneforge/bftconsensus/codec"
	"github.com/throneforge/bftconsensus/crypto"
	"github.com/throneforge/bftconsensus/participant"
	"github.com/throneforge/bftconsensus/types"
	"github.com/throneforge/bftconsensus/utils/bag"
)

// EquivocationProof is two signed votes from the same voter in the
// same round with different vote targets.
type EquivocationProof struct {
	First  *types.Vote
	Second *types.Vote
}

// Tally accumulates votes for a single round.
type Tally struct {
	mu          sync.Mutex
	roundID     types.RoundID
	snapshot    *participant.Snapshot
	byVoter     map[types.ParticipantID]*types.Vote
	counts      bag.Bag[types.Hash]
	equivocated map[types.ParticipantID]bool
}

// NewTally returns an empty tally scoped to one round.
func NewTally(roundID types.RoundID, snapshot *participant.Snapshot) *Tally {
	return &Tally{
		roundID:     roundID,
		snapshot:    snapshot,
		byVoter:     make(map[types.ParticipantID]*types.Vote),
		counts:      bag.New[types.Hash](),
		equivocated: make(map[types.ParticipantID]bool),
	}
}

// Cast validates and records v. It returns a non-nil EquivocationProof
// when v conflicts with a vote already on file from the same voter;
// the conflicting vote is not counted and the voter is barred from
// further votes this round.
func (t *Tally) Cast(phase types.Phase, publicKey []byte, v *types.Vote) (*EquivocationProof, error) {
	if phase != types.Voting {
		return nil, types.ErrWrongPhase
	}
	if v.RoundID != t.roundID {
		return nil, types.ErrWrongPhase
	}
	if !t.snapshot.Has(v.Voter) {
		return nil, types.ErrUnknownSigner
	}

	signed := codec.SignedBytesVote(v)
	if err := crypto.Verify(publicKey, signed, v.Signature); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.equivocated[v.Voter] {
		return nil, types.ErrDuplicateMessage
	}

	if existing, ok := t.byVoter[v.Voter]; ok {
		if existing.VoteTarget == v.VoteTarget {
			return nil, types.ErrDuplicateMessage
		}
		t.equivocated[v.Voter] = true
		return &EquivocationProof{First: existing, Second: v}, nil
	}

	cp := *v
	t.byVoter[v.Voter] = &cp
	t.counts.Add(v.VoteTarget)
	return nil, nil
}

// CheckQuorum reconciles the counter against the authoritative signed
// vote set and returns the vote_target whose count first reaches the
// snapshot's quorum, if any. By the pigeonhole argument in §4.5, at
// most one target can qualify per round absent an undetected
// equivocator.
func (t *Tally) CheckQuorum() (types.Hash, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	reconciled := bag.New[types.Hash]()
	for voter, v := range t.byVoter {
		if t.equivocated[voter] {
			continue
		}
		reconciled.Add(v.VoteTarget)
	}
	t.counts = reconciled

	for _, target := range reconciled.List() {
		if reconciled.Count(target) >= t.snapshot.Quorum {
			return target, true
		}
	}
	return types.Hash{}, false
}

// VotesFor returns every recorded, non-equivocating vote for target,
// used to assemble a CommitCertificate's aggregated signatures.
func (t *Tally) VotesFor(target types.Hash) []*types.Vote {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []*types.Vote
	for voter, v := range t.byVoter {
		if t.equivocated[voter] {
			continue
		}
		if v.VoteTarget == target {
			out = append(out, v)
		}
	}
	return out
}

// VoterCount returns the number of distinct voters recorded, including
// those later found to have equivocated.
func (t *Tally) VoterCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byVoter)
}

// Voted reports whether voter has a recorded vote this round, used by
// the coordinator's inactivity accounting at the voting deadline.
func (t *Tally) Voted(voter types.ParticipantID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.byVoter[voter]
	return ok
}
