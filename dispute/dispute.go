// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dispute implements C8, Dispute Resolution: filing disputes
// against pending or finalized rounds, tallying DisputeVotes and
// resolving them by simple majority when Resolve is called. The
// coordinator calls Resolve once a dispute's resolution deadline has
// passed; a dispute is not resolved early when every eligible voter has
// already cast a ballot.
package dispute

import (
	"crypto/sha256"
	"time"

	"github.com/throneforge/bftconsensus/codec"
	"github.com/throneforge/bftconsensus/crypto"
	"github.com/throneforge/bftconsensus/types"
)

// MerkleVerifier checks a StateProofEvidence's inclusion proof against
// a Merkle root, delegated to an external collaborator (§6).
type MerkleVerifier interface {
	VerifyInclusion(stateHash types.Hash, proof []byte) bool
}

// PublicKeyLookup resolves a participant's registered public key,
// needed to verify DisputeVote signatures and SignedTransaction
// evidence.
type PublicKeyLookup func(types.ParticipantID) ([]byte, bool)

// Broadcaster announces a filed Dispute to peers.
type Broadcaster interface {
	BroadcastDispute(*types.Dispute)
}

// Reversal is invoked when a ConsensusViolation dispute is resolved as
// Upheld, so the coordinator can react to the reversed commit. Manager
// does not track round finality, so the callback fires whatever phase
// the disputed round reached.
type Reversal interface {
	CommitReversed(round types.RoundID)
}

// Config tunes resolution behavior.
type Config struct {
	// ResolutionWindow bounds how long a dispute stays Open before it
	// may be resolved or expires, e.g. "1 hour of real time".
	ResolutionWindow time.Duration
	// MinVotes is the minimum number of DisputeVotes required to
	// resolve; below this the dispute Expires with no effect.
	MinVotes int
}

// DefaultConfig matches the spec's stated example values.
func DefaultConfig() Config {
	return Config{
		ResolutionWindow: time.Hour,
		MinVotes:         1,
	}
}

// Manager tracks open disputes and their votes.
type Manager struct {
	cfg       Config
	merkle    MerkleVerifier
	lookup    PublicKeyLookup
	broadcast Broadcaster
	reversal  Reversal
	disputes  map[types.Hash]*types.Dispute
	votes     map[types.Hash]map[types.ParticipantID]*types.DisputeVote
}

// New returns an empty dispute Manager.
func New(cfg Config, merkle MerkleVerifier, lookup PublicKeyLookup, broadcast Broadcaster, reversal Reversal) *Manager {
	return &Manager{
		cfg:       cfg,
		merkle:    merkle,
		lookup:    lookup,
		broadcast: broadcast,
		reversal:  reversal,
		disputes:  make(map[types.Hash]*types.Dispute),
		votes:     make(map[types.Hash]map[types.ParticipantID]*types.DisputeVote),
	}
}

// disputeID computes H(disputer ∥ disputed_round ∥ canonical(claim))
// per I6, so resubmitting the same claim collapses to one entry.
func disputeID(disputer types.ParticipantID, round types.RoundID, claim types.Claim) types.Hash {
	h := sha256.New()
	h.Write(disputer[:])
	var roundBuf [8]byte
	r := uint64(round)
	for i := 0; i < 8; i++ {
		roundBuf[i] = byte(r >> (56 - 8*i))
	}
	h.Write(roundBuf[:])
	h.Write([]byte{byte(claim.Kind())})
	h.Write(claim.Canonical())

	var id types.Hash
	copy(id[:], h.Sum(nil))
	return id
}

// FileDispute verifies each piece of evidence that carries its own
// signature or proof, computes the content-addressed dispute_id,
// stores the dispute (or returns the existing one if a matching
// dispute_id was already filed) and broadcasts it.
func (m *Manager) FileDispute(disputer types.ParticipantID, round types.RoundID, claim types.Claim, evidence []types.Evidence, now time.Time) (*types.Dispute, error) {
	for _, ev := range evidence {
		if err := m.verifyEvidence(ev); err != nil {
			return nil, err
		}
	}

	id := disputeID(disputer, round, claim)
	if existing, ok := m.disputes[id]; ok {
		return existing, nil
	}

	d := &types.Dispute{
		DisputeID:          id,
		Disputer:           disputer,
		DisputedRound:      round,
		Claim:              claim,
		Evidence:           evidence,
		CreatedAt:          uint64(now.Unix()),
		ResolutionDeadline: uint64(now.Add(m.cfg.ResolutionWindow).Unix()),
		Status:             types.DisputeOpen,
	}
	m.disputes[id] = d
	m.votes[id] = make(map[types.ParticipantID]*types.DisputeVote)

	if m.broadcast != nil {
		m.broadcast.BroadcastDispute(d)
	}
	return d, nil
}

func (m *Manager) verifyEvidence(ev types.Evidence) error {
	switch e := ev.(type) {
	case types.SignedTransactionEvidence:
		pub, ok := m.lookup(e.Signer)
		if !ok {
			return types.ErrUnknownSigner
		}
		return crypto.Verify(pub, e.Raw, e.Signature)
	case types.StateProofEvidence:
		if !m.merkle.VerifyInclusion(e.StateHash, e.Proof) {
			return types.ErrInsufficientEvidence
		}
	case types.TimestampProofEvidence:
		pub, ok := m.lookup(e.Attester)
		if !ok {
			return types.ErrUnknownSigner
		}
		var tsBuf [8]byte
		for i := 0; i < 8; i++ {
			tsBuf[i] = byte(e.Timestamp >> (56 - 8*i))
		}
		return crypto.Verify(pub, tsBuf[:], e.Signature)
	case types.WitnessTestimonyEvidence:
		pub, ok := m.lookup(e.Witness)
		if !ok {
			return types.ErrUnknownSigner
		}
		return crypto.Verify(pub, []byte(e.Statement), e.Signature)
	}
	return nil
}

// CastVote validates a DisputeVote's signature and phase, then records
// it. Votes received after the dispute's ResolutionDeadline (by
// caller-supplied now) are rejected; Resolve should be called instead.
func (m *Manager) CastVote(v *types.DisputeVote, now time.Time) error {
	d, ok := m.disputes[v.DisputeID]
	if !ok {
		return types.ErrUnknownParticipant
	}
	if d.Status != types.DisputeOpen {
		return types.ErrWrongPhase
	}
	if uint64(now.Unix()) > d.ResolutionDeadline {
		return types.ErrTimedOut
	}
	if len(v.Reasoning) > types.MaxReasoningLength {
		return types.ErrMalformedMessage
	}

	pub, ok := m.lookup(v.Voter)
	if !ok {
		return types.ErrUnknownSigner
	}
	signed, err := codec.SignedBytesDisputeVote(v)
	if err != nil {
		return err
	}
	if err := crypto.Verify(pub, signed, v.Signature); err != nil {
		return err
	}

	m.votes[v.DisputeID][v.Voter] = v
	return nil
}

// Pending returns every Dispute still Open, for the coordinator's
// status reporting and deadline sweeps.
func (m *Manager) Pending() []*types.Dispute {
	out := make([]*types.Dispute, 0, len(m.disputes))
	for _, d := range m.disputes {
		if d.Status == types.DisputeOpen {
			out = append(out, d)
		}
	}
	return out
}

// Outcome is the resolved decision on a Dispute, extending
// types.DisputeChoice with the no-quorum Expired case.
type Outcome struct {
	Dispute *types.Dispute
	Choice  types.DisputeChoice
	Expired bool
}

// Resolve tallies all recorded votes for disputeID by unweighted simple
// majority (majority = ⌊|votes|/2⌋+1); if fewer than MinVotes were
// cast, the dispute Expires with no effect. An Uphold outcome against a
// ConsensusViolation claim invokes the Reversal callback; whether the
// disputed round was finalized is not checked.
func (m *Manager) Resolve(disputeID types.Hash) (*Outcome, error) {
	d, ok := m.disputes[disputeID]
	if !ok {
		return nil, types.ErrUnknownParticipant
	}
	if d.Status != types.DisputeOpen {
		return nil, types.ErrWrongPhase
	}

	ballots := m.votes[disputeID]
	if len(ballots) < m.cfg.MinVotes {
		d.Status = types.DisputeExpired
		return &Outcome{Dispute: d, Expired: true}, nil
	}

	tallies := make(map[types.DisputeChoice]int)
	for _, v := range ballots {
		tallies[v.Choice]++
	}
	majority := len(ballots)/2 + 1

	choice := types.Abstain
	for c, n := range tallies {
		if n >= majority {
			choice = c
			break
		}
	}

	d.Status = types.DisputeResolved
	d.Outcome = choice

	if choice == types.Uphold && d.Claim.Kind() == types.ClaimConsensusViolation && m.reversal != nil {
		m.reversal.CommitReversed(d.DisputedRound)
	}

	return &Outcome{Dispute: d, Choice: choice}, nil
}

// SlashTarget returns, for a resolved dispute, the participant a
// slasher should act against and the appropriate reason: the claim's
// named player on Uphold (InvalidBet, InvalidPayout and DoubleSpending
// claims), or the disputer themselves (FalseDispute) on Reject. It
// returns false for any other outcome, and for an Upheld InvalidRoll or
// ConsensusViolation claim, which names no player.
func SlashTarget(o *Outcome) (types.ParticipantID, types.SlashingReason, bool) {
	if o.Expired {
		return types.ParticipantID{}, 0, false
	}
	switch o.Choice {
	case types.Uphold:
		switch c := o.Dispute.Claim.(type) {
		case types.InvalidBetClaim:
			return c.Player, types.InvalidProposal, true
		case types.InvalidPayoutClaim:
			return c.Player, types.InvalidProposal, true
		case types.DoubleSpendingClaim:
			return c.Player, types.Collusion, true
		default:
			return types.ParticipantID{}, 0, false
		}
	case types.Reject:
		return o.Dispute.Disputer, types.FalseDispute, true
	default:
		return types.ParticipantID{}, 0, false
	}
}
