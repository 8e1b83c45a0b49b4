// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bftconsensus provides a clean, single-import interface to the
// Byzantine fault-tolerant game consensus engine.
//
// For wire-level encoding, use github.com/throneforge/bftconsensus/codec.
// For the collaborator interfaces a host application must implement, use
// github.com/throneforge/bftconsensus/external.
package bftconsensus

import (
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/ed25519"

	"github.com/throneforge/bftconsensus/config"
	"github.com/throneforge/bftconsensus/coordinator"
	"github.com/throneforge/bftconsensus/crypto"
	"github.com/throneforge/bftconsensus/external"
	"github.com/throneforge/bftconsensus/participant"
	"github.com/throneforge/bftconsensus/types"
)

// Type aliases for a clean single-import experience.
type (
	// Coordinator is the engine's top-level API: submit_proposal,
	// handle_message, subscribe_finalizations and status.
	Coordinator = coordinator.Coordinator
	// Config holds every tunable named in §6.
	Config = config.Config
	// Status is a point-in-time snapshot of a Coordinator's state.
	Status = coordinator.Status
	// FinalizationListener is notified every time a round finalizes.
	FinalizationListener = coordinator.FinalizationListener

	// ParticipantSet tracks the active and recently-slashed population.
	ParticipantSet = participant.Set
	// Participant is one member of the consensus population.
	Participant = types.Participant
	// ParticipantID identifies a participant by the hash of its public key.
	ParticipantID = types.ParticipantID

	// RoundID is a monotonically increasing round number.
	RoundID = types.RoundID
	// Hash is a 32-byte content hash.
	Hash = types.Hash
	// Phase is the ordered state of a round's voting state machine.
	Phase = types.Phase

	// Proposal is a signed (round_id, payload) submission.
	Proposal = types.Proposal
	// Vote is a signed ballot for a payload hash within a round.
	Vote = types.Vote
	// CommitCertificate aggregates quorum signatures for a decided hash.
	CommitCertificate = types.CommitCertificate
	// SlashingEvent records a penalty applied against an offender.
	SlashingEvent = types.SlashingEvent
	// SlashingReason names why a participant was slashed.
	SlashingReason = types.SlashingReason

	// Dispute is a filed claim against a round's outcome.
	Dispute = types.Dispute
	// Claim is one of the tagged dispute claim variants.
	Claim = types.Claim
	// Evidence supports a filed dispute's claim.
	Evidence = types.Evidence
	// DisputeChoice is a participant's vote on a dispute's outcome.
	DisputeChoice = types.DisputeChoice
	// DisputeVote is a signed ballot on an open dispute.
	DisputeVote = types.DisputeVote

	// Transport is the unreliable peer-to-peer delivery collaborator.
	Transport = external.Transport
	// GameRuleValidator checks a proposal payload against the embedding
	// game's rules.
	GameRuleValidator = external.GameRuleValidator
	// Persistence durably stores finalized commit certificates.
	Persistence = external.Persistence
	// MerkleVerifier checks dispute evidence inclusion proofs.
	MerkleVerifier = external.MerkleVerifier
)

// Phase values re-exported for convenience.
const (
	Idle       = types.Idle
	Proposing  = types.Proposing
	Voting     = types.Voting
	Committing = types.Committing
	Finalized  = types.Finalized
	Failed     = types.Failed
)

// Participant status values re-exported for convenience.
const (
	Active  = types.Active
	Slashed = types.Slashed
)

// DisputeChoice values re-exported for convenience.
const (
	Uphold  = types.Uphold
	Reject  = types.Reject
	Abstain = types.Abstain
)

// SlashingReason values re-exported for convenience.
const (
	Equivocation    = types.Equivocation
	InvalidProposal = types.InvalidProposal
	InvalidVote     = types.InvalidVote
	Inactivity      = types.Inactivity
	Collusion       = types.Collusion
	FalseDispute    = types.FalseDispute
)

// Common errors re-exported for convenience.
var (
	ErrWrongPhase         = types.ErrWrongPhase
	ErrDuplicateMessage   = types.ErrDuplicateMessage
	ErrUnknownSigner      = types.ErrUnknownSigner
	ErrUnknownParticipant = types.ErrUnknownParticipant
	ErrAlreadySlashed     = types.ErrAlreadySlashed
	ErrConflictingCommits = types.ErrConflictingCommits
)

// DefaultConfig returns the engine's default tunable parameters.
func DefaultConfig() Config {
	return config.Default()
}

// NewParticipantSet returns an empty participant set with the default
// finalized-round retention for snapshot lookups.
func NewParticipantSet() *ParticipantSet {
	return participant.NewSet()
}

// GenerateKey generates an ed25519 keypair suitable for a participant's
// signing identity.
func GenerateKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return crypto.GenerateKey()
}

// DeriveParticipantID derives the stable ParticipantID a public key maps
// to.
func DeriveParticipantID(pub ed25519.PublicKey) ParticipantID {
	return crypto.DeriveID(pub)
}

// NewCoordinator wires a Coordinator against the given configuration,
// game table identity, local signing identity, participant set and
// collaborators. gameID distinguishes this engine instance's table from
// any other sharing the same process, transport and participant keys.
func NewCoordinator(
	cfg Config,
	gameID Hash,
	self ParticipantID,
	signer ed25519.PrivateKey,
	set *ParticipantSet,
	validator GameRuleValidator,
	persistence Persistence,
	merkle MerkleVerifier,
	transport Transport,
	reg prometheus.Registerer,
	logger log.Logger,
) (*Coordinator, error) {
	return coordinator.New(cfg, gameID, self, signer, set, validator, persistence, merkle, transport, reg, logger)
}
