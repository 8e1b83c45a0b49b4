// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package coordinator implements C10, the Consensus Coordinator: the
// top-level API a host application drives. It owns no consensus logic
// of its own — phase transitions live in round, proposal/vote
// bookkeeping in proposal/vote, signature aggregation in commit,
// misbehavior handling in slashing and dispute — and instead wires
// those collaborators together per round, dispatches inbound wire
// messages to the right one, and drives deadline-based transitions on
// every inbound event and on a periodic Tick, since no component here
// runs a timer goroutine of its own.
package coordinator

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/ed25519"

	"github.com/throneforge/bftconsensus/codec"
	"github.com/throneforge/bftconsensus/commit"
	"github.com/throneforge/bftconsensus/config"
	"github.com/throneforge/bftconsensus/crypto"
	"github.com/throneforge/bftconsensus/dispute"
	"github.com/throneforge/bftconsensus/external"
	"github.com/throneforge/bftconsensus/gctx"
	nolog "github.com/throneforge/bftconsensus/log"
	"github.com/throneforge/bftconsensus/metrics"
	"github.com/throneforge/bftconsensus/participant"
	"github.com/throneforge/bftconsensus/partition"
	"github.com/throneforge/bftconsensus/proposal"
	"github.com/throneforge/bftconsensus/round"
	"github.com/throneforge/bftconsensus/slashing"
	"github.com/throneforge/bftconsensus/types"
	"github.com/throneforge/bftconsensus/utils/formatting"
	"github.com/throneforge/bftconsensus/utils/timer/mockable"
	"github.com/throneforge/bftconsensus/vote"
)

// hexHash renders a hash for log lines, falling back to "?" in the
// unreachable case where the fixed HexC encoding is rejected.
func hexHash(h types.Hash) string {
	s, err := formatting.Encode(formatting.HexC, h[:])
	if err != nil {
		return "?"
	}
	return s
}

// FinalizationListener is notified every time a round reaches
// Finalized, mirroring the teacher's acceptor/subscriber callback
// shape instead of requiring callers to poll Status.
type FinalizationListener interface {
	OnFinalized(cert *types.CommitCertificate)
}

// Status is a point-in-time snapshot of the coordinator's state,
// returned by Status() for health checks and dashboards.
type Status struct {
	GameID             types.Hash
	CurrentRound       types.RoundID
	Phase              types.Phase
	ActiveParticipants int
	PendingDisputes    int
	InPartition        bool
}

// roundState bundles the per-round collaborators that do not survive
// past one round_id: the phase machine, the proposal pool and the vote
// tally.
type roundState struct {
	r         *round.Round
	pool      *proposal.Pool
	tally     *vote.Tally
	startedAt time.Time

	// inactivityAccounted guards accountInactivity so a round's
	// non-voters are counted against exactly once, not once per Tick
	// call while the round sits in Voting.
	inactivityAccounted bool
}

// Coordinator is the engine's top-level API: submit_proposal,
// handle_message, subscribe_finalizations and status, plus Tick to
// drive deadline-based transitions.
type Coordinator struct {
	mu sync.Mutex

	cfg config.Config

	// idctx carries the engine instance's own identity — which game
	// table it serves and which participant it signs as — the way the
	// teacher's ctx.go carries chain identity. It is built once in New
	// and read back via gctx.Self/gctx.Game/gctx.MustIDs at every call
	// site that used to reach for a bare self/signer field, so identity
	// has one owner instead of being duplicated across struct fields
	// and a context value.
	idctx context.Context

	set      *participant.Set
	slasher  *slashing.Slasher
	disputes *dispute.Manager
	detector *partition.Detector
	metrics  *metrics.Metrics
	log      log.Logger
	clock    *mockable.Clock

	validator   proposal.GameRuleValidator
	persistence commit.Persistence
	transport   external.Transport

	rounds  map[types.RoundID]*roundState
	current types.RoundID

	// pendingDisputeWire holds the raw signed wire bytes of disputes
	// relayed in from a peer, keyed by the content-addressed DisputeID,
	// so BroadcastDispute can re-announce them verbatim instead of
	// forging a signature under this node's own key. types.Dispute
	// itself carries no Signature field to recover one from after the
	// fact.
	pendingDisputeWire map[types.Hash][]byte

	listeners []FinalizationListener
}

// New wires a Coordinator's collaborators together: a Slasher and a
// dispute Manager that both take the Coordinator itself as their
// Announcer/Broadcaster/Reversal, the same self-referential pattern the
// teacher uses for its acceptor groups.
func New(
	cfg config.Config,
	gameID types.Hash,
	self types.ParticipantID,
	signer ed25519.PrivateKey,
	set *participant.Set,
	validator external.GameRuleValidator,
	persistence external.Persistence,
	merkle external.MerkleVerifier,
	transport external.Transport,
	reg prometheus.Registerer,
	logger log.Logger,
) (*Coordinator, error) {
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = nolog.NewNoOpLogger()
	}
	clock := mockable.NewClock()

	idctx := gctx.WithIDs(context.Background(), gctx.IDs{
		GameID:     gameID,
		Self:       self,
		SigningKey: []byte(signer),
		PublicKey:  []byte(signer.Public().(ed25519.PublicKey)),
	})

	c := &Coordinator{
		cfg:                cfg,
		idctx:              idctx,
		set:                set,
		metrics:            metrics.New(reg),
		log:                logger,
		clock:              clock,
		validator:          validator,
		persistence:        persistence,
		transport:          transport,
		rounds:             make(map[types.RoundID]*roundState),
		pendingDisputeWire: make(map[types.Hash][]byte),
	}
	c.slasher = slashing.NewWithRates(set, c, cfg.SlashRates())
	c.disputes = dispute.New(dispute.Config{
		ResolutionWindow: cfg.ResolutionDeadline,
		MinVotes:         cfg.MinDisputeVotes,
	}, merkle, c.lookupPublicKey, c, c)
	c.detector = partition.NewDetector(clock, cfg.PartitionDetectionWindow)
	return c, nil
}

// selfID returns the participant id this engine instance signs as.
func (c *Coordinator) selfID() types.ParticipantID {
	return gctx.Self(c.idctx)
}

// signingKey returns the Ed25519 private key this engine instance signs
// with.
func (c *Coordinator) signingKey() ed25519.PrivateKey {
	return ed25519.PrivateKey(gctx.MustIDs(c.idctx).SigningKey)
}

func (c *Coordinator) lookupPublicKey(id types.ParticipantID) ([]byte, bool) {
	p, ok := c.set.Get(id)
	if !ok {
		return nil, false
	}
	return p.PublicKey, true
}

func payloadHash(payload []byte) types.Hash {
	sum := sha256.Sum256(payload)
	var h types.Hash
	copy(h[:], sum[:])
	return h
}

// ensureRound returns the roundState for id, starting it (and taking
// its participant snapshot) on first reference.
func (c *Coordinator) ensureRound(id types.RoundID) *roundState {
	if rs, ok := c.rounds[id]; ok {
		return rs
	}
	snap := c.set.Snapshot(id)
	r := round.New(id, snap, c.clock, round.Windows{
		ProposalWindow: c.cfg.ProposalWindow,
		VotingWindow:   c.cfg.VotingWindow,
	})
	rs := &roundState{
		r:         r,
		pool:      proposal.NewPool(id, snap, c.validator),
		tally:     vote.NewTally(id, snap),
		startedAt: c.clock.Now(),
	}
	c.rounds[id] = rs
	c.metrics.RoundsStarted.Inc()
	c.metrics.QuorumSize.Set(float64(snap.Quorum))
	c.metrics.ActiveParticipants.Set(float64(snap.Len()))
	return rs
}

// advanceCurrent moves the active round pointer past id once it has
// reached a terminal phase, so the next SubmitProposal or inbound
// Proposal starts the following round instead of re-entering a
// finished one.
func (c *Coordinator) advanceCurrent(id types.RoundID) {
	if id == c.current {
		c.current = id + 1
	}
}

// SubmitProposal signs payload under the coordinator's own key,
// submits it to the current round's pool, and broadcasts it. ctx is
// stamped with this engine's game/participant identity so a
// multi-table Transport implementation can route Broadcast/SendTo
// calls without a second identity parameter.
func (c *Coordinator) SubmitProposal(ctx context.Context, payload []byte) (types.RoundID, error) {
	ctx = gctx.WithIDs(ctx, gctx.MustIDs(c.idctx))
	c.mu.Lock()
	defer c.mu.Unlock()

	rs := c.ensureRound(c.current)
	p := &types.Proposal{
		RoundID:     rs.r.ID,
		Proposer:    c.selfID(),
		Payload:     payload,
		PayloadHash: payloadHash(payload),
		Timestamp:   uint64(c.clock.Now().Unix()),
	}
	p.Signature = crypto.Sign(c.signingKey(), codec.SignedBytesProposal(p))

	if err := c.acceptProposal(ctx, rs, p); err != nil {
		return 0, err
	}
	if err := c.broadcast(ctx, codec.MarshalProposal(p)); err != nil {
		c.log.Warn("broadcast proposal failed", zap.Error(err))
	}
	return rs.r.ID, nil
}

// HandleMessage dispatches an inbound wire frame to the handler for
// its message_kind, peeking the header without fully decoding twice.
// ctx is stamped with this engine's game/participant identity for the
// same reason SubmitProposal stamps it, before any handler broadcasts a
// derived message (e.g. re-announcing a relayed dispute).
func (c *Coordinator) HandleMessage(ctx context.Context, from types.ParticipantID, raw []byte) error {
	ctx = gctx.WithIDs(ctx, gctx.MustIDs(c.idctx))
	kind, err := codec.PeekKind(raw)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.detector.Heartbeat(from)

	switch kind {
	case codec.KindProposal:
		return c.handleProposal(ctx, raw)
	case codec.KindVote:
		return c.handleVote(ctx, raw)
	case codec.KindCommitCertificate:
		return c.handleCommitCertificate(raw)
	case codec.KindSlashingAnnouncement:
		return c.handleSlashingAnnouncement(raw)
	case codec.KindDispute:
		return c.handleDispute(raw)
	case codec.KindDisputeVote:
		return c.handleDisputeVote(raw)
	default:
		return fmt.Errorf("coordinator: unhandled message kind %d", kind)
	}
}

func (c *Coordinator) handleProposal(ctx context.Context, raw []byte) error {
	p, err := codec.UnmarshalProposal(raw)
	if err != nil {
		return err
	}
	rs := c.ensureRound(p.RoundID)
	return c.acceptProposal(ctx, rs, p)
}

func (c *Coordinator) handleVote(ctx context.Context, raw []byte) error {
	v, err := codec.UnmarshalVote(raw)
	if err != nil {
		return err
	}
	rs := c.ensureRound(v.RoundID)
	return c.acceptVote(ctx, rs, v)
}

// handleCommitCertificate lets a late joiner (or a node that missed a
// broadcast) catch up on a round it has no local proposal/vote state
// for, rather than requiring it to have participated to learn the
// outcome.
func (c *Coordinator) handleCommitCertificate(raw []byte) error {
	cert, err := codec.UnmarshalCommitCertificate(raw)
	if err != nil {
		return err
	}

	existing, ok, err := c.persistence.ReadCommit(cert.RoundID)
	if err != nil {
		return err
	}
	if ok {
		if existing.DecidedHash != cert.DecidedHash {
			return types.ErrConflictingCommits
		}
		return nil
	}

	snap, ok := c.set.SnapshotAt(cert.RoundID)
	if !ok {
		snap = c.set.Snapshot(cert.RoundID)
	}
	if err := commit.Finalize(cert, snap, c.persistence); err != nil {
		return err
	}

	if rs, ok := c.rounds[cert.RoundID]; ok && rs.r.Phase() != types.Finalized {
		if rs.r.Phase() == types.Voting {
			_ = rs.r.AdvanceToCommitting()
		}
		if rs.r.Phase() == types.Committing {
			_ = rs.r.Finalize()
		}
		c.advanceCurrent(cert.RoundID)
	}
	c.notifyFinalized(cert)
	return nil
}

func (c *Coordinator) handleSlashingAnnouncement(raw []byte) error {
	event, err := codec.UnmarshalSlashingAnnouncement(raw)
	if err != nil {
		return err
	}
	if _, ok := c.set.Get(event.Offender); !ok {
		return types.ErrUnknownParticipant
	}
	if err := c.set.Remove(event.Offender, types.Slashed); err != nil && !errors.Is(err, types.ErrAlreadySlashed) {
		return err
	}
	c.metrics.ByzantineDetected.Inc()
	return nil
}

// handleDispute verifies a remote-filed dispute's signature, records
// its raw wire bytes for verbatim relay, and files it with the local
// Manager. Filing triggers BroadcastDispute synchronously, which will
// find the entry this method just wrote to pendingDisputeWire.
func (c *Coordinator) handleDispute(raw []byte) error {
	decoded, err := codec.UnmarshalDispute(raw)
	if err != nil {
		return err
	}
	pub, ok := c.lookupPublicKey(decoded.Dispute.Disputer)
	if !ok {
		return types.ErrUnknownSigner
	}
	if err := crypto.Verify(pub, codec.SignedBytesDispute(decoded.Dispute), decoded.Signature); err != nil {
		return err
	}

	c.pendingDisputeWire[decoded.Dispute.DisputeID] = raw
	_, err = c.disputes.FileDispute(
		decoded.Dispute.Disputer,
		decoded.Dispute.DisputedRound,
		decoded.Dispute.Claim,
		decoded.Dispute.Evidence,
		c.clock.Now(),
	)
	return err
}

func (c *Coordinator) handleDisputeVote(raw []byte) error {
	v, err := codec.UnmarshalDisputeVote(raw)
	if err != nil {
		return err
	}
	return c.disputes.CastVote(v, c.clock.Now())
}

// FileDispute files a dispute on behalf of this node. The Manager
// calls back into BroadcastDispute, which signs and announces it since
// this disputer did not arrive over the wire.
func (c *Coordinator) FileDispute(roundID types.RoundID, claim types.Claim, evidence []types.Evidence) (*types.Dispute, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disputes.FileDispute(c.selfID(), roundID, claim, evidence, c.clock.Now())
}

// CastDisputeVote signs and records a local ballot on an open dispute,
// then broadcasts it.
func (c *Coordinator) CastDisputeVote(disputeID types.Hash, choice types.DisputeChoice, reasoning string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := &types.DisputeVote{
		DisputeID: disputeID,
		Voter:     c.selfID(),
		Choice:    choice,
		Reasoning: reasoning,
		Timestamp: uint64(c.clock.Now().Unix()),
	}
	signed, err := codec.SignedBytesDisputeVote(v)
	if err != nil {
		return err
	}
	v.Signature = crypto.Sign(c.signingKey(), signed)

	if err := c.disputes.CastVote(v, c.clock.Now()); err != nil {
		return err
	}
	raw, err := codec.MarshalDisputeVote(v)
	if err != nil {
		return err
	}
	return c.broadcast(context.Background(), raw)
}

// acceptProposal expires a stale round before validating p, so a
// message that arrives after the deadline doesn't get processed into a
// round that should already have advanced or failed.
func (c *Coordinator) acceptProposal(ctx context.Context, rs *roundState, p *types.Proposal) error {
	c.expireIfDeadlinePassed(ctx, rs)
	if rs.r.Phase() != types.Proposing {
		return types.ErrWrongPhase
	}

	pub, ok := c.lookupPublicKey(p.Proposer)
	if !ok {
		return types.ErrUnknownSigner
	}

	proof, err := rs.pool.Submit(rs.r.Phase(), pub, p)
	if proof != nil {
		c.recordProposerEquivocation(rs.r.ID, proof)
		return types.ErrDuplicateMessage
	}
	if err != nil {
		if errors.Is(err, types.ErrWrongPhase) || errors.Is(err, types.ErrDuplicateMessage) || errors.Is(err, types.ErrUnknownSigner) {
			return err
		}
		if _, serr := c.slasher.Slash(p.Proposer, types.InvalidProposal, rs.r.ID, p.Payload); serr != nil && !errors.Is(serr, types.ErrAlreadySlashed) {
			c.log.Warn("slash invalid proposal failed", zap.Error(serr))
		}
		return err
	}

	c.maybeAdvanceProposing(ctx, rs)
	return nil
}

func (c *Coordinator) maybeAdvanceProposing(ctx context.Context, rs *roundState) {
	if rs.r.Phase() != types.Proposing {
		return
	}
	full := rs.pool.Len() >= rs.r.Snapshot.Len()
	if !full && !rs.r.DeadlineElapsed() {
		return
	}
	if rs.pool.Len() == 0 {
		return
	}
	if err := rs.r.AdvanceToVoting(); err != nil {
		return
	}
	c.castOwnVote(ctx, rs)
}

// castOwnVote votes for the pool's deterministic winner so every
// honest participant converges on the same target without requiring a
// dedicated leader-election round.
func (c *Coordinator) castOwnVote(ctx context.Context, rs *roundState) {
	winner, ok := rs.pool.Winner()
	if !ok {
		return
	}
	v := &types.Vote{
		RoundID:    rs.r.ID,
		Voter:      c.selfID(),
		VoteTarget: winner.PayloadHash,
		Timestamp:  uint64(c.clock.Now().Unix()),
	}
	v.Signature = crypto.Sign(c.signingKey(), codec.SignedBytesVote(v))

	if err := c.acceptVote(ctx, rs, v); err != nil {
		c.log.Warn("casting own vote rejected", zap.Error(err))
		return
	}
	if err := c.broadcast(ctx, codec.MarshalVote(v)); err != nil {
		c.log.Warn("broadcast vote failed", zap.Error(err))
	}
}

func (c *Coordinator) acceptVote(ctx context.Context, rs *roundState, v *types.Vote) error {
	c.expireIfDeadlinePassed(ctx, rs)
	if rs.r.Phase() != types.Voting {
		return types.ErrWrongPhase
	}

	pub, ok := c.lookupPublicKey(v.Voter)
	if !ok {
		return types.ErrUnknownSigner
	}

	proof, err := rs.tally.Cast(rs.r.Phase(), pub, v)
	if proof != nil {
		c.recordVoterEquivocation(rs.r.ID, proof)
		return types.ErrDuplicateMessage
	}
	if err != nil {
		return err
	}

	c.set.ResetInactivity(v.Voter)
	c.checkQuorumAndAdvance(ctx, rs)
	return nil
}

func (c *Coordinator) checkQuorumAndAdvance(ctx context.Context, rs *roundState) {
	if rs.r.Phase() != types.Voting {
		return
	}
	target, ok := rs.tally.CheckQuorum()
	if !ok {
		return
	}
	if err := rs.r.AdvanceToCommitting(); err != nil {
		return
	}

	votes := rs.tally.VotesFor(target)
	cert, err := commit.Assemble(rs.r.ID, target, votes, c.lookupPublicKey)
	if err != nil {
		c.log.Error("assembling commit certificate failed", zap.Error(err))
		c.failRound(rs, types.ExternalAbort)
		return
	}
	if err := commit.Finalize(cert, rs.r.Snapshot, c.persistence); err != nil {
		c.log.Error("finalizing commit certificate failed", zap.Error(err))
		c.failRound(rs, types.ExternalAbort)
		return
	}
	if err := rs.r.Finalize(); err != nil {
		c.log.Error("round finalize transition rejected", zap.Error(err))
		return
	}

	c.metrics.RoundsFinalized.Inc()
	c.metrics.RoundDuration.Observe(c.clock.Now().Sub(rs.startedAt).Seconds())
	c.notifyFinalized(cert)
	if err := c.broadcast(ctx, codec.MarshalCommitCertificate(cert)); err != nil {
		c.log.Warn("broadcast commit certificate failed", zap.Error(err))
	}
	c.advanceCurrent(rs.r.ID)
}

func (c *Coordinator) failRound(rs *roundState, reason types.FailReason) {
	rs.r.Abort(reason)
	if reason == types.TimedOut {
		c.metrics.RoundsFailedTimeout.Inc()
	} else {
		c.metrics.RoundsFailedOther.Inc()
	}
	c.advanceCurrent(rs.r.ID)
}

// expireIfDeadlinePassed applies the same timeout-vs-advance decision
// on an inbound event that Tick applies on its periodic wake, once the
// current phase's deadline has passed: a Proposing round with at least
// one proposal on file advances to Voting instead of failing, and a
// Voting round commits if its tally already holds a quorum. A Proposing
// round with no proposal fails with TimedOut; a Voting round without a
// quorum fails with InsufficientParticipation, however many votes it
// holds.
func (c *Coordinator) expireIfDeadlinePassed(ctx context.Context, rs *roundState) {
	if !rs.r.DeadlineElapsed() {
		return
	}
	switch rs.r.Phase() {
	case types.Proposing:
		if rs.pool.Len() > 0 {
			c.maybeAdvanceProposing(ctx, rs)
			return
		}
		c.failRound(rs, types.TimedOut)
	case types.Voting:
		if !c.detector.InPartition() {
			c.accountInactivity(rs)
		}
		if _, ok := rs.tally.CheckQuorum(); ok {
			c.checkQuorumAndAdvance(ctx, rs)
			return
		}
		c.failRound(rs, types.InsufficientParticipation)
	}
}

// accountInactivity records one consecutive miss, against the
// participant set's cross-round counter, for every active participant
// who has not voted by the time this round's voting deadline elapses.
// It runs at most once per round — repeated Tick calls while still
// waiting for the deadline are no-ops until expireIfDeadlinePassed
// actually fires.
func (c *Coordinator) accountInactivity(rs *roundState) {
	if rs.inactivityAccounted || !rs.r.DeadlineElapsed() {
		return
	}
	rs.inactivityAccounted = true

	for _, p := range rs.r.Snapshot.Active {
		if rs.tally.Voted(p.ID) {
			continue
		}
		count := c.set.RecordInactivity(p.ID)
		if count < c.cfg.InactivityThreshold {
			continue
		}
		if _, err := c.slasher.Slash(p.ID, types.Inactivity, rs.r.ID, nil); err != nil && !errors.Is(err, types.ErrAlreadySlashed) {
			c.log.Warn("slash inactivity failed", zap.Error(err))
		}
	}
}

func (c *Coordinator) recordProposerEquivocation(roundID types.RoundID, proof *proposal.EquivocationProof) {
	evidence := append(codec.MarshalProposal(proof.First), codec.MarshalProposal(proof.Second)...)
	if _, err := c.slasher.RecordEquivocation(proof.First.Proposer, roundID, evidence); err != nil {
		if !errors.Is(err, types.ErrAlreadySlashed) {
			c.log.Warn("slash proposer equivocation failed", zap.Error(err))
		}
		return
	}
	c.log.Warn("proposer equivocation detected",
		zap.Uint64("round", uint64(roundID)),
		zap.String("first", hexHash(proof.First.PayloadHash)),
		zap.String("second", hexHash(proof.Second.PayloadHash)),
	)
	c.metrics.ByzantineDetected.Inc()
}

func (c *Coordinator) recordVoterEquivocation(roundID types.RoundID, proof *vote.EquivocationProof) {
	evidence := append(codec.MarshalVote(proof.First), codec.MarshalVote(proof.Second)...)
	if _, err := c.slasher.RecordEquivocation(proof.First.Voter, roundID, evidence); err != nil {
		if !errors.Is(err, types.ErrAlreadySlashed) {
			c.log.Warn("slash voter equivocation failed", zap.Error(err))
		}
		return
	}
	c.log.Warn("voter equivocation detected",
		zap.Uint64("round", uint64(roundID)),
		zap.String("first", hexHash(proof.First.VoteTarget)),
		zap.String("second", hexHash(proof.Second.VoteTarget)),
	)
	c.metrics.ByzantineDetected.Inc()
}

func (c *Coordinator) broadcast(ctx context.Context, msg []byte) error {
	if c.transport == nil {
		return nil
	}
	return c.transport.Broadcast(ctx, msg)
}

// SubscribeFinalizations registers l to be called every time a round
// reaches Finalized.
func (c *Coordinator) SubscribeFinalizations(l FinalizationListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

func (c *Coordinator) notifyFinalized(cert *types.CommitCertificate) {
	for _, l := range c.listeners {
		l.OnFinalized(cert)
	}
}

// AnnounceSlashing implements slashing.Announcer.
func (c *Coordinator) AnnounceSlashing(event *types.SlashingEvent) {
	if err := c.broadcast(context.Background(), codec.MarshalSlashingAnnouncement(event)); err != nil {
		c.log.Warn("announce slashing failed", zap.Error(err))
	}
}

// BroadcastDispute implements dispute.Broadcaster. A dispute the
// Manager hands here either arrived from a peer, in which case its raw
// signed bytes are already on file in pendingDisputeWire and are
// relayed verbatim, or was filed locally by this node through
// FileDispute, in which case it is signed fresh.
func (c *Coordinator) BroadcastDispute(d *types.Dispute) {
	if raw, ok := c.pendingDisputeWire[d.DisputeID]; ok {
		delete(c.pendingDisputeWire, d.DisputeID)
		if err := c.broadcast(context.Background(), raw); err != nil {
			c.log.Warn("relay dispute failed", zap.Error(err))
		}
		return
	}

	sig := crypto.Sign(c.signingKey(), codec.SignedBytesDispute(d))
	raw := codec.MarshalDispute(d, sig)
	if err := c.broadcast(context.Background(), raw); err != nil {
		c.log.Warn("broadcast local dispute failed", zap.Error(err))
	}
}

// CommitReversed implements dispute.Reversal: it logs the reversal and,
// if the disputed round is still held locally and has not reached a
// terminal phase, aborts it with ExternalAbort. A round that already
// reached Finalized or Failed keeps its phase, and its persisted
// certificate is left unchanged.
func (c *Coordinator) CommitReversed(roundID types.RoundID) {
	c.log.Warn("commit reversed by dispute resolution", zap.Uint64("round", uint64(roundID)))
	if rs, ok := c.rounds[roundID]; ok {
		rs.r.Abort(types.ExternalAbort)
	}
}

// Tick drives deadline-based transitions and housekeeping that has no
// other inbound event to piggyback on: phase timeouts, inactivity
// accounting, partition detection and dispute expiry. Callers invoke
// it periodically (e.g. once a second) with the current time.
func (c *Coordinator) Tick(ctx context.Context, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock.Set(now)

	for _, d := range c.disputes.Pending() {
		if uint64(now.Unix()) < d.ResolutionDeadline {
			continue
		}
		outcome, err := c.disputes.Resolve(d.DisputeID)
		if err != nil {
			c.log.Warn("resolve dispute failed", zap.Error(err))
			continue
		}
		if target, reason, ok := dispute.SlashTarget(outcome); ok {
			if _, err := c.slasher.Slash(target, reason, d.DisputedRound, nil); err != nil && !errors.Is(err, types.ErrAlreadySlashed) {
				c.log.Warn("slash dispute outcome failed", zap.Error(err))
			}
		}
	}

	rs, ok := c.rounds[c.current]
	if !ok {
		return
	}

	if c.detector.CheckPartition(rs.r.Snapshot) {
		c.log.Warn("partition confirmed", zap.Int("unreachable", len(c.detector.Unreachable(rs.r.Snapshot))))
	}
	c.expireIfDeadlinePassed(ctx, rs)
}

// Status reports the coordinator's current round, phase and liveness
// summary.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	var phase types.Phase
	if rs, ok := c.rounds[c.current]; ok {
		phase = rs.r.Phase()
	}
	return Status{
		GameID:             gctx.Game(c.idctx),
		CurrentRound:       c.current,
		Phase:              phase,
		ActiveParticipants: c.set.ActiveCount(),
		PendingDisputes:    len(c.disputes.Pending()),
		InPartition:        c.detector.InPartition(),
	}
}
