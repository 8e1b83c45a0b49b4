// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package round implements C3, the Round State Machine: phase
// transitions and proposal/voting deadlines for a single round.
// Inactivity accounting lives in participant.Set, not here, since it
// must survive past the round that observed the miss. There is no
// per-round timer goroutine; the coordinator calls DeadlineElapsed on
// every inbound event and on a periodic wake and itself decides whether
// to advance or fail the round, and the round reports whether its
// deadline has passed against a Clock it was handed at construction.
// CheckDeadline, which fails the round with TimedOut on its own, is not
// used by the coordinator.
package round

import (
	"time"

	"github.com/throneforge/bftconsensus/participant"
	"github.com/throneforge/bftconsensus/types"
	"github.com/throneforge/bftconsensus/utils/timer/mockable"
)

// Windows configures how long a round waits in each non-terminal phase
// before it fails with TimedOut.
type Windows struct {
	ProposalWindow time.Duration
	VotingWindow   time.Duration
}

// DefaultWindows matches the spec's stated defaults (§4.3: 2s/5s).
func DefaultWindows() Windows {
	return Windows{
		ProposalWindow: 2 * time.Second,
		VotingWindow:   5 * time.Second,
	}
}

// Round is the phase and deadline state for a single round_id. It owns
// no proposal or vote data itself — that lives in the proposal and vote
// packages, keyed by RoundID — so it can be swapped/replayed cheaply.
type Round struct {
	ID       types.RoundID
	Snapshot *participant.Snapshot

	phase      types.Phase
	failReason types.FailReason
	deadline   time.Time
	clock      *mockable.Clock
	windows    Windows
}

// New creates a Round in Idle for the given snapshot, immediately
// transitioning to Proposing with a fresh proposal_window deadline —
// Idle exists only as the zero state before a round is started.
func New(id types.RoundID, snap *participant.Snapshot, clock *mockable.Clock, windows Windows) *Round {
	r := &Round{
		ID:       id,
		Snapshot: snap,
		phase:    types.Idle,
		clock:    clock,
		windows:  windows,
	}
	r.startProposing()
	return r
}

// Phase returns the round's current phase.
func (r *Round) Phase() types.Phase {
	return r.phase
}

// FailReason returns why the round failed, if it has.
func (r *Round) FailReason() types.FailReason {
	return r.failReason
}

func (r *Round) startProposing() {
	r.phase = types.Proposing
	r.deadline = r.clock.Now().Add(r.windows.ProposalWindow)
}

// AdvanceToVoting transitions Proposing → Voting, called once a valid
// proposal has been accepted for the round. Any phase other than
// Proposing is a programming error in the caller, reported as
// ErrWrongPhase rather than panicking so a misbehaving peer can't crash
// the coordinator.
func (r *Round) AdvanceToVoting() error {
	if r.phase != types.Proposing {
		return types.ErrWrongPhase
	}
	r.phase = types.Voting
	r.deadline = r.clock.Now().Add(r.windows.VotingWindow)
	return nil
}

// AdvanceToCommitting transitions Voting → Committing once C5 reports
// quorum.
func (r *Round) AdvanceToCommitting() error {
	if r.phase != types.Voting {
		return types.ErrWrongPhase
	}
	r.phase = types.Committing
	return nil
}

// Finalize transitions Committing → Finalized once the commit
// certificate has been durably persisted.
func (r *Round) Finalize() error {
	if r.phase != types.Committing {
		return types.ErrWrongPhase
	}
	r.phase = types.Finalized
	return nil
}

// Abort transitions any non-terminal phase to Failed(reason), e.g. on
// external abort or a persistence failure in C7.
func (r *Round) Abort(reason types.FailReason) {
	if r.phase == types.Finalized || r.phase == types.Failed {
		return
	}
	r.phase = types.Failed
	r.failReason = reason
}

// DeadlineElapsed reports whether the current phase's deadline has
// passed, without side effects — used by the coordinator to choose
// between advancing (a proposal, or a quorum of votes, already on file)
// and failing the round through Abort when a window elapses.
func (r *Round) DeadlineElapsed() bool {
	switch r.phase {
	case types.Proposing, types.Voting:
	default:
		return false
	}
	return !r.clock.Now().Before(r.deadline)
}

// CheckDeadline fails the round with TimedOut if its current
// phase's deadline has passed. It is a no-op in Committing, Finalized
// and Failed, which have no deadline of their own. Returns true if the
// round timed out on this call.
func (r *Round) CheckDeadline() bool {
	switch r.phase {
	case types.Proposing, types.Voting:
	default:
		return false
	}
	if r.clock.Now().Before(r.deadline) {
		return false
	}
	r.Abort(types.TimedOut)
	return true
}

