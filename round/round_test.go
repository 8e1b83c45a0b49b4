// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/throneforge/bftconsensus/participant"
	"github.com/throneforge/bftconsensus/types"
	"github.com/throneforge/bftconsensus/utils/timer/mockable"
)

func newTestRound(t *testing.T) (*Round, *mockable.Clock) {
	t.Helper()
	set := participant.NewSet()
	require.NoError(t, set.Add(types.Participant{ID: types.ParticipantID{1}, Stake: 1}))
	snap := set.Snapshot(1)

	clock := mockable.NewClock()
	clock.Set(time.Unix(0, 0))
	r := New(1, snap, clock, DefaultWindows())
	return r, clock
}

func TestNewRoundStartsProposing(t *testing.T) {
	r, _ := newTestRound(t)
	require.Equal(t, types.Proposing, r.Phase())
}

func TestHappyPathTransitions(t *testing.T) {
	r, _ := newTestRound(t)

	require.NoError(t, r.AdvanceToVoting())
	require.Equal(t, types.Voting, r.Phase())

	require.NoError(t, r.AdvanceToCommitting())
	require.Equal(t, types.Committing, r.Phase())

	require.NoError(t, r.Finalize())
	require.Equal(t, types.Finalized, r.Phase())
}

func TestWrongPhaseTransitionRejected(t *testing.T) {
	r, _ := newTestRound(t)
	require.ErrorIs(t, r.AdvanceToCommitting(), types.ErrWrongPhase)
	require.ErrorIs(t, r.Finalize(), types.ErrWrongPhase)
}

func TestCheckDeadlineTimesOutProposing(t *testing.T) {
	r, clock := newTestRound(t)
	clock.Advance(DefaultWindows().ProposalWindow + time.Millisecond)

	require.True(t, r.CheckDeadline())
	require.Equal(t, types.Failed, r.Phase())
	require.Equal(t, types.TimedOut, r.FailReason())
}

func TestCheckDeadlineNoOpBeforeDeadline(t *testing.T) {
	r, clock := newTestRound(t)
	clock.Advance(time.Millisecond)

	require.False(t, r.CheckDeadline())
	require.Equal(t, types.Proposing, r.Phase())
}

func TestAbortIsTerminalAndIdempotent(t *testing.T) {
	r, _ := newTestRound(t)
	r.Abort(types.ExternalAbort)
	require.Equal(t, types.Failed, r.Phase())
	require.Equal(t, types.ExternalAbort, r.FailReason())

	// A second abort after Finalized/Failed must not overwrite the reason.
	r.Abort(types.TimedOut)
	require.Equal(t, types.ExternalAbort, r.FailReason())
}

func TestDeadlineElapsedHasNoSideEffect(t *testing.T) {
	r, clock := newTestRound(t)
	clock.Advance(DefaultWindows().ProposalWindow + time.Millisecond)

	require.True(t, r.DeadlineElapsed())
	require.Equal(t, types.Proposing, r.Phase(), "DeadlineElapsed must not transition the round")

	require.True(t, r.CheckDeadline())
	require.Equal(t, types.Failed, r.Phase())
}

func TestDeadlineElapsedFalseInTerminalPhase(t *testing.T) {
	r, _ := newTestRound(t)
	r.Abort(types.ExternalAbort)
	require.False(t, r.DeadlineElapsed())
}

