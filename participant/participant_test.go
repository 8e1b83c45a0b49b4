// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package participant

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/throneforge/bftconsensus/types"
)

func TestQuorumFormula(t *testing.T) {
	cases := map[int]int{
		4:   3,
		7:   5,
		10:  7,
		100: 67,
	}
	for n, want := range cases {
		require.Equal(t, want, Quorum(n), "n=%d", n)
	}
}

func TestAddRejectsDuplicate(t *testing.T) {
	s := NewSet()
	p := types.Participant{ID: types.ParticipantID{1}, Stake: 10}

	require.NoError(t, s.Add(p))
	require.ErrorIs(t, s.Add(p), types.ErrDuplicateID)
}

func TestRemoveNeverReactivates(t *testing.T) {
	s := NewSet()
	id := types.ParticipantID{1}
	require.NoError(t, s.Add(types.Participant{ID: id, Stake: 10}))
	require.NoError(t, s.Remove(id, types.Slashed))

	// Re-adding the same id is rejected even though it is no longer active.
	require.ErrorIs(t, s.Add(types.Participant{ID: id, Stake: 10}), types.ErrDuplicateID)

	p, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, types.Slashed, p.Status)
}

func TestRemoveUnknownParticipant(t *testing.T) {
	s := NewSet()
	require.ErrorIs(t, s.Remove(types.ParticipantID{9}, types.Departed), types.ErrUnknownParticipant)
}

func TestSnapshotFixesQuorumAtRoundStart(t *testing.T) {
	s := NewSet()
	for i := byte(0); i < 4; i++ {
		require.NoError(t, s.Add(types.Participant{ID: types.ParticipantID{i}, Stake: 1}))
	}

	snap := s.Snapshot(1)
	require.Equal(t, 4, snap.Len())
	require.Equal(t, 3, snap.Quorum)

	// Membership changes after the snapshot was taken do not affect it.
	require.NoError(t, s.Add(types.Participant{ID: types.ParticipantID{5}, Stake: 1}))
	again := s.Snapshot(1)
	require.Same(t, snap, again)
	require.Equal(t, 4, again.Len())
}

func TestSnapshotExcludesInactiveParticipants(t *testing.T) {
	s := NewSet()
	active := types.ParticipantID{1}
	slashed := types.ParticipantID{2}
	require.NoError(t, s.Add(types.Participant{ID: active, Stake: 5}))
	require.NoError(t, s.Add(types.Participant{ID: slashed, Stake: 5}))
	require.NoError(t, s.Remove(slashed, types.Slashed))

	snap := s.Snapshot(1)
	require.True(t, snap.Has(active))
	require.False(t, snap.Has(slashed))
	require.Equal(t, uint64(5), snap.TotalStake)
}

func TestSnapshotRetentionEvictsOldest(t *testing.T) {
	s := NewSetWithRetention(2)
	require.NoError(t, s.Add(types.Participant{ID: types.ParticipantID{1}, Stake: 1}))

	s.Snapshot(1)
	s.Snapshot(2)
	s.Snapshot(3)

	_, ok := s.SnapshotAt(1)
	require.False(t, ok, "oldest snapshot should have been evicted")
	_, ok = s.SnapshotAt(3)
	require.True(t, ok)
}

type recordingListener struct {
	added   []types.Participant
	removed []types.ParticipantID
}

func (l *recordingListener) OnParticipantAdded(p types.Participant) {
	l.added = append(l.added, p)
}

func (l *recordingListener) OnParticipantRemoved(id types.ParticipantID, _ types.Status) {
	l.removed = append(l.removed, id)
}

func TestListenersNotifiedOnMembershipChange(t *testing.T) {
	s := NewSet()
	l := &recordingListener{}
	s.AddListener(l)

	id := types.ParticipantID{7}
	require.NoError(t, s.Add(types.Participant{ID: id, Stake: 1}))
	require.NoError(t, s.Remove(id, types.Departed))

	require.Len(t, l.added, 1)
	require.Len(t, l.removed, 1)
	require.Equal(t, id, l.removed[0])
}

func TestInactivityCounterSurvivesAcrossRounds(t *testing.T) {
	s := NewSet()
	id := types.ParticipantID{9}

	require.Equal(t, 1, s.RecordInactivity(id))
	require.Equal(t, 2, s.RecordInactivity(id))
	require.Equal(t, 2, s.InactivityCount(id))

	s.ResetInactivity(id)
	require.Equal(t, 0, s.InactivityCount(id))
}
