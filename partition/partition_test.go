// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package partition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/throneforge/bftconsensus/commit"
	"github.com/throneforge/bftconsensus/participant"
	"github.com/throneforge/bftconsensus/types"
	"github.com/throneforge/bftconsensus/utils/timer/mockable"
)

func newSnapshot(t *testing.T, n int) *participant.Snapshot {
	t.Helper()
	set := participant.NewSet()
	for i := byte(0); i < byte(n); i++ {
		require.NoError(t, set.Add(types.Participant{ID: types.ParticipantID{i}, Stake: 1}))
	}
	return set.Snapshot(1)
}

func TestCheckPartitionRequiresWindowToElapse(t *testing.T) {
	clock := mockable.NewClock()
	clock.Set(time.Unix(0, 0))
	d := NewDetector(clock, 30*time.Second)
	snap := newSnapshot(t, 6) // threshold = 2

	// Only 2 of 6 heartbeat in (4 unreachable > threshold of 2).
	d.Heartbeat(types.ParticipantID{0})
	d.Heartbeat(types.ParticipantID{1})

	require.False(t, d.CheckPartition(snap), "should not confirm before detection window elapses")

	clock.Advance(31 * time.Second)
	require.True(t, d.CheckPartition(snap))
	require.True(t, d.InPartition())
}

func TestCheckPartitionFalseWhenBelowThreshold(t *testing.T) {
	clock := mockable.NewClock()
	clock.Set(time.Unix(0, 0))
	d := NewDetector(clock, 30*time.Second)
	snap := newSnapshot(t, 6) // threshold = 2

	for i := byte(0); i < 6; i++ {
		d.Heartbeat(types.ParticipantID{i})
	}
	require.False(t, d.CheckPartition(snap))
	require.False(t, d.InPartition())
}

type fakePersistence struct {
	commits map[types.RoundID]*types.CommitCertificate
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{commits: make(map[types.RoundID]*types.CommitCertificate)}
}
func (f *fakePersistence) AppendCommit(c *types.CommitCertificate) error {
	f.commits[c.RoundID] = c
	return nil
}
func (f *fakePersistence) ReadCommit(r types.RoundID) (*types.CommitCertificate, bool, error) {
	c, ok := f.commits[r]
	return c, ok, nil
}
func (f *fakePersistence) Range(from, to types.RoundID) ([]*types.CommitCertificate, error) {
	var out []*types.CommitCertificate
	for r := from; r <= to; r++ {
		if c, ok := f.commits[r]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

var _ commit.Persistence = (*fakePersistence)(nil)

func TestReconcileReplaysMissingCommits(t *testing.T) {
	local := newFakePersistence()
	remote := []*types.CommitCertificate{
		{RoundID: 1, DecidedHash: types.Hash{1}},
		{RoundID: 2, DecidedHash: types.Hash{2}},
	}

	conflicts, err := Reconcile(local, 0, 2, remote)
	require.NoError(t, err)
	require.Empty(t, conflicts)

	c, ok, err := local.ReadCommit(2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Hash{2}, c.DecidedHash)
}

func TestReconcileDetectsConflictingCertificates(t *testing.T) {
	local := newFakePersistence()
	require.NoError(t, local.AppendCommit(&types.CommitCertificate{RoundID: 1, DecidedHash: types.Hash{1}}))

	remote := []*types.CommitCertificate{
		{RoundID: 1, DecidedHash: types.Hash{9}},
	}

	conflicts, err := Reconcile(local, 1, 1, remote)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	require.Equal(t, types.RoundID(1), conflicts[0].RoundID)
}
