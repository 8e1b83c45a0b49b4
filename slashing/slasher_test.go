// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package slashing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/throneforge/bftconsensus/participant"
	"github.com/throneforge/bftconsensus/types"
)

type recordingAnnouncer struct {
	events []*types.SlashingEvent
}

func (a *recordingAnnouncer) AnnounceSlashing(e *types.SlashingEvent) {
	a.events = append(a.events, e)
}

func TestSlashAppliesFullStakeForEquivocation(t *testing.T) {
	set := participant.NewSet()
	id := types.ParticipantID{1}
	require.NoError(t, set.Add(types.Participant{ID: id, Stake: 1000}))

	ann := &recordingAnnouncer{}
	s := New(set, ann)

	event, err := s.RecordEquivocation(id, 5, []byte("proof"))
	require.NoError(t, err)
	require.Equal(t, uint64(1000), event.Penalty)
	require.Equal(t, types.Equivocation, event.Reason)
	require.Len(t, ann.events, 1)

	p, ok := set.Get(id)
	require.True(t, ok)
	require.Equal(t, types.Slashed, p.Status)
}

func TestSlashAppliesPartialPenaltyForInvalidProposal(t *testing.T) {
	set := participant.NewSet()
	id := types.ParticipantID{1}
	require.NoError(t, set.Add(types.Participant{ID: id, Stake: 1000}))
	s := New(set, nil)

	event, err := s.Slash(id, types.InvalidProposal, 1, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(200), event.Penalty) // 20% of 1000
}

func TestSlashRejectsUnknownParticipant(t *testing.T) {
	set := participant.NewSet()
	s := New(set, nil)
	_, err := s.Slash(types.ParticipantID{9}, types.Inactivity, 1, nil)
	require.ErrorIs(t, err, types.ErrUnknownParticipant)
}

func TestSlashRejectsAlreadySlashed(t *testing.T) {
	set := participant.NewSet()
	id := types.ParticipantID{1}
	require.NoError(t, set.Add(types.Participant{ID: id, Stake: 1000}))
	s := New(set, nil)

	_, err := s.Slash(id, types.Equivocation, 1, nil)
	require.NoError(t, err)

	_, err = s.Slash(id, types.Equivocation, 2, nil)
	require.ErrorIs(t, err, types.ErrAlreadySlashed)
}
