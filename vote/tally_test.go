// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vote

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"github.com/throneforge/bftconsensus/codec"
	"github.com/throneforge/bftconsensus/crypto"
	"github.com/throneforge/bftconsensus/participant"
	"github.com/throneforge/bftconsensus/types"
)

type votingParticipant struct {
	id   types.ParticipantID
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func newVotingParticipants(t *testing.T, n int) []votingParticipant {
	t.Helper()
	out := make([]votingParticipant, n)
	for i := range out {
		pub, priv, err := crypto.GenerateKey()
		require.NoError(t, err)
		out[i] = votingParticipant{id: crypto.DeriveID(pub), pub: pub, priv: priv}
	}
	return out
}

func castVote(t *testing.T, tally *Tally, vp votingParticipant, round types.RoundID, target types.Hash) (*EquivocationProof, error) {
	t.Helper()
	v := &types.Vote{RoundID: round, Voter: vp.id, VoteTarget: target, Timestamp: 1}
	v.Signature = crypto.Sign(vp.priv, codec.SignedBytesVote(v))
	return tally.Cast(types.Voting, vp.pub, v)
}

func newTallyWithParticipants(t *testing.T, vps []votingParticipant) *Tally {
	t.Helper()
	set := participant.NewSet()
	for _, vp := range vps {
		require.NoError(t, set.Add(types.Participant{ID: vp.id, Stake: 1}))
	}
	snap := set.Snapshot(1)
	return NewTally(1, snap)
}

func TestCastAcceptsValidVote(t *testing.T) {
	vps := newVotingParticipants(t, 4)
	tally := newTallyWithParticipants(t, vps)

	target := types.Hash{1}
	proof, err := castVote(t, tally, vps[0], 1, target)
	require.NoError(t, err)
	require.Nil(t, proof)
}

func TestCastRejectsUnknownVoter(t *testing.T) {
	vps := newVotingParticipants(t, 1)
	tally := newTallyWithParticipants(t, vps)

	outsider := newVotingParticipants(t, 1)[0]
	_, err := castVote(t, tally, outsider, 1, types.Hash{1})
	require.ErrorIs(t, err, types.ErrUnknownSigner)
}

func TestCastDetectsVoterEquivocation(t *testing.T) {
	vps := newVotingParticipants(t, 4)
	tally := newTallyWithParticipants(t, vps)

	_, err := castVote(t, tally, vps[0], 1, types.Hash{1})
	require.NoError(t, err)

	proof, err := castVote(t, tally, vps[0], 1, types.Hash{2})
	require.NoError(t, err)
	require.NotNil(t, proof)

	// Further votes from the same voter are rejected outright.
	_, err = castVote(t, tally, vps[0], 1, types.Hash{3})
	require.ErrorIs(t, err, types.ErrDuplicateMessage)
}

func TestCheckQuorumReachesThresholdAtFourParticipants(t *testing.T) {
	vps := newVotingParticipants(t, 4) // quorum(4) = 3
	tally := newTallyWithParticipants(t, vps)
	target := types.Hash{1}

	for i := 0; i < 2; i++ {
		_, err := castVote(t, tally, vps[i], 1, target)
		require.NoError(t, err)
	}
	_, reached := tally.CheckQuorum()
	require.False(t, reached)

	_, err := castVote(t, tally, vps[2], 1, target)
	require.NoError(t, err)

	winner, reached := tally.CheckQuorum()
	require.True(t, reached)
	require.Equal(t, target, winner)
}

func TestCheckQuorumExcludesEquivocatedVotes(t *testing.T) {
	vps := newVotingParticipants(t, 4)
	tally := newTallyWithParticipants(t, vps)
	target := types.Hash{1}

	_, err := castVote(t, tally, vps[0], 1, target)
	require.NoError(t, err)
	_, err = castVote(t, tally, vps[1], 1, target)
	require.NoError(t, err)
	_, err = castVote(t, tally, vps[2], 1, target)
	require.NoError(t, err)

	// vps[2] now equivocates; its earlier vote for target must no
	// longer count toward quorum.
	_, err = castVote(t, tally, vps[2], 1, types.Hash{9})
	require.NoError(t, err)

	_, reached := tally.CheckQuorum()
	require.False(t, reached)
}

func TestVotesForReturnsOnlyNonEquivocatingVoters(t *testing.T) {
	vps := newVotingParticipants(t, 3)
	tally := newTallyWithParticipants(t, vps)
	target := types.Hash{1}

	_, err := castVote(t, tally, vps[0], 1, target)
	require.NoError(t, err)
	_, err = castVote(t, tally, vps[1], 1, target)
	require.NoError(t, err)
	_, err = castVote(t, tally, vps[2], 1, target)
	require.NoError(t, err)
	_, err = castVote(t, tally, vps[2], 1, types.Hash{9})
	require.NoError(t, err)

	votes := tally.VotesFor(target)
	require.Len(t, votes, 2)
}

func TestVotedReflectsRecordedBallot(t *testing.T) {
	vps := newVotingParticipants(t, 2)
	tally := newTallyWithParticipants(t, vps)

	require.False(t, tally.Voted(vps[0].id))
	_, err := castVote(t, tally, vps[0], 1, types.Hash{1})
	require.NoError(t, err)
	require.True(t, tally.Voted(vps[0].id))
	require.False(t, tally.Voted(vps[1].id))
}
