// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dispute

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	"github.com/throneforge/bftconsensus/codec"
	"github.com/throneforge/bftconsensus/crypto"
	"github.com/throneforge/bftconsensus/types"
)

type alwaysIncludedMerkle struct{}

func (alwaysIncludedMerkle) VerifyInclusion(types.Hash, []byte) bool { return true }

type recordingBroadcaster struct {
	disputes []*types.Dispute
}

func (b *recordingBroadcaster) BroadcastDispute(d *types.Dispute) {
	b.disputes = append(b.disputes, d)
}

type recordingReversal struct {
	reversed []types.RoundID
}

func (r *recordingReversal) CommitReversed(round types.RoundID) {
	r.reversed = append(r.reversed, round)
}

type keyring struct {
	keys map[types.ParticipantID]ed25519.PublicKey
}

func newKeyring() *keyring { return &keyring{keys: make(map[types.ParticipantID]ed25519.PublicKey)} }

func (k *keyring) register(id types.ParticipantID, pub ed25519.PublicKey) { k.keys[id] = pub }

func (k *keyring) lookup(id types.ParticipantID) ([]byte, bool) {
	pub, ok := k.keys[id]
	return pub, ok
}

func newVoter(t *testing.T, kr *keyring) (types.ParticipantID, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	id := crypto.DeriveID(pub)
	kr.register(id, pub)
	return id, priv
}

func signedDisputeVote(t *testing.T, priv ed25519.PrivateKey, disputeID types.Hash, voter types.ParticipantID, choice types.DisputeChoice) *types.DisputeVote {
	t.Helper()
	v := &types.DisputeVote{DisputeID: disputeID, Voter: voter, Choice: choice, Timestamp: 1}
	signed, err := codec.SignedBytesDisputeVote(v)
	require.NoError(t, err)
	v.Signature = crypto.Sign(priv, signed)
	return v
}

func TestFileDisputeIsIdempotentByContentHash(t *testing.T) {
	kr := newKeyring()
	m := New(DefaultConfig(), alwaysIncludedMerkle{}, kr.lookup, nil, nil)

	disputer := types.ParticipantID{1}
	claim := types.InvalidPayoutClaim{Player: types.ParticipantID{2}, Expected: 100, Actual: 50}

	d1, err := m.FileDispute(disputer, 5, claim, nil, time.Unix(0, 0))
	require.NoError(t, err)
	d2, err := m.FileDispute(disputer, 5, claim, nil, time.Unix(100, 0))
	require.NoError(t, err)
	require.Equal(t, d1.DisputeID, d2.DisputeID)
	require.Same(t, d1, d2)
}

func TestCastVoteAndResolveUphold(t *testing.T) {
	kr := newKeyring()
	broadcast := &recordingBroadcaster{}
	m := New(DefaultConfig(), alwaysIncludedMerkle{}, kr.lookup, broadcast, nil)

	disputer := types.ParticipantID{1}
	claim := types.InvalidPayoutClaim{Player: types.ParticipantID{2}, Expected: 100, Actual: 50}
	d, err := m.FileDispute(disputer, 5, claim, nil, time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, broadcast.disputes, 1)

	v1id, v1priv := newVoter(t, kr)
	v2id, v2priv := newVoter(t, kr)

	require.NoError(t, m.CastVote(signedDisputeVote(t, v1priv, d.DisputeID, v1id, types.Uphold), time.Unix(10, 0)))
	require.NoError(t, m.CastVote(signedDisputeVote(t, v2priv, d.DisputeID, v2id, types.Uphold), time.Unix(10, 0)))

	outcome, err := m.Resolve(d.DisputeID)
	require.NoError(t, err)
	require.False(t, outcome.Expired)
	require.Equal(t, types.Uphold, outcome.Choice)

	target, reason, ok := SlashTarget(outcome)
	require.True(t, ok)
	require.Equal(t, types.ParticipantID{2}, target)
	require.Equal(t, types.InvalidProposal, reason)
}

func TestResolveExpiresBelowMinVotes(t *testing.T) {
	kr := newKeyring()
	cfg := DefaultConfig()
	cfg.MinVotes = 2
	m := New(cfg, alwaysIncludedMerkle{}, kr.lookup, nil, nil)

	claim := types.InvalidRollClaim{RoundID: 5, Reason: "bad roll"}
	d, err := m.FileDispute(types.ParticipantID{1}, 5, claim, nil, time.Unix(0, 0))
	require.NoError(t, err)

	v1id, v1priv := newVoter(t, kr)
	require.NoError(t, m.CastVote(signedDisputeVote(t, v1priv, d.DisputeID, v1id, types.Uphold), time.Unix(10, 0)))

	outcome, err := m.Resolve(d.DisputeID)
	require.NoError(t, err)
	require.True(t, outcome.Expired)
	require.Equal(t, types.DisputeExpired, d.Status)
}

func TestResolveUpholdConsensusViolationTriggersReversal(t *testing.T) {
	kr := newKeyring()
	rev := &recordingReversal{}
	m := New(DefaultConfig(), alwaysIncludedMerkle{}, kr.lookup, nil, rev)

	claim := types.ConsensusViolationClaim{RuleName: "duplicate_commit"}
	d, err := m.FileDispute(types.ParticipantID{1}, 9, claim, nil, time.Unix(0, 0))
	require.NoError(t, err)

	v1id, v1priv := newVoter(t, kr)
	require.NoError(t, m.CastVote(signedDisputeVote(t, v1priv, d.DisputeID, v1id, types.Uphold), time.Unix(10, 0)))

	_, err = m.Resolve(d.DisputeID)
	require.NoError(t, err)
	require.Equal(t, []types.RoundID{9}, rev.reversed)
}

func TestCastVoteRejectsAfterDeadline(t *testing.T) {
	kr := newKeyring()
	cfg := DefaultConfig()
	cfg.ResolutionWindow = time.Minute
	m := New(cfg, alwaysIncludedMerkle{}, kr.lookup, nil, nil)

	claim := types.InvalidRollClaim{RoundID: 1}
	d, err := m.FileDispute(types.ParticipantID{1}, 1, claim, nil, time.Unix(0, 0))
	require.NoError(t, err)

	v1id, v1priv := newVoter(t, kr)
	vote := signedDisputeVote(t, v1priv, d.DisputeID, v1id, types.Uphold)
	err = m.CastVote(vote, time.Unix(0, 0).Add(2*time.Minute))
	require.ErrorIs(t, err, types.ErrTimedOut)
}

func TestPendingListsOnlyOpenDisputes(t *testing.T) {
	kr := newKeyring()
	m := New(DefaultConfig(), alwaysIncludedMerkle{}, kr.lookup, nil, nil)

	claim1 := types.InvalidRollClaim{RoundID: 1}
	d1, err := m.FileDispute(types.ParticipantID{1}, 1, claim1, nil, time.Unix(0, 0))
	require.NoError(t, err)

	claim2 := types.InvalidRollClaim{RoundID: 2}
	_, err = m.FileDispute(types.ParticipantID{1}, 2, claim2, nil, time.Unix(0, 0))
	require.NoError(t, err)

	require.Len(t, m.Pending(), 2)

	v1id, v1priv := newVoter(t, kr)
	require.NoError(t, m.CastVote(signedDisputeVote(t, v1priv, d1.DisputeID, v1id, types.Uphold), time.Unix(10, 0)))
	_, err = m.Resolve(d1.DisputeID)
	require.NoError(t, err)

	require.Len(t, m.Pending(), 1)
}
