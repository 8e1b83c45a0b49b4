// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/throneforge/bftconsensus/types"
)

func TestProposalRoundTrip(t *testing.T) {
	require := require.New(t)

	p := &types.Proposal{
		RoundID:     7,
		Proposer:    types.ParticipantID{1, 2, 3},
		Payload:     []byte("roll the dice"),
		PayloadHash: types.Hash{4, 5, 6},
		Timestamp:   1_700_000_000,
		Signature:   make([]byte, 64),
	}
	for i := range p.Signature {
		p.Signature[i] = byte(i)
	}

	encoded := MarshalProposal(p)
	decoded, err := UnmarshalProposal(encoded)
	require.NoError(err)
	require.Equal(p, decoded)

	signed := SignedBytesProposal(p)
	require.Equal(encoded[:len(encoded)-64], signed)
}

func TestPeekKindMatchesEncodedKind(t *testing.T) {
	require := require.New(t)

	p := &types.Proposal{RoundID: 1, Signature: make([]byte, 64)}
	kind, err := PeekKind(MarshalProposal(p))
	require.NoError(err)
	require.Equal(KindProposal, kind)

	v := &types.Vote{RoundID: 1, Signature: make([]byte, 64)}
	kind, err = PeekKind(MarshalVote(v))
	require.NoError(err)
	require.Equal(KindVote, kind)
}

func TestPeekKindRejectsShortFrame(t *testing.T) {
	_, err := PeekKind([]byte{0, 1})
	require.Error(t, err)
}

func TestUnmarshalProposalRejectsWrongKind(t *testing.T) {
	v := &types.Vote{RoundID: 1, Signature: make([]byte, 64)}
	encoded := MarshalVote(v)

	_, err := UnmarshalProposal(encoded)
	require.ErrorIs(t, err, ErrBadMessageKind)
}

func TestUnmarshalProposalRejectsBadProtocolTag(t *testing.T) {
	p := &types.Proposal{RoundID: 1, Signature: make([]byte, 64)}
	encoded := MarshalProposal(p)
	encoded[1] = 0xFF // corrupt the low byte of protocol_tag

	_, err := UnmarshalProposal(encoded)
	require.ErrorIs(t, err, ErrBadProtocolTag)
}

func TestVoteRoundTrip(t *testing.T) {
	require := require.New(t)

	v := &types.Vote{
		RoundID:    42,
		Voter:      types.ParticipantID{9},
		VoteTarget: types.Hash{8},
		Timestamp:  123,
		Signature:  make([]byte, 64),
	}
	encoded := MarshalVote(v)
	decoded, err := UnmarshalVote(encoded)
	require.NoError(err)
	require.Equal(v, decoded)
}

func TestCommitCertificateRoundTrip(t *testing.T) {
	require := require.New(t)

	c := &types.CommitCertificate{
		RoundID:     3,
		DecidedHash: types.Hash{1, 1, 1},
		Signatures: []types.VoterSignature{
			{Voter: types.ParticipantID{1}, Signature: make([]byte, 64)},
			{Voter: types.ParticipantID{2}, Signature: make([]byte, 64)},
		},
	}
	encoded := MarshalCommitCertificate(c)
	decoded, err := UnmarshalCommitCertificate(encoded)
	require.NoError(err)
	require.Equal(c, decoded)
}

func TestCommitCertificateRejectsTrailingBytes(t *testing.T) {
	c := &types.CommitCertificate{RoundID: 1, DecidedHash: types.Hash{}}
	encoded := append(MarshalCommitCertificate(c), 0xFF)

	_, err := UnmarshalCommitCertificate(encoded)
	require.ErrorIs(t, err, ErrTrailingBytes)
}

func TestSlashingAnnouncementRoundTrip(t *testing.T) {
	require := require.New(t)

	s := &types.SlashingEvent{
		Offender: types.ParticipantID{5},
		Reason:   types.Equivocation,
		Evidence: []byte("proposal-a || proposal-b"),
		Penalty:  1000,
	}
	encoded := MarshalSlashingAnnouncement(s)
	decoded, err := UnmarshalSlashingAnnouncement(encoded)
	require.NoError(err)
	require.Equal(s.Offender, decoded.Offender)
	require.Equal(s.Reason, decoded.Reason)
	require.Equal(s.Evidence, decoded.Evidence)
	require.Equal(s.Penalty, decoded.Penalty)
}

func TestDisputeRoundTrip(t *testing.T) {
	require := require.New(t)

	d := &types.Dispute{
		DisputeID:     types.Hash{1},
		Disputer:      types.ParticipantID{2},
		DisputedRound: 10,
		Claim: types.InvalidPayoutClaim{
			Player:   types.ParticipantID{3},
			Expected: 100,
			Actual:   50,
		},
		Evidence: []types.Evidence{
			types.WitnessTestimonyEvidence{
				Witness:   types.ParticipantID{4},
				Statement: "I saw the payout go through wrong",
				Signature: make([]byte, 64),
			},
		},
	}
	sig := make([]byte, 64)
	encoded := MarshalDispute(d, sig)

	decoded, err := UnmarshalDispute(encoded)
	require.NoError(err)
	require.Equal(d.DisputeID, decoded.Dispute.DisputeID)
	require.Equal(d.Disputer, decoded.Dispute.Disputer)
	require.Equal(d.DisputedRound, decoded.Dispute.DisputedRound)
	require.Equal(d.Claim.Kind(), decoded.Dispute.Claim.Kind())
	require.Equal(d.Claim.Canonical(), decoded.Dispute.Claim.Canonical())
	require.Len(decoded.Dispute.Evidence, 1)
	require.Equal(types.EvidenceWitnessTestimony, decoded.Dispute.Evidence[0].Kind())
	require.Equal(sig, decoded.Signature)
}

func TestDisputeVoteRoundTrip(t *testing.T) {
	require := require.New(t)

	v := &types.DisputeVote{
		DisputeID: types.Hash{1},
		Voter:     types.ParticipantID{2},
		Choice:    types.Uphold,
		Reasoning: "evidence checks out",
		Timestamp: 555,
		Signature: make([]byte, 64),
	}
	encoded, err := MarshalDisputeVote(v)
	require.NoError(err)

	decoded, err := UnmarshalDisputeVote(encoded)
	require.NoError(err)
	require.Equal(v, decoded)
}

func TestMarshalDisputeVoteRejectsOversizedReasoning(t *testing.T) {
	v := &types.DisputeVote{
		Reasoning: string(make([]byte, types.MaxReasoningLength+1)),
		Signature: make([]byte, 64),
	}
	_, err := MarshalDisputeVote(v)
	require.ErrorIs(t, err, ErrReasoningTooLong)
}
