// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

// Vote is a signed ballot cast by a participant for a payload hash during
// the Voting phase of a round. Two votes from the same voter in the same
// round with different VoteTarget constitute equivocation (I2).
type Vote struct {
	RoundID    RoundID
	Voter      ParticipantID
	VoteTarget Hash
	Timestamp  uint64
	Signature  []byte
}

// CommitCertificate is the proof that at least quorum(n) participants
// voted for DecidedHash in RoundID. It is produced once per round (I3)
// and handed to the persistence collaborator.
type CommitCertificate struct {
	RoundID     RoundID
	DecidedHash Hash
	Signatures  []VoterSignature
}

// VoterSignature pairs a voter with their signature over their Vote for
// the certificate's DecidedHash, so any third party can re-verify the
// certificate without re-deriving it from the vote tally.
type VoterSignature struct {
	Voter     ParticipantID
	Signature []byte
}

// Size returns the number of signatures aggregated into the certificate.
func (c *CommitCertificate) Size() int {
	return len(c.Signatures)
}
