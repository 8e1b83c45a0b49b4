// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package commit implements C7, Finalization & Commit Log: assembling
// a CommitCertificate once C5 signals quorum, re-verifying every
// included signature in defense of a compromised tally, and handing
// the result to the external persistence collaborator before the round
// may advance.
package commit

import (
	"fmt"

	"github.com/throneforge/bftconsensus/codec"
	"github.com/throneforge/bftconsensus/crypto"
	"github.com/throneforge/bftconsensus/participant"
	"github.com/throneforge/bftconsensus/types"
)

// Persistence is the external collaborator that durably records
// finalized rounds. AppendCommit must not return until the write is
// durable; the coordinator will not advance past the round otherwise
// (§4.7, §6).
type Persistence interface {
	AppendCommit(*types.CommitCertificate) error
	ReadCommit(round types.RoundID) (*types.CommitCertificate, bool, error)
	Range(from, to types.RoundID) ([]*types.CommitCertificate, error)
}

// PublicKeyLookup resolves a participant's registered public key, used
// to re-verify aggregated signatures independently of however they
// were originally verified by the vote tally.
type PublicKeyLookup func(types.ParticipantID) ([]byte, bool)

// Assemble builds a CommitCertificate from votes cast for decidedHash
// and re-verifies every included signature (§4.7 step 2: "defense in
// depth"). A vote whose signature fails re-verification is dropped
// from the certificate rather than aborting the whole assembly, since
// the tally already required quorum before calling Assemble and a
// handful of bad entries should not forfeit an otherwise-valid commit.
func Assemble(roundID types.RoundID, decidedHash types.Hash, votes []*types.Vote, lookup PublicKeyLookup) (*types.CommitCertificate, error) {
	cert := &types.CommitCertificate{
		RoundID:     roundID,
		DecidedHash: decidedHash,
	}
	for _, v := range votes {
		pub, ok := lookup(v.Voter)
		if !ok {
			continue
		}
		signed := codec.SignedBytesVote(v)
		if err := crypto.Verify(pub, signed, v.Signature); err != nil {
			continue
		}
		cert.Signatures = append(cert.Signatures, types.VoterSignature{
			Voter:     v.Voter,
			Signature: v.Signature,
		})
	}
	return cert, nil
}

// Finalize re-checks that cert still meets snap's quorum after
// re-verification (a vote may have been dropped by Assemble), persists
// it, and reports the outcome. On persistence failure the caller must
// transition the round to Failed(ExternalAbort) per §7's propagation
// policy; Finalize itself does not touch round state.
func Finalize(cert *types.CommitCertificate, snap *participant.Snapshot, persistence Persistence) error {
	if cert.Size() < snap.Quorum {
		return fmt.Errorf("%w: certificate has %d signatures, need %d", types.ErrInsufficientParticipation, cert.Size(), snap.Quorum)
	}
	if err := persistence.AppendCommit(cert); err != nil {
		return fmt.Errorf("%w: %w", types.ErrPersistenceUnavailable, err)
	}
	return nil
}
