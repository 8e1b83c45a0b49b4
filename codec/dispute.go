// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"fmt"

	"github.com/throneforge/bftconsensus/types"
	"github.com/throneforge/bftconsensus/utils/wrappers"
)

// MarshalDispute encodes a Dispute per the wire format: header ∥
// dispute_id ∥ disputer ∥ disputed_round ∥ claim_tag ∥ claim_body ∥
// evidence_count ∥ [evidence]* ∥ signature.
func MarshalDispute(d *types.Dispute, signature []byte) []byte {
	pk := wrappers.NewPacker(256)
	packHeader(pk, KindDispute)
	packID(pk, d.DisputeID)
	packID(pk, d.Disputer)
	pk.PackLong(uint64(d.DisputedRound))
	pk.PackByte(byte(d.Claim.Kind()))
	body := d.Claim.Canonical()
	pk.PackInt(uint32(len(body)))
	pk.PackBytes(body)
	pk.PackInt(uint32(len(d.Evidence)))
	for _, ev := range d.Evidence {
		packEvidence(pk, ev)
	}
	pk.PackBytes(signature)
	return pk.Bytes
}

// SignedBytesDispute returns the byte string a disputer signs: the
// encoding MarshalDispute produces, minus the trailing signature.
// Needed by a node filing its own dispute, since types.Dispute carries
// no Signature field to derive this from after the fact.
func SignedBytesDispute(d *types.Dispute) []byte {
	return MarshalDispute(d, nil)
}

// claimFromWire reconstructs a Claim from its tag and raw canonical
// body, inverting whichever variant's Canonical() produced body. All
// five ClaimKinds decode into their real typed struct — InvalidBetClaim,
// InvalidRollClaim, InvalidPayoutClaim, DoubleSpendingClaim and
// ConsensusViolationClaim — so a dispute received over the wire and one
// filed locally are indistinguishable to dispute.SlashTarget's type
// switch.
func claimFromWire(tag byte, body []byte) (types.Claim, error) {
	claim, err := types.DecodeClaim(types.ClaimKind(tag), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %d: %v", ErrUnknownClaimTag, tag, err)
	}
	return claim, nil
}

func packEvidence(pk *wrappers.Packer, ev types.Evidence) {
	switch e := ev.(type) {
	case types.SignedTransactionEvidence:
		pk.PackByte(byte(types.EvidenceSignedTransaction))
		pk.PackInt(uint32(len(e.Raw)))
		pk.PackBytes(e.Raw)
		packID(pk, e.Signer)
		pk.PackBytes(e.Signature)
	case types.StateProofEvidence:
		pk.PackByte(byte(types.EvidenceStateProof))
		packID(pk, e.StateHash)
		pk.PackInt(uint32(len(e.Proof)))
		pk.PackBytes(e.Proof)
	case types.TimestampProofEvidence:
		pk.PackByte(byte(types.EvidenceTimestampProof))
		pk.PackLong(e.Timestamp)
		packID(pk, e.Attester)
		pk.PackBytes(e.Signature)
	case types.WitnessTestimonyEvidence:
		pk.PackByte(byte(types.EvidenceWitnessTestimony))
		stmt := []byte(e.Statement)
		pk.PackInt(uint32(len(stmt)))
		pk.PackBytes(stmt)
		packID(pk, e.Witness)
		pk.PackBytes(e.Signature)
	}
}

func unpackEvidence(u *wrappers.Unpacker) (types.Evidence, error) {
	tag := u.UnpackByte()
	switch types.EvidenceKind(tag) {
	case types.EvidenceSignedTransaction:
		rawLen := u.UnpackInt()
		raw := u.UnpackBytes(int(rawLen))
		signer := idFromArray(unpackID(u))
		sig := u.UnpackBytes(64)
		if u.Err != nil {
			return nil, u.Err
		}
		return types.SignedTransactionEvidence{Raw: raw, Signer: signer, Signature: sig}, nil
	case types.EvidenceStateProof:
		hash := idFromArray(unpackID(u))
		proofLen := u.UnpackInt()
		proof := u.UnpackBytes(int(proofLen))
		if u.Err != nil {
			return nil, u.Err
		}
		return types.StateProofEvidence{StateHash: hash, Proof: proof}, nil
	case types.EvidenceTimestampProof:
		ts := u.UnpackLong()
		attester := idFromArray(unpackID(u))
		sig := u.UnpackBytes(64)
		if u.Err != nil {
			return nil, u.Err
		}
		return types.TimestampProofEvidence{Timestamp: ts, Attester: attester, Signature: sig}, nil
	case types.EvidenceWitnessTestimony:
		stmtLen := u.UnpackInt()
		stmt := u.UnpackBytes(int(stmtLen))
		witness := idFromArray(unpackID(u))
		sig := u.UnpackBytes(64)
		if u.Err != nil {
			return nil, u.Err
		}
		return types.WitnessTestimonyEvidence{Witness: witness, Statement: string(stmt), Signature: sig}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownEvidenceTag, tag)
	}
}

// DecodedDispute is the result of UnmarshalDispute: the Dispute plus
// its trailing signature, returned separately since Dispute itself
// carries no Signature field (signatures are a wire/verification
// concern, not part of the durable dispute record).
type DecodedDispute struct {
	Dispute   *types.Dispute
	Signature []byte
}

// UnmarshalDispute decodes a Dispute previously produced by
// MarshalDispute.
func UnmarshalDispute(data []byte) (*DecodedDispute, error) {
	u := wrappers.NewUnpacker(data)
	if err := unpackHeader(u, KindDispute); err != nil {
		return nil, err
	}
	d := &types.Dispute{
		DisputeID:     idFromArray(unpackID(u)),
		Disputer:      idFromArray(unpackID(u)),
		DisputedRound: types.RoundID(u.UnpackLong()),
	}
	claimTag := u.UnpackByte()
	bodyLen := u.UnpackInt()
	body := u.UnpackBytes(int(bodyLen))
	if u.Err != nil {
		return nil, u.Err
	}
	claim, err := claimFromWire(claimTag, body)
	if err != nil {
		return nil, err
	}
	d.Claim = claim

	evCount := u.UnpackInt()
	d.Evidence = make([]types.Evidence, 0, evCount)
	for i := uint32(0); i < evCount; i++ {
		ev, err := unpackEvidence(u)
		if err != nil {
			return nil, err
		}
		d.Evidence = append(d.Evidence, ev)
	}
	sig := u.UnpackBytes(u.Remaining())
	if u.Err != nil {
		return nil, u.Err
	}
	return &DecodedDispute{Dispute: d, Signature: sig}, nil
}

// MarshalDisputeVote encodes a DisputeVote per the wire format.
func MarshalDisputeVote(v *types.DisputeVote) ([]byte, error) {
	if len(v.Reasoning) > types.MaxReasoningLength {
		return nil, ErrReasoningTooLong
	}
	pk := wrappers.NewPacker(128 + len(v.Reasoning))
	packHeader(pk, KindDisputeVote)
	packID(pk, v.DisputeID)
	packID(pk, v.Voter)
	pk.PackByte(byte(v.Choice))
	reasoning := []byte(v.Reasoning)
	pk.PackInt(uint32(len(reasoning)))
	pk.PackBytes(reasoning)
	pk.PackLong(v.Timestamp)
	pk.PackBytes(v.Signature)
	return pk.Bytes, nil
}

// SignedBytesDisputeVote returns the signed prefix of a DisputeVote's
// encoding.
func SignedBytesDisputeVote(v *types.DisputeVote) ([]byte, error) {
	full, err := MarshalDisputeVote(v)
	if err != nil {
		return nil, err
	}
	return full[:len(full)-len(v.Signature)], nil
}

// UnmarshalDisputeVote decodes a DisputeVote previously produced by
// MarshalDisputeVote.
func UnmarshalDisputeVote(data []byte) (*types.DisputeVote, error) {
	u := wrappers.NewUnpacker(data)
	if err := unpackHeader(u, KindDisputeVote); err != nil {
		return nil, err
	}
	v := &types.DisputeVote{
		DisputeID: idFromArray(unpackID(u)),
		Voter:     idFromArray(unpackID(u)),
		Choice:    types.DisputeChoice(u.UnpackByte()),
	}
	reasonLen := u.UnpackInt()
	v.Reasoning = string(u.UnpackBytes(int(reasonLen)))
	v.Timestamp = u.UnpackLong()
	v.Signature = u.UnpackBytes(u.Remaining())
	if u.Err != nil {
		return nil, u.Err
	}
	return v, nil
}
