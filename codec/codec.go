// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package codec implements the canonical binary wire encoding for
// consensus messages: a 3-byte header (protocol_tag ∥ message_kind)
// followed by length-prefixed, big-endian fields. The encoding is
// deterministic so it doubles as the byte string signed by Ed25519 and
// hashed for content-addressed ids.
package codec

import (
	"errors"
	"fmt"

	"github.com/throneforge/bftconsensus/types"
	"github.com/throneforge/bftconsensus/utils/wrappers"
)

// ProtocolTag identifies the wire protocol version. Messages encoded
// under a different tag are rejected without attempting to parse the
// remainder of the frame.
type ProtocolTag uint16

// CurrentProtocolTag is the protocol version this package encodes and
// expects to decode.
const CurrentProtocolTag ProtocolTag = 1

// MessageKind tags the payload that follows the 3-byte header.
type MessageKind byte

const (
	KindProposal MessageKind = iota
	KindVote
	KindCommitCertificate
	KindSlashingAnnouncement
	KindDispute
	KindDisputeVote
)

// HeaderSize is the fixed size of the protocol_tag ∥ message_kind prefix.
const HeaderSize = 3

var (
	// ErrBadProtocolTag is returned when a frame's protocol_tag does not
	// match CurrentProtocolTag.
	ErrBadProtocolTag = errors.New("codec: unrecognized protocol tag")
	// ErrBadMessageKind is returned when a frame's message_kind does not
	// match the decoder being invoked.
	ErrBadMessageKind = errors.New("codec: unexpected message kind")
	// ErrTrailingBytes is returned when a decode leaves unconsumed bytes,
	// which would silently drop data on a re-encode/verify round trip.
	ErrTrailingBytes = errors.New("codec: trailing bytes after message")
	// ErrUnknownClaimTag is returned when a Dispute's claim_tag does not
	// match any known ClaimKind.
	ErrUnknownClaimTag = errors.New("codec: unknown claim tag")
	// ErrUnknownEvidenceTag is returned when an evidence item's tag does
	// not match any known EvidenceKind.
	ErrUnknownEvidenceTag = errors.New("codec: unknown evidence tag")
	// ErrReasoningTooLong is returned when a DisputeVote's Reasoning
	// exceeds types.MaxReasoningLength.
	ErrReasoningTooLong = errors.New("codec: reasoning exceeds maximum length")
)

func packHeader(p *wrappers.Packer, kind MessageKind) {
	tag := uint16(CurrentProtocolTag)
	p.PackByte(byte(tag >> 8))
	p.PackByte(byte(tag))
	p.PackByte(byte(kind))
}

func unpackHeader(u *wrappers.Unpacker, want MessageKind) error {
	hi := u.UnpackByte()
	lo := u.UnpackByte()
	if u.Err != nil {
		return u.Err
	}
	tag := ProtocolTag(uint16(hi)<<8 | uint16(lo))
	if tag != CurrentProtocolTag {
		return fmt.Errorf("%w: %d", ErrBadProtocolTag, tag)
	}
	kind := MessageKind(u.UnpackByte())
	if u.Err != nil {
		return u.Err
	}
	if kind != want {
		return fmt.Errorf("%w: got %d, want %d", ErrBadMessageKind, kind, want)
	}
	return nil
}

// PeekKind checks a frame's protocol tag and reads its message_kind
// byte without consuming the frame or validating anything past the
// header, so a dispatcher can route to the right Unmarshal* function
// before committing to one.
func PeekKind(data []byte) (MessageKind, error) {
	if len(data) < HeaderSize {
		return 0, fmt.Errorf("%w: frame shorter than header", wrappers.ErrUnpackOverflow)
	}
	tag := ProtocolTag(uint16(data[0])<<8 | uint16(data[1]))
	if tag != CurrentProtocolTag {
		return 0, fmt.Errorf("%w: %d", ErrBadProtocolTag, tag)
	}
	return MessageKind(data[2]), nil
}

func packID(p *wrappers.Packer, id [32]byte) {
	p.PackBytes(id[:])
}

func unpackID(u *wrappers.Unpacker) [32]byte {
	var id [32]byte
	copy(id[:], u.UnpackBytes(32))
	return id
}

func idFromArray(a [32]byte) types.Hash {
	var id types.Hash
	copy(id[:], a[:])
	return id
}

// MarshalProposal encodes a Proposal per the wire format. The returned
// bytes, minus the trailing signature, are exactly what SignedBytes
// produces and are what Ed25519 signs and verifies.
func MarshalProposal(p *types.Proposal) []byte {
	pk := wrappers.NewPacker(64 + len(p.Payload) + 64)
	packHeader(pk, KindProposal)
	pk.PackLong(uint64(p.RoundID))
	packID(pk, p.Proposer)
	packID(pk, p.PayloadHash)
	pk.PackLong(p.Timestamp)
	pk.PackInt(uint32(len(p.Payload)))
	pk.PackBytes(p.Payload)
	pk.PackBytes(p.Signature)
	return pk.Bytes
}

// SignedBytesProposal returns the prefix of a Proposal's encoding that
// is covered by Signature: everything up to but excluding the signature
// field itself.
func SignedBytesProposal(p *types.Proposal) []byte {
	full := MarshalProposal(p)
	return full[:len(full)-len(p.Signature)]
}

// UnmarshalProposal decodes a Proposal previously produced by
// MarshalProposal.
func UnmarshalProposal(data []byte) (*types.Proposal, error) {
	u := wrappers.NewUnpacker(data)
	if err := unpackHeader(u, KindProposal); err != nil {
		return nil, err
	}
	p := &types.Proposal{
		RoundID:     types.RoundID(u.UnpackLong()),
		Proposer:    idFromArray(unpackID(u)),
		PayloadHash: idFromArray(unpackID(u)),
		Timestamp:   u.UnpackLong(),
	}
	payloadLen := u.UnpackInt()
	p.Payload = u.UnpackBytes(int(payloadLen))
	p.Signature = u.UnpackBytes(u.Remaining())
	if u.Err != nil {
		return nil, u.Err
	}
	return p, nil
}

// MarshalVote encodes a Vote per the wire format.
func MarshalVote(v *types.Vote) []byte {
	pk := wrappers.NewPacker(128)
	packHeader(pk, KindVote)
	pk.PackLong(uint64(v.RoundID))
	packID(pk, v.Voter)
	packID(pk, v.VoteTarget)
	pk.PackLong(v.Timestamp)
	pk.PackBytes(v.Signature)
	return pk.Bytes
}

// SignedBytesVote returns the signed prefix of a Vote's encoding.
func SignedBytesVote(v *types.Vote) []byte {
	full := MarshalVote(v)
	return full[:len(full)-len(v.Signature)]
}

// UnmarshalVote decodes a Vote previously produced by MarshalVote.
func UnmarshalVote(data []byte) (*types.Vote, error) {
	u := wrappers.NewUnpacker(data)
	if err := unpackHeader(u, KindVote); err != nil {
		return nil, err
	}
	v := &types.Vote{
		RoundID:    types.RoundID(u.UnpackLong()),
		Voter:      idFromArray(unpackID(u)),
		VoteTarget: idFromArray(unpackID(u)),
		Timestamp:  u.UnpackLong(),
	}
	v.Signature = u.UnpackBytes(u.Remaining())
	if u.Err != nil {
		return nil, u.Err
	}
	return v, nil
}

// MarshalCommitCertificate encodes a CommitCertificate per the wire
// format.
func MarshalCommitCertificate(c *types.CommitCertificate) []byte {
	pk := wrappers.NewPacker(64 + 96*len(c.Signatures))
	packHeader(pk, KindCommitCertificate)
	pk.PackLong(uint64(c.RoundID))
	packID(pk, c.DecidedHash)
	pk.PackInt(uint32(len(c.Signatures)))
	for _, sig := range c.Signatures {
		packID(pk, sig.Voter)
		pk.PackBytes(sig.Signature)
	}
	return pk.Bytes
}

// UnmarshalCommitCertificate decodes a CommitCertificate previously
// produced by MarshalCommitCertificate.
func UnmarshalCommitCertificate(data []byte) (*types.CommitCertificate, error) {
	u := wrappers.NewUnpacker(data)
	if err := unpackHeader(u, KindCommitCertificate); err != nil {
		return nil, err
	}
	c := &types.CommitCertificate{
		RoundID:     types.RoundID(u.UnpackLong()),
		DecidedHash: idFromArray(unpackID(u)),
	}
	count := u.UnpackInt()
	c.Signatures = make([]types.VoterSignature, 0, count)
	for i := uint32(0); i < count; i++ {
		voter := idFromArray(unpackID(u))
		sig := u.UnpackBytes(64)
		if u.Err != nil {
			return nil, u.Err
		}
		c.Signatures = append(c.Signatures, types.VoterSignature{Voter: voter, Signature: sig})
	}
	if u.Remaining() != 0 {
		return nil, ErrTrailingBytes
	}
	if u.Err != nil {
		return nil, u.Err
	}
	return c, nil
}

// MarshalSlashingAnnouncement encodes a SlashingEvent per the wire
// format.
func MarshalSlashingAnnouncement(s *types.SlashingEvent) []byte {
	pk := wrappers.NewPacker(64 + len(s.Evidence))
	packHeader(pk, KindSlashingAnnouncement)
	packID(pk, s.Offender)
	pk.PackByte(byte(s.Reason))
	pk.PackInt(uint32(len(s.Evidence)))
	pk.PackBytes(s.Evidence)
	pk.PackLong(s.Penalty)
	return pk.Bytes
}

// UnmarshalSlashingAnnouncement decodes a SlashingEvent previously
// produced by MarshalSlashingAnnouncement. Round is not carried on the
// wire (it is implied by the channel the announcement was delivered
// on) and is left zero; callers that need it should set it from
// context after decoding.
func UnmarshalSlashingAnnouncement(data []byte) (*types.SlashingEvent, error) {
	u := wrappers.NewUnpacker(data)
	if err := unpackHeader(u, KindSlashingAnnouncement); err != nil {
		return nil, err
	}
	s := &types.SlashingEvent{
		Offender: idFromArray(unpackID(u)),
		Reason:   types.SlashingReason(u.UnpackByte()),
	}
	evLen := u.UnpackInt()
	s.Evidence = u.UnpackBytes(int(evLen))
	s.Penalty = u.UnpackLong()
	if u.Remaining() != 0 {
		return nil, ErrTrailingBytes
	}
	if u.Err != nil {
		return nil, u.Err
	}
	return s, nil
}
