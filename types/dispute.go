// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "fmt"

// ClaimKind tags the concrete type of a Claim for wire encoding and
// exhaustive switches on the receiving side (§9 Dispute claim
// polymorphism: persist the tag as a single byte for forward
// compatibility).
type ClaimKind uint8

const (
	ClaimInvalidBet ClaimKind = iota
	ClaimInvalidRoll
	ClaimInvalidPayout
	ClaimDoubleSpending
	ClaimConsensusViolation
)

func (k ClaimKind) String() string {
	switch k {
	case ClaimInvalidBet:
		return "invalid_bet"
	case ClaimInvalidRoll:
		return "invalid_roll"
	case ClaimInvalidPayout:
		return "invalid_payout"
	case ClaimDoubleSpending:
		return "double_spending"
	case ClaimConsensusViolation:
		return "consensus_violation"
	default:
		return fmt.Sprintf("claim_kind(%d)", uint8(k))
	}
}

// Claim is a tagged variant describing what a Dispute alleges. Concrete
// claim types implement Claim and are dispatched on Kind() by receivers.
type Claim interface {
	Kind() ClaimKind
	// Canonical returns the deterministic byte encoding used to derive a
	// dispute's content-addressed id (I6) and to sign/verify the Dispute.
	Canonical() []byte
}

// InvalidBetClaim alleges a player's bet was processed incorrectly.
type InvalidBetClaim struct {
	Player ParticipantID
	Bet    []byte
	Reason string
}

func (InvalidBetClaim) Kind() ClaimKind { return ClaimInvalidBet }
func (c InvalidBetClaim) Canonical() []byte {
	return canonicalConcat(c.Player[:], c.Bet, []byte(c.Reason))
}

// InvalidRollClaim alleges a finalized round's decided roll was invalid.
type InvalidRollClaim struct {
	RoundID     RoundID
	ClaimedRoll []byte
	Reason      string
}

func (InvalidRollClaim) Kind() ClaimKind { return ClaimInvalidRoll }
func (c InvalidRollClaim) Canonical() []byte {
	return canonicalConcat(encodeU64(uint64(c.RoundID)), c.ClaimedRoll, []byte(c.Reason))
}

// InvalidPayoutClaim alleges a player received the wrong payout.
type InvalidPayoutClaim struct {
	Player   ParticipantID
	Expected uint64
	Actual   uint64
}

func (InvalidPayoutClaim) Kind() ClaimKind { return ClaimInvalidPayout }
func (c InvalidPayoutClaim) Canonical() []byte {
	return canonicalConcat(c.Player[:], encodeU64(c.Expected), encodeU64(c.Actual))
}

// DoubleSpendingClaim alleges a player had conflicting bets honored.
type DoubleSpendingClaim struct {
	Player          ParticipantID
	ConflictingBets [][]byte
}

func (DoubleSpendingClaim) Kind() ClaimKind { return ClaimDoubleSpending }
func (c DoubleSpendingClaim) Canonical() []byte {
	parts := make([][]byte, 0, 1+len(c.ConflictingBets))
	parts = append(parts, c.Player[:])
	parts = append(parts, c.ConflictingBets...)
	return canonicalConcat(parts...)
}

// ConsensusViolationClaim alleges the engine itself broke an invariant,
// e.g. two CommitCertificates for the same round.
type ConsensusViolationClaim struct {
	RuleName string
	Details  []byte
}

func (ConsensusViolationClaim) Kind() ClaimKind { return ClaimConsensusViolation }
func (c ConsensusViolationClaim) Canonical() []byte {
	return canonicalConcat([]byte(c.RuleName), c.Details)
}

func canonicalConcat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		var lenBuf [4]byte
		l := uint32(len(p))
		lenBuf[0], lenBuf[1], lenBuf[2], lenBuf[3] = byte(l>>24), byte(l>>16), byte(l>>8), byte(l)
		out = append(out, lenBuf[:]...)
		out = append(out, p...)
	}
	return out
}

func encodeU64(v uint64) []byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (56 - 8*i))
	}
	return b[:]
}

func decodeU64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("canonical field: want 8 bytes, got %d", len(b))
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

func decodeParticipantID(b []byte) (ParticipantID, error) {
	var id ParticipantID
	if len(b) != len(id) {
		return id, fmt.Errorf("canonical field: want %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// splitCanonicalFields parses the length-prefixed fields canonicalConcat
// produced, reading until body is exhausted. Inverts canonicalConcat for
// any number of parts since each field carries its own 4-byte length.
func splitCanonicalFields(body []byte) ([][]byte, error) {
	var fields [][]byte
	for len(body) > 0 {
		if len(body) < 4 {
			return nil, fmt.Errorf("canonical field: truncated length prefix")
		}
		l := uint32(body[0])<<24 | uint32(body[1])<<16 | uint32(body[2])<<8 | uint32(body[3])
		body = body[4:]
		if uint64(len(body)) < uint64(l) {
			return nil, fmt.Errorf("canonical field: truncated field body")
		}
		fields = append(fields, body[:l])
		body = body[l:]
	}
	return fields, nil
}

// splitCanonicalN is splitCanonicalFields with an arity check, for the
// claim variants whose Canonical() encoding has a fixed field count.
func splitCanonicalN(body []byte, n int) ([][]byte, error) {
	fields, err := splitCanonicalFields(body)
	if err != nil {
		return nil, err
	}
	if len(fields) != n {
		return nil, fmt.Errorf("canonical field: want %d fields, got %d", n, len(fields))
	}
	return fields, nil
}

// DecodeClaim reconstructs the typed Claim a ClaimKind's Canonical()
// encoding came from. It is the inverse of each variant's Canonical()
// above, so a Claim received over the wire (see codec.claimFromWire)
// round-trips into the same concrete struct a locally filed Dispute
// carries, letting SlashTarget's type switch match it.
func DecodeClaim(kind ClaimKind, body []byte) (Claim, error) {
	switch kind {
	case ClaimInvalidBet:
		fields, err := splitCanonicalN(body, 3)
		if err != nil {
			return nil, err
		}
		player, err := decodeParticipantID(fields[0])
		if err != nil {
			return nil, err
		}
		return InvalidBetClaim{Player: player, Bet: fields[1], Reason: string(fields[2])}, nil

	case ClaimInvalidRoll:
		fields, err := splitCanonicalN(body, 3)
		if err != nil {
			return nil, err
		}
		roundID, err := decodeU64(fields[0])
		if err != nil {
			return nil, err
		}
		return InvalidRollClaim{RoundID: RoundID(roundID), ClaimedRoll: fields[1], Reason: string(fields[2])}, nil

	case ClaimInvalidPayout:
		fields, err := splitCanonicalN(body, 3)
		if err != nil {
			return nil, err
		}
		player, err := decodeParticipantID(fields[0])
		if err != nil {
			return nil, err
		}
		expected, err := decodeU64(fields[1])
		if err != nil {
			return nil, err
		}
		actual, err := decodeU64(fields[2])
		if err != nil {
			return nil, err
		}
		return InvalidPayoutClaim{Player: player, Expected: expected, Actual: actual}, nil

	case ClaimDoubleSpending:
		fields, err := splitCanonicalFields(body)
		if err != nil {
			return nil, err
		}
		if len(fields) < 1 {
			return nil, fmt.Errorf("canonical field: double_spending claim missing player")
		}
		player, err := decodeParticipantID(fields[0])
		if err != nil {
			return nil, err
		}
		bets := make([][]byte, len(fields)-1)
		copy(bets, fields[1:])
		return DoubleSpendingClaim{Player: player, ConflictingBets: bets}, nil

	case ClaimConsensusViolation:
		fields, err := splitCanonicalN(body, 2)
		if err != nil {
			return nil, err
		}
		return ConsensusViolationClaim{RuleName: string(fields[0]), Details: fields[1]}, nil

	default:
		return nil, fmt.Errorf("types: unknown claim kind %d", uint8(kind))
	}
}

// EvidenceKind tags the concrete type of Evidence.
type EvidenceKind uint8

const (
	EvidenceSignedTransaction EvidenceKind = iota
	EvidenceStateProof
	EvidenceTimestampProof
	EvidenceWitnessTestimony
)

// Evidence is a tagged variant of proof supporting a Dispute's Claim.
type Evidence interface {
	Kind() EvidenceKind
}

// SignedTransactionEvidence carries a raw transaction and its signature,
// verified by the identity verifier (C1).
type SignedTransactionEvidence struct {
	Raw       []byte
	Signer    ParticipantID
	Signature []byte
}

func (SignedTransactionEvidence) Kind() EvidenceKind { return EvidenceSignedTransaction }

// StateProofEvidence carries a state hash and an inclusion proof verified
// against a Merkle root by the external Merkle verifier.
type StateProofEvidence struct {
	StateHash ProofStateHash
	Proof     []byte
}

// ProofStateHash is the state hash whose inclusion under a Merkle root
// a StateProofEvidence proves.
type ProofStateHash = Hash

func (StateProofEvidence) Kind() EvidenceKind { return EvidenceStateProof }

// TimestampProofEvidence carries a timestamp and a signed attestation of it.
type TimestampProofEvidence struct {
	Timestamp uint64
	Attester  ParticipantID
	Signature []byte
}

func (TimestampProofEvidence) Kind() EvidenceKind { return EvidenceTimestampProof }

// WitnessTestimonyEvidence carries a bounded statement from a peer.
type WitnessTestimonyEvidence struct {
	Witness   ParticipantID
	Statement string
	Signature []byte
}

func (WitnessTestimonyEvidence) Kind() EvidenceKind { return EvidenceWitnessTestimony }

// DisputeStatus is the lifecycle state of a Dispute.
type DisputeStatus uint8

const (
	DisputeOpen DisputeStatus = iota
	DisputeResolved
	DisputeExpired
)

func (s DisputeStatus) String() string {
	switch s {
	case DisputeOpen:
		return "open"
	case DisputeResolved:
		return "resolved"
	case DisputeExpired:
		return "expired"
	default:
		return fmt.Sprintf("dispute_status(%d)", uint8(s))
	}
}

// DisputeChoice is a participant's vote on a Dispute's outcome.
type DisputeChoice uint8

const (
	Uphold DisputeChoice = iota
	Reject
	Abstain
	NeedMoreEvidence
)

func (c DisputeChoice) String() string {
	switch c {
	case Uphold:
		return "uphold"
	case Reject:
		return "reject"
	case Abstain:
		return "abstain"
	case NeedMoreEvidence:
		return "need_more_evidence"
	default:
		return fmt.Sprintf("dispute_choice(%d)", uint8(c))
	}
}

// Dispute is a challenge filed against a proposal, vote, or finalized
// round, resolved by a separate vote over typed evidence.
type Dispute struct {
	DisputeID          Hash
	Disputer           ParticipantID
	DisputedRound      RoundID
	Claim              Claim
	Evidence           []Evidence
	CreatedAt          uint64
	ResolutionDeadline uint64
	Status             DisputeStatus
	Outcome            DisputeChoice
}

// DisputeVote is a signed ballot on a Dispute's outcome.
type DisputeVote struct {
	DisputeID Hash
	Voter     ParticipantID
	Choice    DisputeChoice
	Reasoning string
	Timestamp uint64
	Signature []byte
}

// MaxReasoningLength bounds DisputeVote.Reasoning per the wire format's
// length-prefixed encoding.
const MaxReasoningLength = 4096
