// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package external collects the §6 collaborator interfaces the engine
// depends on but does not implement: the network transport and key
// custody live outside this module entirely, while the game-rule
// validator, persistence, and Merkle verifier interfaces are declared
// narrowly next to their sole consumer (proposal, commit, dispute) and
// are re-exported here by type alias so every §6 collaborator has one
// documented home, the way the teacher's validators package is the
// single reference point for ValidatorState even though individual
// engines narrow it locally.
package external

import (
	"context"

	"github.com/throneforge/bftconsensus/commit"
	"github.com/throneforge/bftconsensus/dispute"
	"github.com/throneforge/bftconsensus/proposal"
	"github.com/throneforge/bftconsensus/types"
)

// Transport is the unreliable, unordered peer-to-peer delivery
// collaborator. The engine tolerates duplicate and reordered
// deliveries; Transport implementations are not expected to provide
// exactly-once or in-order semantics.
type Transport interface {
	// Broadcast sends msg to every known peer.
	Broadcast(ctx context.Context, msg []byte) error
	// SendTo sends msg to a single peer.
	SendTo(ctx context.Context, peer types.ParticipantID, msg []byte) error
	// SubscribeInbound returns a channel of inbound messages, paired
	// with the sender's ParticipantID. Closed when ctx is done.
	SubscribeInbound(ctx context.Context) (<-chan InboundMessage, error)
}

// InboundMessage pairs a received wire message with its sender.
type InboundMessage struct {
	From    types.ParticipantID
	Payload []byte
}

// Keystore signs bytes on behalf of a local key handle without ever
// exposing the underlying secret key to the caller.
type Keystore interface {
	Sign(ctx context.Context, keyHandle string, message []byte) ([]byte, error)
}

// GameRuleValidator is re-exported from proposal, the sole consumer
// that defines it, so it appears in this package's collaborator
// listing.
type GameRuleValidator = proposal.GameRuleValidator

// Persistence is re-exported from commit, the sole consumer that
// defines it.
type Persistence = commit.Persistence

// MerkleVerifier is re-exported from dispute, the sole consumer that
// defines it.
type MerkleVerifier = dispute.MerkleVerifier

// PublicKeyLookup is re-exported from commit; dispute declares a
// structurally identical type for the same role.
type PublicKeyLookup = commit.PublicKeyLookup
