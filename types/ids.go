// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package types defines the data model of the Byzantine fault-tolerant
// game consensus engine: participants, proposals, votes, commit
// certificates, slashing events and disputes.
package types

import (
	"github.com/luxfi/ids"
)

// ParticipantID is a 32-byte opaque identifier derived as a stable hash
// of a participant's public key.
type ParticipantID = ids.ID

// RoundID is a monotonically increasing round number.
type RoundID uint64

// Hash is a 32-byte content hash (e.g. a proposal's payload hash, or a
// dispute's content-addressed id).
type Hash = ids.ID

// GenesisRound is the first round id a coordinator starts from.
const GenesisRound RoundID = 0
