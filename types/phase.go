// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "fmt"

// Phase is the ordered state of a single round's voting state machine.
type Phase uint8

const (
	// Idle is the phase before a round has been started.
	Idle Phase = iota
	// Proposing is collecting proposals.
	Proposing
	// Voting is collecting votes over known proposals.
	Voting
	// Committing is aggregating signatures for a decided payload hash.
	Committing
	// Finalized means a CommitCertificate exists for this round.
	Finalized
	// Failed means the round ended without a commit; see FailReason.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Proposing:
		return "proposing"
	case Voting:
		return "voting"
	case Committing:
		return "committing"
	case Finalized:
		return "finalized"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// FailReason explains why a round reached the Failed phase.
type FailReason uint8

const (
	// NotFailed is the zero value for rounds that have not failed.
	NotFailed FailReason = iota
	// TimedOut means a phase deadline elapsed without reaching the
	// condition required to advance.
	TimedOut
	// InsufficientParticipation means a phase deadline elapsed with some
	// messages received, but not enough to reach quorum.
	InsufficientParticipation
	// ExternalAbort means the coordinator or an operator aborted the round.
	ExternalAbort
)

func (r FailReason) String() string {
	switch r {
	case NotFailed:
		return "not_failed"
	case TimedOut:
		return "timed_out"
	case InsufficientParticipation:
		return "insufficient_participation"
	case ExternalAbort:
		return "external_abort"
	default:
		return fmt.Sprintf("fail_reason(%d)", uint8(r))
	}
}
