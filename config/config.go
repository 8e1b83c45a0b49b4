// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config declares the engine's tunable parameters (§6
// Configuration) and their validation, following the teacher's
// parameters.go pattern: a plain struct, a Default constructor, and a
// Valid method returning one sentinel error per violated constraint.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/throneforge/bftconsensus/types"
)

var (
	// ErrInvalidWindow is returned when a required duration is not
	// strictly positive.
	ErrInvalidWindow = errors.New("config: window durations must be positive")
	// ErrInvalidMinDisputeVotes is returned when MinDisputeVotes is not
	// strictly positive.
	ErrInvalidMinDisputeVotes = errors.New("config: min dispute votes must be positive")
	// ErrInvalidPenalty is returned when a slash penalty is outside
	// [0, 10000] basis points.
	ErrInvalidPenalty = errors.New("config: slash penalties must be in [0, 10000] basis points")
	// ErrInvalidInactivityThreshold is returned when InactivityThreshold
	// is not strictly positive.
	ErrInvalidInactivityThreshold = errors.New("config: inactivity threshold must be positive")
	// ErrInvalidRetention is returned when FinalizedRoundRetention is
	// not strictly positive.
	ErrInvalidRetention = errors.New("config: finalized round retention must be positive")
)

// Config holds every tunable named in §6.
type Config struct {
	ProposalWindow            time.Duration
	VotingWindow              time.Duration
	RoundTimeout              time.Duration
	PartitionDetectionWindow  time.Duration
	MinDisputeVotes           int
	ResolutionDeadline        time.Duration
	SlashPenaltyEquivocation  uint64 // basis points out of 10000
	SlashPenaltyInvalidPropos uint64
	SlashPenaltyInvalidVote   uint64
	SlashPenaltyInactivity    uint64
	SlashPenaltyFalseDispute  uint64
	InactivityThreshold       int
	FinalizedRoundRetention   int
}

// Default returns the configuration with every default named in §6.
// MinDisputeVotes defaults to ⌈n/2⌉ and must be supplied by the caller
// once the participant count is known; Default leaves it at 1 as a
// floor for single-participant test deployments.
func Default() Config {
	return Config{
		ProposalWindow:            2 * time.Second,
		VotingWindow:              5 * time.Second,
		RoundTimeout:              30 * time.Second,
		PartitionDetectionWindow:  30 * time.Second,
		MinDisputeVotes:           1,
		ResolutionDeadline:        time.Hour,
		SlashPenaltyEquivocation:  10000,
		SlashPenaltyInvalidPropos: 2000,
		SlashPenaltyInvalidVote:   500,
		SlashPenaltyInactivity:    100,
		SlashPenaltyFalseDispute:  500,
		InactivityThreshold:       3,
		FinalizedRoundRetention:   1000,
	}
}

// MinDisputeVotesFor computes the §6 default ⌈n/2⌉ for an active
// participant count n.
func MinDisputeVotesFor(n int) int {
	return (n + 1) / 2
}

// SlashRates maps this configuration's per-reason penalties into the
// form the slashing package applies them in.
func (c Config) SlashRates() map[types.SlashingReason]uint64 {
	return map[types.SlashingReason]uint64{
		types.Equivocation:    c.SlashPenaltyEquivocation,
		types.InvalidProposal: c.SlashPenaltyInvalidPropos,
		types.InvalidVote:     c.SlashPenaltyInvalidVote,
		types.Inactivity:      c.SlashPenaltyInactivity,
		types.Collusion:       c.SlashPenaltyEquivocation,
		types.FalseDispute:    c.SlashPenaltyFalseDispute,
	}
}

// Valid returns an error if any field violates its documented
// constraint.
func (c Config) Valid() error {
	switch {
	case c.ProposalWindow <= 0 || c.VotingWindow <= 0 || c.RoundTimeout <= 0 || c.PartitionDetectionWindow <= 0 || c.ResolutionDeadline <= 0:
		return ErrInvalidWindow
	case c.MinDisputeVotes <= 0:
		return ErrInvalidMinDisputeVotes
	case c.InactivityThreshold <= 0:
		return ErrInvalidInactivityThreshold
	case c.FinalizedRoundRetention <= 0:
		return ErrInvalidRetention
	case anyOutOfRange(
		c.SlashPenaltyEquivocation,
		c.SlashPenaltyInvalidPropos,
		c.SlashPenaltyInvalidVote,
		c.SlashPenaltyInactivity,
		c.SlashPenaltyFalseDispute,
	):
		return ErrInvalidPenalty
	default:
		return nil
	}
}

func anyOutOfRange(bps ...uint64) bool {
	for _, b := range bps {
		if b > 10000 {
			return true
		}
	}
	return false
}

// String returns a compact summary, in the teacher's Parameters.String
// style.
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{ProposalWindow=%s, VotingWindow=%s, RoundTimeout=%s, MinDisputeVotes=%d}",
		c.ProposalWindow, c.VotingWindow, c.RoundTimeout, c.MinDisputeVotes,
	)
}
