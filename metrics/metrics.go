// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics declares the prometheus collectors the coordinator
// (C10) updates as rounds progress, per §6's Observability section.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/throneforge/bftconsensus/utils/metric"
)

// Metrics is the set of collectors the coordinator reports against.
type Metrics struct {
	RoundsStarted       metric.Counter
	RoundsFinalized     metric.Counter
	RoundsFailedTimeout metric.Counter
	RoundsFailedOther   metric.Counter
	RoundDuration       metric.Averager
	ByzantineDetected   metric.Counter
	QuorumSize          metric.Gauge
	ActiveParticipants  metric.Gauge
	PartitionRecovery   metric.Averager
}

// New registers the engine's collectors under the "consensus"
// namespace against reg. A nil reg is valid for tests.
func New(reg prometheus.Registerer) *Metrics {
	r := metric.NewRegistry("consensus", reg)
	return &Metrics{
		RoundsStarted:       r.NewCounter("rounds_started", "Rounds that entered Proposing"),
		RoundsFinalized:     r.NewCounter("rounds_finalized", "Rounds that reached Finalized"),
		RoundsFailedTimeout: r.NewCounter("rounds_failed_timed_out", "Rounds that failed with TimedOut"),
		RoundsFailedOther:   r.NewCounter("rounds_failed_other", "Rounds that failed with a non-timeout reason"),
		RoundDuration:       r.NewAverager("round_duration_seconds", "Wall-clock duration of finalized rounds"),
		ByzantineDetected:   r.NewCounter("byzantine_nodes_detected_total", "Participants slashed for misbehavior"),
		QuorumSize:          r.NewGauge("quorum_size", "Quorum threshold for the most recent round snapshot"),
		ActiveParticipants:  r.NewGauge("active_participants", "Active participants in the most recent round snapshot"),
		PartitionRecovery:   r.NewAverager("partition_recovery_duration_seconds", "Time from partition confirmation to merge reconciliation"),
	}
}
