// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package partition implements C9, Partition & Recovery: heartbeat-based
// partition detection, and post-merge reconciliation of the commit log
// against a majority partition's authoritative CommitCertificates.
package partition

import (
	"time"

	"github.com/throneforge/bftconsensus/commit"
	"github.com/throneforge/bftconsensus/participant"
	"github.com/throneforge/bftconsensus/types"
	"github.com/throneforge/bftconsensus/utils/set"
	"github.com/throneforge/bftconsensus/utils/timer/mockable"
)

// DefaultDetectionWindow matches the spec's default (§4.9: "longer
// than partition_detection_window (default 30s)").
const DefaultDetectionWindow = 30 * time.Second

// Detector tracks per-participant heartbeat liveness and reports
// suspected partitions.
type Detector struct {
	clock          *mockable.Clock
	window         time.Duration
	lastSeen       map[types.ParticipantID]time.Time
	suspectedSince time.Time
	inPartition    bool
}

// NewDetector returns a Detector using clock for liveness timestamps
// and window as the detection threshold.
func NewDetector(clock *mockable.Clock, window time.Duration) *Detector {
	return &Detector{
		clock:    clock,
		window:   window,
		lastSeen: make(map[types.ParticipantID]time.Time),
	}
}

// Heartbeat records that id was reachable at the current clock time,
// fed by the transport collaborator's liveness signal.
func (d *Detector) Heartbeat(id types.ParticipantID) {
	d.lastSeen[id] = d.clock.Now()
}

// Unreachable reports the participants in snap not heard from within
// the detection window.
func (d *Detector) Unreachable(snap *participant.Snapshot) []types.ParticipantID {
	now := d.clock.Now()
	var unreachable set.Set[types.ParticipantID]
	for _, p := range snap.Active {
		last, ok := d.lastSeen[p.ID]
		if !ok || now.Sub(last) > d.window {
			unreachable.Add(p.ID)
		}
	}
	return unreachable.List()
}

// CheckPartition evaluates whether more than ⌊n/3⌋ participants in snap
// are currently unreachable, and if so, whether that condition has now
// persisted for at least the detection window. It returns true once a
// partition is confirmed; false otherwise (including while merely
// suspected but not yet past the window).
func (d *Detector) CheckPartition(snap *participant.Snapshot) bool {
	threshold := snap.Len() / 3
	unreachable := len(d.Unreachable(snap))

	if unreachable <= threshold {
		d.inPartition = false
		d.suspectedSince = time.Time{}
		return false
	}

	now := d.clock.Now()
	if d.suspectedSince.IsZero() {
		d.suspectedSince = now
	}
	if now.Sub(d.suspectedSince) < d.window {
		return false
	}
	d.inPartition = true
	return true
}

// InPartition reports whether the last CheckPartition call confirmed a
// partition. Callers use this to suppress inactivity accounting (§4.9:
// "Inactivity counters are not incremented for the duration of the
// confirmed partition").
func (d *Detector) InPartition() bool {
	return d.inPartition
}

// ConflictingCertificates is returned by Reconcile when two different
// CommitCertificates are found for the same round_id — only possible,
// per §4.9, if more than ⌊n/3⌋ participants equivocated. Both are
// retained as evidence for a ConsensusViolation dispute rather than
// silently picking one.
type ConflictingCertificates struct {
	RoundID types.RoundID
	Local   *types.CommitCertificate
	Remote  *types.CommitCertificate
}

// Reconcile replays CommitCertificates the local node is missing, up
// to remoteHighest, from a peer's persistence view. It returns any
// rounds where the local and remote certificates disagree, which the
// caller should surface as ConsensusViolation disputes (§4.9 step 3).
func Reconcile(local commit.Persistence, localHighest, remoteHighest types.RoundID, remote []*types.CommitCertificate) ([]ConflictingCertificates, error) {
	var conflicts []ConflictingCertificates
	for _, cert := range remote {
		if cert.RoundID > remoteHighest {
			continue
		}
		existing, ok, err := local.ReadCommit(cert.RoundID)
		if err != nil {
			return nil, err
		}
		if !ok {
			if cert.RoundID > localHighest {
				if err := local.AppendCommit(cert); err != nil {
					return nil, err
				}
			}
			continue
		}
		if existing.DecidedHash != cert.DecidedHash {
			conflicts = append(conflicts, ConflictingCertificates{
				RoundID: cert.RoundID,
				Local:   existing,
				Remote:  cert,
			})
		}
	}
	return conflicts, nil
}
