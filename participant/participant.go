// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package participant implements C2, the Participant Set: the
// authoritative membership roster, stake bookkeeping and the
// per-round quorum snapshot that every other component reads instead
// of touching live membership state mid-round.
package participant

import (
	"sync"

	"github.com/throneforge/bftconsensus/types"
)

// DefaultRetentionWindow is the number of finalized rounds' snapshots
// kept for dispute resolution (I91: "default: 1000 finalized rounds").
const DefaultRetentionWindow = 1000

// Quorum computes ⌈2n/3⌉ via the integer formula (2n+2)/3 (I1). The
// "+1" variant occasionally quoted elsewhere is not used; this is the
// only formula this package implements.
func Quorum(n int) int {
	if n <= 0 {
		return 0
	}
	return (2*n + 2) / 3
}

// Snapshot is the immutable view of the active participant set used
// for the entire lifetime of one round (§4.2: "cached to avoid
// mid-round races").
type Snapshot struct {
	RoundID    types.RoundID
	Active     []types.Participant
	byID       map[types.ParticipantID]types.Participant
	TotalStake uint64
	Quorum     int
}

// Has reports whether id was an active participant in this snapshot.
func (s *Snapshot) Has(id types.ParticipantID) bool {
	_, ok := s.byID[id]
	return ok
}

// Get returns the participant record captured in this snapshot, if any.
func (s *Snapshot) Get(id types.ParticipantID) (types.Participant, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Len returns the number of active participants in this snapshot.
func (s *Snapshot) Len() int {
	return len(s.Active)
}

// Set is the live, mutable participant roster. Reads that must be
// stable for a round's duration go through Snapshot, not Set, so that
// membership changes never race an in-flight round.
type Set struct {
	mu         sync.RWMutex
	members    map[types.ParticipantID]*types.Participant
	snapshots  map[types.RoundID]*Snapshot
	snapOrder  []types.RoundID
	retention  int
	listeners  []Listener
	inactivity map[types.ParticipantID]int
}

// Listener observes membership changes, mirroring the teacher's
// validator SetCallbackListener pattern.
type Listener interface {
	OnParticipantAdded(types.Participant)
	OnParticipantRemoved(id types.ParticipantID, reason types.Status)
}

// NewSet returns an empty Set retaining the default number of
// finalized-round snapshots.
func NewSet() *Set {
	return NewSetWithRetention(DefaultRetentionWindow)
}

// NewSetWithRetention returns an empty Set retaining at most
// `retention` finalized-round snapshots before evicting the oldest.
func NewSetWithRetention(retention int) *Set {
	return &Set{
		members:    make(map[types.ParticipantID]*types.Participant),
		snapshots:  make(map[types.RoundID]*Snapshot),
		retention:  retention,
		inactivity: make(map[types.ParticipantID]int),
	}
}

// AddListener registers l to be notified of future membership changes.
func (s *Set) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Add admits a new participant. It fails ErrDuplicateID if the id is
// already present, active or not — a departed or slashed id is never
// reused (§3: "never re-activated under the same id").
func (s *Set) Add(p types.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[p.ID]; ok {
		return types.ErrDuplicateID
	}
	p.Status = types.Active
	cp := p
	s.members[p.ID] = &cp

	for _, l := range s.listeners {
		l.OnParticipantAdded(cp)
	}
	return nil
}

// Remove marks id Slashed or Departed. Subsequent votes and proposals
// from id are rejected by the caller consulting the round's snapshot,
// not this live set, so an in-flight round is unaffected.
func (s *Set) Remove(id types.ParticipantID, status types.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.members[id]
	if !ok {
		return types.ErrUnknownParticipant
	}
	if p.Status != types.Active {
		return types.ErrAlreadySlashed
	}
	p.Status = status

	for _, l := range s.listeners {
		l.OnParticipantRemoved(id, status)
	}
	return nil
}

// Get returns the live record for id.
func (s *Set) Get(id types.ParticipantID) (types.Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.members[id]
	if !ok {
		return types.Participant{}, false
	}
	return *p, true
}

// ActiveCount returns the number of currently active participants.
func (s *Set) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.members {
		if p.Active() {
			n++
		}
	}
	return n
}

// Snapshot returns the cached snapshot for roundID if one was already
// taken, or takes and caches a new one from the current live roster.
// The first call for a given roundID fixes that round's quorum for its
// entire lifetime, per I1 ("if n changes mid-round the value is fixed
// at round start").
func (s *Set) Snapshot(roundID types.RoundID) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.snapshots[roundID]; ok {
		return snap
	}

	active := make([]types.Participant, 0, len(s.members))
	byID := make(map[types.ParticipantID]types.Participant, len(s.members))
	var totalStake uint64
	for _, p := range s.members {
		if !p.Active() {
			continue
		}
		active = append(active, *p)
		byID[p.ID] = *p
		totalStake += p.Stake
	}

	snap := &Snapshot{
		RoundID:    roundID,
		Active:     active,
		byID:       byID,
		TotalStake: totalStake,
		Quorum:     Quorum(len(active)),
	}
	s.snapshots[roundID] = snap
	s.snapOrder = append(s.snapOrder, roundID)
	s.evictExpired()
	return snap
}

// SnapshotAt returns a previously cached snapshot for dispute
// resolution, without taking a new one if absent.
func (s *Set) SnapshotAt(roundID types.RoundID) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[roundID]
	return snap, ok
}

// RecordInactivity increments id's consecutive-miss counter for
// failing to vote in a round it was eligible for, and returns the new
// count. The counter lives here, not on any single round, so it
// survives the round that incremented it (§12: "a per-participant
// consecutive-miss counter... stored under the participant set, not
// the round state").
func (s *Set) RecordInactivity(id types.ParticipantID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inactivity[id]++
	return s.inactivity[id]
}

// ResetInactivity clears id's consecutive-miss counter, called on any
// vote cast by id.
func (s *Set) ResetInactivity(id types.ParticipantID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inactivity, id)
}

// InactivityCount returns id's current consecutive-miss count.
func (s *Set) InactivityCount(id types.ParticipantID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inactivity[id]
}

func (s *Set) evictExpired() {
	for len(s.snapOrder) > s.retention {
		oldest := s.snapOrder[0]
		s.snapOrder = s.snapOrder[1:]
		delete(s.snapshots, oldest)
	}
}
