/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package store implements the kernel's authoritative state: the
// capability registry, entity registry, append-only event log, revoked
// set, and the replica's logical clocks (spec §4.6). Every mutation
// happens inside the single critical section the embedding Kernel holds
// for the duration of one apply/ingest call; the store itself offers no
// partial-visibility reads.
package store

import (
	"errors"
	"sync"

	"github.com/scrappyAI/amulet-core/cid"
	"github.com/scrappyAI/amulet-core/clock"
	"github.com/scrappyAI/amulet-core/frame"
)

// ErrNotFound is returned by lookups that miss.
var ErrNotFound = errors.New("store: not found")

// Store is the in-memory, optionally bbolt-backed authoritative state of
// one replica. All fields are guarded by mtx; callers outside this
// package never take the lock directly — every exported method that
// touches mutable state acquires it for the duration of the call.
type Store struct {
	mtx sync.Mutex

	selfReplica clock.ReplicaID
	localLC     clock.LClock
	localVC     clock.VClock

	capabilities *shardedIndex[frame.Capability]
	entities     *shardedIndex[frame.Entity]
	revoked      map[cid.CID]struct{}
	events       []frame.Event

	persist *persistence // nil when running purely in memory
}

// Config configures a new Store.
type Config struct {
	SelfReplica   clock.ReplicaID
	InitialLClock clock.LClock

	// DBPath, if non-empty, backs the event log and registries with a
	// bbolt database at this path, guarded by an exclusive flock so only
	// one process may hold the store open at a time (spec §5: the store
	// is the only shared resource and is owned by exactly one kernel).
	DBPath string
}

// New constructs a Store. If cfg.DBPath is set, it opens (creating if
// necessary) the backing bbolt database and replays any previously
// committed events to rebuild in-memory state.
func New(cfg Config) (*Store, error) {
	s := &Store{
		selfReplica:  cfg.SelfReplica,
		localLC:      cfg.InitialLClock,
		localVC:      clock.VClock{},
		capabilities: newShardedIndex[frame.Capability](),
		entities:     newShardedIndex[frame.Entity](),
		revoked:      make(map[cid.CID]struct{}),
	}
	if cfg.DBPath != "" {
		p, err := openPersistence(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		s.persist = p
		if err := s.replay(); err != nil {
			p.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases any backing resources (bbolt handle and its flock).
func (s *Store) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.persist == nil {
		return nil
	}
	return s.persist.Close()
}

// SelfReplica returns the replica identity this store was constructed
// with.
func (s *Store) SelfReplica() clock.ReplicaID {
	return s.selfReplica
}

// LocalClock returns the current local lclock and a copy of the local
// vector clock.
func (s *Store) LocalClock() (clock.LClock, clock.VClock) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.localLC, s.localVC.Clone()
}

// Entity looks up an entity by CID.
func (s *Store) Entity(id cid.CID) (frame.Entity, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.entities.get(id)
}

// Capability looks up a capability by CID.
func (s *Store) Capability(id cid.CID) (frame.Capability, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.capabilities.get(id)
}

// IsRevoked reports whether id is in the revoked-capability set.
func (s *Store) IsRevoked(id cid.CID) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	_, ok := s.revoked[id]
	return ok
}

// Events returns a copy of the append-only event log.
func (s *Store) Events() []frame.Event {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := make([]frame.Event, len(s.events))
	copy(out, s.events)
	return out
}
