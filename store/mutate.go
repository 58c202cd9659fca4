/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package store

import (
	"github.com/scrappyAI/amulet-core/clock"
	"github.com/scrappyAI/amulet-core/frame"
	"github.com/scrappyAI/amulet-core/runtime"
)

// replay rebuilds in-memory state from the backing bbolt database. Called
// once at construction time when persistence is enabled.
func (s *Store) replay() error {
	entities, caps, revoked, events, lc, vc, err := s.persist.loadAll()
	if err != nil {
		return err
	}
	for id, e := range entities {
		s.entities.put(id, e)
	}
	for id, c := range caps {
		s.capabilities.put(id, c)
	}
	for id := range revoked {
		s.revoked[id] = struct{}{}
	}
	s.events = events
	if lc > s.localLC {
		s.localLC = lc
	}
	s.localVC = clock.MergeInto(s.localVC, vc)
	return nil
}

// CommitApply atomically applies the outcome of one accepted apply(): the
// runtime's new/updated entities, any capability registrations or
// revocations, the freshly materialized event, and the replica's new
// logical clocks. The caller (package kernel) has already checked every
// delta invariant in spec §4.8 step 5 before calling this; CommitApply
// performs no further validation.
func (s *Store) CommitApply(newEntities, updatedEntities []frame.Entity, capDeltas []runtime.CapabilityDelta, ev frame.Event, newLC clock.LClock, newVC clock.VClock) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.persist != nil {
		if err := s.persist.commit(newEntities, updatedEntities, capDeltas, &ev, newLC, newVC); err != nil {
			return err
		}
	}

	for _, e := range newEntities {
		s.entities.put(e.ID, e)
	}
	for _, e := range updatedEntities {
		s.entities.put(e.ID, e)
	}
	for _, cd := range capDeltas {
		if cd.Revoke {
			s.revoked[cd.Capability.ID] = struct{}{}
			continue
		}
		s.capabilities.put(cd.Capability.ID, cd.Capability)
	}
	s.events = append(s.events, ev)
	s.localLC = newLC
	s.localVC = newVC
	return nil
}

// CommitIngest atomically appends a validated peer event to the log and
// advances the replica's clocks. Ingest never materializes entity bodies
// — an Event carries only the CIDs of the entities it affects, and those
// bodies arrive (or are reconciled) through whatever replication channel
// the embedding host uses; this kernel's contract ends at the causal and
// clock bookkeeping.
func (s *Store) CommitIngest(ev frame.Event, newLC clock.LClock, newVC clock.VClock) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.persist != nil {
		if err := s.persist.commit(nil, nil, nil, &ev, newLC, newVC); err != nil {
			return err
		}
	}

	s.events = append(s.events, ev)
	s.localLC = newLC
	s.localVC = newVC
	return nil
}
