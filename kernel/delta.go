/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

import (
	"fmt"

	"github.com/scrappyAI/amulet-core/cid"
	"github.com/scrappyAI/amulet-core/clock"
	"github.com/scrappyAI/amulet-core/frame"
	"github.com/scrappyAI/amulet-core/runtime"
)

// checkDeltaInvariants is spec §4.8 step 5: before any part of a runtime's
// proposed Delta is committed, every entity and capability it introduces
// must be consistent with what the store already knows, with lclock_new,
// and with the rest of the same Delta. The first violation wins; the
// store is untouched either way since this function never mutates it.
func (k *Kernel) checkDeltaInvariants(delta runtime.Delta, newLC clock.LClock) error {
	seenNew := make(map[cid.CID]frame.Entity, len(delta.NewEntities))
	for _, e := range delta.NewEntities {
		if _, ok := k.store.Entity(e.ID); ok {
			return fmt.Errorf("%w: %s", ErrDuplicateEntity, e.ID)
		}
		if _, dup := seenNew[e.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateEntity, e.ID)
		}
		seenNew[e.ID] = e
	}

	// postDeltaEntity resolves id against the post-delta view: this same
	// delta's own new entities take precedence over the store, exactly as
	// spec §4.8.5 bullet 4's "parent already exists in the post-delta
	// view" requires.
	postDeltaEntity := func(id cid.CID) (frame.Entity, bool) {
		if e, ok := seenNew[id]; ok {
			return e, true
		}
		return k.store.Entity(id)
	}

	for _, e := range delta.NewEntities {
		if e.LClock != newLC {
			return fmt.Errorf("%w: new entity %s has lclock %d, expected lclock_new %d", ErrDeltaInvariantViolation, e.ID, e.LClock, newLC)
		}
		if e.Version != 0 {
			return fmt.Errorf("%w: new entity %s has nonzero version %d", ErrDeltaInvariantViolation, e.ID, e.Version)
		}
		if e.Parent == nil {
			continue
		}
		parent, ok := postDeltaEntity(*e.Parent)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownParent, *e.Parent)
		}
		if parent.LClock > newLC {
			return fmt.Errorf("%w: parent %s has lclock %d exceeding lclock_new %d", ErrDeltaInvariantViolation, *e.Parent, parent.LClock, newLC)
		}
	}

	for _, e := range delta.UpdatedEntities {
		old, ok := k.store.Entity(e.ID)
		if !ok {
			return fmt.Errorf("%w: update references unknown entity %s", ErrDeltaInvariantViolation, e.ID)
		}
		if e.Version != old.Version+1 {
			return fmt.Errorf("%w: updated entity %s has version %d, expected %d", ErrDeltaInvariantViolation, e.ID, e.Version, old.Version+1)
		}
		if e.LClock <= old.LClock {
			return fmt.Errorf("%w: updated entity %s has lclock %d, must exceed prior lclock %d", ErrDeltaInvariantViolation, e.ID, e.LClock, old.LClock)
		}
	}

	seenCap := make(map[cid.CID]struct{}, len(delta.Capabilities))
	for _, cd := range delta.Capabilities {
		if cd.Revoke {
			continue
		}
		if _, ok := k.store.Capability(cd.Capability.ID); ok {
			return fmt.Errorf("%w: %s", ErrDuplicateCapabilityCid, cd.Capability.ID)
		}
		if _, dup := seenCap[cd.Capability.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateCapabilityCid, cd.Capability.ID)
		}
		seenCap[cd.Capability.ID] = struct{}{}
	}

	return nil
}
