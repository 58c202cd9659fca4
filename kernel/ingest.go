/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

import (
	"context"
	"fmt"

	"github.com/scrappyAI/amulet-core/cid"
	"github.com/scrappyAI/amulet-core/clock"
	"github.com/scrappyAI/amulet-core/frame"
)

// ProcessIncomingEvent runs spec §4.9: re-derive a peer event's CID to
// catch framing tampering, check its causal preconditions against what
// this replica already knows, then merge clocks and append — never
// materializing entity bodies, since an Event carries only CIDs.
func (k *Kernel) ProcessIncomingEvent(ctx context.Context, ev frame.Event) error {
	if err := k.acquire(ctx); err != nil {
		return err
	}
	defer k.release()

	expected, err := cid.Compute(k.deps.Provider, ev.CanonicalForHash())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCryptoProvider, err)
	}
	if expected != ev.ID {
		return fmt.Errorf("%w: recomputed %s, event claims %s", ErrFramingError, expected, ev.ID)
	}

	if err := k.checkCausalPreconditions(ev); err != nil {
		return err
	}

	localLC, localVC := k.store.LocalClock()
	newLC := clock.Ingest(localLC, ev.LClock)
	newVC := localVC.Clone()
	newVC = clock.MergeInto(newVC, ev.VClock)

	if err := k.store.CommitIngest(ev, newLC, newVC); err != nil {
		return err
	}

	k.log.Debug("kernel.ingest", fmt.Sprintf("appended event %s from %s", ev.ID, ev.Author))
	return nil
}

// checkCausalPreconditions implements spec §4.9 step 3: the event's
// declared new/updated entity CIDs must be consistent with what this
// replica currently knows. A new entity that already exists locally is an
// invariant violation (CID collision, never expected in honest
// operation); an updated entity this replica has never heard of is a
// causal gap — the caller should buffer ev and retry once the gap closes.
// An updated entity whose already-known parent has a later lclock than
// this event is a fatal invariant violation, never a gap: the entity and
// its parent are both known, so there is nothing further to wait for. A
// parent this replica does not know is not checked.
func (k *Kernel) checkCausalPreconditions(ev frame.Event) error {
	for _, id := range ev.NewEntities {
		if _, ok := k.store.Entity(id); ok {
			return fmt.Errorf("%w: new entity %s already present", ErrInvariantViolation, id)
		}
	}
	for _, id := range ev.UpdatedEntities {
		e, ok := k.store.Entity(id)
		if !ok {
			return fmt.Errorf("%w: updated entity %s not yet known locally", ErrCausalGap, id)
		}
		// Same invariant rule as §4.8.5 bullet 4, restated against this
		// event's own lclock in place of lclock_new: an entity's parent
		// must never have been produced at a later logical time than an
		// event that touches the entity itself (spec seed S11).
		if e.Parent == nil {
			continue
		}
		parent, ok := k.store.Entity(*e.Parent)
		if ok && parent.LClock > ev.LClock {
			return fmt.Errorf("%w: entity %s's parent %s has lclock %d exceeding event lclock %d", ErrInvariantViolation, id, *e.Parent, parent.LClock, ev.LClock)
		}
	}
	if !ev.CausedBy.IsZero() {
		found := false
		for _, logged := range k.store.Events() {
			if logged.ID == ev.CausedBy {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: caused_by %s not yet observed", ErrCausalGap, ev.CausedBy)
		}
	}
	return nil
}
