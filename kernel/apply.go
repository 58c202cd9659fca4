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

// Apply runs spec §4.8 end to end: validate the command, snapshot the
// store, invoke the runtime, check the proposed delta's invariants, and —
// only if every prior step succeeded — commit the delta and the
// materialized event atomically. On any error the store is left
// unchanged.
func (k *Kernel) Apply(ctx context.Context, cmd frame.Command) (frame.Event, error) {
	if err := k.acquire(ctx); err != nil {
		return frame.Event{}, err
	}
	defer k.release()

	intent, err := k.validateCommand(cmd)
	if err != nil {
		return frame.Event{}, err
	}
	_ = intent.Capability // resolved during validation; not otherwise needed here

	localLC, localVC := k.store.LocalClock()
	if localLC == clock.LClockMax {
		return frame.Event{}, ErrLclockOverflow
	}
	newLC := clock.Commit(cmd.LClock, localLC)

	snap := k.store.TakeSnapshot()
	delta, err := k.deps.Runtime(cmd, snap)
	if err != nil {
		return frame.Event{}, fmt.Errorf("%w: %v", ErrRuntime, err)
	}

	if err := k.checkDeltaInvariants(delta, newLC); err != nil {
		return frame.Event{}, err
	}

	draftVC := localVC.Clone()
	draftVC = clock.MergeInto(draftVC, cmd.VClock)
	draftVC[k.cfg.SelfReplica] = newLC

	ev := frame.Event{
		SuiteTag:        cmd.SuiteTag,
		Author:          k.cfg.SelfReplica,
		CausedBy:        cmd.ID,
		LClock:          newLC,
		VClock:          draftVC,
		NewEntities:     entityCIDs(delta.NewEntities),
		UpdatedEntities: entityCIDs(delta.UpdatedEntities),
	}

	id, err := cid.Compute(k.deps.Provider, ev.CanonicalForHash())
	if err != nil {
		return frame.Event{}, fmt.Errorf("%w: %v", ErrCryptoProvider, err)
	}
	ev.ID = id

	if err := k.store.CommitApply(delta.NewEntities, delta.UpdatedEntities, delta.Capabilities, ev, newLC, draftVC); err != nil {
		return frame.Event{}, err
	}

	k.log.Debug("kernel.apply", fmt.Sprintf("committed event %s at lclock %d", ev.ID, newLC))
	return ev, nil
}

func entityCIDs(entities []frame.Entity) []cid.CID {
	out := make([]cid.CID, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.ID)
	}
	return out
}
