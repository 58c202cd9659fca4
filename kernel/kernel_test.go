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
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scrappyAI/amulet-core/cid"
	"github.com/scrappyAI/amulet-core/clock"
	"github.com/scrappyAI/amulet-core/cryptoprovider"
	"github.com/scrappyAI/amulet-core/frame"
	"github.com/scrappyAI/amulet-core/rights"
	"github.com/scrappyAI/amulet-core/runtime"
)

// noopRuntime accepts every command and proposes no state change. Tests
// that need entities to exist use newEntityRuntime instead.
func noopRuntime(cmd frame.Command, snap runtime.Snapshot) (runtime.Delta, error) {
	return runtime.Delta{}, nil
}

// newEntityRuntime proposes a single new entity at the given CID, stamped
// with lc as its header lclock. Tests using it must pick lc to match
// whatever lclock_new the kernel will actually compute for the command
// under test (cmd.lclock against a fresh store's local_lc=0, that is
// max(cmd.lclock, 1)).
func newEntityRuntime(id cid.CID, lc clock.LClock, parent *cid.CID) runtime.Func {
	return func(cmd frame.Command, snap runtime.Snapshot) (runtime.Delta, error) {
		return runtime.Delta{NewEntities: []frame.Entity{{ID: id, Version: 0, LClock: lc, Parent: parent, Body: cmd.Payload}}}, nil
	}
}

func alwaysRead(payload []byte) rights.Mask { return rights.READ }

// newTestKernel builds a Kernel with a fresh in-memory store, an ed25519
// keypair, and one READ|WRITE classic-suite capability for that key
// already registered directly into the store (bypassing Apply, since
// capability issuance is itself a runtime-defined command in a full
// deployment and is out of scope for these kernel-level tests).
func newTestKernel(t *testing.T, rt runtime.Func, required runtime.RequiredRightsFunc) (*Kernel, ed25519.PrivateKey, frame.Capability) {
	t.Helper()
	self := clock.NewReplicaID()
	k, err := New(Config{
		SelfReplica:        self,
		SuiteTag:           cryptoprovider.SuiteClassic,
		EnableVectorClocks: true,
	}, Dependencies{
		Provider:       cryptoprovider.Default{},
		Runtime:        rt,
		RequiredRights: required,
	})
	require.NoError(t, err)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	capb := frame.Capability{
		ID:       cid.CID{0xCA, 0x01},
		SuiteTag: cryptoprovider.SuiteClassic,
		Holder:   pub,
		Target:   cid.CID{0x01},
		Rights:   rights.Canonicalise(rights.WRITE),
	}
	require.NoError(t, k.store.CommitApply(nil, nil, []runtime.CapabilityDelta{{Capability: capb}}, frame.Event{ID: cid.CID{0xE0}}, 0, clock.VClock{self: 0}))

	return k, priv, capb
}

func signedCommand(t *testing.T, k *Kernel, priv ed25519.PrivateKey, capb frame.Capability, lc clock.LClock, payload []byte) frame.Command {
	t.Helper()
	cmd := frame.Command{
		SuiteTag:     cryptoprovider.SuiteClassic,
		Author:       k.cfg.SelfReplica,
		CapabilityID: capb.ID,
		LClock:       lc,
		Payload:      payload,
	}
	cmd.Signature = ed25519.Sign(priv, cmd.CanonicalPayloadBytes())
	id, err := cid.Compute(cryptoprovider.Default{}, cmd.CanonicalForHash())
	require.NoError(t, err)
	cmd.ID = id
	return cmd
}

// TestApplyMinimalCreate mirrors spec seed S1: a minimal command against
// lclock 1 is accepted and produces an event at lclock 1.
func TestApplyMinimalCreate(t *testing.T) {
	k, priv, capb := newTestKernel(t, noopRuntime, alwaysRead)
	cmd := signedCommand(t, k, priv, capb, 1, []byte("create"))

	ev, err := k.Apply(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, clock.LClock(1), ev.LClock)
	require.Equal(t, cmd.ID, ev.CausedBy)

	lc, _ := k.LocalClock()
	require.Equal(t, clock.LClock(1), lc)
}

// TestApplyRejectsLclockOverflow mirrors spec seed S4: once the local
// counter sits at the ceiling, Apply refuses rather than wrap.
func TestApplyRejectsLclockOverflow(t *testing.T) {
	k, priv, capb := newTestKernel(t, noopRuntime, alwaysRead)
	k.store.TakeSnapshot() // no-op touch; overflow is forced below directly
	require.NoError(t, k.store.CommitApply(nil, nil, nil, frame.Event{ID: cid.CID{0xE1}}, clock.LClockMax, clock.VClock{k.cfg.SelfReplica: clock.LClockMax}))

	cmd := signedCommand(t, k, priv, capb, clock.LClockMax, []byte("x"))
	_, err := k.Apply(context.Background(), cmd)
	require.ErrorIs(t, err, ErrLclockOverflow)
}

// TestApplyRejectsExpiredCapability mirrors spec seed S6: a capability
// whose expiry is less than or equal to the local lclock is expired.
func TestApplyRejectsExpiredCapability(t *testing.T) {
	k, priv, capb := newTestKernel(t, noopRuntime, alwaysRead)
	expiry := clock.LClock(0)
	capb.Expiry = &expiry
	require.NoError(t, k.store.CommitApply(nil, nil, []runtime.CapabilityDelta{{Capability: capb}}, frame.Event{ID: cid.CID{0xE2}}, 0, clock.VClock{k.cfg.SelfReplica: 0}))

	cmd := signedCommand(t, k, priv, capb, 1, []byte("x"))
	_, err := k.Apply(context.Background(), cmd)
	require.ErrorIs(t, err, ErrCapabilityExpired)
}

// TestApplyRejectsInsufficientRights mirrors spec seed S9: a capability
// that does not cover what the runtime says the payload requires is
// rejected before the runtime ever runs.
func TestApplyRejectsInsufficientRights(t *testing.T) {
	requireWrite := func([]byte) rights.Mask { return rights.WRITE }
	self := clock.NewReplicaID()
	k, err := New(Config{SelfReplica: self, SuiteTag: cryptoprovider.SuiteClassic, EnableVectorClocks: true},
		Dependencies{Provider: cryptoprovider.Default{}, Runtime: noopRuntime, RequiredRights: requireWrite})
	require.NoError(t, err)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	capb := frame.Capability{ID: cid.CID{0xCA, 0x02}, SuiteTag: cryptoprovider.SuiteClassic, Holder: pub, Target: cid.CID{0x01}, Rights: rights.READ}
	require.NoError(t, k.store.CommitApply(nil, nil, []runtime.CapabilityDelta{{Capability: capb}}, frame.Event{ID: cid.CID{0xE3}}, 0, clock.VClock{self: 0}))

	cmd := signedCommand(t, k, priv, capb, 1, []byte("x"))
	_, err = k.Apply(context.Background(), cmd)
	require.ErrorIs(t, err, ErrInsufficientRights)
}

// TestApplyRejectsDuplicateEntity mirrors spec seed S8: a runtime that
// proposes an entity CID already present in the store is refused and
// leaves the store unchanged.
func TestApplyRejectsDuplicateEntity(t *testing.T) {
	dupID := cid.CID{0x42}
	dupRuntime := func(cmd frame.Command, snap runtime.Snapshot) (runtime.Delta, error) {
		return runtime.Delta{NewEntities: []frame.Entity{{ID: dupID, Body: []byte("v2")}}}, nil
	}
	k, priv, capb := newTestKernel(t, dupRuntime, alwaysRead)
	require.NoError(t, k.store.CommitApply([]frame.Entity{{ID: dupID, Body: []byte("v1")}}, nil, nil, frame.Event{ID: cid.CID{0xE4}}, 0, clock.VClock{k.cfg.SelfReplica: 0}))

	cmd := signedCommand(t, k, priv, capb, 1, []byte("x"))
	_, err := k.Apply(context.Background(), cmd)
	require.ErrorIs(t, err, ErrDuplicateEntity)

	got, ok := k.store.Entity(dupID)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), got.Body, "rejected delta must not mutate the store")
}

// TestApplyRejectsEntityLclockMismatch covers spec §4.8.5 bullet 2: a
// runtime that stamps a new entity with an lclock other than lclock_new is
// refused.
func TestApplyRejectsEntityLclockMismatch(t *testing.T) {
	k, priv, capb := newTestKernel(t, newEntityRuntime(cid.CID{0x50}, 99, nil), alwaysRead)
	cmd := signedCommand(t, k, priv, capb, 1, []byte("x"))

	_, err := k.Apply(context.Background(), cmd)
	require.ErrorIs(t, err, ErrDeltaInvariantViolation)

	_, ok := k.store.Entity(cid.CID{0x50})
	require.False(t, ok, "rejected delta must not mutate the store")
}

// TestApplyRejectsParentLclockViolation covers spec §4.8.5 bullet 4: a new
// entity's parent must not have been produced at a later logical time than
// lclock_new, even when the parent is already known and exists.
func TestApplyRejectsParentLclockViolation(t *testing.T) {
	parentID := cid.CID{0x51}
	childID := cid.CID{0x52}
	k, priv, capb := newTestKernel(t, newEntityRuntime(childID, 1, &parentID), alwaysRead)
	require.NoError(t, k.store.CommitApply([]frame.Entity{{ID: parentID, LClock: 50}}, nil, nil, frame.Event{ID: cid.CID{0xE5}}, 0, clock.VClock{k.cfg.SelfReplica: 0}))

	cmd := signedCommand(t, k, priv, capb, 1, []byte("x"))
	_, err := k.Apply(context.Background(), cmd)
	require.ErrorIs(t, err, ErrDeltaInvariantViolation)

	_, ok := k.store.Entity(childID)
	require.False(t, ok, "rejected delta must not mutate the store")
}

// TestApplyAcceptsEntityWithValidParent is the positive counterpart to
// TestApplyRejectsParentLclockViolation: a parent at or before lclock_new is
// fine.
func TestApplyAcceptsEntityWithValidParent(t *testing.T) {
	parentID := cid.CID{0x53}
	childID := cid.CID{0x54}
	k, priv, capb := newTestKernel(t, newEntityRuntime(childID, 1, &parentID), alwaysRead)
	require.NoError(t, k.store.CommitApply([]frame.Entity{{ID: parentID, LClock: 1}}, nil, nil, frame.Event{ID: cid.CID{0xE6}}, 0, clock.VClock{k.cfg.SelfReplica: 0}))

	cmd := signedCommand(t, k, priv, capb, 1, []byte("x"))
	_, err := k.Apply(context.Background(), cmd)
	require.NoError(t, err)

	got, ok := k.store.Entity(childID)
	require.True(t, ok)
	require.Equal(t, &parentID, got.Parent)
}

// TestApplyPreservesReservedTrailerThroughEvent mirrors spec seed S7: an
// event's unknown trailing bytes survive an encode/decode round trip
// unchanged once committed.
func TestApplyPreservesReservedTrailerThroughEvent(t *testing.T) {
	k, priv, capb := newTestKernel(t, noopRuntime, alwaysRead)
	cmd := signedCommand(t, k, priv, capb, 1, []byte("x"))

	ev, err := k.Apply(context.Background(), cmd)
	require.NoError(t, err)

	tail := []byte("0123456789012") // 13 bytes
	buf := append(ev.Encode(), tail...)
	decoded, err := frame.DecodeEvent(buf)
	require.NoError(t, err)
	require.Equal(t, tail, decoded.Reserved)
	require.Equal(t, buf, decoded.Encode())
}

func TestProcessIncomingEventRejectsFramingMismatch(t *testing.T) {
	k, _, _ := newTestKernel(t, noopRuntime, alwaysRead)
	ev := frame.Event{ID: cid.CID{0x99}, Author: clock.NewReplicaID(), LClock: 1}
	err := k.ProcessIncomingEvent(context.Background(), ev)
	require.ErrorIs(t, err, ErrFramingError)
}

// TestProcessIncomingEventCausalGapOnUnknownUpdatedEntity: an event that
// updates an entity this replica has never heard of is a causal gap, not a
// hard invariant violation — the caller should buffer and retry once the
// gap closes.
func TestProcessIncomingEventCausalGapOnUnknownUpdatedEntity(t *testing.T) {
	k, _, _ := newTestKernel(t, noopRuntime, alwaysRead)
	peer := clock.NewReplicaID()

	ev := frame.Event{
		Author:          peer,
		LClock:          1,
		VClock:          clock.VClock{peer: 1},
		UpdatedEntities: []cid.CID{{0x77}},
	}
	id, err := cid.Compute(cryptoprovider.Default{}, ev.CanonicalForHash())
	require.NoError(t, err)
	ev.ID = id

	err = k.ProcessIncomingEvent(context.Background(), ev)
	require.ErrorIs(t, err, ErrCausalGap)
	require.True(t, IsRecoverable(err))
}

// TestProcessIncomingEventRejectsParentCausalViolation mirrors spec seed
// S11: an incoming event references an already-known updated entity whose
// parent's lclock (10) exceeds the event's own lclock (7). Unlike the
// unknown-entity case above, both the entity and its parent are already
// known locally, so there is nothing to wait for — this is a hard
// InvariantViolation, not a gap.
func TestProcessIncomingEventRejectsParentCausalViolation(t *testing.T) {
	k, _, _ := newTestKernel(t, noopRuntime, alwaysRead)
	peer := clock.NewReplicaID()

	parentID := cid.CID{0x61}
	childID := cid.CID{0x62}
	require.NoError(t, k.store.CommitApply(
		[]frame.Entity{
			{ID: parentID, LClock: 10},
			{ID: childID, LClock: 1, Parent: &parentID},
		},
		nil, nil, frame.Event{ID: cid.CID{0xE7}}, 0, clock.VClock{k.cfg.SelfReplica: 0},
	))

	ev := frame.Event{
		Author:          peer,
		LClock:          7,
		VClock:          clock.VClock{peer: 7},
		UpdatedEntities: []cid.CID{childID},
	}
	id, err := cid.Compute(cryptoprovider.Default{}, ev.CanonicalForHash())
	require.NoError(t, err)
	ev.ID = id

	err = k.ProcessIncomingEvent(context.Background(), ev)
	require.ErrorIs(t, err, ErrInvariantViolation)
}

func TestProcessIncomingEventMergesClocks(t *testing.T) {
	k, _, _ := newTestKernel(t, noopRuntime, alwaysRead)
	peer := clock.NewReplicaID()

	ev := frame.Event{Author: peer, LClock: 9, VClock: clock.VClock{peer: 9}}
	id, err := cid.Compute(cryptoprovider.Default{}, ev.CanonicalForHash())
	require.NoError(t, err)
	ev.ID = id

	require.NoError(t, k.ProcessIncomingEvent(context.Background(), ev))

	lc, vc := k.LocalClock()
	require.Equal(t, clock.LClock(9), lc)
	require.Equal(t, clock.LClock(9), vc.Get(peer))
}
