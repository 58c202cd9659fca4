/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package runtime declares the two external collaborators the kernel
// consumes but never implements: the pure function that interprets an
// opaque command payload against a state snapshot, and the pure function
// that reports what rights a payload requires. Neither function may
// observe anything outside the values it is handed — no wall-clock
// sampling, no randomness, no I/O. This package is deliberately thin: the
// concrete entity/command payload semantics belong to the embedding
// runtime, never to the kernel.
package runtime

import (
	"github.com/scrappyAI/amulet-core/cid"
	"github.com/scrappyAI/amulet-core/frame"
	"github.com/scrappyAI/amulet-core/rights"
)

// Snapshot is a read-only view of the state store handed to a Runtime
// invocation. It must not be mutated while the runtime holds it (spec
// §5); implementations in package store hand back a value that already
// enforces this by copying.
type Snapshot interface {
	// Entity looks up an entity by CID as of the moment the snapshot was
	// taken.
	Entity(id cid.CID) (frame.Entity, bool)

	// Capability looks up a capability by CID as of the moment the
	// snapshot was taken.
	Capability(id cid.CID) (frame.Capability, bool)

	// LocalClock returns the lclock the snapshot was taken at.
	LocalClock() uint64
}

// CapabilityDelta describes a capability registration or revocation
// proposed by a runtime invocation. Revoke, when true, adds ID to the
// store's revoked set instead of registering a new capability.
type CapabilityDelta struct {
	Capability frame.Capability
	Revoke     bool
}

// Delta is the runtime's description of the state changes one accepted
// command effects (spec §3 StateDelta). It is purely descriptive: only
// the kernel mutates state, by checking and then committing a Delta.
type Delta struct {
	NewEntities     []frame.Entity
	UpdatedEntities []frame.Entity
	Capabilities    []CapabilityDelta
}

// Func is the shape of the runtime callable the kernel invokes once per
// apply: (Command, Snapshot) -> (Delta, error). It must be pure: given the
// same command and an equivalent snapshot, it must always return an
// equivalent delta.
type Func func(cmd frame.Command, snap Snapshot) (Delta, error)

// RequiredRightsFunc reports the rights mask a payload requires. The
// kernel never decides this itself (spec §1 Non-goals) — it only checks
// that a presented capability's canonicalised rights are a superset of
// whatever this function reports.
type RequiredRightsFunc func(payload []byte) rights.Mask
