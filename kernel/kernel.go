/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package kernel implements the deterministic micro-kernel: validate_command,
// apply, and process_incoming_event (spec §4), wired to a pluggable crypto
// provider and runtime. Exactly one goroutine at a time may be inside
// Apply or ProcessIncomingEvent on a given Kernel — the weighted semaphore
// of size 1 below is the kernel's single critical section (spec §5),
// chosen over a bare sync.Mutex so the same primitive also makes the wait
// for admission cancellable through the caller's context.
package kernel

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/scrappyAI/amulet-core/clock"
	"github.com/scrappyAI/amulet-core/internal/klog"
	"github.com/scrappyAI/amulet-core/store"
)

// Kernel is one replica's deterministic state machine: the authoritative
// store, the external collaborators it was configured with, and the
// single admission semaphore serializing every Apply/ProcessIncomingEvent
// call.
type Kernel struct {
	store *store.Store
	deps  Dependencies
	cfg   Config
	log   *klog.Logger

	sem *semaphore.Weighted
}

// New constructs a Kernel over a fresh or reopened store. If cfg.DBPath is
// set, previously committed state is replayed from disk before New
// returns.
func New(cfg Config, deps Dependencies) (*Kernel, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	st, err := store.New(store.Config{
		SelfReplica:   cfg.SelfReplica,
		InitialLClock: cfg.InitialLClock,
		DBPath:        cfg.DBPath,
	})
	if err != nil {
		return nil, err
	}

	return &Kernel{
		store: st,
		deps:  deps,
		cfg:   cfg,
		log:   cfg.logger(),
		sem:   semaphore.NewWeighted(1),
	}, nil
}

// Close releases the backing store's resources.
func (k *Kernel) Close() error {
	return k.store.Close()
}

// LocalClock returns the replica's current lclock and a copy of its vector
// clock.
func (k *Kernel) LocalClock() (clock.LClock, clock.VClock) {
	return k.store.LocalClock()
}

// Snapshot returns an independent, point-in-time copy of the kernel's
// entity and capability registries, safe to hand to a caller that will
// read it after this call returns (spec §5).
func (k *Kernel) Snapshot() store.Snapshot {
	return k.store.TakeSnapshot()
}

// acquire blocks until this Kernel's single admission slot is free, the
// same gate for both public operations (spec §5: apply and
// process_incoming_event never interleave against one store).
func (k *Kernel) acquire(ctx context.Context) error {
	return k.sem.Acquire(ctx, 1)
}

func (k *Kernel) release() {
	k.sem.Release(1)
}
