/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

import (
	"errors"

	"github.com/scrappyAI/amulet-core/clock"
	"github.com/scrappyAI/amulet-core/cryptoprovider"
	"github.com/scrappyAI/amulet-core/internal/klog"
	"github.com/scrappyAI/amulet-core/runtime"
)

// Config enumerates the options fixed at kernel construction (spec §6).
type Config struct {
	SelfReplica clock.ReplicaID
	SuiteTag    uint8

	// EnableVectorClocks must be true for v0.5 conformance; it is
	// retained as a field only so a future migration can read and reject
	// configs built against an older assumption (spec §6).
	EnableVectorClocks bool

	InitialLClock clock.LClock

	// DBPath, if set, backs the kernel's state store with bbolt on disk
	// (package store). Leave empty for a purely in-memory kernel, the
	// shape every unit test in this module uses.
	DBPath string

	// Logger receives diagnostic (never control-flow) log lines. A nil
	// Logger defaults to a discarding one, mirroring
	// ingest/log.NewDiscardLogger in the teacher repository.
	Logger *klog.Logger
}

var (
	// ErrVectorClocksRequired is returned by New when EnableVectorClocks
	// is false: spec §6 requires it for v0.5 conformance.
	ErrVectorClocksRequired = errors.New("kernel: config must set EnableVectorClocks for v0.5 conformance")
)

func (c Config) validate() error {
	if !c.EnableVectorClocks {
		return ErrVectorClocksRequired
	}
	return nil
}

func (c Config) logger() *klog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return klog.Discard()
}

// Dependencies groups the two external collaborators the kernel is
// parameterized over: the crypto provider and the runtime (spec §6).
type Dependencies struct {
	Provider       cryptoprovider.Provider
	Runtime        runtime.Func
	RequiredRights runtime.RequiredRightsFunc
}

func (d Dependencies) validate() error {
	if d.Provider == nil {
		return errors.New("kernel: crypto provider is required")
	}
	if d.Runtime == nil {
		return errors.New("kernel: runtime function is required")
	}
	if d.RequiredRights == nil {
		return errors.New("kernel: required-rights function is required")
	}
	return nil
}
