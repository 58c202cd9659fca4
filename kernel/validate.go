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

	"github.com/scrappyAI/amulet-core/clock"
	"github.com/scrappyAI/amulet-core/frame"
	"github.com/scrappyAI/amulet-core/rights"
)

// acceptedIntent is the outcome of a successful validate_command: the
// command carried a reference to a capability that covers what the
// runtime says it needs, annotated with that resolved capability so the
// apply pipeline never has to look it up twice.
type acceptedIntent struct {
	Command    frame.Command
	Capability frame.Capability
}

// validateCommand runs the total-function validation pipeline of spec
// §4.7. The first failing check wins; every error is one of the
// validation sentinels in errors.go.
func (k *Kernel) validateCommand(cmd frame.Command) (acceptedIntent, error) {
	capb, ok := k.store.Capability(cmd.CapabilityID)
	if !ok {
		return acceptedIntent{}, fmt.Errorf("%w: %s", ErrCapabilityNotFound, cmd.CapabilityID)
	}

	if cmd.SuiteTag != capb.SuiteTag {
		return acceptedIntent{}, fmt.Errorf("%w: command suite %d, capability suite %d", ErrAlgSuiteMismatch, cmd.SuiteTag, capb.SuiteTag)
	}

	if k.store.IsRevoked(capb.ID) {
		return acceptedIntent{}, fmt.Errorf("%w: %s", ErrCapabilityRevoked, capb.ID)
	}

	localLC, _ := k.store.LocalClock()
	if capb.Expiry != nil && localLC >= *capb.Expiry {
		// Strict inequality required: equality means expired (spec §4.7
		// step 4, resolving the Open Question in spec §9 in favor of
		// seed S6).
		return acceptedIntent{}, fmt.Errorf("%w: local_lc=%d expiry=%d", ErrCapabilityExpired, localLC, *capb.Expiry)
	}

	ok, err := k.deps.Provider.Verify(cmd.SuiteTag, capb.Holder, cmd.CanonicalPayloadBytes(), cmd.Signature)
	if err != nil {
		return acceptedIntent{}, fmt.Errorf("%w: %v", ErrCryptoProvider, err)
	}
	if !ok {
		return acceptedIntent{}, ErrBadSignature
	}

	required := k.deps.RequiredRights(cmd.Payload)
	if !rights.Sufficient(capb.Rights, required) {
		return acceptedIntent{}, fmt.Errorf("%w: have %#x need %#x", ErrInsufficientRights, capb.Rights, required)
	}

	if !clock.AcceptCommand(cmd.LClock, localLC) {
		return acceptedIntent{}, fmt.Errorf("%w: cmd.lclock=%d local_lc=%d", ErrLclockInPast, cmd.LClock, localLC)
	}

	return acceptedIntent{Command: cmd, Capability: capb}, nil
}
