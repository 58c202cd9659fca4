/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package kernel

import "errors"

// Error kinds surfaced by the kernel (spec §7). Every one is fatal for the
// operation that produced it, never for the kernel instance: the caller
// may retry with corrected input, or in the case of CausalGap, buffer and
// retry the same event later.
var (
	// Validation errors (spec §4.7). These leave state unchanged and are
	// reported to the caller verbatim.
	ErrCapabilityNotFound  = errors.New("kernel: capability not found")
	ErrCapabilityExpired   = errors.New("kernel: capability expired")
	ErrCapabilityRevoked   = errors.New("kernel: capability revoked")
	ErrAlgSuiteMismatch    = errors.New("kernel: command suite tag does not match capability suite tag")
	ErrBadSignature        = errors.New("kernel: signature verification failed")
	ErrInsufficientRights  = errors.New("kernel: capability rights insufficient for payload")
	ErrLclockInPast        = errors.New("kernel: command lclock is behind local clock")
	ErrLclockOverflow      = errors.New("kernel: local lclock is at the overflow ceiling")

	// Delta-checking errors (spec §4.8 step 5).
	ErrDeltaInvariantViolation = errors.New("kernel: runtime delta violates an entity invariant")
	ErrDuplicateEntity         = errors.New("kernel: new entity CID already present")
	ErrDuplicateCapabilityCid  = errors.New("kernel: capability registration CID already present")
	ErrUnknownParent           = errors.New("kernel: new entity's parent does not exist")

	// Ingest errors (spec §4.9).
	ErrFramingError      = errors.New("kernel: event framing or CID mismatch")
	ErrCausalGap         = errors.New("kernel: ingest observed a causal gap; buffer and retry")
	ErrInvariantViolation = errors.New("kernel: ingest observed an entity invariant violation")

	// Opaque propagation (spec §7).
	ErrCryptoProvider = errors.New("kernel: crypto provider error")
	ErrRuntime        = errors.New("kernel: runtime error")
)

// IsRecoverable reports whether err represents a condition the caller
// should buffer the triggering event and retry later (CausalGap), as
// opposed to a fatal condition that should be logged and the event
// quarantined (spec §7 policy).
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrCausalGap)
}
