/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package clock

import "errors"

// LClock is the per-replica Lamport logical counter. The sentinel value
// LClockMax is reachable but once the local counter equals it the replica
// must refuse to author further commands.
type LClock uint64

// LClockMax is the overflow sentinel, 2^64 - 1.
const LClockMax LClock = ^LClock(0)

// ErrLClockOverflow is returned by Propose when the local counter has already
// reached LClockMax; authoring must stop but ingest of peer events may
// still progress (the remote clock cannot push us further).
var ErrLClockOverflow = errors.New("lclock overflow: local counter at ceiling")

// Propose computes the lclock a newly authored command should carry:
// local + 1. It returns ErrLClockOverflow if local is already at the
// ceiling.
func Propose(local LClock) (LClock, error) {
	if local == LClockMax {
		return 0, ErrLClockOverflow
	}
	return local + 1, nil
}

// AcceptCommand reports whether a command's proposed lclock may be
// accepted against the current local counter. Equality is admissible; only
// a proposal strictly behind the local counter is rejected.
func AcceptCommand(proposed, local LClock) bool {
	return proposed >= local
}

// Commit computes the authoritative lclock assigned to an emitted event:
// the larger of the command's proposed value and local+1. The caller must
// have already checked local != LClockMax.
func Commit(proposed, local LClock) LClock {
	next := local + 1
	if proposed > next {
		return proposed
	}
	return next
}

// Ingest folds a peer event's lclock into the local counter: pointwise
// maximum, never decreasing.
func Ingest(local, incoming LClock) LClock {
	if incoming > local {
		return incoming
	}
	return local
}
