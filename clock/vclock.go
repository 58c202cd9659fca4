/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package clock

import (
	"bytes"
	"sort"
)

// VClock is a mapping from ReplicaID to LClock. Entries absent from the
// map are interpreted as zero; callers must not rely on a zero entry being
// present. VClock values are always copied, never aliased, by the
// functions in this file, except MergeInto, which updates its local
// argument in place.
type VClock map[ReplicaID]LClock

// Get returns the logical time recorded for r, or zero if r is absent.
func (vc VClock) Get(r ReplicaID) LClock {
	if vc == nil {
		return 0
	}
	return vc[r]
}

// Clone returns an independent copy of vc.
func (vc VClock) Clone() VClock {
	out := make(VClock, len(vc))
	for k, v := range vc {
		out[k] = v
	}
	return out
}

// Merge returns the pointwise maximum of a and b. Entries present in only
// one operand are carried through unchanged.
func Merge(a, b VClock) VClock {
	out := make(VClock, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if cur, ok := out[k]; !ok || v > cur {
			out[k] = v
		}
	}
	return out
}

// MergeInto folds incoming into local in place, pointwise-maximum, exactly
// as the ingest path of spec §4.4 requires: entries absent from incoming
// are retained untouched.
func MergeInto(local VClock, incoming VClock) VClock {
	if local == nil {
		local = make(VClock, len(incoming))
	}
	for r, t := range incoming {
		if cur := local[r]; t > cur {
			local[r] = t
		}
	}
	return local
}

// LessEq reports whether a <= b under the pointwise partial order: for
// every replica key appearing in either map, a's value must not exceed b's.
func LessEq(a, b VClock) bool {
	keys := unionKeys(a, b)
	for _, k := range keys {
		if a.Get(k) > b.Get(k) {
			return false
		}
	}
	return true
}

// Concurrent reports whether neither a <= b nor b <= a holds.
func Concurrent(a, b VClock) bool {
	return !LessEq(a, b) && !LessEq(b, a)
}

// Equal reports whether a and b carry identical logical times for every
// replica appearing in either map.
func Equal(a, b VClock) bool {
	for _, k := range unionKeys(a, b) {
		if a.Get(k) != b.Get(k) {
			return false
		}
	}
	return true
}

func unionKeys(a, b VClock) []ReplicaID {
	seen := make(map[ReplicaID]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	out := make([]ReplicaID, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	return out
}

// sortedPairs returns the (ReplicaID, LClock) pairs of vc sorted ascending
// by ReplicaID byte value. This is the canonical iteration order used by
// the frame codec (spec §4.2/§9): implementations agreeing to interoperate
// must serialize VClock entries in this order.
func sortedPairs(vc VClock) []vclockPair {
	out := make([]vclockPair, 0, len(vc))
	for r, t := range vc {
		out = append(out, vclockPair{Replica: r, Time: t})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Replica[:], out[j].Replica[:]) < 0
	})
	return out
}

type vclockPair struct {
	Replica ReplicaID
	Time    LClock
}
