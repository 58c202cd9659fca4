/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package rights implements the kernel's capability rights algebra: a
// 32-bit mask with five frozen low kernel-meaningful bits (0-4) and an
// upper range reserved for application overlays the kernel preserves but
// never interprets.
package rights

// Mask is a 32-bit capability rights bitmask.
type Mask uint32

const (
	READ     Mask = 1 << 0
	WRITE    Mask = 1 << 1
	DELEGATE Mask = 1 << 2
	ISSUE    Mask = 1 << 3
	REVOKE   Mask = 1 << 4

	// reservedMask covers bits 5-15: preserved by the kernel, never
	// checked against.
	reservedMask Mask = 0x0000FFE0
	// overlayMask covers bits 16-31: application-defined rights.
	overlayMask Mask = 0xFFFF0000
)

// implications lists, for each kernel-meaningful right, the additional
// rights its presence implies. Keep this table as the single place
// implication rules are expressed; nothing else in this package or its
// callers should special-case a right's implications.
var implications = map[Mask]Mask{
	WRITE:    READ,
	DELEGATE: READ,
	ISSUE:    READ,
	REVOKE:   READ,
}

// Canonicalise closes r under the implication table. Canonicalisation is
// idempotent: Canonicalise(Canonicalise(r)) == Canonicalise(r).
func Canonicalise(r Mask) Mask {
	out := r
	for bit, implied := range implications {
		if out&bit != 0 {
			out |= implied
		}
	}
	return out
}

// Sufficient reports whether capRights, once canonicalised here, covers
// every bit of required.
func Sufficient(capRights, required Mask) bool {
	c := Canonicalise(capRights)
	return c&required == required
}

// DelegationAdmissible reports whether a child capability with rights
// childRights may be delegated from a parent with rights parentRights: the
// parent must hold DELEGATE, and the child's rights must be a subset of
// the parent's canonicalised rights.
func DelegationAdmissible(parentRights, childRights Mask) bool {
	c := Canonicalise(parentRights)
	if c&DELEGATE == 0 {
		return false
	}
	return c&childRights == childRights
}
