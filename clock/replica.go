/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package clock implements the kernel's logical-time primitives: the
// per-replica Lamport counter and the mandatory vector clock. Nothing in
// this package samples wall-clock time or reads any external state; every
// function is a pure transformation of its arguments.
package clock

import (
	"errors"

	"github.com/google/uuid"
)

// ReplicaID is a 128-bit opaque identifier assigned once per replica
// instance. It is backed by a UUID purely for its bit layout and textual
// form; the kernel never interprets it as a time-based or random UUID.
type ReplicaID [16]byte

// NewReplicaID generates a fresh, unique ReplicaID. The kernel itself never
// calls this — ReplicaID assignment is a construction-time decision made by
// the embedding host — but it is provided for hosts that have no better
// source of identity.
func NewReplicaID() ReplicaID {
	var r ReplicaID
	copy(r[:], uuid.New()[:])
	return r
}

// ParseReplicaID parses the canonical UUID string form of a ReplicaID.
func ParseReplicaID(s string) (ReplicaID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ReplicaID{}, err
	}
	var r ReplicaID
	copy(r[:], u[:])
	return r, nil
}

func (r ReplicaID) String() string {
	return uuid.UUID(r).String()
}

// IsZero reports whether r is the zero-value ReplicaID.
func (r ReplicaID) IsZero() bool {
	return r == ReplicaID{}
}

// ErrReplicaIDBufferShort is returned by DecodeReplicaID when the supplied
// buffer is shorter than the 16-byte encoded width.
var ErrReplicaIDBufferShort = errors.New("replica id buffer too short")

// EncodeReplicaID writes the little-endian wire form of r into buff, which
// must be at least 16 bytes.
func EncodeReplicaID(r ReplicaID, buff []byte) {
	copy(buff, r[:])
}

// DecodeReplicaID reads a ReplicaID from the front of buff.
func DecodeReplicaID(buff []byte) (ReplicaID, error) {
	if len(buff) < len(ReplicaID{}) {
		return ReplicaID{}, ErrReplicaIDBufferShort
	}
	var r ReplicaID
	copy(r[:], buff[:16])
	return r, nil
}

// ReplicaIDSize is the encoded width of a ReplicaID, used by callers
// computing fixed-width frame offsets.
const ReplicaIDSize = 16
