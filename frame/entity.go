/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package frame

import (
	"github.com/scrappyAI/amulet-core/cid"
	"github.com/scrappyAI/amulet-core/clock"
)

// Entity is a header plus opaque body bytes (spec §3). Version
// strictly increments by one per update of the same entity id; LClock
// strictly increases per replica per update; if Parent is set and present
// locally, Parent.LClock <= self.LClock.
type Entity struct {
	ID      cid.CID
	Version uint64
	LClock  clock.LClock
	Parent  *cid.CID
	Body    []byte
}

// canonicalBody writes every field of e except ID, in field order, to w.
// This is the shared core between the pre-CID hash input (id always
// excluded) and the full wire frame (id prefixed back on).
func (e Entity) canonicalBody(w *writer) {
	w.u64(e.Version)
	w.u64(uint64(e.LClock))
	w.optional(e.Parent != nil, func() {
		w.raw(e.Parent[:])
	})
	w.blob(e.Body)
}

// CanonicalForHash returns the bytes hashed to produce e.ID: every field
// except ID itself.
func (e Entity) CanonicalForHash() []byte {
	w := newWriter(64 + len(e.Body))
	e.canonicalBody(w)
	return w.bytes()
}

// Encode returns the full wire frame of e, including its ID.
func (e Entity) Encode() []byte {
	w := newWriter(96 + len(e.Body))
	w.raw(e.ID[:])
	e.canonicalBody(w)
	return w.bytes()
}

// DecodeEntity parses a full wire frame produced by Encode.
func DecodeEntity(buf []byte) (Entity, error) {
	r := newReader(buf)
	idBytes, err := r.raw(32)
	if err != nil {
		return Entity{}, err
	}
	var e Entity
	copy(e.ID[:], idBytes)

	version, err := r.u64()
	if err != nil {
		return Entity{}, err
	}
	e.Version = version

	lc, err := r.u64()
	if err != nil {
		return Entity{}, err
	}
	e.LClock = clock.LClock(lc)

	hasParent, err := r.optional()
	if err != nil {
		return Entity{}, err
	}
	if hasParent {
		pb, err := r.raw(32)
		if err != nil {
			return Entity{}, err
		}
		var p cid.CID
		copy(p[:], pb)
		e.Parent = &p
	}

	body, err := r.blob()
	if err != nil {
		return Entity{}, err
	}
	e.Body = append([]byte(nil), body...)
	return e, nil
}
