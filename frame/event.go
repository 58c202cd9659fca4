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

// Event is the kernel's authoritative, append-only record of one accepted
// command's effect (spec §3). Reserved preserves, verbatim, any trailing
// bytes past the last field this version of the codec understands — the
// conformance gate for forward compatibility (spec §4.2).
type Event struct {
	ID              cid.CID
	SuiteTag        uint8
	Author          clock.ReplicaID
	CausedBy        cid.CID
	LClock          clock.LClock
	VClock          clock.VClock
	NewEntities     []cid.CID
	UpdatedEntities []cid.CID
	Reserved        []byte
}

func writeCIDList(w *writer, ids []cid.CID) {
	w.u32(uint32(len(ids)))
	for _, id := range ids {
		w.raw(id[:])
	}
}

func readCIDList(r *reader) ([]cid.CID, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]cid.CID, 0, n)
	for i := uint32(0); i < n; i++ {
		b, err := r.raw(32)
		if err != nil {
			return nil, err
		}
		var id cid.CID
		copy(id[:], b)
		out = append(out, id)
	}
	return out, nil
}

// canonicalBody writes every known field of e except ID. Events are
// never signed by the kernel, so unlike Command/Capability there is no
// includeSignature switch here.
func (e Event) canonicalBody(w *writer) {
	w.u8(e.SuiteTag)
	w.raw(e.Author[:])
	w.raw(e.CausedBy[:])
	w.u64(uint64(e.LClock))
	w.raw(clock.EncodeVClock(e.VClock, nil))
	writeCIDList(w, e.NewEntities)
	writeCIDList(w, e.UpdatedEntities)
	w.raw(e.Reserved)
}

// CanonicalForHash returns the bytes hashed to produce e.ID: every field
// except ID, with Reserved appended verbatim so unknown trailing bytes
// participate in the CID exactly as they were received.
func (e Event) CanonicalForHash() []byte {
	w := newWriter(128 + len(e.Reserved) + 32*(len(e.NewEntities)+len(e.UpdatedEntities)))
	e.canonicalBody(w)
	return w.bytes()
}

// Encode returns the full wire frame of e, including its ID.
func (e Event) Encode() []byte {
	w := newWriter(160 + len(e.Reserved) + 32*(len(e.NewEntities)+len(e.UpdatedEntities)))
	w.raw(e.ID[:])
	e.canonicalBody(w)
	return w.bytes()
}

// DecodeEvent parses a full wire frame produced by Encode. Any bytes
// remaining after the last field this codec version understands are
// captured verbatim into Reserved, never discarded.
func DecodeEvent(buf []byte) (Event, error) {
	r := newReader(buf)
	idBytes, err := r.raw(32)
	if err != nil {
		return Event{}, err
	}
	var e Event
	copy(e.ID[:], idBytes)

	suite, err := r.u8()
	if err != nil {
		return Event{}, err
	}
	e.SuiteTag = suite

	authorBytes, err := r.raw(clock.ReplicaIDSize)
	if err != nil {
		return Event{}, err
	}
	copy(e.Author[:], authorBytes)

	causedByBytes, err := r.raw(32)
	if err != nil {
		return Event{}, err
	}
	copy(e.CausedBy[:], causedByBytes)

	lc, err := r.u64()
	if err != nil {
		return Event{}, err
	}
	e.LClock = clock.LClock(lc)

	vc, n, err := clock.DecodeVClock(r.remaining())
	if err != nil {
		return Event{}, err
	}
	r.off += n
	e.VClock = vc

	newEnts, err := readCIDList(r)
	if err != nil {
		return Event{}, err
	}
	e.NewEntities = newEnts

	updEnts, err := readCIDList(r)
	if err != nil {
		return Event{}, err
	}
	e.UpdatedEntities = updEnts

	// Whatever remains is the reserved trailer: unknown-to-this-version
	// bytes preserved verbatim so re-serialization is bit-exact (spec §4.2).
	e.Reserved = append([]byte(nil), r.remaining()...)
	return e, nil
}
