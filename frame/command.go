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

// Command is a client intent authored locally: a reference to the
// capability it presents, a proposed lclock, an opaque runtime payload,
// and a signature by the capability's holder (spec §3). VClock is the
// advisory clock discussed in spec §9's Open Questions — a command may
// optionally carry the authoring replica's view of causality, which the
// kernel merges into its own draft clock on commit but never trusts
// blindly.
type Command struct {
	ID           cid.CID
	SuiteTag     uint8
	Author       clock.ReplicaID
	CapabilityID cid.CID
	LClock       clock.LClock
	VClock       clock.VClock
	Payload      []byte
	Signature    []byte
}

// canonicalBody writes every field of c except ID, in field order. When
// includeSignature is false this is exactly "canonical_payload_bytes(cmd)"
// from spec §4.7 step 5: the bytes the capability holder actually signs,
// which excludes both id and signature.
func (c Command) canonicalBody(w *writer, includeSignature bool) {
	w.u8(c.SuiteTag)
	w.raw(c.Author[:])
	w.raw(c.CapabilityID[:])
	w.u64(uint64(c.LClock))
	w.raw(clock.EncodeVClock(c.VClock, nil))
	w.blob(c.Payload)
	if includeSignature {
		w.blob(c.Signature)
	}
}

// CanonicalPayloadBytes returns the bytes the capability holder signs:
// every field except ID and Signature.
func (c Command) CanonicalPayloadBytes() []byte {
	w := newWriter(64 + len(c.Payload))
	c.canonicalBody(w, false)
	return w.bytes()
}

// CanonicalForHash returns the bytes hashed to produce c.ID: every field
// except ID, including the now-finalized Signature.
func (c Command) CanonicalForHash() []byte {
	w := newWriter(96 + len(c.Payload) + len(c.Signature))
	c.canonicalBody(w, true)
	return w.bytes()
}

// Encode returns the full wire frame of c, including its ID.
func (c Command) Encode() []byte {
	w := newWriter(128 + len(c.Payload) + len(c.Signature))
	w.raw(c.ID[:])
	c.canonicalBody(w, true)
	return w.bytes()
}

// DecodeCommand parses a full wire frame produced by Encode.
func DecodeCommand(buf []byte) (Command, error) {
	r := newReader(buf)
	idBytes, err := r.raw(32)
	if err != nil {
		return Command{}, err
	}
	var c Command
	copy(c.ID[:], idBytes)

	suite, err := r.u8()
	if err != nil {
		return Command{}, err
	}
	c.SuiteTag = suite

	authorBytes, err := r.raw(clock.ReplicaIDSize)
	if err != nil {
		return Command{}, err
	}
	copy(c.Author[:], authorBytes)

	capBytes, err := r.raw(32)
	if err != nil {
		return Command{}, err
	}
	copy(c.CapabilityID[:], capBytes)

	lc, err := r.u64()
	if err != nil {
		return Command{}, err
	}
	c.LClock = clock.LClock(lc)

	vc, n, err := clock.DecodeVClock(r.remaining())
	if err != nil {
		return Command{}, err
	}
	r.off += n
	c.VClock = vc

	payload, err := r.blob()
	if err != nil {
		return Command{}, err
	}
	c.Payload = append([]byte(nil), payload...)

	sig, err := r.blob()
	if err != nil {
		return Command{}, err
	}
	c.Signature = append([]byte(nil), sig...)
	return c, nil
}
