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
	"github.com/scrappyAI/amulet-core/rights"
)

// Capability is a signed bearer token granting rights over a target
// entity under a given crypto suite (spec §3). If Expiry is set, it is
// compared against the current local lclock at validation time, never
// the lclock the capability was minted at.
type Capability struct {
	ID       cid.CID
	SuiteTag uint8
	Holder   []byte // public key
	Target   cid.CID
	Rights   rights.Mask
	Nonce    uint64
	Expiry   *clock.LClock
	Kind     uint16
	Signature []byte
}

func (c Capability) canonicalBody(w *writer, includeSignature bool) {
	w.u8(c.SuiteTag)
	w.blob(c.Holder)
	w.raw(c.Target[:])
	w.u32(uint32(c.Rights))
	w.u64(c.Nonce)
	w.optional(c.Expiry != nil, func() {
		w.u64(uint64(*c.Expiry))
	})
	w.u16(c.Kind)
	if includeSignature {
		w.blob(c.Signature)
	}
}

// CanonicalForHash returns the bytes hashed to produce c.ID: every field
// except ID, including the signature (the CID is the stable identifier of
// the already-signed object; only the pre-signature digest omits it).
func (c Capability) CanonicalForHash() []byte {
	w := newWriter(64 + len(c.Holder) + len(c.Signature))
	c.canonicalBody(w, true)
	return w.bytes()
}

// Encode returns the full wire frame of c, including its ID.
func (c Capability) Encode() []byte {
	w := newWriter(96 + len(c.Holder) + len(c.Signature))
	w.raw(c.ID[:])
	c.canonicalBody(w, true)
	return w.bytes()
}

// DecodeCapability parses a full wire frame produced by Encode.
func DecodeCapability(buf []byte) (Capability, error) {
	r := newReader(buf)
	idBytes, err := r.raw(32)
	if err != nil {
		return Capability{}, err
	}
	var c Capability
	copy(c.ID[:], idBytes)

	suite, err := r.u8()
	if err != nil {
		return Capability{}, err
	}
	c.SuiteTag = suite

	holder, err := r.blob()
	if err != nil {
		return Capability{}, err
	}
	c.Holder = append([]byte(nil), holder...)

	target, err := r.raw(32)
	if err != nil {
		return Capability{}, err
	}
	copy(c.Target[:], target)

	rb, err := r.u32()
	if err != nil {
		return Capability{}, err
	}
	c.Rights = rights.Mask(rb)

	nonce, err := r.u64()
	if err != nil {
		return Capability{}, err
	}
	c.Nonce = nonce

	hasExpiry, err := r.optional()
	if err != nil {
		return Capability{}, err
	}
	if hasExpiry {
		e, err := r.u64()
		if err != nil {
			return Capability{}, err
		}
		lc := clock.LClock(e)
		c.Expiry = &lc
	}

	kind, err := r.u16()
	if err != nil {
		return Capability{}, err
	}
	c.Kind = kind

	sig, err := r.blob()
	if err != nil {
		return Capability{}, err
	}
	c.Signature = append([]byte(nil), sig...)
	return c, nil
}
