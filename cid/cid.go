/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package cid implements content addressing: a pure function from a
// canonically serialized object's bytes to a 32-byte content identifier,
// via the kernel's configured crypto provider.
package cid

import (
	"encoding/hex"

	"github.com/opencontainers/go-digest"

	"github.com/scrappyAI/amulet-core/cryptoprovider"
)

// CID is a 32-byte content identifier: the hash of an object's canonical
// serialization with the object's own id field omitted from the input.
// Two distinct objects must never share a CID in honest operation.
type CID [32]byte

// Zero is the zero-value CID, used as a sentinel for "not yet assigned".
var Zero CID

// IsZero reports whether c is the zero-value CID.
func (c CID) IsZero() bool {
	return c == Zero
}

// Compute hashes canonical (the object's canonical byte form, with id and
// any pre-signature-only fields already excluded by the caller) through
// provider and returns the resulting CID.
func Compute(provider cryptoprovider.Provider, canonical []byte) (CID, error) {
	digestBytes, err := provider.Hash(canonical)
	if err != nil {
		return Zero, err
	}
	return CID(digestBytes), nil
}

// String renders c in the "sha256:<hex>" digest form used throughout the
// retrieved pack's containerd member for content-addressed identifiers —
// purely a display convenience; the kernel never parses this form back
// into a CID, it always carries the raw 32 bytes.
func (c CID) String() string {
	d := digest.NewDigestFromEncoded(digest.SHA256, hex.EncodeToString(c[:]))
	return d.String()
}

// Bytes returns the CID's raw 32 bytes.
func (c CID) Bytes() []byte {
	return c[:]
}

// FromBytes copies a 32-byte slice into a CID, erroring if the length is
// wrong.
func FromBytes(b []byte) (CID, error) {
	if len(b) != 32 {
		return Zero, errWrongLength
	}
	var c CID
	copy(c[:], b)
	return c, nil
}
