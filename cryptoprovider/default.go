/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package cryptoprovider

import (
	"crypto/ed25519"
	"fmt"

	"github.com/minio/highwayhash"
)

// hashKey is the fixed 32-byte key HighwayHash is keyed with. Every
// replica in a deployment must use the same key (or the same Default
// provider) to compute identical CIDs; the key is not a secret, it simply
// turns a keyed hash family into a deterministic content-addressing hash.
var hashKey = [highwayhash.Size]byte{
	0x61, 0x6d, 0x75, 0x6c, 0x65, 0x74, 0x2d, 0x63,
	0x6f, 0x72, 0x65, 0x2d, 0x68, 0x69, 0x67, 0x68,
	0x77, 0x61, 0x79, 0x68, 0x61, 0x73, 0x68, 0x2d,
	0x6b, 0x65, 0x79, 0x2d, 0x76, 0x30, 0x2d, 0x21,
}

// hybridMACSize is the width of the extra HighwayHash-keyed MAC layered
// over an ed25519 signature under SuiteHybrid; combined with the 64-byte
// ed25519 signature this yields the 80-byte HYBRID signature of spec
// seeds S2/S3.
const hybridMACSize = 16

// Default is the kernel's reference Provider: HighwayHash-256 for content
// hashing (grounded in the teacher's jsonfilter processor, which uses
// HighwayHash-128 for fast keyed field dedup) and ed25519 for signature
// verification. SuiteFIPS reuses the same algorithms as SuiteClassic — no
// FIPS-certified module is available in the dependency pack, so this is a
// deliberate stand-in documented in DESIGN.md, not a behavioral claim.
// SuitePQC likewise falls back to ed25519 verification: no post-quantum
// signature library is present in the retrieved pack.
type Default struct{}

var _ Provider = Default{}

// Hash implements Provider.
func (Default) Hash(data []byte) ([DigestSize]byte, error) {
	h, err := highwayhash.New256(hashKey[:])
	if err != nil {
		return [DigestSize]byte{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if _, err := h.Write(data); err != nil {
		return [DigestSize]byte{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	var out [DigestSize]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Verify implements Provider. For SuiteHybrid, signature must be the
// 64-byte ed25519 signature followed by a 16-byte HighwayHash-keyed MAC
// over (message || ed25519 signature); any other length is rejected
// without attempting verification (spec seed S3).
func (d Default) Verify(suiteTag uint8, pubkey, message, signature []byte) (bool, error) {
	switch suiteTag {
	case SuiteClassic, SuiteFIPS, SuitePQC:
		return verifyEd25519(pubkey, message, signature)
	case SuiteHybrid:
		return d.verifyHybrid(pubkey, message, signature)
	default:
		return false, fmt.Errorf("%w: unrecognized suite tag %d", ErrProvider, suiteTag)
	}
}

func verifyEd25519(pubkey, message, signature []byte) (bool, error) {
	if len(pubkey) != ed25519.PublicKeySize {
		return false, fmt.Errorf("%w: invalid ed25519 public key length %d", ErrProvider, len(pubkey))
	}
	if len(signature) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(ed25519.PublicKey(pubkey), message, signature), nil
}

func (Default) verifyHybrid(pubkey, message, signature []byte) (bool, error) {
	if len(signature) != ed25519.SignatureSize+hybridMACSize {
		return false, nil
	}
	sig := signature[:ed25519.SignatureSize]
	mac := signature[ed25519.SignatureSize:]

	ok, err := verifyEd25519(pubkey, message, sig)
	if err != nil || !ok {
		return false, err
	}

	h, err := highwayhash.New128(hashKey[:])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	h.Write(message)
	h.Write(sig)
	want := h.Sum(nil)
	if len(want) != hybridMACSize {
		return false, fmt.Errorf("%w: unexpected hybrid mac width %d", ErrProvider, len(want))
	}
	return constantTimeEqual(want, mac), nil
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
