/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package cryptoprovider defines the capability set the kernel is
// parameterized over at construction time: hashing for content addressing
// and signature verification for commands. The kernel never signs
// anything and never selects an algorithm beyond checking that a suite
// tag matches; all algorithm dispatch lives inside a Provider
// implementation.
package cryptoprovider

import "errors"

// Suite tags recognized on the wire. Values beyond HYBRID are
// provider-defined; the kernel only ever compares tags for equality.
const (
	SuiteClassic uint8 = 0
	SuiteFIPS    uint8 = 1
	SuitePQC     uint8 = 2
	SuiteHybrid  uint8 = 3
)

// DigestSize is the fixed width of a content identifier / hash digest.
const DigestSize = 32

// ErrProvider wraps any failure a Provider implementation wants to surface
// that isn't a plain "signature didn't verify" boolean — e.g. an
// unsupported suite tag or a malformed key. The kernel propagates this
// opaquely as KernelError CryptoProviderError.
var ErrProvider = errors.New("crypto provider error")

// Provider is the capability set the kernel consumes. Implementations
// must be safe for concurrent use if the embedding host shares one
// Provider across multiple Kernel instances, though the kernel itself
// calls Provider synchronously and never concurrently with itself.
type Provider interface {
	// Hash returns the 32-byte content digest of data.
	Hash(data []byte) ([DigestSize]byte, error)

	// Verify reports whether signature is a valid signature over message
	// under pubkey, using the algorithm selected by suiteTag. An
	// unrecognized suiteTag is an error, not a false result.
	Verify(suiteTag uint8, pubkey, message, signature []byte) (bool, error)
}
