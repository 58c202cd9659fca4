/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package rights

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicaliseImplications(t *testing.T) {
	require.Equal(t, WRITE|READ, Canonicalise(WRITE))
	require.Equal(t, DELEGATE|READ, Canonicalise(DELEGATE))
	require.Equal(t, ISSUE|READ, Canonicalise(ISSUE))
	require.Equal(t, REVOKE|READ, Canonicalise(REVOKE))
	require.Equal(t, READ, Canonicalise(READ))
}

func TestCanonicaliseIdempotent(t *testing.T) {
	for _, r := range []Mask{READ, WRITE, DELEGATE, ISSUE, REVOKE, WRITE | DELEGATE, 0} {
		once := Canonicalise(r)
		twice := Canonicalise(once)
		require.Equal(t, once, twice)
	}
}

func TestCanonicalisePreservesReservedAndOverlayBits(t *testing.T) {
	r := WRITE | Mask(1<<10) | Mask(1<<20)
	c := Canonicalise(r)
	require.NotZero(t, c&Mask(1<<10))
	require.NotZero(t, c&Mask(1<<20))
}

func TestSufficient(t *testing.T) {
	require.True(t, Sufficient(WRITE, WRITE))
	require.True(t, Sufficient(WRITE, READ)) // WRITE implies READ
	require.False(t, Sufficient(READ, WRITE))
}

func TestDelegationAdmissible(t *testing.T) {
	require.True(t, DelegationAdmissible(DELEGATE|WRITE, READ))
	require.True(t, DelegationAdmissible(DELEGATE|WRITE, WRITE))
	require.False(t, DelegationAdmissible(WRITE, READ)) // parent lacks DELEGATE
	require.False(t, DelegationAdmissible(DELEGATE|READ, WRITE)) // child exceeds parent
}
