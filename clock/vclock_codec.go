/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package clock

import (
	"encoding/binary"
	"errors"
)

// pairSize is the encoded width of one (ReplicaID, LClock) pair: 16 bytes
// of replica id followed by 8 bytes of little-endian lclock.
const pairSize = ReplicaIDSize + 8

// ErrVClockBufferShort is returned by DecodeVClock when buff is truncated
// relative to its own declared count prefix.
var ErrVClockBufferShort = errors.New("vclock buffer too short")

// EncodedLen returns the number of bytes EncodeVClock will write for vc.
func EncodedLen(vc VClock) int {
	return 4 + len(vc)*pairSize
}

// EncodeVClock appends the canonical wire form of vc to buff and returns
// the result: a u32 little-endian count prefix followed by that many
// (ReplicaID, LClock) pairs sorted ascending by ReplicaID bytes (spec §9
// Open Questions).
func EncodeVClock(vc VClock, buff []byte) []byte {
	pairs := sortedPairs(vc)
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(pairs)))
	buff = append(buff, countBuf[:]...)
	for _, p := range pairs {
		buff = append(buff, p.Replica[:]...)
		var tbuf [8]byte
		binary.LittleEndian.PutUint64(tbuf[:], uint64(p.Time))
		buff = append(buff, tbuf[:]...)
	}
	return buff
}

// DecodeVClock reads a VClock from the front of buff and returns the
// decoded map along with the number of bytes consumed.
func DecodeVClock(buff []byte) (VClock, int, error) {
	if len(buff) < 4 {
		return nil, 0, ErrVClockBufferShort
	}
	count := binary.LittleEndian.Uint32(buff)
	off := 4
	need := off + int(count)*pairSize
	if len(buff) < need {
		return nil, 0, ErrVClockBufferShort
	}
	vc := make(VClock, count)
	for i := uint32(0); i < count; i++ {
		var r ReplicaID
		copy(r[:], buff[off:off+ReplicaIDSize])
		off += ReplicaIDSize
		t := binary.LittleEndian.Uint64(buff[off : off+8])
		off += 8
		vc[r] = LClock(t)
	}
	return vc, off, nil
}
