/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package frame implements the canonical byte layout shared by the wire
// and the content-addressing hash input for every durable kernel object:
// Entity, Capability, Command, and Event. Fixed-width integers are
// little-endian; variable-length fields are length-prefixed with a u32;
// optional fields are preceded by a one-byte presence tag. Unknown
// trailing bytes past the last known field of an Event are preserved
// verbatim into its Reserved slot (spec §4.2), so re-serializing a
// round-tripped Event reproduces its input bytes exactly. Entity,
// Capability and Command have no trailer slot: their decoders stop after
// the last known field and ignore any further bytes, so a frame carrying
// such bytes does not re-encode to its input.
package frame

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned by any decode step that runs out of bytes
// before a field is fully read, and by a presence tag that is neither 0
// nor 1. A framing failure on supposedly canonical
// bytes is treated as an attack signal by the kernel, never silenced.
var ErrShortBuffer = errors.New("frame: buffer too short")

// writer accumulates canonical bytes. It never allocates more than the
// append pattern already used throughout the teacher's entry codec.
type writer struct {
	buf []byte
}

func newWriter(hint int) *writer {
	return &writer{buf: make([]byte, 0, hint)}
}

func (w *writer) bytes() []byte { return w.buf }

func (w *writer) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// blob writes a u32-length-prefixed byte string.
func (w *writer) blob(b []byte) {
	w.u32(uint32(len(b)))
	w.raw(b)
}

// optional writes a one-byte presence tag followed by fn's output if ok.
func (w *writer) optional(ok bool, fn func()) {
	if ok {
		w.u8(1)
		fn()
	} else {
		w.u8(0)
	}
}

// reader walks canonical bytes front-to-back.
type reader struct {
	buf []byte
	off int
}

func newReader(b []byte) *reader {
	return &reader{buf: b}
}

func (r *reader) remaining() []byte {
	return r.buf[r.off:]
}

func (r *reader) need(n int) error {
	if len(r.buf)-r.off < n {
		return ErrShortBuffer
	}
	return nil
}

func (r *reader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

func (r *reader) raw(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v, nil
}

func (r *reader) blob() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	return r.raw(int(n))
}

func (r *reader) optional() (bool, error) {
	tag, err := r.u8()
	if err != nil {
		return false, err
	}
	if tag != 0 && tag != 1 {
		return false, ErrShortBuffer
	}
	return tag == 1, nil
}
