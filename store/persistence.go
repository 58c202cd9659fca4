/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package store

import (
	"encoding/binary"
	"fmt"

	"github.com/gofrs/flock"
	bolt "go.etcd.io/bbolt"

	"github.com/scrappyAI/amulet-core/cid"
	"github.com/scrappyAI/amulet-core/clock"
	"github.com/scrappyAI/amulet-core/frame"
	"github.com/scrappyAI/amulet-core/runtime"
)

var (
	bucketEntities     = []byte("entities")
	bucketCapabilities = []byte("capabilities")
	bucketRevoked      = []byte("revoked")
	bucketEvents       = []byte("events")
	bucketMeta         = []byte("meta")

	metaKeyLClock = []byte("local_lc")
	metaKeyVClock = []byte("local_vc")
)

// persistence is the bbolt-backed durability layer for a Store. A
// gofrs/flock exclusive lock is held over the lifetime of the handle so a
// second process cannot open the same data file concurrently — the
// process-level expression of spec §5's "the state store is the only
// shared resource ... never leaked".
type persistence struct {
	lock *flock.Flock
	db   *bolt.DB
}

func openPersistence(path string) (*persistence, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("store: acquiring replica lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("store: replica data file %s is already held by another process", path)
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("store: opening replica database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketEntities, bucketCapabilities, bucketRevoked, bucketEvents, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		lock.Unlock()
		return nil, fmt.Errorf("store: initializing buckets: %w", err)
	}

	return &persistence{lock: lock, db: db}, nil
}

func (p *persistence) Close() error {
	dbErr := p.db.Close()
	lockErr := p.lock.Unlock()
	if dbErr != nil {
		return dbErr
	}
	return lockErr
}

// loadAll reads every persisted bucket back into memory. Called once, at
// Store construction, before any apply/ingest call is possible.
func (p *persistence) loadAll() (entities map[cid.CID]frame.Entity, caps map[cid.CID]frame.Capability, revoked map[cid.CID]struct{}, events []frame.Event, lc clock.LClock, vc clock.VClock, err error) {
	entities = make(map[cid.CID]frame.Entity)
	caps = make(map[cid.CID]frame.Capability)
	revoked = make(map[cid.CID]struct{})

	err = p.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketEntities); b != nil {
			if cerr := b.ForEach(func(k, v []byte) error {
				ent, derr := frame.DecodeEntity(v)
				if derr != nil {
					return derr
				}
				entities[ent.ID] = ent
				return nil
			}); cerr != nil {
				return cerr
			}
		}
		if b := tx.Bucket(bucketCapabilities); b != nil {
			if cerr := b.ForEach(func(k, v []byte) error {
				c, derr := frame.DecodeCapability(v)
				if derr != nil {
					return derr
				}
				caps[c.ID] = c
				return nil
			}); cerr != nil {
				return cerr
			}
		}
		if b := tx.Bucket(bucketRevoked); b != nil {
			if cerr := b.ForEach(func(k, v []byte) error {
				c, derr := cid.FromBytes(k)
				if derr != nil {
					return derr
				}
				revoked[c] = struct{}{}
				return nil
			}); cerr != nil {
				return cerr
			}
		}
		if b := tx.Bucket(bucketEvents); b != nil {
			if cerr := b.ForEach(func(k, v []byte) error {
				ev, derr := frame.DecodeEvent(v)
				if derr != nil {
					return derr
				}
				events = append(events, ev)
				return nil
			}); cerr != nil {
				return cerr
			}
		}
		if b := tx.Bucket(bucketMeta); b != nil {
			if v := b.Get(metaKeyLClock); v != nil {
				lc = clock.LClock(binary.LittleEndian.Uint64(v))
			}
			if v := b.Get(metaKeyVClock); v != nil {
				decoded, _, derr := clock.DecodeVClock(v)
				if derr != nil {
					return derr
				}
				vc = decoded
			}
		}
		return nil
	})
	if vc == nil {
		vc = clock.VClock{}
	}
	return
}

// commit writes one apply/ingest outcome to disk inside a single bbolt
// transaction, matching the atomicity spec §4.8 demands of the commit
// step.
func (p *persistence) commit(newEntities, updatedEntities []frame.Entity, capDeltas []runtime.CapabilityDelta, ev *frame.Event, lc clock.LClock, vc clock.VClock) error {
	return p.db.Update(func(tx *bolt.Tx) error {
		entB := tx.Bucket(bucketEntities)
		for _, e := range newEntities {
			if err := entB.Put(e.ID[:], e.Encode()); err != nil {
				return err
			}
		}
		for _, e := range updatedEntities {
			if err := entB.Put(e.ID[:], e.Encode()); err != nil {
				return err
			}
		}

		capB := tx.Bucket(bucketCapabilities)
		revB := tx.Bucket(bucketRevoked)
		for _, cd := range capDeltas {
			if cd.Revoke {
				if err := revB.Put(cd.Capability.ID[:], []byte{1}); err != nil {
					return err
				}
				continue
			}
			if err := capB.Put(cd.Capability.ID[:], cd.Capability.Encode()); err != nil {
				return err
			}
		}

		if ev != nil {
			evB := tx.Bucket(bucketEvents)
			n, err := evB.NextSequence()
			if err != nil {
				return err
			}
			var seq [8]byte
			binary.BigEndian.PutUint64(seq[:], n)
			if err := evB.Put(seq[:], ev.Encode()); err != nil {
				return err
			}
		}

		metaB := tx.Bucket(bucketMeta)
		var lcBuf [8]byte
		binary.LittleEndian.PutUint64(lcBuf[:], uint64(lc))
		if err := metaB.Put(metaKeyLClock, lcBuf[:]); err != nil {
			return err
		}
		return metaB.Put(metaKeyVClock, clock.EncodeVClock(vc, nil))
	})
}
