/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package store

import (
	"github.com/cespare/xxhash/v2"

	"github.com/scrappyAI/amulet-core/cid"
)

// shardCount is the number of buckets a shardedIndex spreads its entries
// across. The store is already guarded by one mutex per spec §4.6 ("all
// mutations performed inside a single critical section"), so sharding
// buys nothing for concurrency here; it exists to bound the size of any
// one bucket's internal map as the registry grows, the same tradeoff the
// teacher's IngestCache makes with its single bolt bucket replaced by
// many in-memory ones.
const shardCount = 16

// shardedIndex is a CID-keyed map split into shardCount buckets, bucketed
// by a fast non-cryptographic hash of the CID (xxhash), never the CID's
// own cryptographic hash value. It is never used in place of CID
// equality — only to choose which bucket to search.
type shardedIndex[V any] struct {
	buckets [shardCount]map[cid.CID]V
}

func newShardedIndex[V any]() *shardedIndex[V] {
	idx := &shardedIndex[V]{}
	for i := range idx.buckets {
		idx.buckets[i] = make(map[cid.CID]V)
	}
	return idx
}

func (idx *shardedIndex[V]) bucket(id cid.CID) map[cid.CID]V {
	h := xxhash.Sum64(id[:])
	return idx.buckets[h%shardCount]
}

func (idx *shardedIndex[V]) get(id cid.CID) (V, bool) {
	v, ok := idx.bucket(id)[id]
	return v, ok
}

func (idx *shardedIndex[V]) put(id cid.CID, v V) {
	idx.bucket(id)[id] = v
}

func (idx *shardedIndex[V]) len() int {
	n := 0
	for _, b := range idx.buckets {
		n += len(b)
	}
	return n
}

// each calls fn for every entry across all shards. Order is unspecified.
func (idx *shardedIndex[V]) each(fn func(cid.CID, V)) {
	for _, b := range idx.buckets {
		for k, v := range b {
			fn(k, v)
		}
	}
}
