// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

package recommend

import (
	"hash/fnv"
	"sync"
)

const lockShards = 256

// keyedLocks is a fixed table of RWMutexes selected by key hash. Two keys
// may share a shard; that only costs parallelism, never correctness.
type keyedLocks struct {
	shards [lockShards]sync.RWMutex
}

func (k *keyedLocks) shard(key string) *sync.RWMutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &k.shards[h.Sum32()%lockShards]
}

// Lock takes the exclusive side for key and returns the unlock func.
func (k *keyedLocks) Lock(key string) func() {
	m := k.shard(key)
	m.Lock()
	return m.Unlock
}

// RLock takes the shared side for key and returns the unlock func.
func (k *keyedLocks) RLock(key string) func() {
	m := k.shard(key)
	m.RLock()
	return m.RUnlock
}
