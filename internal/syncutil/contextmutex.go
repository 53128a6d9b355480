// Package syncutil provides keyed locking primitives for per-entity
// critical sections.
package syncutil

import (
	"context"
	"hash/fnv"
	"sync"
)

// shardCount is the fixed number of lock shards. Memory stays bounded no
// matter how many distinct keys are locked; keys that hash to the same
// shard contend with each other.
const shardCount = 256

// ContextShardedMutex is a pool of channel-based mutexes keyed by string.
// Acquisition respects context cancellation, so a caller waiting on a
// busy key can bail out when its request deadline expires.
//
// The zero value is ready to use.
type ContextShardedMutex struct {
	initOnce sync.Once
	shards   []chan struct{}
}

// NewContextShardedMutex creates a context-aware sharded mutex.
func NewContextShardedMutex() *ContextShardedMutex {
	m := &ContextShardedMutex{}
	m.init()
	return m
}

func (m *ContextShardedMutex) init() {
	m.initOnce.Do(func() {
		m.shards = make([]chan struct{}, shardCount)
		for i := range m.shards {
			ch := make(chan struct{}, 1)
			ch <- struct{}{} // starts unlocked
			m.shards[i] = ch
		}
	})
}

// LockContext acquires the lock for key, blocking until it is available
// or ctx is done. On success it returns the unlock function, which the
// caller must invoke exactly once. On cancellation it returns ctx's error
// and the lock is not held.
func (m *ContextShardedMutex) LockContext(ctx context.Context, key string) (func(), error) {
	m.init()
	ch := m.shards[shardFor(key)]

	select {
	case <-ch:
		return func() { ch <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}
