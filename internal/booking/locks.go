package booking

import (
	"sort"
	"sync"

	"innkeeper/internal/sharding"
)

const lockShardCount = 16

// noPaymentSentinel stands in for an absent payment id in lock keys, so a
// request without a payment attempt still dedups per order.
const noPaymentSentinel = "none"

// LockKey derives the dedup slot identifier for a (payment, order) pair.
func LockKey(paymentID, orderID string) string {
	if paymentID == "" {
		paymentID = noPaymentSentinel
	}
	return paymentID + ":" + orderID
}

type lockShard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// LockManager admits at most one in-flight pipeline run per lock key. It is
// a pure in-memory concurrent map with atomic check-and-insert semantics;
// it performs no I/O and holds nothing across process restarts.
type LockManager struct {
	shards [lockShardCount]lockShard
}

// NewLockManager constructs an empty lock manager.
func NewLockManager() *LockManager {
	m := &LockManager{}
	for i := range m.shards {
		m.shards[i].keys = make(map[string]struct{})
	}
	return m
}

func (m *LockManager) shardFor(key string) *lockShard {
	return &m.shards[sharding.ShardFor(key, lockShardCount)]
}

// TryAcquire atomically inserts the key, returning true iff no entry existed.
// A false return leaves the existing entry untouched and is not an error:
// another run is already in flight for this booking.
func (m *LockManager) TryAcquire(paymentID, orderID string) bool {
	key := LockKey(paymentID, orderID)
	shard := m.shardFor(key)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, held := shard.keys[key]; held {
		return false
	}
	shard.keys[key] = struct{}{}
	return true
}

// Release removes the key. Releasing an absent key is a no-op.
func (m *LockManager) Release(paymentID, orderID string) {
	key := LockKey(paymentID, orderID)
	shard := m.shardFor(key)

	shard.mu.Lock()
	delete(shard.keys, key)
	shard.mu.Unlock()
}

// Has reports whether the key is currently held.
func (m *LockManager) Has(paymentID, orderID string) bool {
	key := LockKey(paymentID, orderID)
	shard := m.shardFor(key)

	shard.mu.Lock()
	_, held := shard.keys[key]
	shard.mu.Unlock()
	return held
}

// ActiveKeys returns all held lock keys, sorted.
func (m *LockManager) ActiveKeys() []string {
	keys := make([]string, 0)
	for i := range m.shards {
		shard := &m.shards[i]
		shard.mu.Lock()
		for key := range shard.keys {
			keys = append(keys, key)
		}
		shard.mu.Unlock()
	}
	sort.Strings(keys)
	return keys
}
