package sharding

import "hash/fnv"

// ShardFor assigns a key to one of n shards using FNV-1a. The same key always
// lands on the same shard, which is what lets per-shard locking preserve
// atomicity per key.
func ShardFor(key string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}
