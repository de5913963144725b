// Package router implements the pool's key-to-connection-index mapping:
// hash a key to a partition over N connections, and split a batch of keys
// into per-partition lists preserving encounter order.
package router

import "crypto/md5"

// IndexOf hashes key to a partition index in [0, n). n must be > 0.
// n == 1 always returns 0 without hashing.
func IndexOf(key string, n int) int {
	if n == 1 {
		return 0
	}
	sum := md5.Sum([]byte(key))
	// First 4 bytes of the digest, big-endian.
	h := uint32(sum[0])<<24 | uint32(sum[1])<<16 | uint32(sum[2])<<8 | uint32(sum[3])
	return int(h % uint32(n))
}

// Distribute buckets keys into n partitions by IndexOf, preserving
// encounter order within each partition. The result always has exactly n
// elements, some of which may be empty.
func Distribute(keys []string, n int) [][]string {
	partitions := make([][]string, n)
	for i := range partitions {
		partitions[i] = nil
	}
	for _, k := range keys {
		idx := IndexOf(k, n)
		partitions[idx] = append(partitions[idx], k)
	}
	return partitions
}
