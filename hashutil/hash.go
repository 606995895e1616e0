// Package hashutil provides the keyed strong 64-bit hash used for sharding
// (shuffler, multi-file selection) and the UUID range splitter referenced
// by spec §9's open question on case-sensitive base-22 ordering.
package hashutil

import "github.com/cespare/xxhash/v2"

// StrongHash64 computes the glossary's "strong 64-bit hash": a fixed keyed
// 64-bit hash chosen for uniformity, masked to positive before modulo.
// xxhash is the xxhash-family implementation the spec calls for, and is
// already in the example pack's dependency surface.
func StrongHash64(key []byte) uint64 {
	return xxhash.Sum64(key)
}

// Shard computes shard = StrongHash64(key) mod n, masked to a non-negative
// result as required by the glossary definition. n must be positive.
func Shard(key []byte, n int) int {
	if n <= 0 {
		return 0
	}
	h := StrongHash64(key) & (1<<63 - 1)
	return int(h % uint64(n))
}
