package hashutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrongHash64IsDeterministic(t *testing.T) {
	a := StrongHash64([]byte("hello"))
	b := StrongHash64([]byte("hello"))
	assert.Equal(t, a, b)
}

func TestStrongHash64DiffersAcrossKeys(t *testing.T) {
	assert.NotEqual(t, StrongHash64([]byte("a")), StrongHash64([]byte("b")))
}

func TestShardIsAlwaysInRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		key := []byte{byte(i), byte(i >> 8)}
		shard := Shard(key, 7)
		assert.GreaterOrEqual(t, shard, 0)
		assert.Less(t, shard, 7)
	}
}

func TestShardWithNonPositiveNReturnsZero(t *testing.T) {
	assert.Equal(t, 0, Shard([]byte("x"), 0))
	assert.Equal(t, 0, Shard([]byte("x"), -5))
}
