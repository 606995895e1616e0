package hashutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDRangeSplitterWorkedExample(t *testing.T) {
	s := NewUUIDRangeSplitter(22)
	shard, err := s.ShardFor("A0000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Equal(t, 10, shard)
}

func TestUUIDRangeSplitterRejectsInvalidUUID(t *testing.T) {
	s := NewUUIDRangeSplitter(22)
	_, err := s.ShardFor("not-a-uuid")
	assert.Error(t, err)
}

func TestUUIDRangeSplitterIsMonotoneInStringOrder(t *testing.T) {
	s := NewUUIDRangeSplitter(22)

	ids := []string{
		"00000000-0000-0000-0000-000000000000",
		"10000000-0000-0000-0000-000000000000",
		"50000000-0000-0000-0000-000000000000",
		"90000000-0000-0000-0000-000000000000",
		"D0000000-0000-0000-0000-000000000000",
	}

	prev := -1
	for _, id := range ids {
		shard, err := s.ShardFor(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, shard, prev, "shard must be non-decreasing as the UUID string increases")
		prev = shard
	}
}

func TestUUIDRangeSplitterClampsTopShardToKMinusOne(t *testing.T) {
	s := NewUUIDRangeSplitter(4)
	shard, err := s.ShardFor("ffffffff-ffff-ffff-ffff-ffffffffffff")
	require.NoError(t, err)
	assert.Equal(t, 3, shard)
}
