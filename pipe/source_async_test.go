package pipe

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncSeqGenProducesEveryIndexExactlyOnce(t *testing.T) {
	gen := NewAsyncSeqGen(200, func(i int) int { return i }, 8)
	c := newSyncAsyncCollector()
	gen.AddListener(c)

	require.NoError(t, gen.Start())
	c.wg.Wait()

	assert.True(t, c.done)
	got := append([]int(nil), c.items...)
	sort.Ints(got)

	want := make([]int, 200)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestAsyncSeqGenWithZeroCountNotifiesDoneWithNoItems(t *testing.T) {
	gen := NewAsyncSeqGen(0, func(i int) int { return i }, 4)
	c := newSyncAsyncCollector()
	gen.AddListener(c)

	require.NoError(t, gen.Start())
	c.wg.Wait()

	assert.True(t, c.done)
	assert.Empty(t, c.items)
}
