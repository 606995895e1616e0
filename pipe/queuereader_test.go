package pipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueReaderDrainsItemsThenEndOfData(t *testing.T) {
	q := NewBlockingQueue[int](4)
	require.NoError(t, q.Put(context.Background(), Item(1)))
	require.NoError(t, q.Put(context.Background(), Item(2)))
	require.NoError(t, q.Put(context.Background(), EndOfData[int]()))

	r := NewQueueReader[int](context.Background(), q)
	assert.Equal(t, []int{1, 2}, drainSync[int](t, r))
}

func TestQueueReaderPropagatesErrorItem(t *testing.T) {
	boom := assertableErr{"reader boom"}
	q := NewBlockingQueue[int](4)
	require.NoError(t, q.Put(context.Background(), ErrorItem[int](boom)))

	r := NewQueueReader[int](context.Background(), q)
	require.NoError(t, r.Start())

	_, ok, err := r.Next()
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
}

func TestQueueReaderPeekBusyWaitsForItemWithoutConsuming(t *testing.T) {
	q := NewBlockingQueue[int](4)
	r := NewQueueReader[int](context.Background(), q)
	require.NoError(t, r.Start())

	go func() {
		require.NoError(t, q.Put(context.Background(), Item(42)))
	}()

	v, ok, err := r.Peek()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, v)

	v, ok, err = r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, v)
}
