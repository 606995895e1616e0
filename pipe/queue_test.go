package pipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowshard/core/pipeerr"
)

func TestBlockingQueuePutThenTakeRoundTrips(t *testing.T) {
	q := NewBlockingQueue[int](1)
	require.NoError(t, q.Put(context.Background(), Item(5)))

	got, err := q.Take(context.Background())
	require.NoError(t, err)
	assert.True(t, got.IsItem())
	assert.Equal(t, 5, got.Value())
}

func TestBlockingQueuePutAfterCloseReturnsQueueError(t *testing.T) {
	q := NewBlockingQueue[int](1)
	q.Close()

	err := q.Put(context.Background(), Item(1))
	assert.True(t, pipeerr.IsKind(err, pipeerr.Queue))
}

func TestBlockingQueuePutInterruptedByContext(t *testing.T) {
	q := NewBlockingQueue[int](1)
	require.NoError(t, q.Put(context.Background(), Item(1))) // fill the single slot

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Put(ctx, Item(2))
	assert.ErrorIs(t, err, pipeerr.Interrupted)
}

func TestBlockingQueueTryTakeDoesNotBlockWhenEmpty(t *testing.T) {
	q := NewBlockingQueue[int](1)
	_, ok := q.TryTake()
	assert.False(t, ok)
}
