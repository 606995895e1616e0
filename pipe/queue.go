package pipe

import (
	"context"

	"github.com/flowshard/core/pipeerr"
)

// BlockingQueue is a bounded, cancellable FIFO used by bridges and
// QueueReader to transport QueueItem[T] values. It supports blocking Put
// (providing backpressure once full) and blocking Take, both cancellable
// via context or Close. Multi-producer/single-consumer safe.
type BlockingQueue[T any] struct {
	ch     chan QueueItem[T]
	closed *CancelFlag
}

func NewBlockingQueue[T any](capacity int) *BlockingQueue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &BlockingQueue[T]{
		ch:     make(chan QueueItem[T], capacity),
		closed: NewCancelFlag(),
	}
}

// Put blocks until there is room, the queue is closed, or ctx is done.
// Returns Interrupted on ctx cancellation, Queue error once closed.
func (q *BlockingQueue[T]) Put(ctx context.Context, item QueueItem[T]) error {
	select {
	case q.ch <- item:
		return nil
	case <-q.closed.Channel():
		return queueClosedErr()
	case <-ctx.Done():
		return pipeerr.Interrupted
	}
}

// Take blocks until an item is available, the queue is closed, or ctx is
// done.
func (q *BlockingQueue[T]) Take(ctx context.Context) (QueueItem[T], error) {
	select {
	case v, ok := <-q.ch:
		if !ok {
			return QueueItem[T]{}, queueClosedErr()
		}
		return v, nil
	case <-q.closed.Channel():
		if v, ok := q.TryTake(); ok {
			return v, nil
		}
		return QueueItem[T]{}, queueClosedErr()
	case <-ctx.Done():
		return QueueItem[T]{}, pipeerr.Interrupted
	}
}

// TryTake drains already-buffered items without blocking; used by Close to
// discard pending frames promptly.
func (q *BlockingQueue[T]) TryTake() (QueueItem[T], bool) {
	select {
	case v, ok := <-q.ch:
		return v, ok
	default:
		return QueueItem[T]{}, false
	}
}

// Close marks the queue closed; pending and future Put/Take calls observe
// it rather than blocking forever. Idempotent.
func (q *BlockingQueue[T]) Close() {
	q.closed.Set()
}

func (q *BlockingQueue[T]) IsClosed() bool { return q.closed.IsSet() }

func queueClosedErr() error {
	return pipeerr.New(pipeerr.Queue, "queue closed")
}
