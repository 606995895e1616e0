package pipe

import "github.com/flowshard/core/pipeerr"

// OrderValidation maintains a one-item buffer and fails with OutOfOrder if
// cmp(prev, cur) indicates the stream regressed, per §4.E. cmp follows the
// standard three-way comparator convention: negative if a < b, zero if
// equal, positive if a > b.
type OrderValidation[T any] struct {
	DelegatePipe[T]
	cmp     func(a, b T) int
	hasPrev bool
	prev    T
	failed  bool
}

func NewOrderValidation[T any](upstream Sync[T], cmp func(a, b T) int) *OrderValidation[T] {
	return &OrderValidation[T]{DelegatePipe: NewDelegatePipe(upstream), cmp: cmp}
}

func (o *OrderValidation[T]) Next() (T, bool, error) {
	if o.failed {
		var zero T
		return zero, false, nil
	}
	v, ok, err := o.Upstream.Next()
	if err != nil || !ok {
		return v, ok, err
	}
	if o.hasPrev && o.cmp(o.prev, v) > 0 {
		o.failed = true
		var zero T
		return zero, false, pipeerr.New(pipeerr.OutOfOrder, "item regressed relative to previous item")
	}
	o.prev = v
	o.hasPrev = true
	return v, true, nil
}
