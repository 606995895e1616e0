package pipe

// Sync is the pull-model stage contract (spec §4.B). The consumer drives
// the stage one item at a time: Start before the first Next/Peek, Next to
// advance, Peek to look ahead without advancing, Close exactly once
// (idempotent) to release resources including the upstream stage.
//
// Single-threaded consumer model: no concurrent Next/Peek on one stage.
// Once Next returns ok=false (end-of-stream), every subsequent Next and
// Peek call on that stage must also return ok=false.
type Sync[T any] interface {
	Start() error

	// Next advances and returns the next item. ok is false at end of
	// stream; err is non-nil only on failure, never simultaneously with a
	// valid item.
	Next() (item T, ok bool, err error)

	// Peek returns the next item without advancing. It never propagates
	// Interrupted: if interrupted, implementations must re-assert the
	// signal and report end-of-stream instead.
	Peek() (item T, ok bool, err error)

	// Progress is a monotone non-decreasing fraction in [0,1] once Started.
	Progress() float32

	Close() error
}

// baseState is embedded by concrete sync stages to track lifecycle state
// and the one-item lookahead buffer required for Peek, following the small
// composable "stageBase" idiom from the teacher's bpipes package.
type baseState[T any] struct {
	state State

	hasPeeked  bool
	peekVal    T
	peekOK     bool
	peekErr    error
	endReached bool
}

func (b *baseState[T]) started() bool { return b.state == Started || b.state == Draining }

func (b *baseState[T]) markStarted() { b.state = Started }

func (b *baseState[T]) markClosed() { b.state = Closed }

// peekFrom implements Peek generically in terms of a Next-like function,
// caching one item of lookahead. Once end-of-stream is observed it is
// cached permanently, satisfying the "null forever after null" invariant.
func (b *baseState[T]) peekFrom(next func() (T, bool, error)) (T, bool, error) {
	if b.endReached {
		var zero T
		return zero, false, nil
	}
	if !b.hasPeeked {
		b.peekVal, b.peekOK, b.peekErr = next()
		b.hasPeeked = true
		if !b.peekOK && b.peekErr == nil {
			b.endReached = true
		}
	}
	return b.peekVal, b.peekOK, b.peekErr
}

// nextFrom drains the peek buffer first, then falls through to next.
func (b *baseState[T]) nextFrom(next func() (T, bool, error)) (T, bool, error) {
	if b.endReached {
		var zero T
		return zero, false, nil
	}
	if b.hasPeeked {
		b.hasPeeked = false
		v, ok, err := b.peekVal, b.peekOK, b.peekErr
		if !ok && err == nil {
			b.endReached = true
		}
		return v, ok, err
	}
	v, ok, err := next()
	if !ok && err == nil {
		b.endReached = true
	}
	return v, ok, err
}
