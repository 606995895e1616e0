package pipe

// DelegatePipe forwards every operation to an upstream Sync[T] stage. It is
// the base for wrapper stages that only want to override one or two
// operations, following the teacher's small-composition idiom (stageBase /
// Middleware) rather than deep inheritance.
type DelegatePipe[T any] struct {
	Upstream Sync[T]
}

func NewDelegatePipe[T any](upstream Sync[T]) DelegatePipe[T] {
	return DelegatePipe[T]{Upstream: upstream}
}

func (d DelegatePipe[T]) Start() error              { return d.Upstream.Start() }
func (d DelegatePipe[T]) Next() (T, bool, error)    { return d.Upstream.Next() }
func (d DelegatePipe[T]) Peek() (T, bool, error)    { return d.Upstream.Peek() }
func (d DelegatePipe[T]) Progress() float32         { return d.Upstream.Progress() }
func (d DelegatePipe[T]) Close() error              { return d.Upstream.Close() }

// FilterBase pulls upstream until shouldSelect(item) passes. Progress is
// delegated to upstream since the filtered count isn't predictable ahead
// of time.
type FilterBase[T any] struct {
	DelegatePipe[T]
	shouldSelect func(T) bool
}

func NewFilter[T any](upstream Sync[T], shouldSelect func(T) bool) *FilterBase[T] {
	return &FilterBase[T]{DelegatePipe: NewDelegatePipe(upstream), shouldSelect: shouldSelect}
}

func (f *FilterBase[T]) Next() (T, bool, error) {
	for {
		v, ok, err := f.Upstream.Next()
		if err != nil || !ok {
			return v, ok, err
		}
		if f.shouldSelect(v) {
			return v, true, nil
		}
	}
}

// Peek reports the next item that would pass the filter, without consuming
// it from upstream beyond what upstream's own Peek/Next contract allows;
// since upstream has only one-item lookahead, Peek here pulls (and
// discards) rejected items via Next, caching the first accepted one.
func (f *FilterBase[T]) Peek() (T, bool, error) {
	for {
		v, ok, err := f.Upstream.Peek()
		if err != nil || !ok {
			return v, ok, err
		}
		if f.shouldSelect(v) {
			return v, true, nil
		}
		// discard the rejected peeked item and keep scanning
		if _, _, err := f.Upstream.Next(); err != nil {
			var zero T
			return zero, false, err
		}
	}
}

// Callback is a side-effecting pass-through stage: fn runs on every item
// that flows through, the item itself is forwarded unchanged.
type Callback[T any] struct {
	DelegatePipe[T]
	fn func(T)
}

func NewCallback[T any](upstream Sync[T], fn func(T)) *Callback[T] {
	return &Callback[T]{DelegatePipe: NewDelegatePipe(upstream), fn: fn}
}

func (c *Callback[T]) Next() (T, bool, error) {
	v, ok, err := c.Upstream.Next()
	if ok {
		c.fn(v)
	}
	return v, ok, err
}

// Map transforms each upstream item of type In into an Out. It is not in
// the original component list as a named type but is the natural
// generalization DelegatePipe-style stages need once items change type
// across a stage boundary (§4.E "single-input single-output transformations").
type Map[In, Out any] struct {
	upstream Sync[In]
	fn       func(In) (Out, error)
}

func NewMap[In, Out any](upstream Sync[In], fn func(In) (Out, error)) *Map[In, Out] {
	return &Map[In, Out]{upstream: upstream, fn: fn}
}

func (m *Map[In, Out]) Start() error { return m.upstream.Start() }

func (m *Map[In, Out]) Next() (Out, bool, error) {
	v, ok, err := m.upstream.Next()
	if err != nil || !ok {
		var zero Out
		return zero, ok, err
	}
	out, err := m.fn(v)
	if err != nil {
		var zero Out
		return zero, false, err
	}
	return out, true, nil
}

// Peek is approximated by transforming upstream's Peek; if fn is not
// idempotent-safe to call twice this may invoke it again on the
// subsequent Next, which is documented as acceptable for the Map stage
// specifically (it is not one of the core samplers/order validators that
// require strict at-most-once semantics).
func (m *Map[In, Out]) Peek() (Out, bool, error) {
	v, ok, err := m.upstream.Peek()
	if err != nil || !ok {
		var zero Out
		return zero, ok, err
	}
	out, err := m.fn(v)
	if err != nil {
		var zero Out
		return zero, false, err
	}
	return out, true, nil
}

func (m *Map[In, Out]) Progress() float32 { return m.upstream.Progress() }

func (m *Map[In, Out]) Close() error { return m.upstream.Close() }
