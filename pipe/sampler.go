package pipe

// randSource is the minimal surface samplers need; satisfied by
// *lcgrand.LCG (kept as an interface here so pipe doesn't have to import
// lcgrand, avoiding a dependency edge the package doesn't otherwise need).
type randSource interface {
	Float64() float64
}

// PortionSampler emits each upstream item independently with probability p.
type PortionSampler[T any] struct {
	DelegatePipe[T]
	p   float64
	rng randSource
}

func NewPortionSampler[T any](upstream Sync[T], p float64, rng randSource) *PortionSampler[T] {
	return &PortionSampler[T]{DelegatePipe: NewDelegatePipe(upstream), p: p, rng: rng}
}

func (s *PortionSampler[T]) Next() (T, bool, error) {
	for {
		v, ok, err := s.Upstream.Next()
		if err != nil || !ok {
			return v, ok, err
		}
		if s.rng.Float64() < s.p {
			return v, true, nil
		}
	}
}

// ExactSampler selects exactly m items out of a declared total n using the
// "remainingToSample/remaining" online Bernoulli trial: it is exact iff n
// matches the actual upstream length. Each input item is accepted with
// probability remainingToSample/remaining at the moment it's considered,
// which gives every item uniform probability m/n of selection overall.
type ExactSampler[T any] struct {
	DelegatePipe[T]
	remaining        int
	remainingToSample int
	rng              randSource
}

func NewExactSampler[T any](upstream Sync[T], n, m int, rng randSource) *ExactSampler[T] {
	return &ExactSampler[T]{
		DelegatePipe:      NewDelegatePipe(upstream),
		remaining:         n,
		remainingToSample: m,
		rng:               rng,
	}
}

func (s *ExactSampler[T]) Next() (T, bool, error) {
	for {
		if s.remainingToSample <= 0 {
			var zero T
			return zero, false, nil
		}
		v, ok, err := s.Upstream.Next()
		if err != nil || !ok {
			return v, ok, err
		}
		accept := s.remaining <= 0 || s.rng.Float64() < float64(s.remainingToSample)/float64(s.remaining)
		s.remaining--
		if accept {
			s.remainingToSample--
			return v, true, nil
		}
	}
}
