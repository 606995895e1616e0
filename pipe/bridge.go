package pipe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/flowshard/core/pipeerr"
)

// Supplier lazily produces a sync pipe. SyncToAsync instantiates one per
// claimed unit of work so construction cost (opening a file, a stream) is
// paid only by the worker that actually drains it.
type Supplier[T any] func() (Sync[T], error)

// SyncToAsync drains an ordered list of lazy sync pipe suppliers across
// threadCount worker goroutines, emitting every item via notifyItem with
// no ordering guarantee between workers (§4.F, §5). Any pipe error cancels
// the remaining peers and becomes the stage's single notifyError.
type SyncToAsync[T any] struct {
	suppliers []Supplier[T]
	threads   int
	next      atomic.Int64

	fan     Fanout[T]
	cancel  *CancelFlag
	started atomic.Bool
	done    atomic.Int64
	wg      sync.WaitGroup

	mu       sync.Mutex
	inFlight map[int]Sync[T]
}

func NewSyncToAsync[T any](suppliers []Supplier[T], threadCount int) *SyncToAsync[T] {
	if threadCount < 1 {
		threadCount = 1
	}
	return &SyncToAsync[T]{
		suppliers: suppliers,
		threads:   threadCount,
		cancel:    NewCancelFlag(),
		inFlight:  make(map[int]Sync[T]),
	}
}

func (s *SyncToAsync[T]) AddListener(l Listener[T]) { s.fan.Add(l) }

func (s *SyncToAsync[T]) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}
	if len(s.suppliers) == 0 {
		go s.fan.NotifyDone()
		return nil
	}
	for w := 0; w < s.threads; w++ {
		s.wg.Add(1)
		go s.runWorker()
	}
	go func() {
		s.wg.Wait()
		if !s.cancel.IsSet() && !s.fan.IsTerminal() {
			s.fan.NotifyDone()
		}
	}()
	return nil
}

func (s *SyncToAsync[T]) claim() (int, Supplier[T], bool) {
	idx := int(s.next.Add(1)) - 1
	if idx >= len(s.suppliers) {
		return 0, nil, false
	}
	return idx, s.suppliers[idx], true
}

func (s *SyncToAsync[T]) runWorker() {
	defer s.wg.Done()
	for {
		if s.cancel.IsSet() {
			return
		}
		idx, supplier, ok := s.claim()
		if !ok {
			return
		}
		if err := s.drain(idx, supplier); err != nil {
			if !s.cancel.IsSet() {
				s.cancel.Set()
				s.fan.NotifyError(pipeerr.NewInternal(err))
			}
			return
		}
	}
}

func (s *SyncToAsync[T]) drain(idx int, supplier Supplier[T]) error {
	p, err := supplier()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.inFlight[idx] = p
	s.mu.Unlock()
	defer func() {
		p.Close()
		s.mu.Lock()
		delete(s.inFlight, idx)
		s.mu.Unlock()
	}()

	if err := p.Start(); err != nil {
		return err
	}

	for {
		if s.cancel.IsSet() {
			return nil
		}
		v, ok, err := p.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if s.cancel.IsSet() {
			return nil
		}
		s.fan.NotifyItem(v)
		s.done.Add(1)
	}
}

func (s *SyncToAsync[T]) Progress() float32 {
	total := len(s.suppliers)
	if total == 0 {
		return 1.0
	}
	claimed := int(s.next.Load())
	if claimed > total {
		claimed = total
	}
	return float32(claimed) / float32(total)
}

// Close cancels pulls, closes every in-flight sync pipe, and joins workers.
func (s *SyncToAsync[T]) Close() error {
	s.cancel.Set()
	s.mu.Lock()
	for _, p := range s.inFlight {
		p.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

// AsyncToSync bridges an Async[T] upstream to the sync pull model. It
// registers a listener that enqueues frames into a bounded queue of size
// capacity, so a slow sync consumer provides backpressure all the way to
// the async producer (the producer's notifyItem blocks on Put).
type AsyncToSync[T any] struct {
	baseState[T]
	upstream Async[T]
	q        *BlockingQueue[T]
	cancel   *CancelFlag
	started  bool
}

func NewAsyncToSync[T any](upstream Async[T], capacity int) *AsyncToSync[T] {
	a := &AsyncToSync[T]{
		upstream: upstream,
		q:        NewBlockingQueue[T](capacity),
		cancel:   NewCancelFlag(),
	}
	upstream.AddListener(ListenerFunc(
		func(v T) {
			if a.cancel.IsSet() {
				return
			}
			_ = a.q.Put(context.Background(), Item(v))
		},
		func() {
			_ = a.q.Put(context.Background(), EndOfData[T]())
		},
		func(err error) {
			_ = a.q.Put(context.Background(), ErrorItem[T](err))
		},
	))
	return a
}

func (a *AsyncToSync[T]) Start() error {
	a.markStarted()
	if a.started {
		return nil
	}
	a.started = true
	return a.upstream.Start()
}

func (a *AsyncToSync[T]) rawNext() (T, bool, error) {
	qi, err := a.q.Take(context.Background())
	if err != nil {
		var zero T
		return zero, false, err
	}
	switch {
	case qi.IsEnd():
		var zero T
		return zero, false, nil
	case qi.IsError():
		var zero T
		return zero, false, qi.Err()
	default:
		return qi.Value(), true, nil
	}
}

func (a *AsyncToSync[T]) Next() (T, bool, error) {
	return a.nextFrom(func() (T, bool, error) { return a.rawNext() })
}

func (a *AsyncToSync[T]) Peek() (T, bool, error) {
	return a.peekFrom(func() (T, bool, error) { return a.rawNext() })
}

func (a *AsyncToSync[T]) Progress() float32 { return a.upstream.Progress() }

// Close sets the cancel flag so the listener stops enqueueing, drops
// pending frames, closes the queue to unblock any waiter, and closes
// upstream.
func (a *AsyncToSync[T]) Close() error {
	a.markClosed()
	a.cancel.Set()
	for {
		if _, ok := a.q.TryTake(); !ok {
			break
		}
	}
	a.q.Close()
	return a.upstream.Close()
}
