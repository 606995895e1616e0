// Package window implements the sliding-window telemetry engine: a
// circular buffer of time-bucketed slot records, rotated by a scheduled
// pulse task, queried by combining the last N slots through a
// variant-specific reducer (spec §4.I).
package window

import (
	"sync"
	"sync/atomic"
	"time"
)

// Record is a per-slot aggregate that must tolerate concurrent Update and
// Read without data corruption; the engine does not serialize access to a
// slot's fields itself (§5: "lock-free per-field atomic updates").
type Record interface {
	Reset()
}

// Window is the generic sliding-window engine. E is the event type fed to
// newEvent; R is the per-slot record type, created fresh by newRecord and
// mutated in place by update.
type Window[E any, R Record] struct {
	slots     []R
	slotTime  time.Duration
	writePos  atomic.Int64
	update    func(E, R)
	reduce    func([]R) any

	stop    chan struct{}
	stopped atomic.Bool
	wg      sync.WaitGroup
}

// New builds a Window with the given slot count and duration. newRecord
// constructs a fresh, zeroed record; update applies one event to a slot;
// reduce combines a slice of slots (oldest to newest, except for the
// full-window case — see Query) into the variant's result type.
func New[E any, R Record](slots int, slotTime time.Duration, newRecord func() R, update func(E, R), reduce func([]R) any) *Window[E, R] {
	if slots < 1 {
		slots = 1
	}
	buf := make([]R, slots)
	for i := range buf {
		buf[i] = newRecord()
	}
	return &Window[E, R]{
		slots:    buf,
		slotTime: slotTime,
		update:   update,
		reduce:   reduce,
		stop:     make(chan struct{}),
	}
}

// Start launches the pulse task: every slotTime it advances the write
// position by one (mod len(slots)) and resets the record at the new
// position before it begins accepting events, so the active write slot is
// always the most-recently-rotated one.
func (w *Window[E, R]) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.slotTime)
		defer ticker.Stop()
		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
				n := int64(len(w.slots))
				next := (w.writePos.Load() + 1) % n
				w.slots[next].Reset()
				w.writePos.Add(1)
			}
		}
	}()
}

// NewEvent applies e to the current write slot via the configured
// combinator. A small window of imprecision around slot rotation (an
// event landing just before/after a rotation) is acceptable per spec.
func (w *Window[E, R]) NewEvent(e E) {
	pos := w.writePos.Load() % int64(len(w.slots))
	w.update(e, w.slots[pos])
}

// Query combines the last lookback slot records (oldest to newest) through
// the configured reducer. lookback is clamped to [0, len(slots)]. The
// full-window case (lookback == len(slots)) passes the native buffer
// straight to reduce with no reordering copy — correct because every
// built-in reducer (sum/count/average/min-max/percentile-merge) is
// order-independent over the complete slot set.
func (w *Window[E, R]) Query(lookback int) any {
	n := len(w.slots)
	if lookback < 0 {
		lookback = 0
	}
	if lookback > n {
		lookback = n
	}
	if lookback == n {
		return w.reduce(w.slots)
	}
	if lookback == 0 {
		return w.reduce(nil)
	}

	pos := int(w.writePos.Load() % int64(n))
	ordered := make([]R, lookback)
	for i := 0; i < lookback; i++ {
		idx := ((pos-(lookback-1)+i)%n + n) % n
		ordered[i] = w.slots[idx]
	}
	return w.reduce(ordered)
}

// Shutdown cancels the pulse task and waits for it to stop.
func (w *Window[E, R]) Shutdown() {
	if w.stopped.CompareAndSwap(false, true) {
		close(w.stop)
	}
	w.wg.Wait()
}
