package window

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// --- count ---

type countRecord struct{ n atomic.Int64 }

func (r *countRecord) Reset() { r.n.Store(0) }

// CountWindow counts events per slot and sums counts over a lookback.
type CountWindow struct{ w *Window[struct{}, *countRecord] }

func NewCountWindow(slots int, slotTime time.Duration) *CountWindow {
	w := New(slots, slotTime,
		func() *countRecord { return &countRecord{} },
		func(_ struct{}, r *countRecord) { r.n.Add(1) },
		func(rs []*countRecord) any {
			var total int64
			for _, r := range rs {
				total += r.n.Load()
			}
			return total
		},
	)
	return &CountWindow{w: w}
}

func (c *CountWindow) Start()                { c.w.Start() }
func (c *CountWindow) Shutdown()             { c.w.Shutdown() }
func (c *CountWindow) Increment()            { c.w.NewEvent(struct{}{}) }
func (c *CountWindow) Query(lookback int) int64 { return c.w.Query(lookback).(int64) }

// --- sum ---

type sumRecord struct{ bits atomic.Uint64 }

func (r *sumRecord) Reset() { r.bits.Store(0) }

func (r *sumRecord) add(v float64) {
	for {
		old := r.bits.Load()
		newV := math.Float64frombits(old) + v
		if r.bits.CompareAndSwap(old, math.Float64bits(newV)) {
			return
		}
	}
}

func (r *sumRecord) value() float64 { return math.Float64frombits(r.bits.Load()) }

// SumWindow tracks a running sum of values per slot.
type SumWindow struct{ w *Window[float64, *sumRecord] }

func NewSumWindow(slots int, slotTime time.Duration) *SumWindow {
	w := New(slots, slotTime,
		func() *sumRecord { return &sumRecord{} },
		func(v float64, r *sumRecord) { r.add(v) },
		func(rs []*sumRecord) any {
			var total float64
			for _, r := range rs {
				total += r.value()
			}
			return total
		},
	)
	return &SumWindow{w: w}
}

func (s *SumWindow) Start()                    { s.w.Start() }
func (s *SumWindow) Shutdown()                 { s.w.Shutdown() }
func (s *SumWindow) Add(v float64)             { s.w.NewEvent(v) }
func (s *SumWindow) Query(lookback int) float64 { return s.w.Query(lookback).(float64) }

// --- average ---

type averageRecord struct {
	sum   atomic.Uint64
	count atomic.Int64
}

func (r *averageRecord) Reset() {
	r.sum.Store(0)
	r.count.Store(0)
}

func (r *averageRecord) add(v float64) {
	for {
		old := r.sum.Load()
		newV := math.Float64frombits(old) + v
		if r.sum.CompareAndSwap(old, math.Float64bits(newV)) {
			break
		}
	}
	r.count.Add(1)
}

// AverageWindow tracks a running sum+count per slot, per spec §4.I.
type AverageWindow struct{ w *Window[float64, *averageRecord] }

func NewAverageWindow(slots int, slotTime time.Duration) *AverageWindow {
	w := New(slots, slotTime,
		func() *averageRecord { return &averageRecord{} },
		func(v float64, r *averageRecord) { r.add(v) },
		func(rs []*averageRecord) any {
			var sum float64
			var count int64
			for _, r := range rs {
				sum += math.Float64frombits(r.sum.Load())
				count += r.count.Load()
			}
			if count == 0 {
				return 0.0
			}
			return sum / float64(count)
		},
	)
	return &AverageWindow{w: w}
}

func (a *AverageWindow) Start()                    { a.w.Start() }
func (a *AverageWindow) Shutdown()                 { a.w.Shutdown() }
func (a *AverageWindow) Add(v float64)             { a.w.NewEvent(v) }
func (a *AverageWindow) Query(lookback int) float64 { return a.w.Query(lookback).(float64) }

// --- min/max ---

type minMaxRecord struct {
	minBits atomic.Uint64
	maxBits atomic.Uint64
	hasAny  atomic.Bool
}

func (r *minMaxRecord) Reset() {
	r.minBits.Store(math.Float64bits(math.Inf(1)))
	r.maxBits.Store(math.Float64bits(math.Inf(-1)))
	r.hasAny.Store(false)
}

func (r *minMaxRecord) update(v float64) {
	r.hasAny.Store(true)
	for {
		old := r.minBits.Load()
		if v >= math.Float64frombits(old) {
			break
		}
		if r.minBits.CompareAndSwap(old, math.Float64bits(v)) {
			break
		}
	}
	for {
		old := r.maxBits.Load()
		if v <= math.Float64frombits(old) {
			break
		}
		if r.maxBits.CompareAndSwap(old, math.Float64bits(v)) {
			break
		}
	}
}

// MinMax is the query result of a MinMaxWindow.
type MinMax struct {
	Min, Max float64
	Has      bool
}

// MinMaxWindow tracks the min and max value observed per slot.
type MinMaxWindow struct{ w *Window[float64, *minMaxRecord] }

func NewMinMaxWindow(slots int, slotTime time.Duration) *MinMaxWindow {
	w := New(slots, slotTime,
		func() *minMaxRecord {
			r := &minMaxRecord{}
			r.Reset()
			return r
		},
		func(v float64, r *minMaxRecord) { r.update(v) },
		func(rs []*minMaxRecord) any {
			result := MinMax{Min: math.Inf(1), Max: math.Inf(-1)}
			for _, r := range rs {
				if !r.hasAny.Load() {
					continue
				}
				result.Has = true
				if v := math.Float64frombits(r.minBits.Load()); v < result.Min {
					result.Min = v
				}
				if v := math.Float64frombits(r.maxBits.Load()); v > result.Max {
					result.Max = v
				}
			}
			return result
		},
	)
	return &MinMaxWindow{w: w}
}

func (m *MinMaxWindow) Start()                   { m.w.Start() }
func (m *MinMaxWindow) Shutdown()                { m.w.Shutdown() }
func (m *MinMaxWindow) Observe(v float64)        { m.w.NewEvent(v) }
func (m *MinMaxWindow) Query(lookback int) MinMax { return m.w.Query(lookback).(MinMax) }

// --- percentile ---

// percentileRecord is a per-slot bounded-size sketch: a fixed-capacity
// reservoir sample. A true lock-free reservoir is significantly more
// involved than the spec's "tolerate concurrent update/read, imprecision
// acceptable" bar calls for here, so this record uses a narrow mutex
// around its small fixed-size buffer rather than per-field atomics —
// documented as a deliberate simplification in DESIGN.md.
type percentileRecord struct {
	mu       sync.Mutex
	capacity int
	values   []float64
	seen     int64
	rng      func() float64
}

func newPercentileRecord(capacity int, rng func() float64) *percentileRecord {
	return &percentileRecord{capacity: capacity, rng: rng}
}

func (r *percentileRecord) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = r.values[:0]
	r.seen = 0
}

func (r *percentileRecord) update(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen++
	if len(r.values) < r.capacity {
		r.values = append(r.values, v)
		return
	}
	j := int(r.rng() * float64(r.seen))
	if j < r.capacity {
		r.values[j] = v
	}
}

func (r *percentileRecord) snapshot() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.values))
	copy(out, r.values)
	return out
}

// PercentileWindow estimates percentiles from bounded-size per-slot
// reservoir sketches merged across the queried lookback.
type PercentileWindow struct {
	w   *Window[float64, *percentileRecord]
	cap int
}

// NewPercentileWindow builds a percentile window whose per-slot sketch
// holds at most sketchCapacity samples. rng supplies uniform draws in
// [0,1) for reservoir replacement, e.g. (*lcgrand.LCG).Float64.
func NewPercentileWindow(slots int, slotTime time.Duration, sketchCapacity int, rng func() float64) *PercentileWindow {
	w := New(slots, slotTime,
		func() *percentileRecord { return newPercentileRecord(sketchCapacity, rng) },
		func(v float64, r *percentileRecord) { r.update(v) },
		func(rs []*percentileRecord) any {
			var merged []float64
			for _, r := range rs {
				merged = append(merged, r.snapshot()...)
			}
			sort.Float64s(merged)
			return merged
		},
	)
	return &PercentileWindow{w: w, cap: sketchCapacity}
}

func (p *PercentileWindow) Start()        { p.w.Start() }
func (p *PercentileWindow) Shutdown()     { p.w.Shutdown() }
func (p *PercentileWindow) Observe(v float64) { p.w.NewEvent(v) }

// Percentile returns the value at the given percentile (0-100) of the
// merged, sorted sample set over lookback slots. Returns (0, false) if no
// samples are present.
func (p *PercentileWindow) Percentile(lookback int, pct float64) (float64, bool) {
	sorted := p.w.Query(lookback).([]float64)
	if len(sorted) == 0 {
		return 0, false
	}
	idx := int(pct / 100 * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx], true
}
