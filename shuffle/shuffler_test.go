package shuffle

import (
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowshard/core/hashutil"
)

// byteCollector gathers OnItem/OnDone/OnError notifications for assertions.
type byteCollector struct {
	mu    sync.Mutex
	items [][]byte
	done  bool
	err   error
	wg    sync.WaitGroup
}

func newByteCollector() *byteCollector {
	c := &byteCollector{}
	c.wg.Add(1)
	return c
}

func (c *byteCollector) OnItem(v []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(v))
	copy(cp, v)
	c.items = append(c.items, cp)
}

func (c *byteCollector) OnDone() {
	c.mu.Lock()
	c.done = true
	c.mu.Unlock()
	c.wg.Done()
}

func (c *byteCollector) OnError(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.wg.Done()
}

// TestShufflerRepartitionsAcrossTwoWorkers exercises spec scenario 4: two
// workers, each fed a disjoint local stream, end up each holding exactly
// the items whose strong-hash shard matches their own shard id, with the
// full multiset preserved across both outputs combined.
func TestShufflerRepartitionsAcrossTwoWorkers(t *testing.T) {
	w0 := HostPort{Host: "127.0.0.1", Port: 19001}
	w1 := HostPort{Host: "127.0.0.1", Port: 19002}
	workers := []HostPort{w0, w1}

	s0, err := NewShuffler(Config[[]byte]{
		Port: w0.Port, Self: w0, Workers: workers,
		Codec:        IdentityCodec(),
		KeyExtractor: func(b []byte) []byte { return b },
	})
	require.NoError(t, err)

	s1, err := NewShuffler(Config[[]byte]{
		Port: w1.Port, Self: w1, Workers: workers,
		Codec:        IdentityCodec(),
		KeyExtractor: func(b []byte) []byte { return b },
	})
	require.NoError(t, err)

	c0 := newByteCollector()
	c1 := newByteCollector()
	s0.AddListener(c0)
	s1.AddListener(c1)

	var startWG sync.WaitGroup
	startWG.Add(2)
	go func() { defer startWG.Done(); require.NoError(t, s0.Start()) }()
	go func() { defer startWG.Done(); require.NoError(t, s1.Start()) }()
	startWG.Wait()

	const total = 200
	all := make([][]byte, total)
	for i := 0; i < total; i++ {
		all[i] = []byte(strconv.Itoa(i))
	}

	// Split the input arbitrarily across the two workers: correctness must
	// not depend on which worker originally saw which item.
	for i, v := range all {
		if i%2 == 0 {
			s0.OnItem(v)
		} else {
			s1.OnItem(v)
		}
	}
	s0.OnDone()
	s1.OnDone()

	c0.wg.Wait()
	c1.wg.Wait()

	require.NoError(t, s0.Close())
	require.NoError(t, s1.Close())

	assert.True(t, c0.done)
	assert.True(t, c1.done)
	assert.NoError(t, c0.err)
	assert.NoError(t, c1.err)

	for _, v := range c0.items {
		shard := hashutil.Shard(v, len(workers))
		assert.Equal(t, 0, shard, "item %q landed in worker 0's output but hashes to shard %d", v, shard)
	}
	for _, v := range c1.items {
		shard := hashutil.Shard(v, len(workers))
		assert.Equal(t, 1, shard, "item %q landed in worker 1's output but hashes to shard %d", v, shard)
	}

	got := append(append([]string(nil), toStrings(c0.items)...), toStrings(c1.items)...)
	sort.Strings(got)
	want := toStrings(all)
	sort.Strings(want)
	assert.Equal(t, want, got, "combined output must be exactly the input multiset")
}

func toStrings(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}

// TestShufflerSingleWorkerIsPassthrough covers n<=1: no networking, every
// local item is delivered straight to the shuffler's own listeners.
func TestShufflerSingleWorkerIsPassthrough(t *testing.T) {
	self := HostPort{Host: "127.0.0.1", Port: 19003}
	s, err := NewShuffler(Config[[]byte]{
		Port: self.Port, Self: self, Workers: []HostPort{self},
		Codec:        IdentityCodec(),
		KeyExtractor: func(b []byte) []byte { return b },
	})
	require.NoError(t, err)

	c := newByteCollector()
	s.AddListener(c)
	require.NoError(t, s.Start())

	s.OnItem([]byte("a"))
	s.OnItem([]byte("b"))
	s.OnDone()

	c.wg.Wait()
	require.NoError(t, s.Close())

	assert.ElementsMatch(t, []string{"a", "b"}, toStrings(c.items))
}
