package shuffle

import (
	"sort"
	"strconv"
	"strings"

	"github.com/flowshard/core/pipeerr"
)

// HostPort is an immutable (host, port) pair, total-ordered by host
// lexicographic order then port, per spec §3.
type HostPort struct {
	Host string
	Port int
}

// Compare returns negative/zero/positive following (host, then port)
// ordering, the canonical comparator used to assign shard ids.
func (h HostPort) Compare(o HostPort) int {
	if c := strings.Compare(h.Host, o.Host); c != 0 {
		return c
	}
	return h.Port - o.Port
}

func (h HostPort) String() string {
	return h.Host + ":" + strconv.Itoa(h.Port)
}

// ParseHostPort parses "HOST:PORT", rejecting an absent or non-numeric
// port with a Validation error, per spec §6.
func ParseHostPort(s string) (HostPort, error) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 || idx == len(s)-1 {
		return HostPort{}, pipeerr.New(pipeerr.Validation, "host:port missing port: "+s)
	}
	host := s[:idx]
	portStr := s[idx+1:]
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return HostPort{}, pipeerr.Wrap(pipeerr.Validation, "non-numeric port: "+s, err)
	}
	return HostPort{Host: host, Port: port}, nil
}

// CanonicalOrder returns workers sorted into the canonical order used to
// assign shard ids: ascending by HostPort.Compare. Sorting is stable so
// the result is deterministic regardless of the input list's order,
// satisfying the "invariant under reordering" requirement from §4.H/§8.
func CanonicalOrder(workers []HostPort) []HostPort {
	sorted := make([]HostPort, len(workers))
	copy(sorted, workers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Compare(sorted[j]) < 0 })
	return sorted
}

// ShardID returns the shard id assigned to worker self within the workers
// list: self's position in the canonical (sorted) order of workers,
// irrespective of self's or workers' position in the input list. Returns
// (0, false) if self is not present in workers.
func ShardID(workers []HostPort, self HostPort) (int, bool) {
	sorted := CanonicalOrder(workers)
	for i, w := range sorted {
		if w == self {
			return i, true
		}
	}
	return 0, false
}

// GetWorkerShardID returns the shard id of workers[i]: its position in the
// canonical sorted order, which is a bijection on {0, ..., len(workers)-1}
// and is invariant under any reordering of the workers list, per §4.H/§8.
func GetWorkerShardID(workers []HostPort, i int) (int, error) {
	if i < 0 || i >= len(workers) {
		return 0, pipeerr.New(pipeerr.Validation, "worker index out of range")
	}
	id, ok := ShardID(workers, workers[i])
	if !ok {
		return 0, pipeerr.New(pipeerr.Internal, "worker not found in canonical order")
	}
	return id, nil
}
