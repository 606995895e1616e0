// Package schedule implements the longest-processing-time-first static job
// scheduler used across pipeline construction for load balancing (spec
// §4.J), e.g. distributing per-file download jobs across worker slots in
// the multi-file read orchestrator.
package schedule

import (
	"container/heap"
	"sort"
)

// Job is a unit of work with a non-negative weight (e.g. file size,
// estimated processing cost).
type Job struct {
	ID     string
	Weight float64
}

// workerLoad is a min-heap entry tracking one worker's accumulated weight.
type workerLoad struct {
	index int
	total float64
	jobs  []Job
}

type loadHeap []*workerLoad

func (h loadHeap) Len() int            { return len(h) }
func (h loadHeap) Less(i, j int) bool  { return h[i].total < h[j].total }
func (h loadHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *loadHeap) Push(x any)         { *h = append(*h, x.(*workerLoad)) }
func (h *loadHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Schedule assigns jobs to k workers using longest-processing-time-first
// bin packing: sort jobs by weight descending, then repeatedly assign the
// next job to the currently least-loaded worker (min-heap by accumulated
// weight). Each returned worker's job list is itself in descending weight
// order. Guarantees max-worker load <= (4/3) * optimal.
//
// With k == 0, the result is always empty — including when jobs is
// non-empty, in which case the jobs are silently discarded. This mirrors
// the "no workers to assign to" case documented in spec §4.J.
func Schedule(jobs []Job, k int) [][]Job {
	if k <= 0 {
		return [][]Job{}
	}

	sorted := make([]Job, len(jobs))
	copy(sorted, jobs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })

	h := make(loadHeap, k)
	for i := range h {
		h[i] = &workerLoad{index: i}
	}
	heap.Init(&h)

	for _, j := range sorted {
		least := heap.Pop(&h).(*workerLoad)
		least.total += j.Weight
		least.jobs = append(least.jobs, j)
		heap.Push(&h, least)
	}

	result := make([][]Job, k)
	for _, w := range h {
		result[w.index] = w.jobs
	}
	for i := range result {
		if result[i] == nil {
			result[i] = []Job{}
		}
	}
	return result
}
