package pipe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowshard/core/lcgrand"
)

func TestExactSamplerSelectsExactlyMWhenNMatchesActualLength(t *testing.T) {
	n, m := 100, 7
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}

	src := NewCollection(items)
	sampler := NewExactSampler[int](src, n, m, lcgrand.New(42))
	assert.Len(t, drainSync[int](t, sampler), m)
}

func TestExactSamplerSelectsNothingWhenMIsZero(t *testing.T) {
	src := NewCollection([]int{1, 2, 3})
	sampler := NewExactSampler[int](src, 3, 0, lcgrand.New(1))
	assert.Empty(t, drainSync[int](t, sampler))
}

func TestPortionSamplerNeverSelectsWithZeroProbability(t *testing.T) {
	src := NewCollection([]int{1, 2, 3, 4, 5})
	sampler := NewPortionSampler[int](src, 0, lcgrand.New(7))
	assert.Empty(t, drainSync[int](t, sampler))
}

func TestPortionSamplerAlwaysSelectsWithProbabilityOne(t *testing.T) {
	src := NewCollection([]int{1, 2, 3, 4, 5})
	sampler := NewPortionSampler[int](src, 1, lcgrand.New(7))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, drainSync[int](t, sampler))
}
