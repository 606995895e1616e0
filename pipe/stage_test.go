package pipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterBaseSelectsOnlyMatchingItems(t *testing.T) {
	src := NewCollection([]int{1, 2, 3, 4, 5, 6})
	f := NewFilter[int](src, func(v int) bool { return v%2 == 0 })
	assert.Equal(t, []int{2, 4, 6}, drainSync[int](t, f))
}

func TestFilterBasePeekSkipsRejectedItems(t *testing.T) {
	src := NewCollection([]int{1, 3, 4, 5})
	f := NewFilter[int](src, func(v int) bool { return v%2 == 0 })
	require.NoError(t, f.Start())

	v, ok, err := f.Peek()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, v)

	v, ok, err = f.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, v)

	_, ok, err = f.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCallbackForwardsItemsAndRunsSideEffect(t *testing.T) {
	var seen []int
	src := NewCollection([]int{1, 2, 3})
	cb := NewCallback[int](src, func(v int) { seen = append(seen, v) })
	assert.Equal(t, []int{1, 2, 3}, drainSync[int](t, cb))
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestMapTransformsEachItem(t *testing.T) {
	src := NewCollection([]int{1, 2, 3})
	m := NewMap[int, string](src, func(v int) (string, error) {
		return string(rune('a' + v)), nil
	})
	assert.Equal(t, []string{"b", "c", "d"}, drainSync[string](t, m))
}
