package pipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowshard/core/pipeerr"
)

func cmpInt(a, b int) int { return a - b }

func TestOrderValidationPassesAlreadySortedInput(t *testing.T) {
	src := NewCollection([]int{1, 2, 2, 3})
	ov := NewOrderValidation[int](src, cmpInt)
	assert.Equal(t, []int{1, 2, 2, 3}, drainSync[int](t, ov))
}

func TestOrderValidationFailsOnRegressionThenLatchesEnd(t *testing.T) {
	src := NewCollection([]int{1, 5, 3, 9})
	ov := NewOrderValidation[int](src, cmpInt)
	require.NoError(t, ov.Start())

	v, ok, err := ov.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok, err = ov.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, v)

	_, ok, err = ov.Next()
	assert.False(t, ok)
	assert.True(t, pipeerr.IsKind(err, pipeerr.OutOfOrder))

	for i := 0; i < 2; i++ {
		_, ok, err := ov.Next()
		assert.False(t, ok)
		assert.NoError(t, err, "must report end-of-stream, not re-raise the error, after the first failure")
	}
}
