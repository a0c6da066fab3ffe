package collation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadSequences(t *testing.T) {
	out := PadSequences([][]int32{{1, 2, 3}, {4}, {}}, 5, 9)
	require.Len(t, out, 3)
	assert.Equal(t, []int32{1, 2, 3, 9, 9}, out[0])
	assert.Equal(t, []int32{4, 9, 9, 9, 9}, out[1])
	assert.Equal(t, []int32{9, 9, 9, 9, 9}, out[2])
}

func TestPadSequences_LongerThanMax(t *testing.T) {
	// an input longer than maxLength stretches the batch instead of truncating
	out := PadSequences([][]int32{{1, 2, 3, 4}, {5}}, 2, 0)
	assert.Equal(t, []int32{1, 2, 3, 4}, out[0])
	assert.Equal(t, []int32{5, 0, 0, 0}, out[1])
}

func TestPadSamples(t *testing.T) {
	out := PadSamples([][]float32{{0.5, -0.5}, {1}}, 4, 0)
	assert.Equal(t, []float32{0.5, -0.5, 0, 0}, out[0])
	assert.Equal(t, []float32{1, 0, 0, 0}, out[1])
}

func TestCeilToNearest(t *testing.T) {
	assert.Equal(t, 0, ceilToNearest(0, 8))
	assert.Equal(t, 8, ceilToNearest(1, 8))
	assert.Equal(t, 8, ceilToNearest(8, 8))
	assert.Equal(t, 16, ceilToNearest(9, 8))
	assert.Equal(t, 5, ceilToNearest(5, 1))
}
