package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRangeTiles(t *testing.T) {
	cases := []struct {
		total, desired int
	}{
		{1, 1}, {1, 4}, {7, 2}, {8, 4}, {10, 3}, {100, 7}, {5, 100}, {64, 64},
	}
	for _, tc := range cases {
		ranges := SplitRange(tc.total, tc.desired)
		require.NotEmpty(t, ranges, "total=%d desired=%d", tc.total, tc.desired)
		assert.LessOrEqual(t, len(ranges), tc.desired)

		// Contiguous tiling of [0, total).
		assert.Equal(t, 0, ranges[0].Start)
		for i := 1; i < len(ranges); i++ {
			assert.Equal(t, ranges[i-1].End, ranges[i].Start)
		}
		assert.Equal(t, tc.total, ranges[len(ranges)-1].End)
		for _, r := range ranges {
			assert.Positive(t, r.Len())
		}
	}
}

func TestSplitRangeCounts(t *testing.T) {
	// size = ceil(10/3) = 4, count = ceil(10/4) = 3.
	ranges := SplitRange(10, 3)
	require.Len(t, ranges, 3)
	assert.Equal(t, Range{0, 4}, ranges[0])
	assert.Equal(t, Range{4, 8}, ranges[1])
	assert.Equal(t, Range{8, 10}, ranges[2])

	// size = ceil(9/4) = 3, count = ceil(9/3) = 3: fewer tasks than
	// desired, but every task is full.
	ranges = SplitRange(9, 4)
	require.Len(t, ranges, 3)
	for _, r := range ranges {
		assert.Equal(t, 3, r.Len())
	}
}

func TestSplitRangeDegenerate(t *testing.T) {
	assert.Nil(t, SplitRange(0, 4))
	assert.Nil(t, SplitRange(-1, 4))

	ranges := SplitRange(4, 0)
	require.Len(t, ranges, 1)
	assert.Equal(t, Range{0, 4}, ranges[0])
}
