package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenseLayout(t *testing.T) {
	l := Dense(2, 3)

	assert.Equal(t, 2, l.Rank())
	assert.Equal(t, 6, l.Size())
	assert.Equal(t, 6, l.ActiveSize())
	assert.False(t, l.HasPadding())
	require.NoError(t, l.Validate())
	assert.Equal(t, []int{3, 1}, l.Strides())
}

func TestPaddedLayout(t *testing.T) {
	l, err := Padded([]int{6, 6}, []int{4, 4}, []int{1, 1})
	require.NoError(t, err)

	assert.True(t, l.HasPadding())
	assert.Equal(t, 36, l.Size())
	assert.Equal(t, 16, l.ActiveSize())

	// Active entry (0,0) sits one row and one column into the buffer.
	off, err := l.EntryOffset([]int{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 7, off)

	off, err = l.EntryOffset([]int{3, 3})
	require.NoError(t, err)
	assert.Equal(t, 28, off)
}

func TestPaddedLayoutRejectsOverflow(t *testing.T) {
	_, err := Padded([]int{4}, []int{4}, []int{1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIllegalState)
}

func TestValidateRejectsRankMismatch(t *testing.T) {
	l := MemoryLayout{Extent: []int{2, 2}, Active: []int{2}, Offset: []int{0, 0}, Order: []int{0, 1}}
	assert.ErrorIs(t, l.Validate(), ErrIllegalState)
}

func TestValidateRejectsBadOrder(t *testing.T) {
	l := Dense(2, 3)
	l.Order = []int{0, 0}
	assert.ErrorIs(t, l.Validate(), ErrIllegalState)
}

func TestEntryOffsetBounds(t *testing.T) {
	l := Dense(4)

	_, err := l.EntryOffset([]int{4})
	assert.ErrorIs(t, err, ErrIllegalState)
	_, err = l.EntryOffset([]int{0, 0})
	assert.ErrorIs(t, err, ErrIllegalState)
}

func TestColumnMajorStrides(t *testing.T) {
	l := Dense(2, 3)
	l.Order = []int{1, 0}
	require.NoError(t, l.Validate())

	assert.Equal(t, []int{1, 2}, l.Strides())

	off, err := l.EntryOffset([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 5, off)
}

func TestLayoutEqual(t *testing.T) {
	a := Dense(2, 3)
	b := Dense(2, 3)
	assert.True(t, a.Equal(b))
	assert.Empty(t, cmp.Diff(a, b))

	b.Offset[0] = 0 // unchanged
	assert.True(t, a.Equal(b))

	c := Dense(3, 2)
	assert.False(t, a.Equal(c))
}
