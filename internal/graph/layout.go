package graph

import (
	"fmt"
	"slices"
)

// MemoryLayout describes the logical shape of a port's value: a full extent,
// an active (non-padding) sub-extent, a per-dimension offset of the active
// region, and a dimension ordering from outermost to innermost. All buffer
// addressing is derived from the layout; row-major order is the default, not
// an assumption.
type MemoryLayout struct {
	Extent []int `msgpack:"extent"`
	Active []int `msgpack:"active"`
	Offset []int `msgpack:"offset"`
	Order  []int `msgpack:"order"`
}

// Vector returns a dense one-dimensional layout of n elements.
func Vector(n int) MemoryLayout {
	return Dense(n)
}

// Dense returns a layout whose active region covers the full extent, with
// zero offsets and canonical dimension order.
func Dense(extent ...int) MemoryLayout {
	l := MemoryLayout{
		Extent: slices.Clone(extent),
		Active: slices.Clone(extent),
		Offset: make([]int, len(extent)),
		Order:  make([]int, len(extent)),
	}
	for i := range l.Order {
		l.Order[i] = i
	}
	return l
}

// Padded returns a layout with explicit padding: active is the logical shape
// and offset places it inside extent. The layout is validated.
func Padded(extent, active, offset []int) (MemoryLayout, error) {
	l := MemoryLayout{
		Extent: slices.Clone(extent),
		Active: slices.Clone(active),
		Offset: slices.Clone(offset),
		Order:  make([]int, len(extent)),
	}
	for i := range l.Order {
		l.Order[i] = i
	}
	if err := l.Validate(); err != nil {
		return MemoryLayout{}, err
	}
	return l, nil
}

// Rank returns the number of dimensions.
func (l MemoryLayout) Rank() int { return len(l.Extent) }

// Size returns the total number of elements, padding included.
func (l MemoryLayout) Size() int {
	n := 1
	for _, e := range l.Extent {
		n *= e
	}
	return n
}

// ActiveSize returns the number of active (non-padding) elements.
func (l MemoryLayout) ActiveSize() int {
	n := 1
	for _, e := range l.Active {
		n *= e
	}
	return n
}

// HasPadding reports whether any dimension carries padding.
func (l MemoryLayout) HasPadding() bool {
	for i := range l.Extent {
		if l.Active[i] != l.Extent[i] || l.Offset[i] != 0 {
			return true
		}
	}
	return false
}

// Validate checks the layout invariants: matching ranks, a valid dimension
// permutation, and active extent plus offset contained within the full
// extent in every dimension.
func (l MemoryLayout) Validate() error {
	r := len(l.Extent)
	if len(l.Active) != r || len(l.Offset) != r || len(l.Order) != r {
		return fmt.Errorf("%w: layout rank mismatch (extent %d, active %d, offset %d, order %d)",
			ErrIllegalState, r, len(l.Active), len(l.Offset), len(l.Order))
	}
	seen := make([]bool, r)
	for _, d := range l.Order {
		if d < 0 || d >= r || seen[d] {
			return fmt.Errorf("%w: layout order is not a permutation of dimensions", ErrIllegalState)
		}
		seen[d] = true
	}
	for i := 0; i < r; i++ {
		if l.Active[i] < 0 || l.Offset[i] < 0 {
			return fmt.Errorf("%w: negative active extent or offset in dimension %d", ErrIllegalState, i)
		}
		if l.Offset[i]+l.Active[i] > l.Extent[i] {
			return fmt.Errorf("%w: active region [%d, %d) exceeds extent %d in dimension %d",
				ErrIllegalState, l.Offset[i], l.Offset[i]+l.Active[i], l.Extent[i], i)
		}
	}
	return nil
}

// Strides returns the per-dimension element strides implied by the extent
// and dimension order.
func (l MemoryLayout) Strides() []int {
	strides := make([]int, l.Rank())
	stride := 1
	for i := l.Rank() - 1; i >= 0; i-- {
		d := l.Order[i]
		strides[d] = stride
		stride *= l.Extent[d]
	}
	return strides
}

// EntryOffset returns the linear buffer offset of the active-region entry at
// the given logical coordinates.
func (l MemoryLayout) EntryOffset(coords []int) (int, error) {
	if len(coords) != l.Rank() {
		return 0, fmt.Errorf("%w: coordinate rank %d does not match layout rank %d",
			ErrIllegalState, len(coords), l.Rank())
	}
	strides := l.Strides()
	off := 0
	for d, c := range coords {
		if c < 0 || c >= l.Active[d] {
			return 0, fmt.Errorf("%w: coordinate %d out of active range [0, %d) in dimension %d",
				ErrIllegalState, c, l.Active[d], d)
		}
		off += (c + l.Offset[d]) * strides[d]
	}
	return off, nil
}

// Equal reports whether two layouts describe the same shape.
func (l MemoryLayout) Equal(other MemoryLayout) bool {
	return slices.Equal(l.Extent, other.Extent) &&
		slices.Equal(l.Active, other.Active) &&
		slices.Equal(l.Offset, other.Offset) &&
		slices.Equal(l.Order, other.Order)
}

func (l MemoryLayout) String() string {
	if !l.HasPadding() {
		return fmt.Sprintf("%v", l.Active)
	}
	return fmt.Sprintf("%v in %v+%v", l.Active, l.Extent, l.Offset)
}
