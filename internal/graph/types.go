package graph

import "fmt"

// ElementType identifies the element type carried by a port.
type ElementType int

const (
	// None is the zero value and marks an untyped port.
	None ElementType = iota
	Float32
	Float64
	Int32
	Int64
	Bool
)

// String returns the lowercase name of the element type.
func (t ElementType) String() string {
	switch t {
	case None:
		return "none"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("ElementType(%d)", int(t))
	}
}

// SizeBytes returns the storage size of one element on the target.
func (t ElementType) SizeBytes() int {
	switch t {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Bool:
		return 1
	default:
		return 0
	}
}

// NodeID is the stable identifier a Model assigns to a node at creation.
// IDs start at 1; zero never names a node.
type NodeID int

func (id NodeID) String() string {
	return fmt.Sprintf("n%d", int(id))
}
