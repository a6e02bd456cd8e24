package graph

import (
	"fmt"
	"slices"
)

// PortRef addresses an output port by node identifier and output index.
// The zero value is the unbound reference.
type PortRef struct {
	Node NodeID
	Port int
}

// Unbound is the reference held by an input port with no source.
var Unbound = PortRef{}

// Valid reports whether the reference names a port.
func (r PortRef) Valid() bool { return r.Node != 0 }

func (r PortRef) String() string {
	if !r.Valid() {
		return "<unbound>"
	}
	return fmt.Sprintf("%s.out[%d]", r.Node, r.Port)
}

// InputRef addresses an input port by node identifier and input index.
type InputRef struct {
	Node NodeID
	Port int
}

func (r InputRef) String() string {
	return fmt.Sprintf("%s.in[%d]", r.Node, r.Port)
}

// PortInfo describes one port of an op: its name, element type, and memory
// layout. For input ports the layout records the shape the op expects its
// source to have.
type PortInfo struct {
	Name   string
	Type   ElementType
	Layout MemoryLayout
}

// OutputPort is an attachment point that owns the logical value it produces.
// It maintains the set of input ports that reference it; the set is a
// non-owning back-reference list used only for safe rewiring and deletion.
type OutputPort struct {
	owner  NodeID
	index  int
	name   string
	typ    ElementType
	layout MemoryLayout
	refs   []InputRef
}

// Ref returns the address of this port.
func (p *OutputPort) Ref() PortRef { return PortRef{Node: p.owner, Port: p.index} }

// Name returns the port's name.
func (p *OutputPort) Name() string { return p.name }

// Type returns the element type of the produced value.
func (p *OutputPort) Type() ElementType { return p.typ }

// Layout returns the memory layout of the produced value.
func (p *OutputPort) Layout() MemoryLayout { return p.layout }

// Size returns the number of active elements the port produces.
func (p *OutputPort) Size() int { return p.layout.ActiveSize() }

// References returns the input ports currently referencing this output, in
// bind order.
func (p *OutputPort) References() []InputRef { return slices.Clone(p.refs) }

// Referenced reports whether any input references this output.
func (p *OutputPort) Referenced() bool { return len(p.refs) > 0 }

func (p *OutputPort) addReference(in InputRef) {
	if !slices.Contains(p.refs, in) {
		p.refs = append(p.refs, in)
	}
}

func (p *OutputPort) removeReference(in InputRef) {
	p.refs = slices.DeleteFunc(p.refs, func(r InputRef) bool { return r == in })
}

// InputPort holds exactly one reference to an output port, or is unbound.
// Its type and size are inherited from the op's declared expectation, which
// in turn mirrors the referenced port at bind time.
type InputPort struct {
	owner NodeID
	index int
	name  string
	typ   ElementType
	size  int
	ref   PortRef
}

// Ref returns the address of this port.
func (p *InputPort) Ref() InputRef { return InputRef{Node: p.owner, Port: p.index} }

// Name returns the port's name.
func (p *InputPort) Name() string { return p.name }

// Type returns the expected element type.
func (p *InputPort) Type() ElementType { return p.typ }

// Size returns the expected active element count.
func (p *InputPort) Size() int { return p.size }

// Bound reports whether the input references an output port.
func (p *InputPort) Bound() bool { return p.ref.Valid() }

// Source returns the referenced output port. Querying an unbound input is an
// ErrIllegalState.
func (p *InputPort) Source() (PortRef, error) {
	if !p.Bound() {
		return Unbound, fmt.Errorf("%w: input %s is unbound", ErrIllegalState, p.Ref())
	}
	return p.ref, nil
}
