package graph

import (
	"fmt"
	"slices"
)

// Model is the exclusive owner of a set of nodes forming a directed acyclic
// graph. Nodes are ordered by creation: a node's inputs may only reference
// outputs of nodes created earlier, so the creation order is always a valid
// evaluation order.
type Model struct {
	nodes  []*Node
	index  map[NodeID]*Node
	nextID NodeID
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		index:  make(map[NodeID]*Node),
		nextID: 1,
	}
}

// Len returns the number of nodes in the model.
func (m *Model) Len() int { return len(m.nodes) }

// Nodes returns the model's nodes in creation order.
func (m *Model) Nodes() []*Node { return slices.Clone(m.nodes) }

// Node returns the node with the given identifier.
func (m *Model) Node(id NodeID) (*Node, error) {
	n, ok := m.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: node %s not in model", ErrIllegalState, id)
	}
	return n, nil
}

// Contains reports whether the model owns a node with the given identifier.
func (m *Model) Contains(id NodeID) bool {
	_, ok := m.index[id]
	return ok
}

// Output resolves an output port reference.
func (m *Model) Output(ref PortRef) (*OutputPort, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: unbound port reference", ErrIllegalState)
	}
	n, err := m.Node(ref.Node)
	if err != nil {
		return nil, err
	}
	if ref.Port < 0 || ref.Port >= len(n.outputs) {
		return nil, fmt.Errorf("%w: node %s has no output %d", ErrIllegalState, ref.Node, ref.Port)
	}
	return n.outputs[ref.Port], nil
}

// Input resolves an input port reference.
func (m *Model) Input(ref InputRef) (*InputPort, error) {
	n, err := m.Node(ref.Node)
	if err != nil {
		return nil, err
	}
	if ref.Port < 0 || ref.Port >= len(n.inputs) {
		return nil, fmt.Errorf("%w: node %s has no input %d", ErrIllegalState, ref.Node, ref.Port)
	}
	return n.inputs[ref.Port], nil
}

// AddNode creates a node for op, binding its inputs positionally to the
// given output ports. This is the only node-creation entry point: the model
// assigns the identifier and records ownership. An input may be Unbound, in
// which case the corresponding port is left free.
//
// The op's Ports method validates the sources; a type or size mismatch
// fails with ErrTypeMismatch and leaves the model unchanged.
func (m *Model) AddNode(op Op, inputs ...PortRef) (*Node, error) {
	sources := make([]PortInfo, len(inputs))
	for i, ref := range inputs {
		if !ref.Valid() {
			continue
		}
		src, err := m.Output(ref)
		if err != nil {
			return nil, fmt.Errorf("input %d of %s: %w", i, op.OpName(), err)
		}
		sources[i] = PortInfo{Name: src.Name(), Type: src.Type(), Layout: src.Layout()}
	}

	inSpecs, outSpecs, err := op.Ports(sources)
	if err != nil {
		return nil, fmt.Errorf("adding %s node: %w", op.OpName(), err)
	}
	if len(inSpecs) != len(inputs) {
		return nil, fmt.Errorf("%w: %s declares %d inputs, %d sources given",
			ErrIllegalState, op.OpName(), len(inSpecs), len(inputs))
	}
	for _, spec := range outSpecs {
		if err := spec.Layout.Validate(); err != nil {
			return nil, fmt.Errorf("output %q of %s: %w", spec.Name, op.OpName(), err)
		}
	}

	n := &Node{id: m.nextID, op: op}
	m.nextID++
	for i, spec := range inSpecs {
		n.inputs = append(n.inputs, &InputPort{
			owner: n.id,
			index: i,
			name:  spec.Name,
			typ:   spec.Type,
			size:  spec.Layout.ActiveSize(),
		})
	}
	for i, spec := range outSpecs {
		n.outputs = append(n.outputs, &OutputPort{
			owner:  n.id,
			index:  i,
			name:   spec.Name,
			typ:    spec.Type,
			layout: spec.Layout,
		})
	}
	m.nodes = append(m.nodes, n)
	m.index[n.id] = n

	for i, ref := range inputs {
		if !ref.Valid() {
			continue
		}
		if err := m.Bind(n.InputRefAt(i), ref); err != nil {
			// An op may declare an input size independent of the sources,
			// so Bind can still reject one. Roll the node back.
			for j := 0; j < i; j++ {
				if inputs[j].Valid() {
					_ = m.Unbind(n.InputRefAt(j))
				}
			}
			m.nodes = m.nodes[:len(m.nodes)-1]
			delete(m.index, n.id)
			m.nextID = n.id
			return nil, err
		}
	}
	return n, nil
}

// Bind connects an input port to an output port. The output's element type
// must match the input's declared type, and for sized inputs the active
// element counts must match; a mismatch fails with ErrTypeMismatch. On
// success the binding is visible from both sides: the input references the
// output and the output's reference set contains the input.
func (m *Model) Bind(in InputRef, out PortRef) error {
	inPort, err := m.Input(in)
	if err != nil {
		return err
	}
	outPort, err := m.Output(out)
	if err != nil {
		return err
	}
	if outPort.Type() != inPort.Type() {
		return fmt.Errorf("%w: cannot bind %s (%s) to %s (%s)",
			ErrTypeMismatch, out, outPort.Type(), in, inPort.Type())
	}
	if inPort.size != 0 && outPort.Size() != inPort.size {
		return fmt.Errorf("%w: cannot bind %s (%d elements) to %s (%d elements)",
			ErrTypeMismatch, out, outPort.Size(), in, inPort.size)
	}
	if inPort.Bound() {
		if err := m.Unbind(in); err != nil {
			return err
		}
	}
	inPort.ref = out
	outPort.addReference(in)
	return nil
}

// Unbind disconnects an input port from its source, removing the input from
// the source's reference set. Unbinding an already-free input is a no-op.
func (m *Model) Unbind(in InputRef) error {
	inPort, err := m.Input(in)
	if err != nil {
		return err
	}
	if !inPort.Bound() {
		return nil
	}
	outPort, err := m.Output(inPort.ref)
	if err != nil {
		return err
	}
	outPort.removeReference(in)
	inPort.ref = Unbound
	return nil
}

// RemoveNode deletes a node from the model. Deletion requires that none of
// the node's output ports have remaining input references; the node's own
// inputs are unbound as part of removal.
func (m *Model) RemoveNode(id NodeID) error {
	n, err := m.Node(id)
	if err != nil {
		return err
	}
	for _, out := range n.outputs {
		if out.Referenced() {
			return fmt.Errorf("%w: cannot remove %s, output %q still referenced by %v",
				ErrIllegalState, id, out.Name(), out.References())
		}
	}
	for _, in := range n.inputs {
		if err := m.Unbind(in.Ref()); err != nil {
			return err
		}
	}
	m.nodes = slices.DeleteFunc(m.nodes, func(c *Node) bool { return c.id == id })
	delete(m.index, id)
	return nil
}

// Parents returns the distinct nodes feeding the given node's inputs, in
// input order.
func (m *Model) Parents(id NodeID) ([]NodeID, error) {
	n, err := m.Node(id)
	if err != nil {
		return nil, err
	}
	var parents []NodeID
	for _, in := range n.inputs {
		if !in.Bound() {
			continue
		}
		if !slices.Contains(parents, in.ref.Node) {
			parents = append(parents, in.ref.Node)
		}
	}
	return parents, nil
}

// TerminalOutputs returns, in creation order, the output ports that no
// input references. These are the model's natural result ports.
func (m *Model) TerminalOutputs() []PortRef {
	var outs []PortRef
	for _, n := range m.nodes {
		for _, out := range n.outputs {
			if !out.Referenced() {
				outs = append(outs, out.Ref())
			}
		}
	}
	return outs
}

// Verify checks the model's structural invariants: every binding visible
// from both sides, all references resolvable, and no cycles.
func (m *Model) Verify() error {
	for _, n := range m.nodes {
		for _, in := range n.inputs {
			if !in.Bound() {
				continue
			}
			src, err := m.Output(in.ref)
			if err != nil {
				return fmt.Errorf("input %s: %w", in.Ref(), err)
			}
			if !slices.Contains(src.refs, in.Ref()) {
				return fmt.Errorf("%w: input %s references %s but is missing from its reference set",
					ErrIllegalState, in.Ref(), in.ref)
			}
		}
		for _, out := range n.outputs {
			for _, ref := range out.refs {
				inPort, err := m.Input(ref)
				if err != nil {
					return fmt.Errorf("reference set of %s: %w", out.Ref(), err)
				}
				if inPort.ref != out.Ref() {
					return fmt.Errorf("%w: output %s lists %s, which references %s",
						ErrIllegalState, out.Ref(), ref, inPort.ref)
				}
			}
		}
	}
	return m.checkAcyclic()
}

// checkAcyclic runs a depth-first search with temporary and permanent marks
// over the dependency edges.
func (m *Model) checkAcyclic() error {
	permanent := make(map[NodeID]bool)
	temporary := make(map[NodeID]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return fmt.Errorf("%w: cycle detected involving node %s", ErrIllegalState, n.id)
		}
		temporary[n.id] = true
		for _, in := range n.inputs {
			if !in.Bound() {
				continue
			}
			parent, err := m.Node(in.ref.Node)
			if err != nil {
				return err
			}
			if err := visit(parent); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, n := range m.nodes {
		if !permanent[n.id] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Compute evaluates the model with reference semantics, feeding the given
// buffers to source nodes by identifier, and returns the value of every
// output port. A source node with neither a feed nor a Computer op is an
// ErrIllegalState; a Computer op may itself report ErrNotImplemented.
func (m *Model) Compute(feeds map[NodeID][]float64) (map[PortRef][]float64, error) {
	values := make(map[PortRef][]float64)
	for _, n := range m.nodes {
		if feed, ok := feeds[n.id]; ok && len(n.inputs) == 0 {
			if len(n.outputs) != 1 {
				return nil, fmt.Errorf("%w: fed node %s must have exactly one output", ErrIllegalState, n.id)
			}
			if want := n.outputs[0].Size(); len(feed) != want {
				return nil, fmt.Errorf("%w: feed for %s has %d elements, port wants %d",
					ErrTypeMismatch, n.id, len(feed), want)
			}
			values[n.OutputRef(0)] = slices.Clone(feed)
			continue
		}

		computer, ok := n.op.(Computer)
		if !ok {
			return nil, fmt.Errorf("%w: node %s (%s) has no reference evaluation and no feed",
				ErrIllegalState, n.id, n.op.OpName())
		}
		args := make([][]float64, len(n.inputs))
		for i, in := range n.inputs {
			src, err := in.Source()
			if err != nil {
				return nil, err
			}
			buf, ok := values[src]
			if !ok {
				return nil, fmt.Errorf("%w: value of %s not computed before %s", ErrIllegalState, src, n.id)
			}
			args[i] = buf
		}
		outs, err := computer.Compute(args)
		if err != nil {
			return nil, fmt.Errorf("computing node %s (%s): %w", n.id, n.op.OpName(), err)
		}
		if len(outs) != len(n.outputs) {
			return nil, fmt.Errorf("%w: node %s produced %d outputs, declares %d",
				ErrIllegalState, n.id, len(outs), len(n.outputs))
		}
		for i, buf := range outs {
			values[n.OutputRef(i)] = buf
		}
	}
	return values, nil
}
