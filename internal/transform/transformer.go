package transform

import (
	"fmt"

	"github.com/emberlab/emberc/internal/graph"
)

// NodeState records what happened to a source node during the most recent
// transformation pass.
type NodeState int

const (
	StateUnvisited NodeState = iota
	StateCopied
	StateRefined
	StateCompiled
)

func (s NodeState) String() string {
	switch s {
	case StateUnvisited:
		return "unvisited"
	case StateCopied:
		return "copied"
	case StateRefined:
		return "refined"
	case StateCompiled:
		return "compiled"
	default:
		return "unknown"
	}
}

// Transformer copies, grafts, and refines models. It owns the correspondence
// map accumulated during an operation; the map relates ports of the source
// model to ports of the destination and is valid until the next operation
// or Reset.
type Transformer struct {
	ctx  *Context
	src  *graph.Model
	dest *graph.Model

	portMap map[graph.PortRef]graph.PortRef
	nodeMap map[graph.NodeID]graph.NodeID
	states  map[graph.NodeID]NodeState
	inPlace bool
}

// NewTransformer returns a transformer driven by the given context.
func NewTransformer(ctx *Context) *Transformer {
	if ctx == nil {
		ctx = NewContext()
	}
	t := &Transformer{ctx: ctx}
	t.Reset()
	return t
}

// Context returns the context driving the transformation.
func (t *Transformer) Context() *Context { return t.ctx }

// Dest returns the model the current operation appends nodes into. Node
// implementors use it together with AddNode and MapOutput while refining.
func (t *Transformer) Dest() *graph.Model { return t.dest }

// Reset clears the correspondence map and per-node states.
func (t *Transformer) Reset() {
	t.portMap = make(map[graph.PortRef]graph.PortRef)
	t.nodeMap = make(map[graph.NodeID]graph.NodeID)
	t.states = make(map[graph.NodeID]NodeState)
	t.src = nil
	t.dest = nil
	t.inPlace = false
}

// NodeState reports the state a source node reached in the most recent
// pass.
func (t *Transformer) NodeState(id graph.NodeID) NodeState {
	return t.states[id]
}

// MapOutput records that the source port corresponds to the destination
// port. Called by node implementors after emitting replacement nodes.
func (t *Transformer) MapOutput(src, dest graph.PortRef) {
	t.portMap[src] = dest
}

// CorrespondingOutput returns the destination port corresponding to an
// output port of the source model. Querying a port that has not been
// processed yet is an ErrUnmappedPort.
func (t *Transformer) CorrespondingOutput(src graph.PortRef) (graph.PortRef, error) {
	dest, ok := t.portMap[src]
	if !ok {
		return graph.Unbound, fmt.Errorf("%w: no correspondence recorded for %s", graph.ErrUnmappedPort, src)
	}
	return dest, nil
}

// CorrespondingOutputs maps a slice of source output ports.
func (t *Transformer) CorrespondingOutputs(srcs []graph.PortRef) ([]graph.PortRef, error) {
	dests := make([]graph.PortRef, len(srcs))
	for i, src := range srcs {
		dest, err := t.CorrespondingOutput(src)
		if err != nil {
			return nil, err
		}
		dests[i] = dest
	}
	return dests, nil
}

// CorrespondingInput returns the destination output port that the copy of
// the given source input should read from: the mapping of the port the
// input references in the source model.
func (t *Transformer) CorrespondingInput(src graph.InputRef) (graph.PortRef, error) {
	if t.src == nil {
		return graph.Unbound, fmt.Errorf("%w: no transformation in progress", graph.ErrIllegalState)
	}
	in, err := t.src.Input(src)
	if err != nil {
		return graph.Unbound, err
	}
	ref, err := in.Source()
	if err != nil {
		return graph.Unbound, err
	}
	return t.CorrespondingOutput(ref)
}

// CorrespondingNode returns the destination node a source node was copied
// to. An elided copy maps a node to itself.
func (t *Transformer) CorrespondingNode(id graph.NodeID) (graph.NodeID, error) {
	dest, ok := t.nodeMap[id]
	if !ok {
		return 0, fmt.Errorf("%w: node %s was not processed", graph.ErrUnmappedPort, id)
	}
	return dest, nil
}

// AddNode creates a node in the destination model. Node implementors call
// this from Refine to emit replacement subgraphs.
func (t *Transformer) AddNode(op graph.Op, inputs ...graph.PortRef) (*graph.Node, error) {
	if t.dest == nil {
		return nil, fmt.Errorf("%w: no transformation in progress", graph.ErrIllegalState)
	}
	return t.dest.AddNode(op, inputs...)
}

// DeleteNode removes a node from the destination model. Only safe before
// anything references the node's outputs.
func (t *Transformer) DeleteNode(id graph.NodeID) error {
	if t.dest == nil {
		return fmt.Errorf("%w: no transformation in progress", graph.ErrIllegalState)
	}
	return t.dest.RemoveNode(id)
}

// CopyModel returns a copy of the model, built by copying each node in
// creation order. The correspondence map afterwards relates every source
// port to its copy.
func (t *Transformer) CopyModel(m *graph.Model) (*graph.Model, error) {
	t.begin(m, graph.NewModel())
	for _, n := range m.Nodes() {
		if err := t.copyNode(n, nil, nil); err != nil {
			return nil, err
		}
	}
	return t.dest, nil
}

// CopySubmodel copies a submodel into a fresh model. The submodel must have
// no boundary inputs; use CopySubmodelOnto to graft a slice with external
// dependencies.
func (t *Transformer) CopySubmodel(s *graph.Submodel) (*graph.Submodel, error) {
	if len(s.Inputs()) != 0 {
		return nil, fmt.Errorf("%w: submodel has %d free inputs; use CopySubmodelOnto",
			graph.ErrIllegalState, len(s.Inputs()))
	}
	return t.CopySubmodelOnto(s, graph.NewModel(), nil)
}

// CopySubmodelOnto copies every node in the submodel's dependency closure
// into destModel, rewiring each copy's inputs to the already-copied
// predecessors, or, for the submodel's designated boundary inputs, to the
// caller-supplied onto ports (matched positionally). Boundary inputs beyond
// the length of onto are left unbound in the copy.
//
// If destModel is the submodel's own model the copy is in-place, and
// trivial copies are elided: a node whose copy would reference exactly the
// same inputs as the original is not copied; the original is reused. This
// makes a no-op graft (onto equal to the existing sources) the identity.
func (t *Transformer) CopySubmodelOnto(s *graph.Submodel, destModel *graph.Model, onto []graph.PortRef) (*graph.Submodel, error) {
	boundary := s.Inputs()
	if len(onto) > len(boundary) {
		return nil, fmt.Errorf("%w: %d onto ports for %d submodel inputs",
			graph.ErrIllegalState, len(onto), len(boundary))
	}
	for _, ref := range onto {
		if !ref.Valid() {
			continue
		}
		if _, err := destModel.Output(ref); err != nil {
			return nil, fmt.Errorf("onto port: %w", err)
		}
	}

	t.begin(s.Model(), destModel)

	// Boundary inputs graft onto the supplied ports: record the mapping of
	// each cut source port so copies resolve through it.
	grafts := make(map[graph.InputRef]graph.PortRef, len(boundary))
	for i, in := range boundary {
		target := graph.Unbound
		if i < len(onto) {
			target = onto[i]
		}
		grafts[in] = target
		inPort, err := s.Model().Input(in)
		if err != nil {
			return nil, err
		}
		if src, err := inPort.Source(); err == nil && target.Valid() {
			t.MapOutput(src, target)
		}
	}

	nodes, err := s.Nodes()
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if err := t.copyNode(n, s, grafts); err != nil {
			return nil, err
		}
	}

	outs, err := t.CorrespondingOutputs(s.Outputs())
	if err != nil {
		return nil, err
	}
	ins := make([]graph.InputRef, len(boundary))
	for i, in := range boundary {
		destNode, err := t.CorrespondingNode(in.Node)
		if err != nil {
			return nil, err
		}
		ins[i] = graph.InputRef{Node: destNode, Port: in.Port}
	}
	return graph.NewSubmodel(destModel, outs, ins)
}

func (t *Transformer) begin(src, dest *graph.Model) {
	t.Reset()
	t.src = src
	t.dest = dest
	t.inPlace = src == dest
}

// copyNode copies one node into the destination, resolving its inputs
// through the correspondence map and the boundary grafts. In-place copies
// whose resolved inputs equal the original's are elided.
func (t *Transformer) copyNode(n *graph.Node, s *graph.Submodel, grafts map[graph.InputRef]graph.PortRef) error {
	refs := make([]graph.PortRef, len(n.Inputs()))
	for i, in := range n.Inputs() {
		if target, ok := grafts[in.Ref()]; ok {
			refs[i] = target
			continue
		}
		if !in.Bound() {
			refs[i] = graph.Unbound
			continue
		}
		src, err := in.Source()
		if err != nil {
			return err
		}
		mapped, err := t.CorrespondingOutput(src)
		if err != nil {
			return fmt.Errorf("copying node %s: %w", n.ID(), err)
		}
		refs[i] = mapped
	}

	if t.inPlace && t.sameInputs(n, refs) {
		// Copy elision: the copy would be identical to the original, so the
		// original node is reused in place.
		t.nodeMap[n.ID()] = n.ID()
		for i := range n.Outputs() {
			t.MapOutput(n.OutputRef(i), n.OutputRef(i))
		}
		t.states[n.ID()] = StateCopied
		return nil
	}

	copied, err := t.dest.AddNode(n.Op().Clone(), refs...)
	if err != nil {
		return fmt.Errorf("copying node %s: %w", n.ID(), err)
	}
	t.nodeMap[n.ID()] = copied.ID()
	for i := range n.Outputs() {
		t.MapOutput(n.OutputRef(i), copied.OutputRef(i))
	}
	t.states[n.ID()] = StateCopied
	return nil
}

// sameInputs reports whether the resolved input references equal the node's
// existing bindings.
func (t *Transformer) sameInputs(n *graph.Node, refs []graph.PortRef) bool {
	for i, in := range n.Inputs() {
		if in.Bound() {
			src, err := in.Source()
			if err != nil || refs[i] != src {
				return false
			}
		} else if refs[i].Valid() {
			return false
		}
	}
	return true
}
