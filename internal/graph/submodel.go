package graph

import (
	"fmt"
	"slices"
)

// Submodel is a logical view over a contiguous dependency slice of a model.
// It is defined by the output ports it computes and the input ports at which
// the slice's external dependencies are cut. A submodel does not own its
// nodes; it is used to copy or re-target a portion of one graph onto another
// location, possibly within the same model.
type Submodel struct {
	model   *Model
	outputs []PortRef
	inputs  []InputRef
}

// NewSubmodel builds a view over model computing outputs, cut at inputs.
// Every external dependency of the enclosed region must be cut by one of
// the designated inputs; a dependency that escapes past the boundary is an
// ErrIllegalState.
func NewSubmodel(model *Model, outputs []PortRef, inputs []InputRef) (*Submodel, error) {
	s := &Submodel{
		model:   model,
		outputs: slices.Clone(outputs),
		inputs:  slices.Clone(inputs),
	}
	for _, out := range outputs {
		if _, err := model.Output(out); err != nil {
			return nil, fmt.Errorf("submodel output: %w", err)
		}
	}
	for _, in := range inputs {
		if _, err := model.Input(in); err != nil {
			return nil, fmt.Errorf("submodel input: %w", err)
		}
	}
	if _, err := s.Nodes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Model returns the model the view is defined over.
func (s *Submodel) Model() *Model { return s.model }

// Outputs returns the ports the submodel computes.
func (s *Submodel) Outputs() []PortRef { return slices.Clone(s.outputs) }

// Inputs returns the boundary input ports, in designation order.
func (s *Submodel) Inputs() []InputRef { return slices.Clone(s.inputs) }

// IsBoundaryInput reports whether the given input port is one of the
// designated cuts.
func (s *Submodel) IsBoundaryInput(in InputRef) bool {
	return slices.Contains(s.inputs, in)
}

// Nodes returns the dependency closure between the designated inputs and
// outputs, in the model's creation order. Traversal walks backward from the
// output nodes and does not cross boundary inputs.
func (s *Submodel) Nodes() ([]*Node, error) {
	included := make(map[NodeID]bool)

	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		if included[id] {
			return nil
		}
		included[id] = true
		n, err := s.model.Node(id)
		if err != nil {
			return err
		}
		for _, in := range n.inputs {
			if !in.Bound() || s.IsBoundaryInput(in.Ref()) {
				continue
			}
			if err := visit(in.ref.Node); err != nil {
				return err
			}
		}
		return nil
	}

	for _, out := range s.outputs {
		if err := visit(out.Node); err != nil {
			return nil, err
		}
	}
	for _, in := range s.inputs {
		if !included[in.Node] {
			return nil, fmt.Errorf("%w: boundary input %s is not reachable from the submodel outputs",
				ErrIllegalState, in)
		}
	}

	var nodes []*Node
	for _, n := range s.model.nodes {
		if included[n.id] {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}
