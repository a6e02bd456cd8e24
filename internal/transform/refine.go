package transform

import (
	"context"
	"fmt"

	"github.com/emberlab/emberc/internal/ctxlog"
	"github.com/emberlab/emberc/internal/graph"
)

// DefaultMaxIterations bounds a refinement run when the caller does not.
const DefaultMaxIterations = 10

// Refiner is the optional rewrite capability of an op. Refine emits a
// replacement subgraph into the transformer's destination model, resolving
// the original node's inputs through CorrespondingInput and recording the
// replacement outputs with MapOutput, then returns true. Returning false
// declines the rewrite and leaves the node as-is.
type Refiner interface {
	Refine(t *Transformer, n *graph.Node) (bool, error)
}

// Result reports the outcome of a refinement run.
type Result struct {
	// Iterations is the number of whole-model passes performed.
	Iterations int
	// Rewrites is the total number of nodes that rewrote themselves.
	Rewrites int
	// Residual lists the nodes of the result model that remain
	// non-lowerable after the run. It is populated only when the context
	// carries a compiler; reaching the iteration cap with a non-empty
	// residual is reported here, not as an error.
	Residual []graph.NodeID
}

// Complete reports whether every node of the result model is lowerable.
func (r *Result) Complete() bool { return len(r.Residual) == 0 }

// RefineModel repeatedly transforms the model until a pass produces no
// rewrites or maxIterations passes have run. Each pass walks the nodes in
// dependency order and, per node, consults the context: nodes flagged
// ActionCompile are carried over unchanged; nodes flagged ActionRefine are
// asked to rewrite themselves and are carried over if they decline. A node
// is never both refined and compiled in the same pass; a rewritten region
// becomes eligible for its own decision in the next pass.
//
// The returned correspondence map relates the ports of the original model
// to the final result, chained across passes.
func (t *Transformer) RefineModel(ctx context.Context, m *graph.Model, maxIterations int) (*graph.Model, *Result, error) {
	logger := ctxlog.FromContext(ctx)
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	result := &Result{}
	current := m
	totalPorts := make(map[graph.PortRef]graph.PortRef)
	totalNodes := make(map[graph.NodeID]graph.NodeID)
	for _, n := range m.Nodes() {
		totalNodes[n.ID()] = n.ID()
		for i := range n.Outputs() {
			totalPorts[n.OutputRef(i)] = n.OutputRef(i)
		}
	}

	for result.Iterations < maxIterations {
		result.Iterations++
		next := graph.NewModel()
		t.begin(current, next)

		rewrites := 0
		for _, n := range current.Nodes() {
			action := t.ctx.NodeAction(n)
			switch action {
			case ActionCompile:
				if err := t.copyNode(n, nil, nil); err != nil {
					return nil, nil, err
				}
				t.states[n.ID()] = StateCompiled
			case ActionRefine:
				refined, err := t.refineNode(n)
				if err != nil {
					return nil, nil, err
				}
				if refined {
					rewrites++
				}
			default:
				return nil, nil, fmt.Errorf("%w: unresolved action %s for node %s",
					graph.ErrIllegalState, action, n.ID())
			}
		}

		// Chain the pass's correspondence map onto the accumulated one so
		// queries against the original model resolve into the final model.
		for src, mid := range totalPorts {
			mapped, err := t.CorrespondingOutput(mid)
			if err != nil {
				return nil, nil, fmt.Errorf("port %s lost across refinement passes: %w", src, err)
			}
			totalPorts[src] = mapped
		}
		for src, mid := range totalNodes {
			if mapped, ok := t.nodeMap[mid]; ok {
				totalNodes[src] = mapped
			} else {
				delete(totalNodes, src)
			}
		}

		result.Rewrites += rewrites
		logger.Debug("refinement pass complete",
			"iteration", result.Iterations, "rewrites", rewrites, "nodes", next.Len())
		current = next
		if rewrites == 0 {
			break
		}
	}

	t.src = m
	t.dest = current
	t.portMap = totalPorts
	t.nodeMap = totalNodes

	if t.ctx.Compiler() != nil {
		for _, n := range current.Nodes() {
			if !t.ctx.IsCompilable(n) {
				result.Residual = append(result.Residual, n.ID())
			}
		}
	}
	if len(result.Residual) > 0 {
		logger.Debug("refinement finished with residual nodes",
			"iterations", result.Iterations, "residual", len(result.Residual))
	}
	return current, result, nil
}

// refineNode asks one node to rewrite itself, copying it through when it
// declines or does not support refinement.
func (t *Transformer) refineNode(n *graph.Node) (bool, error) {
	refiner, ok := n.Op().(Refiner)
	if !ok {
		if err := t.copyNode(n, nil, nil); err != nil {
			return false, err
		}
		return false, nil
	}
	changed, err := refiner.Refine(t, n)
	if err != nil {
		return false, fmt.Errorf("refining node %s (%s): %w", n.ID(), n.Op().OpName(), err)
	}
	if !changed {
		if err := t.copyNode(n, nil, nil); err != nil {
			return false, err
		}
		return false, nil
	}
	t.states[n.ID()] = StateRefined
	for i := range n.Outputs() {
		if _, err := t.CorrespondingOutput(n.OutputRef(i)); err != nil {
			return false, fmt.Errorf("node %s rewrote itself without mapping output %d: %w",
				n.ID(), i, err)
		}
	}
	return true, nil
}
