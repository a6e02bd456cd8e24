package compile

import (
	"context"
	"fmt"
	"strings"

	"github.com/emberlab/emberc/internal/ctxlog"
	"github.com/emberlab/emberc/internal/graph"
	"github.com/emberlab/emberc/internal/ir"
)

// InternalPrefix marks module-internal symbols (task functions and other
// helpers) that are excluded from the exported header surface.
const InternalPrefix = "emberc__"

// Lowerable is the native-lowering capability of an op: emit the node's
// computation into the caller-supplied function through the context's
// primitives. Ops without it must be refined away before compilation.
type Lowerable interface {
	Lower(lc *LowerContext, b *ir.Builder) error
}

// EntrySource marks ops whose output buffer is supplied by the caller of
// the compiled entry function rather than computed inside it.
type EntrySource interface {
	EntrySource()
}

// Buffer names the storage assigned to one port in the emitted function.
type Buffer struct {
	Name string
	Size int
	Elem graph.ElementType
}

// Compiled is the result of lowering a model: an IR module plus the
// metadata the header writer and the runtime need.
type Compiled struct {
	Module  *ir.Module
	Entry   string
	Inputs  []Buffer
	Outputs []Buffer
	// State lists the intermediate buffers, in emission order; the header
	// writer renders them as the module's state struct.
	State []Buffer
}

// Execute runs the compiled entry through the reference interpreter,
// feeding the inputs positionally and returning the output buffers.
func (c *Compiled) Execute(pool *ir.Pool, inputs [][]float64) ([][]float64, error) {
	if len(inputs) != len(c.Inputs) {
		return nil, fmt.Errorf("%d input buffers for %d entry inputs", len(inputs), len(c.Inputs))
	}
	args := make([]ir.Value, 0, len(c.Inputs)+len(c.Outputs))
	for i, in := range inputs {
		if len(in) != c.Inputs[i].Size {
			return nil, fmt.Errorf("input %d has %d elements, entry wants %d", i, len(in), c.Inputs[i].Size)
		}
		args = append(args, in)
	}
	outs := make([][]float64, len(c.Outputs))
	for i, buf := range c.Outputs {
		outs[i] = make([]float64, buf.Size)
		args = append(args, outs[i])
	}
	if err := ir.NewInterp(c.Module, pool).Call(c.Entry, args...); err != nil {
		return nil, err
	}
	return outs, nil
}

// ResidualError reports the nodes that could not be lowered. CompileModel
// requires a fully refined model; callers that can tolerate residual nodes
// inspect the refinement result instead.
type ResidualError struct {
	Nodes []graph.NodeID
}

func (e *ResidualError) Error() string {
	ids := make([]string, len(e.Nodes))
	for i, id := range e.Nodes {
		ids[i] = id.String()
	}
	return fmt.Sprintf("model has %d non-lowerable nodes: %s", len(e.Nodes), strings.Join(ids, ", "))
}

// Compiler lowers models under a fixed set of options. It implements
// transform.Compilability so refinement can query it.
type Compiler struct {
	opts Options
}

// New returns a compiler for the given options.
func New(opts Options) (*Compiler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Compiler{opts: opts}, nil
}

// Options returns the compiler's configuration.
func (c *Compiler) Options() Options { return c.opts }

// IsCompilable reports whether the node's op can emit native IR. Entry
// source ops count as compilable: they lower to entry parameters instead
// of code.
func (c *Compiler) IsCompilable(n *graph.Node) bool {
	if _, ok := n.Op().(Lowerable); ok {
		return true
	}
	_, ok := n.Op().(EntrySource)
	return ok
}

// CompileModel lowers every node of the model, in dependency order, into a
// single entry function named <module_name>_predict. The outputs argument
// selects the result ports; nil selects the model's terminal outputs.
func (c *Compiler) CompileModel(ctx context.Context, m *graph.Model, outputs []graph.PortRef) (*Compiled, error) {
	logger := ctxlog.FromContext(ctx)
	if err := m.Verify(); err != nil {
		return nil, err
	}

	var residual []graph.NodeID
	for _, n := range m.Nodes() {
		if !c.IsCompilable(n) {
			residual = append(residual, n.ID())
		}
	}
	if len(residual) > 0 {
		return nil, &ResidualError{Nodes: residual}
	}

	if outputs == nil {
		outputs = m.TerminalOutputs()
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: model has no output ports to compile", graph.ErrIllegalState)
	}

	compiled := &Compiled{
		Module: ir.NewModule(),
		Entry:  c.opts.ModuleName + "_predict",
	}

	// Assign every output port a buffer: entry parameters for source nodes
	// and result ports, state arrays for everything in between.
	isResult := make(map[graph.PortRef]bool, len(outputs))
	for _, ref := range outputs {
		if _, err := m.Output(ref); err != nil {
			return nil, err
		}
		isResult[ref] = true
	}
	buffers := make(map[graph.PortRef]Buffer)
	for _, n := range m.Nodes() {
		_, isSource := n.Op().(EntrySource)
		for i, out := range n.Outputs() {
			ref := n.OutputRef(i)
			buf := Buffer{Size: out.Size(), Elem: out.Type()}
			switch {
			case isSource:
				buf.Name = fmt.Sprintf("in%d", len(compiled.Inputs))
				compiled.Inputs = append(compiled.Inputs, buf)
			case isResult[ref]:
				buf.Name = fmt.Sprintf("out%d", len(compiled.Outputs))
				compiled.Outputs = append(compiled.Outputs, buf)
			default:
				buf.Name = fmt.Sprintf("state_%s_%d", n.ID(), i)
				compiled.State = append(compiled.State, buf)
			}
			buffers[ref] = buf
		}
	}

	params := make([]ir.Param, 0, len(compiled.Inputs)+len(compiled.Outputs))
	for _, buf := range compiled.Inputs {
		params = append(params, ir.ArrayFloat(buf.Name, buf.Size))
	}
	for _, buf := range compiled.Outputs {
		params = append(params, ir.ArrayFloat(buf.Name, buf.Size))
	}
	b := ir.NewFunction(compiled.Entry, params...)
	for _, buf := range compiled.State {
		b.DeclArray(buf.Name, buf.Size)
	}

	for _, n := range m.Nodes() {
		if _, isSource := n.Op().(EntrySource); isSource {
			continue
		}
		lc := &LowerContext{
			compiler: c,
			module:   compiled.Module,
			sym:      fmt.Sprintf("%s%s_%s", InternalPrefix, c.opts.ModuleName, n.ID()),
		}
		for _, in := range n.Inputs() {
			src, err := in.Source()
			if err != nil {
				return nil, fmt.Errorf("lowering node %s: %w", n.ID(), err)
			}
			lc.inputs = append(lc.inputs, buffers[src])
		}
		for i := range n.Outputs() {
			lc.outputs = append(lc.outputs, buffers[n.OutputRef(i)])
		}
		if err := n.Op().(Lowerable).Lower(lc, b); err != nil {
			return nil, fmt.Errorf("lowering node %s (%s): %w", n.ID(), n.Op().OpName(), err)
		}
		logger.Debug("lowered node", "node", n.ID().String(), "op", n.Op().OpName())
	}

	if err := compiled.Module.Add(b.Function()); err != nil {
		return nil, err
	}
	logger.Debug("model compiled",
		"entry", compiled.Entry,
		"functions", len(compiled.Module.Functions()),
		"inputs", len(compiled.Inputs),
		"outputs", len(compiled.Outputs))
	return compiled, nil
}
