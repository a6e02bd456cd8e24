package nodes

import (
	"fmt"

	"github.com/emberlab/emberc/internal/archive"
	"github.com/emberlab/emberc/internal/compile"
	"github.com/emberlab/emberc/internal/graph"
	"github.com/emberlab/emberc/internal/ir"
)

func init() {
	archive.RegisterOp("relu", func() graph.Op { return &ReLU{} })
}

// ReLU clamps every element to be non-negative.
type ReLU struct{}

// NewReLU returns a rectified linear activation op.
func NewReLU() *ReLU { return &ReLU{} }

func (op *ReLU) OpName() string { return "relu" }

func (op *ReLU) Clone() graph.Op { return &ReLU{} }

func (op *ReLU) Ports(sources []graph.PortInfo) ([]graph.PortInfo, []graph.PortInfo, error) {
	if len(sources) != 1 {
		return nil, nil, fmt.Errorf("%w: relu takes one input, got %d", graph.ErrIllegalState, len(sources))
	}
	src := sources[0]
	if src.Type == graph.None {
		return nil, nil, fmt.Errorf("%w: relu needs a bound input to derive its shape", graph.ErrIllegalState)
	}
	in := []graph.PortInfo{{Name: "input", Type: src.Type, Layout: src.Layout}}
	out := []graph.PortInfo{{Name: "output", Type: src.Type, Layout: src.Layout}}
	return in, out, nil
}

func (op *ReLU) Compute(in [][]float64) ([][]float64, error) {
	out := make([]float64, len(in[0]))
	for i, v := range in[0] {
		if v > 0 {
			out[i] = v
		}
	}
	return [][]float64{out}, nil
}

func (op *ReLU) Lower(lc *compile.LowerContext, b *ir.Builder) error {
	in, out := lc.Input(0), lc.Output(0)
	shared := []compile.Buffer{in, out}
	return lc.EmitParallelFor(b, out.Size, shared, func(b *ir.Builder, start, end ir.Expr) {
		lc.EmitBlockedLoop(b, start, end, func(b *ir.Builder, idx ir.Expr, width int) {
			b.VecScalar(ir.OpMax, out.Name, idx, in.Name, idx, ir.Float(0), width)
		})
	})
}
