package nodes

import (
	"fmt"
	"slices"

	"github.com/emberlab/emberc/internal/archive"
	"github.com/emberlab/emberc/internal/compile"
	"github.com/emberlab/emberc/internal/graph"
	"github.com/emberlab/emberc/internal/ir"
)

func init() {
	archive.RegisterOp("matvec", func() graph.Op { return &MatVec{} })
}

// MatVec multiplies a row-major Rows x Cols weight matrix by the input
// vector. Lowering splits the output rows across tasks.
type MatVec struct {
	Rows    int
	Cols    int
	Weights []float64
}

// NewMatVec returns a matrix-vector product op over row-major weights.
func NewMatVec(rows, cols int, weights []float64) *MatVec {
	return &MatVec{Rows: rows, Cols: cols, Weights: weights}
}

func (op *MatVec) OpName() string { return "matvec" }

func (op *MatVec) Clone() graph.Op {
	return &MatVec{Rows: op.Rows, Cols: op.Cols, Weights: slices.Clone(op.Weights)}
}

func (op *MatVec) Ports(sources []graph.PortInfo) ([]graph.PortInfo, []graph.PortInfo, error) {
	if len(sources) != 1 {
		return nil, nil, fmt.Errorf("%w: matvec takes one input, got %d", graph.ErrIllegalState, len(sources))
	}
	if op.Rows <= 0 || op.Cols <= 0 {
		return nil, nil, fmt.Errorf("%w: matvec shape %dx%d must be positive", graph.ErrIllegalState, op.Rows, op.Cols)
	}
	if len(op.Weights) != op.Rows*op.Cols {
		return nil, nil, fmt.Errorf("%w: matvec %dx%d wants %d weights, got %d",
			graph.ErrTypeMismatch, op.Rows, op.Cols, op.Rows*op.Cols, len(op.Weights))
	}
	src := sources[0]
	if src.Type != graph.None && src.Layout.ActiveSize() != op.Cols {
		return nil, nil, fmt.Errorf("%w: matvec %dx%d cannot consume a %d element input",
			graph.ErrTypeMismatch, op.Rows, op.Cols, src.Layout.ActiveSize())
	}
	in := []graph.PortInfo{{Name: "input", Type: graph.Float64, Layout: graph.Vector(op.Cols)}}
	out := []graph.PortInfo{{Name: "output", Type: graph.Float64, Layout: graph.Vector(op.Rows)}}
	return in, out, nil
}

func (op *MatVec) Compute(in [][]float64) ([][]float64, error) {
	x := in[0]
	if len(x) != op.Cols {
		return nil, fmt.Errorf("%w: matvec %dx%d got a %d element input", graph.ErrTypeMismatch, op.Rows, op.Cols, len(x))
	}
	out := make([]float64, op.Rows)
	for r := 0; r < op.Rows; r++ {
		sum := 0.0
		for c := 0; c < op.Cols; c++ {
			sum += op.Weights[r*op.Cols+c] * x[c]
		}
		out[r] = sum
	}
	return [][]float64{out}, nil
}

func (op *MatVec) Lower(lc *compile.LowerContext, b *ir.Builder) error {
	in, out := lc.Input(0), lc.Output(0)
	weights := lc.Symbol("weights")
	compile.MaterializeConstArray(b, weights, op.Weights)

	shared := []compile.Buffer{
		{Name: weights, Size: len(op.Weights), Elem: graph.Float64},
		in,
		out,
	}
	cols := op.Cols
	return lc.EmitParallelFor(b, op.Rows, shared, func(b *ir.Builder, start, end ir.Expr) {
		b.For(start, end, ir.Int(1), func(b *ir.Builder, row ir.Expr) {
			acc := b.FreshName("acc")
			b.DeclScalar(acc, ir.Float(0))
			base := ir.Bin{Op: ir.OpMul, A: row, B: ir.Int(cols)}
			b.For(ir.Int(0), ir.Int(cols), ir.Int(1), func(b *ir.Builder, col ir.Expr) {
				w := ir.Index{Arr: weights, Idx: ir.Bin{Op: ir.OpAdd, A: base, B: col}}
				x := ir.Index{Arr: in.Name, Idx: col}
				b.Assign(acc, ir.Bin{Op: ir.OpAdd, A: ir.Ref{Name: acc}, B: ir.Bin{Op: ir.OpMul, A: w, B: x}})
			})
			b.Store(out.Name, row, ir.Ref{Name: acc})
		})
	})
}

func (op *MatVec) WriteFields(w *archive.Writer) {
	w.SetInt("rows", op.Rows)
	w.SetInt("cols", op.Cols)
	w.SetFloat64s("weights", op.Weights)
}

func (op *MatVec) ReadFields(r *archive.Reader) error {
	var err error
	if op.Rows, err = r.Int("rows"); err != nil {
		return err
	}
	if op.Cols, err = r.Int("cols"); err != nil {
		return err
	}
	op.Weights, err = r.Float64s("weights")
	return err
}
