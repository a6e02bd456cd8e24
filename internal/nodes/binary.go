package nodes

import (
	"fmt"

	"github.com/emberlab/emberc/internal/archive"
	"github.com/emberlab/emberc/internal/compile"
	"github.com/emberlab/emberc/internal/graph"
	"github.com/emberlab/emberc/internal/ir"
)

func init() {
	archive.RegisterOp("add", func() graph.Op { return &Binary{Kind: Add} })
	archive.RegisterOp("multiply", func() graph.Op { return &Binary{Kind: Multiply} })
}

// BinaryKind selects the elementwise operation of a Binary op.
type BinaryKind int

const (
	Add BinaryKind = iota
	Multiply
)

func (k BinaryKind) String() string {
	switch k {
	case Add:
		return "add"
	case Multiply:
		return "multiply"
	default:
		return fmt.Sprintf("BinaryKind(%d)", int(k))
	}
}

func (k BinaryKind) irOp() ir.BinOp {
	if k == Multiply {
		return ir.OpMul
	}
	return ir.OpAdd
}

func (k BinaryKind) apply(a, b float64) float64 {
	if k == Multiply {
		return a * b
	}
	return a + b
}

// Binary combines two same-shaped tensors elementwise.
type Binary struct {
	Kind BinaryKind
}

// NewAdd returns an elementwise addition op.
func NewAdd() *Binary { return &Binary{Kind: Add} }

// NewMultiply returns an elementwise multiplication op.
func NewMultiply() *Binary { return &Binary{Kind: Multiply} }

func (op *Binary) OpName() string { return op.Kind.String() }

func (op *Binary) Clone() graph.Op { return &Binary{Kind: op.Kind} }

// Ports derives the op's shape from whichever source is known, so one
// input may be left unbound at creation and bound later.
func (op *Binary) Ports(sources []graph.PortInfo) ([]graph.PortInfo, []graph.PortInfo, error) {
	if len(sources) != 2 {
		return nil, nil, fmt.Errorf("%w: %s takes two inputs, got %d", graph.ErrIllegalState, op.Kind, len(sources))
	}
	var ref graph.PortInfo
	for _, s := range sources {
		if s.Type != graph.None {
			ref = s
			break
		}
	}
	if ref.Type == graph.None {
		return nil, nil, fmt.Errorf("%w: %s needs at least one bound input to derive its shape", graph.ErrIllegalState, op.Kind)
	}
	for i, s := range sources {
		if s.Type == graph.None {
			continue
		}
		if s.Type != ref.Type || s.Layout.ActiveSize() != ref.Layout.ActiveSize() {
			return nil, nil, fmt.Errorf("%w: %s input %d has %s[%d], want %s[%d]",
				graph.ErrTypeMismatch, op.Kind, i, s.Type, s.Layout.ActiveSize(), ref.Type, ref.Layout.ActiveSize())
		}
	}
	in := []graph.PortInfo{
		{Name: "a", Type: ref.Type, Layout: ref.Layout},
		{Name: "b", Type: ref.Type, Layout: ref.Layout},
	}
	out := []graph.PortInfo{{Name: "output", Type: ref.Type, Layout: ref.Layout}}
	return in, out, nil
}

func (op *Binary) Compute(in [][]float64) ([][]float64, error) {
	a, b := in[0], in[1]
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %s inputs have %d and %d elements", graph.ErrTypeMismatch, op.Kind, len(a), len(b))
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = op.Kind.apply(a[i], b[i])
	}
	return [][]float64{out}, nil
}

func (op *Binary) Lower(lc *compile.LowerContext, b *ir.Builder) error {
	a, bb, out := lc.Input(0), lc.Input(1), lc.Output(0)
	shared := []compile.Buffer{a, bb, out}
	return lc.EmitParallelFor(b, out.Size, shared, func(b *ir.Builder, start, end ir.Expr) {
		lc.EmitBlockedLoop(b, start, end, func(b *ir.Builder, idx ir.Expr, width int) {
			b.VecBin(op.Kind.irOp(), out.Name, idx, a.Name, idx, bb.Name, idx, width)
		})
	})
}
