package nodes

import (
	"fmt"
	"slices"

	"github.com/emberlab/emberc/internal/archive"
	"github.com/emberlab/emberc/internal/graph"
	"github.com/emberlab/emberc/internal/transform"
)

func init() {
	archive.RegisterOp("poly", func() graph.Op { return &Poly{} })
}

// Poly evaluates a polynomial elementwise. Coeffs holds the coefficients
// in ascending order: Coeffs[k] multiplies x^k.
//
// Refinement rewrites the node as a Horner chain of multiply and affine
// nodes; the affine links refine further, so fully lowering a poly takes
// more than one pass.
type Poly struct {
	Coeffs []float64
}

// NewPoly returns a polynomial op with ascending coefficients.
func NewPoly(coeffs []float64) *Poly { return &Poly{Coeffs: coeffs} }

func (op *Poly) OpName() string { return "poly" }

func (op *Poly) Clone() graph.Op { return &Poly{Coeffs: slices.Clone(op.Coeffs)} }

func (op *Poly) Ports(sources []graph.PortInfo) ([]graph.PortInfo, []graph.PortInfo, error) {
	if len(sources) != 1 {
		return nil, nil, fmt.Errorf("%w: poly takes one input, got %d", graph.ErrIllegalState, len(sources))
	}
	src := sources[0]
	if src.Type == graph.None {
		return nil, nil, fmt.Errorf("%w: poly needs a bound input to derive its shape", graph.ErrIllegalState)
	}
	if len(op.Coeffs) == 0 {
		return nil, nil, fmt.Errorf("%w: poly has no coefficients", graph.ErrIllegalState)
	}
	in := []graph.PortInfo{{Name: "input", Type: src.Type, Layout: src.Layout}}
	out := []graph.PortInfo{{Name: "output", Type: src.Type, Layout: src.Layout}}
	return in, out, nil
}

func (op *Poly) Compute(in [][]float64) ([][]float64, error) {
	out := make([]float64, len(in[0]))
	for i, x := range in[0] {
		acc := 0.0
		for k := len(op.Coeffs) - 1; k >= 0; k-- {
			acc = acc*x + op.Coeffs[k]
		}
		out[i] = acc
	}
	return [][]float64{out}, nil
}

// Refine rewrites the node as a Horner chain: starting from the leading
// coefficient, each step multiplies the accumulator by x and adds the
// next coefficient through an affine node.
func (op *Poly) Refine(t *transform.Transformer, n *graph.Node) (bool, error) {
	x, err := t.CorrespondingInput(n.InputRefAt(0))
	if err != nil {
		return false, err
	}
	size := n.Output(0).Size()

	broadcast := func(c float64) []float64 {
		v := make([]float64, size)
		for i := range v {
			v[i] = c
		}
		return v
	}
	ones := broadcast(1)

	lead, err := t.AddNode(NewConstant(broadcast(op.Coeffs[len(op.Coeffs)-1])))
	if err != nil {
		return false, err
	}
	acc := lead.OutputRef(0)
	for k := len(op.Coeffs) - 2; k >= 0; k-- {
		prod, err := t.AddNode(NewMultiply(), acc, x)
		if err != nil {
			return false, err
		}
		next, err := t.AddNode(NewAffine(ones, broadcast(op.Coeffs[k])), prod.OutputRef(0))
		if err != nil {
			return false, err
		}
		acc = next.OutputRef(0)
	}

	t.MapOutput(n.OutputRef(0), acc)
	return true, nil
}

func (op *Poly) WriteFields(w *archive.Writer) {
	w.SetFloat64s("coeffs", op.Coeffs)
}

func (op *Poly) ReadFields(r *archive.Reader) error {
	var err error
	op.Coeffs, err = r.Float64s("coeffs")
	return err
}
