package nodes

import (
	"fmt"
	"slices"

	"github.com/emberlab/emberc/internal/archive"
	"github.com/emberlab/emberc/internal/graph"
	"github.com/emberlab/emberc/internal/transform"
)

func init() {
	archive.RegisterOp("affine", func() graph.Op { return &Affine{} })
}

// Affine computes scale*x + bias elementwise. It carries no lowering of
// its own; refinement rewrites it into a multiply and an add against
// constant tensors.
type Affine struct {
	Scale []float64
	Bias  []float64
}

// NewAffine returns an affine op with per-element scale and bias. The two
// slices must have the input's length.
func NewAffine(scale, bias []float64) *Affine {
	return &Affine{Scale: scale, Bias: bias}
}

func (op *Affine) OpName() string { return "affine" }

func (op *Affine) Clone() graph.Op {
	return &Affine{Scale: slices.Clone(op.Scale), Bias: slices.Clone(op.Bias)}
}

func (op *Affine) Ports(sources []graph.PortInfo) ([]graph.PortInfo, []graph.PortInfo, error) {
	if len(sources) != 1 {
		return nil, nil, fmt.Errorf("%w: affine takes one input, got %d", graph.ErrIllegalState, len(sources))
	}
	src := sources[0]
	if src.Type == graph.None {
		return nil, nil, fmt.Errorf("%w: affine needs a bound input to derive its shape", graph.ErrIllegalState)
	}
	n := src.Layout.ActiveSize()
	if len(op.Scale) != n || len(op.Bias) != n {
		return nil, nil, fmt.Errorf("%w: affine has %d scales and %d biases for a %d element input",
			graph.ErrTypeMismatch, len(op.Scale), len(op.Bias), n)
	}
	in := []graph.PortInfo{{Name: "input", Type: src.Type, Layout: src.Layout}}
	out := []graph.PortInfo{{Name: "output", Type: src.Type, Layout: src.Layout}}
	return in, out, nil
}

func (op *Affine) Compute(in [][]float64) ([][]float64, error) {
	out := make([]float64, len(in[0]))
	for i, v := range in[0] {
		out[i] = op.Scale[i]*v + op.Bias[i]
	}
	return [][]float64{out}, nil
}

// Refine rewrites the node as x*scale + bias over constant tensors.
func (op *Affine) Refine(t *transform.Transformer, n *graph.Node) (bool, error) {
	x, err := t.CorrespondingInput(n.InputRefAt(0))
	if err != nil {
		return false, err
	}

	scale, err := t.AddNode(NewConstant(op.Scale))
	if err != nil {
		return false, err
	}
	scaled, err := t.AddNode(NewMultiply(), x, scale.OutputRef(0))
	if err != nil {
		return false, err
	}
	bias, err := t.AddNode(NewConstant(op.Bias))
	if err != nil {
		return false, err
	}
	sum, err := t.AddNode(NewAdd(), scaled.OutputRef(0), bias.OutputRef(0))
	if err != nil {
		return false, err
	}

	t.MapOutput(n.OutputRef(0), sum.OutputRef(0))
	return true, nil
}

func (op *Affine) WriteFields(w *archive.Writer) {
	w.SetFloat64s("scale", op.Scale)
	w.SetFloat64s("bias", op.Bias)
}

func (op *Affine) ReadFields(r *archive.Reader) error {
	var err error
	if op.Scale, err = r.Float64s("scale"); err != nil {
		return err
	}
	op.Bias, err = r.Float64s("bias")
	return err
}
