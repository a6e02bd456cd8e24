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
	archive.RegisterOp("constant", func() graph.Op { return &Constant{} })
}

// Constant produces a fixed tensor. The layout's active size must match
// the number of values.
type Constant struct {
	Values []float64
	Layout graph.MemoryLayout
}

// NewConstant returns a constant op over a dense vector of values.
func NewConstant(values []float64) *Constant {
	return &Constant{Values: values, Layout: graph.Vector(len(values))}
}

func (c *Constant) OpName() string { return "constant" }

func (c *Constant) Clone() graph.Op {
	return &Constant{Values: slices.Clone(c.Values), Layout: c.Layout}
}

func (c *Constant) Ports(sources []graph.PortInfo) (in, out []graph.PortInfo, err error) {
	if len(sources) != 0 {
		return nil, nil, fmt.Errorf("%w: constant takes no inputs", graph.ErrIllegalState)
	}
	if got := c.Layout.ActiveSize(); got != len(c.Values) {
		return nil, nil, fmt.Errorf("%w: constant layout holds %d elements, %d values given",
			graph.ErrTypeMismatch, got, len(c.Values))
	}
	out = []graph.PortInfo{{Name: "output", Type: graph.Float64, Layout: c.Layout}}
	return nil, out, nil
}

func (c *Constant) Compute(in [][]float64) ([][]float64, error) {
	return [][]float64{slices.Clone(c.Values)}, nil
}

func (c *Constant) Lower(lc *compile.LowerContext, b *ir.Builder) error {
	out := lc.Output(0)
	for i, v := range c.Values {
		b.Store(out.Name, ir.Int(i), ir.Float(v))
	}
	return nil
}

func (c *Constant) WriteFields(w *archive.Writer) {
	w.SetFloat64s("values", c.Values)
	w.SetInts("extent", c.Layout.Extent)
	w.SetInts("active", c.Layout.Active)
	w.SetInts("offset", c.Layout.Offset)
}

func (c *Constant) ReadFields(r *archive.Reader) error {
	var err error
	if c.Values, err = r.Float64s("values"); err != nil {
		return err
	}
	extent, err := r.Ints("extent")
	if err != nil {
		return err
	}
	active, err := r.Ints("active")
	if err != nil {
		return err
	}
	offset, err := r.Ints("offset")
	if err != nil {
		return err
	}
	c.Layout, err = graph.Padded(extent, active, offset)
	return err
}
