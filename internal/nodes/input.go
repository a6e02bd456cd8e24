package nodes

import (
	"fmt"

	"github.com/emberlab/emberc/internal/archive"
	"github.com/emberlab/emberc/internal/graph"
)

func init() {
	archive.RegisterOp("input", func() graph.Op { return &Input{} })
}

// Input marks a model entry point: its output buffer comes from the
// caller, both under reference evaluation (a feed) and in compiled code
// (an entry parameter).
type Input struct {
	Size int
}

// NewInput returns an input op producing a vector of n elements.
func NewInput(n int) *Input { return &Input{Size: n} }

func (in *Input) OpName() string { return "input" }

func (in *Input) Clone() graph.Op { return &Input{Size: in.Size} }

func (in *Input) Ports(sources []graph.PortInfo) ([]graph.PortInfo, []graph.PortInfo, error) {
	if len(sources) != 0 {
		return nil, nil, fmt.Errorf("%w: input takes no inputs", graph.ErrIllegalState)
	}
	if in.Size <= 0 {
		return nil, nil, fmt.Errorf("%w: input size must be positive, got %d", graph.ErrIllegalState, in.Size)
	}
	out := []graph.PortInfo{{Name: "output", Type: graph.Float64, Layout: graph.Vector(in.Size)}}
	return nil, out, nil
}

// EntrySource marks the op's output as caller supplied.
func (in *Input) EntrySource() {}

func (in *Input) WriteFields(w *archive.Writer) {
	w.SetInt("size", in.Size)
}

func (in *Input) ReadFields(r *archive.Reader) error {
	var err error
	in.Size, err = r.Int("size")
	return err
}
