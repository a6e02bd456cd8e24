package graph

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testOp is a minimal op for graph tests: n same-typed inputs, one output
// whose shape either mirrors the first bound source or falls back to the
// declared size.
type testOp struct {
	name   string
	inputs int
	size   int
}

func (op *testOp) OpName() string { return op.name }

func (op *testOp) Clone() Op {
	c := *op
	return &c
}

func (op *testOp) Ports(sources []PortInfo) ([]PortInfo, []PortInfo, error) {
	if len(sources) != op.inputs {
		return nil, nil, fmt.Errorf("%w: %s wants %d inputs, got %d", ErrIllegalState, op.name, op.inputs, len(sources))
	}
	layout := Vector(op.size)
	in := make([]PortInfo, op.inputs)
	for i := range in {
		in[i] = PortInfo{Name: fmt.Sprintf("in%d", i), Type: Float64, Layout: layout}
	}
	out := []PortInfo{{Name: "output", Type: Float64, Layout: layout}}
	return in, out, nil
}

func (op *testOp) Compute(in [][]float64) ([][]float64, error) {
	out := make([]float64, op.size)
	for _, buf := range in {
		for i, v := range buf {
			out[i] += v
		}
	}
	return [][]float64{out}, nil
}

func src(size int) *testOp          { return &testOp{name: "source", size: size} }
func sink(n, size int) *testOp      { return &testOp{name: "sink", inputs: n, size: size} }
func unary(name string, s int) *testOp { return &testOp{name: name, inputs: 1, size: s} }

func TestAddNodeAssignsSequentialIDs(t *testing.T) {
	m := NewModel()

	a, err := m.AddNode(src(4))
	require.NoError(t, err)
	b, err := m.AddNode(unary("b", 4), a.OutputRef(0))
	require.NoError(t, err)

	assert.Equal(t, NodeID(1), a.ID())
	assert.Equal(t, NodeID(2), b.ID())
	assert.Equal(t, 2, m.Len())
}

func TestBindIsVisibleFromBothSides(t *testing.T) {
	m := NewModel()
	a, err := m.AddNode(src(4))
	require.NoError(t, err)
	b, err := m.AddNode(unary("b", 4), a.OutputRef(0))
	require.NoError(t, err)

	source, err := b.Input(0).Source()
	require.NoError(t, err)
	assert.Equal(t, a.OutputRef(0), source)

	refs := a.Output(0).References()
	require.Len(t, refs, 1)
	assert.Equal(t, b.InputRefAt(0), refs[0])
}

func TestBindTypeMismatch(t *testing.T) {
	m := NewModel()
	a, err := m.AddNode(src(4))
	require.NoError(t, err)
	_, err = m.AddNode(unary("b", 8), a.OutputRef(0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	// The failed add must leave no trace.
	assert.Equal(t, 1, m.Len())
	assert.False(t, a.Output(0).Referenced())

	b, err := m.AddNode(unary("b", 4), a.OutputRef(0))
	require.NoError(t, err)
	assert.Equal(t, NodeID(2), b.ID())
}

func TestAddNodeRollsBackPartialBinds(t *testing.T) {
	m := NewModel()
	a, err := m.AddNode(src(4))
	require.NoError(t, err)
	c, err := m.AddNode(src(8))
	require.NoError(t, err)

	// The first input binds, the second mismatches; the bound input must
	// be unwound along with the node.
	_, err = m.AddNode(sink(2, 4), a.OutputRef(0), c.OutputRef(0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.Equal(t, 2, m.Len())
	assert.False(t, a.Output(0).Referenced())
	assert.False(t, c.Output(0).Referenced())
	require.NoError(t, m.Verify())
}

func TestUnbindRemovesBothSides(t *testing.T) {
	m := NewModel()
	a, err := m.AddNode(src(4))
	require.NoError(t, err)
	b, err := m.AddNode(unary("b", 4), a.OutputRef(0))
	require.NoError(t, err)

	require.NoError(t, m.Unbind(b.InputRefAt(0)))
	assert.False(t, b.Input(0).Bound())
	assert.False(t, a.Output(0).Referenced())

	_, err = b.Input(0).Source()
	assert.True(t, errors.Is(err, ErrIllegalState))

	// Unbinding an already-free input is a no-op.
	require.NoError(t, m.Unbind(b.InputRefAt(0)))
}

func TestRebindReplacesReference(t *testing.T) {
	m := NewModel()
	a1, err := m.AddNode(src(4))
	require.NoError(t, err)
	a2, err := m.AddNode(src(4))
	require.NoError(t, err)
	b, err := m.AddNode(unary("b", 4), a1.OutputRef(0))
	require.NoError(t, err)

	require.NoError(t, m.Bind(b.InputRefAt(0), a2.OutputRef(0)))
	assert.False(t, a1.Output(0).Referenced())
	assert.True(t, a2.Output(0).Referenced())
}

func TestRemoveNodeRefusesWhileReferenced(t *testing.T) {
	m := NewModel()
	a, err := m.AddNode(src(4))
	require.NoError(t, err)
	b, err := m.AddNode(unary("b", 4), a.OutputRef(0))
	require.NoError(t, err)

	err = m.RemoveNode(a.ID())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllegalState))

	require.NoError(t, m.RemoveNode(b.ID()))
	require.NoError(t, m.RemoveNode(a.ID()))
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Contains(a.ID()))
}

func TestVerifyRejectsCycle(t *testing.T) {
	m := NewModel()
	a, err := m.AddNode(unary("a", 4), Unbound)
	require.NoError(t, err)
	b, err := m.AddNode(unary("b", 4), a.OutputRef(0))
	require.NoError(t, err)
	require.NoError(t, m.Bind(a.InputRefAt(0), b.OutputRef(0)))

	err = m.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestVerifyAcceptsDiamond(t *testing.T) {
	m := NewModel()
	a, err := m.AddNode(src(4))
	require.NoError(t, err)
	l, err := m.AddNode(unary("l", 4), a.OutputRef(0))
	require.NoError(t, err)
	r, err := m.AddNode(unary("r", 4), a.OutputRef(0))
	require.NoError(t, err)
	_, err = m.AddNode(sink(2, 4), l.OutputRef(0), r.OutputRef(0))
	require.NoError(t, err)

	require.NoError(t, m.Verify())
}

func TestTerminalOutputs(t *testing.T) {
	m := NewModel()
	a, err := m.AddNode(src(4))
	require.NoError(t, err)
	b, err := m.AddNode(unary("b", 4), a.OutputRef(0))
	require.NoError(t, err)

	terms := m.TerminalOutputs()
	require.Len(t, terms, 1)
	assert.Equal(t, b.OutputRef(0), terms[0])
}

func TestComputeReferenceSemantics(t *testing.T) {
	m := NewModel()
	a, err := m.AddNode(src(3))
	require.NoError(t, err)
	b, err := m.AddNode(sink(2, 3), a.OutputRef(0), a.OutputRef(0))
	require.NoError(t, err)

	values, err := m.Compute(map[NodeID][]float64{a.ID(): {1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 6}, values[b.OutputRef(0)])
}

func TestComputeMissingFeed(t *testing.T) {
	m := NewModel()
	in, err := m.AddNode(&feedOnlyOp{size: 3})
	require.NoError(t, err)
	_ = in

	_, err = m.Compute(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllegalState))
}

// feedOnlyOp has no Compute of its own, like a model entry point.
type feedOnlyOp struct {
	size int
}

func (op *feedOnlyOp) OpName() string { return "feed" }
func (op *feedOnlyOp) Clone() Op      { return &feedOnlyOp{size: op.size} }
func (op *feedOnlyOp) Ports(sources []PortInfo) ([]PortInfo, []PortInfo, error) {
	return nil, []PortInfo{{Name: "output", Type: Float64, Layout: Vector(op.size)}}, nil
}

func TestNodesReturnsCopy(t *testing.T) {
	m := NewModel()
	_, err := m.AddNode(src(1))
	require.NoError(t, err)

	nodes := m.Nodes()
	nodes[0] = nil
	assert.True(t, slices.IndexFunc(m.Nodes(), func(n *Node) bool { return n == nil }) == -1)
}
