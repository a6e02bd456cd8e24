package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds a -> b -> c and returns the model with the three nodes.
func chain(t *testing.T) (*Model, *Node, *Node, *Node) {
	t.Helper()
	m := NewModel()
	a, err := m.AddNode(src(4))
	require.NoError(t, err)
	b, err := m.AddNode(unary("b", 4), a.OutputRef(0))
	require.NoError(t, err)
	c, err := m.AddNode(unary("c", 4), b.OutputRef(0))
	require.NoError(t, err)
	return m, a, b, c
}

func TestSubmodelClosure(t *testing.T) {
	m, a, b, c := chain(t)

	s, err := NewSubmodel(m, []PortRef{c.OutputRef(0)}, nil)
	require.NoError(t, err)

	nodes, err := s.Nodes()
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, a.ID(), nodes[0].ID())
	assert.Equal(t, b.ID(), nodes[1].ID())
	assert.Equal(t, c.ID(), nodes[2].ID())
}

func TestSubmodelBoundaryCutsTraversal(t *testing.T) {
	m, a, b, c := chain(t)

	// Cutting at b's input excludes a from the closure.
	s, err := NewSubmodel(m, []PortRef{c.OutputRef(0)}, []InputRef{b.InputRefAt(0)})
	require.NoError(t, err)
	assert.True(t, s.IsBoundaryInput(b.InputRefAt(0)))
	assert.False(t, s.IsBoundaryInput(c.InputRefAt(0)))

	nodes, err := s.Nodes()
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, b.ID(), nodes[0].ID())
	assert.Equal(t, c.ID(), nodes[1].ID())
	assert.NotEqual(t, a.ID(), nodes[0].ID())
}

func TestSubmodelUnreachableBoundary(t *testing.T) {
	m, a, b, _ := chain(t)

	// b's output is computed without ever crossing b's own input cut when
	// the outputs stop at a, so the designated cut is unreachable.
	_, err := NewSubmodel(m, []PortRef{a.OutputRef(0)}, []InputRef{b.InputRefAt(0)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIllegalState)
}

func TestSubmodelValidatesPorts(t *testing.T) {
	m, _, _, c := chain(t)

	_, err := NewSubmodel(m, []PortRef{{Node: 99, Port: 0}}, nil)
	require.Error(t, err)

	_, err = NewSubmodel(m, []PortRef{c.OutputRef(0)}, []InputRef{{Node: 99, Port: 0}})
	require.Error(t, err)
}
