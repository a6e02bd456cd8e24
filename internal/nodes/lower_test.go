package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlab/emberc/internal/compile"
	"github.com/emberlab/emberc/internal/graph"
	"github.com/emberlab/emberc/internal/ir"
	"github.com/emberlab/emberc/internal/transform"
)

// refineAndCompile runs the whole pipeline and returns the compiled
// module.
func refineAndCompile(t *testing.T, m *graph.Model, opts compile.Options) *compile.Compiled {
	t.Helper()
	compiler, err := compile.New(opts)
	require.NoError(t, err)

	tr := transform.NewTransformer(transform.NewCompilerContext(compiler))
	refined, result, err := tr.RefineModel(context.Background(), m, 0)
	require.NoError(t, err)
	require.True(t, result.Complete(), "residual nodes: %v", result.Residual)

	compiled, err := compiler.CompileModel(context.Background(), refined, nil)
	require.NoError(t, err)
	return compiled
}

func TestAffineRefinesToPrimitives(t *testing.T) {
	m := graph.NewModel()
	in, err := m.AddNode(NewInput(3))
	require.NoError(t, err)
	aff, err := m.AddNode(NewAffine([]float64{2, 3, 4}, []float64{1, 1, 1}), in.OutputRef(0))
	require.NoError(t, err)

	compiler, err := compile.New(compile.DefaultOptions())
	require.NoError(t, err)
	tr := transform.NewTransformer(transform.NewCompilerContext(compiler))
	refined, result, err := tr.RefineModel(context.Background(), m, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Rewrites)
	assert.True(t, result.Complete())
	// input + scale const + multiply + bias const + add.
	assert.Equal(t, 5, refined.Len())

	mapped, err := tr.CorrespondingOutput(aff.OutputRef(0))
	require.NoError(t, err)
	loadedIn, err := tr.CorrespondingNode(in.ID())
	require.NoError(t, err)

	values, err := refined.Compute(map[graph.NodeID][]float64{loadedIn: {1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 7, 13}, values[mapped])
}

func TestPolyRefinesAcrossPasses(t *testing.T) {
	m := graph.NewModel()
	in, err := m.AddNode(NewInput(2))
	require.NoError(t, err)
	_, err = m.AddNode(NewPoly([]float64{1, 0, 1}), in.OutputRef(0)) // 1 + x^2
	require.NoError(t, err)

	compiler, err := compile.New(compile.DefaultOptions())
	require.NoError(t, err)
	tr := transform.NewTransformer(transform.NewCompilerContext(compiler))
	_, result, err := tr.RefineModel(context.Background(), m, 0)
	require.NoError(t, err)

	// The poly expands to affines in pass one; the affines expand in pass
	// two.
	assert.GreaterOrEqual(t, result.Iterations, 3)
	assert.True(t, result.Complete())
}

func TestPolyIterationCapLeavesAffineResidual(t *testing.T) {
	m := graph.NewModel()
	in, err := m.AddNode(NewInput(2))
	require.NoError(t, err)
	_, err = m.AddNode(NewPoly([]float64{1, 0, 1}), in.OutputRef(0))
	require.NoError(t, err)

	compiler, err := compile.New(compile.DefaultOptions())
	require.NoError(t, err)
	tr := transform.NewTransformer(transform.NewCompilerContext(compiler))
	refined, result, err := tr.RefineModel(context.Background(), m, 1)
	require.NoError(t, err)

	require.False(t, result.Complete())
	for _, id := range result.Residual {
		n, err := refined.Node(id)
		require.NoError(t, err)
		assert.Equal(t, "affine", n.Op().OpName())
	}
}

func TestCompiledNetworkMatchesReference(t *testing.T) {
	m := graph.NewModel()
	in, err := m.AddNode(NewInput(3))
	require.NoError(t, err)
	mv, err := m.AddNode(NewMatVec(4, 3, []float64{
		1, 2, 3,
		0, -1, 1,
		2, 0, -2,
		0.5, 0.5, 0.5,
	}), in.OutputRef(0))
	require.NoError(t, err)
	aff, err := m.AddNode(NewAffine([]float64{1, 2, 3, 4}, []float64{0, 1, -1, 0}), mv.OutputRef(0))
	require.NoError(t, err)
	out, err := m.AddNode(NewReLU(), aff.OutputRef(0))
	require.NoError(t, err)

	feed := []float64{1, -2, 0.5}
	wantValues, err := m.Compute(map[graph.NodeID][]float64{in.ID(): feed})
	require.NoError(t, err)
	want := wantValues[out.OutputRef(0)]

	for _, parallelize := range []bool{true, false} {
		for _, vectorize := range []bool{true, false} {
			opts := compile.DefaultOptions()
			opts.Parallelize = parallelize
			opts.Vectorize = vectorize
			opts.MaxTasks = 2

			compiled := refineAndCompile(t, m, opts)
			require.Len(t, compiled.Inputs, 1)
			require.Len(t, compiled.Outputs, 1)

			got, err := compiled.Execute(ir.NewPool(4), [][]float64{feed})
			require.NoError(t, err, "parallelize=%v vectorize=%v", parallelize, vectorize)
			assert.InDeltaSlice(t, want, got[0], 1e-12, "parallelize=%v vectorize=%v", parallelize, vectorize)
		}
	}
}

func TestConstantLowering(t *testing.T) {
	m := graph.NewModel()
	c, err := m.AddNode(NewConstant([]float64{5, -5}))
	require.NoError(t, err)
	_, err = m.AddNode(NewReLU(), c.OutputRef(0))
	require.NoError(t, err)

	compiled := refineAndCompile(t, m, compile.DefaultOptions())
	require.Empty(t, compiled.Inputs)

	got, err := compiled.Execute(nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []float64{5, 0}, got[0])
}
