package compile

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlab/emberc/internal/graph"
	"github.com/emberlab/emberc/internal/ir"
)

func TestWriteHeader(t *testing.T) {
	m, _, _ := sumModel(t, 10)
	opts := DefaultOptions()
	opts.ModuleName = "mnist"
	compiled := compileWith(t, m, opts)

	var sb strings.Builder
	require.NoError(t, WriteHeader(&sb, compiled, opts))
	header := sb.String()

	assert.Contains(t, header, "#ifndef MNIST_H")
	assert.Contains(t, header, "#define MNIST_H")
	assert.Contains(t, header, "extern \"C\"")
	assert.Contains(t, header, "typedef struct mnist_state")
	// One state buffer of 10 doubles.
	assert.Contains(t, header, "uint8_t _0[80];")
	assert.Contains(t, header, "void mnist_predict(double* in0, double* in1, double* out0);")

	// Internal task functions stay out of the interface.
	assert.NotContains(t, header, InternalPrefix)
}

func TestWriteHeaderExcludesUnderscoreFunctions(t *testing.T) {
	m, _, _ := sumModel(t, 4)
	opts := DefaultOptions()
	opts.Parallelize = false
	compiled := compileWith(t, m, opts)

	require.NoError(t, compiled.Module.Add(ir.NewFunction("_private_helper").Function()))
	require.NoError(t, compiled.Module.Add(ir.NewFunction("model_reset").Function()))

	var sb strings.Builder
	require.NoError(t, WriteHeader(&sb, compiled, opts))
	header := sb.String()

	assert.NotContains(t, header, "_private_helper")
	assert.Contains(t, header, "void model_reset();")
}

func TestWriteHeaderEmptyState(t *testing.T) {
	m := graph.NewModel()
	in, err := m.AddNode(&entryOp{size: 4})
	require.NoError(t, err)
	_, err = m.AddNode(&sumOp{size: 4}, in.OutputRef(0), in.OutputRef(0))
	require.NoError(t, err)

	compiled := compileWith(t, m, DefaultOptions())
	require.Empty(t, compiled.State)

	var sb strings.Builder
	require.NoError(t, WriteHeader(&sb, compiled, DefaultOptions()))
	// The state struct keeps a placeholder member so it stays a valid C
	// type.
	assert.Contains(t, sb.String(), "uint8_t _0[1];")
}

func TestWriteHeaderFile(t *testing.T) {
	m, _, _ := sumModel(t, 4)
	opts := DefaultOptions()
	compiled := compileWith(t, m, opts)

	fs := afero.NewMemMapFs()
	require.NoError(t, WriteHeaderFile(fs, "/out/model.h", compiled, opts))

	data, err := afero.ReadFile(fs, "/out/model.h")
	require.NoError(t, err)
	assert.Contains(t, string(data), "model_predict")
}

func TestSanitizeIdent(t *testing.T) {
	assert.Equal(t, "my_model", sanitizeIdent("my-model"))
	assert.Equal(t, "_3layers", sanitizeIdent("3layers"))
	assert.Equal(t, "model", sanitizeIdent(""))
}
