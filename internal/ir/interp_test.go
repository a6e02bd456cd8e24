package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleRejectsDuplicateFunction(t *testing.T) {
	mod := NewModule()
	require.NoError(t, mod.Add(NewFunction("f").Function()))

	err := mod.Add(NewFunction("f").Function())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already defined")
}

func TestInterpForLoop(t *testing.T) {
	b := NewFunction("fill", ArrayFloat("out", 5))
	b.For(Int(0), Int(5), Int(1), func(b *Builder, iv Expr) {
		b.Store("out", iv, Bin{Op: OpMul, A: iv, B: Int(2)})
	})
	mod := NewModule()
	require.NoError(t, mod.Add(b.Function()))

	out := make([]float64, 5)
	require.NoError(t, NewInterp(mod, nil).Call("fill", out))
	assert.Equal(t, []float64{0, 2, 4, 6, 8}, out)
}

func TestInterpScalarsAndIndexing(t *testing.T) {
	b := NewFunction("dot", ArrayFloat("a", 3), ArrayFloat("bv", 3), ArrayFloat("out", 1))
	acc := b.FreshName("acc")
	b.DeclScalar(acc, Float(0))
	b.For(Int(0), Int(3), Int(1), func(b *Builder, iv Expr) {
		prod := Bin{Op: OpMul, A: Index{Arr: "a", Idx: iv}, B: Index{Arr: "bv", Idx: iv}}
		b.Assign(acc, Bin{Op: OpAdd, A: Ref{Name: acc}, B: prod})
	})
	b.Store("out", Int(0), Ref{Name: acc})
	mod := NewModule()
	require.NoError(t, mod.Add(b.Function()))

	out := make([]float64, 1)
	require.NoError(t, NewInterp(mod, nil).Call("dot",
		[]float64{1, 2, 3}, []float64{4, 5, 6}, out))
	assert.Equal(t, []float64{32}, out)
}

func TestInterpVectorOps(t *testing.T) {
	b := NewFunction("vec", ArrayFloat("a", 4), ArrayFloat("bv", 4), ArrayFloat("out", 4))
	b.VecBin(OpAdd, "out", Int(0), "a", Int(0), "bv", Int(0), 4)
	b.VecScalar(OpMax, "out", Int(0), "out", Int(0), Float(0), 4)
	mod := NewModule()
	require.NoError(t, mod.Add(b.Function()))

	out := make([]float64, 4)
	require.NoError(t, NewInterp(mod, nil).Call("vec",
		[]float64{1, -5, 3, -1}, []float64{1, 2, -4, 0}, out))
	assert.Equal(t, []float64{2, 0, 0, 0}, out)
}

func TestInterpVectorOpsOutOfBounds(t *testing.T) {
	b := NewFunction("vec", ArrayFloat("a", 4), ArrayFloat("out", 4))
	b.VecBin(OpAdd, "out", Int(2), "a", Int(0), "a", Int(0), 4)
	mod := NewModule()
	require.NoError(t, mod.Add(b.Function()))

	err := NewInterp(mod, nil).Call("vec", make([]float64, 4), make([]float64, 4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of bounds")

	b = NewFunction("vecs", ArrayFloat("a", 4), ArrayFloat("out", 4))
	b.VecScalar(OpMax, "out", Int(0), "a", Int(3), Float(0), 2)
	mod = NewModule()
	require.NoError(t, mod.Add(b.Function()))

	err = NewInterp(mod, nil).Call("vecs", make([]float64, 4), make([]float64, 4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of bounds")
}

func TestInterpTasksShareArrays(t *testing.T) {
	task := NewFunction("worker", ArrayFloat("out", 8), ScalarInt("start"), ScalarInt("end"))
	task.For(Ref{Name: "start"}, Ref{Name: "end"}, Int(1), func(b *Builder, iv Expr) {
		b.Store("out", iv, Bin{Op: OpAdd, A: iv, B: Int(1)})
	})

	entry := NewFunction("entry", ArrayFloat("out", 8))
	entry.StartTasks("worker", [][]Expr{
		{Ref{Name: "out"}, Int(0), Int(4)},
		{Ref{Name: "out"}, Int(4), Int(8)},
	})
	entry.WaitAll()

	mod := NewModule()
	require.NoError(t, mod.Add(task.Function()))
	require.NoError(t, mod.Add(entry.Function()))

	out := make([]float64, 8)
	require.NoError(t, NewInterp(mod, NewPool(4)).Call("entry", out))
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, out)
}

func TestInterpUnjoinedTasks(t *testing.T) {
	task := NewFunction("worker", ScalarInt("n"))

	entry := NewFunction("entry")
	entry.StartTasks("worker", [][]Expr{{Int(1)}})
	// No WaitAll.

	mod := NewModule()
	require.NoError(t, mod.Add(task.Function()))
	require.NoError(t, mod.Add(entry.Function()))

	err := NewInterp(mod, nil).Call("entry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unjoined tasks")
}

func TestInterpCall(t *testing.T) {
	inner := NewFunction("scale", ArrayFloat("buf", 2), ScalarFloat("by"))
	inner.For(Int(0), Int(2), Int(1), func(b *Builder, iv Expr) {
		b.Store("buf", iv, Bin{Op: OpMul, A: Index{Arr: "buf", Idx: iv}, B: Ref{Name: "by"}})
	})

	entry := NewFunction("entry", ArrayFloat("buf", 2))
	entry.Call("scale", Ref{Name: "buf"}, Float(3))

	mod := NewModule()
	require.NoError(t, mod.Add(inner.Function()))
	require.NoError(t, mod.Add(entry.Function()))

	buf := []float64{1, 2}
	require.NoError(t, NewInterp(mod, nil).Call("entry", buf))
	assert.Equal(t, []float64{3, 6}, buf)
}

func TestInterpArgumentChecks(t *testing.T) {
	mod := NewModule()
	require.NoError(t, mod.Add(NewFunction("f", ScalarInt("n")).Function()))
	it := NewInterp(mod, nil)

	require.Error(t, it.Call("missing"))
	require.Error(t, it.Call("f"))
	require.Error(t, it.Call("f", "not a number"))
	require.NoError(t, it.Call("f", 3))
}

func TestInterpIntegerArithmeticIsExact(t *testing.T) {
	// (7 / 2) * 2 must truncate to 6 under integer semantics.
	b := NewFunction("trunc", ArrayFloat("out", 1))
	v := Bin{Op: OpMul, A: Bin{Op: OpDiv, A: Int(7), B: Int(2)}, B: Int(2)}
	b.Store("out", Int(0), v)
	mod := NewModule()
	require.NoError(t, mod.Add(b.Function()))

	out := make([]float64, 1)
	require.NoError(t, NewInterp(mod, nil).Call("trunc", out))
	assert.Equal(t, []float64{6}, out)
}

func TestPoolClampsWorkers(t *testing.T) {
	assert.Equal(t, 1, NewPool(0).Workers())
	assert.Equal(t, 1, NewPool(-3).Workers())
	assert.Equal(t, 8, NewPool(8).Workers())
}
