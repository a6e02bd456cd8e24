package compile

import (
	"strconv"

	"github.com/emberlab/emberc/internal/ir"
)

// LowerContext is handed to an op's Lower method. It names the buffers
// bound to the node's ports and provides the loop emitters every lowering
// builds on.
type LowerContext struct {
	compiler *Compiler
	module   *ir.Module
	sym      string
	taskSeq  int

	inputs  []Buffer
	outputs []Buffer
}

// Options returns the active compilation options.
func (lc *LowerContext) Options() Options { return lc.compiler.opts }

// NumInputs returns the number of bound input buffers.
func (lc *LowerContext) NumInputs() int { return len(lc.inputs) }

// Input returns the buffer feeding the node's i-th input port.
func (lc *LowerContext) Input(i int) Buffer { return lc.inputs[i] }

// Output returns the buffer backing the node's i-th output port.
func (lc *LowerContext) Output(i int) Buffer { return lc.outputs[i] }

// Symbol derives a module-internal symbol name scoped to this node.
func (lc *LowerContext) Symbol(suffix string) string {
	return lc.sym + "_" + suffix
}

// EmitParallelFor emits a loop over [0, total) split across worker tasks.
// The body callback receives the half-open range it must cover and is the
// single source of the loop's semantics: when the options disable
// parallelism, or the range splits into a single task, the same callback
// is emitted inline over the full range, so both paths compute the same
// values by construction. The shared buffers are the arrays the body
// reads and writes; they become parameters of the emitted task function.
func (lc *LowerContext) EmitParallelFor(b *ir.Builder, total int, shared []Buffer, body func(b *ir.Builder, start, end ir.Expr)) error {
	ranges := SplitRange(total, lc.compiler.opts.MaxTasks)
	if !lc.compiler.opts.Parallelize || len(ranges) <= 1 {
		body(b, ir.Int(0), ir.Int(total))
		return nil
	}

	lc.taskSeq++
	name := lc.Symbol("task" + strconv.Itoa(lc.taskSeq))
	// Two ports may be bound to the same buffer; pass it once.
	seen := make(map[string]bool, len(shared))
	uniq := shared[:0:0]
	for _, buf := range shared {
		if seen[buf.Name] {
			continue
		}
		seen[buf.Name] = true
		uniq = append(uniq, buf)
	}
	shared = uniq

	params := make([]ir.Param, 0, len(shared)+2)
	for _, buf := range shared {
		params = append(params, ir.ArrayFloat(buf.Name, buf.Size))
	}
	params = append(params, ir.ScalarInt("task_start"), ir.ScalarInt("task_end"))

	tb := ir.NewFunction(name, params...)
	body(tb, ir.Ref{Name: "task_start"}, ir.Ref{Name: "task_end"})
	if err := lc.module.Add(tb.Function()); err != nil {
		return err
	}

	args := make([][]ir.Expr, 0, len(ranges))
	for _, r := range ranges {
		call := make([]ir.Expr, 0, len(params))
		for _, buf := range shared {
			call = append(call, ir.Ref{Name: buf.Name})
		}
		call = append(call, ir.Int(r.Start), ir.Int(r.End))
		args = append(args, call)
	}
	b.StartTasks(name, args)
	b.WaitAll()
	return nil
}

// EmitBlockedLoop emits a loop over [start, end) blocked by the effective
// vector width: a stride-W loop over the full blocks followed by a scalar
// remainder loop. The body callback receives the block's base index and
// the lane width to emit for; it is invoked for both the vector and the
// remainder path, so the two cannot diverge. With vectorization disabled
// the whole range runs through the width-1 path.
func (lc *LowerContext) EmitBlockedLoop(b *ir.Builder, start, end ir.Expr, body func(b *ir.Builder, idx ir.Expr, width int)) {
	w := lc.compiler.opts.EffectiveVectorWidth()
	if !lc.compiler.opts.Vectorize || w <= 1 {
		b.For(start, end, ir.Int(1), func(b *ir.Builder, iv ir.Expr) {
			body(b, iv, 1)
		})
		return
	}

	// vend = start + ((end - start) / w) * w
	span := ir.Bin{Op: ir.OpSub, A: end, B: start}
	blocks := ir.Bin{Op: ir.OpDiv, A: span, B: ir.Int(w)}
	vend := b.FreshName("vend")
	b.DeclScalar(vend, ir.Bin{Op: ir.OpAdd, A: start, B: ir.Bin{Op: ir.OpMul, A: blocks, B: ir.Int(w)}})

	b.For(start, ir.Ref{Name: vend}, ir.Int(w), func(b *ir.Builder, iv ir.Expr) {
		body(b, iv, w)
	})
	b.For(ir.Ref{Name: vend}, end, ir.Int(1), func(b *ir.Builder, iv ir.Expr) {
		body(b, iv, 1)
	})
}

// MaterializeConstArray declares a local array and fills it with the given
// values, element by element.
func MaterializeConstArray(b *ir.Builder, name string, values []float64) {
	b.DeclArray(name, len(values))
	for i, v := range values {
		b.Store(name, ir.Int(i), ir.Float(v))
	}
}
