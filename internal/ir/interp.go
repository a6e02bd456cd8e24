package ir

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// Value is an interpreter value: float64, int, or []float64 (arrays are
// shared by reference, matching pointer-parameter semantics in emitted
// native code).
type Value any

// Interp executes module functions with reference semantics. It is the
// oracle the compiled output is checked against: vector and scalar paths,
// and parallel and sequential paths, must agree when run through it.
type Interp struct {
	mod  *Module
	pool *Pool
}

// NewInterp returns an interpreter for the module. A nil pool runs task
// dispatch on a single worker.
func NewInterp(mod *Module, pool *Pool) *Interp {
	if pool == nil {
		pool = NewPool(1)
	}
	return &Interp{mod: mod, pool: pool}
}

// Call runs the named function with the given arguments. Array arguments
// are mutated in place.
func (it *Interp) Call(name string, args ...Value) error {
	fn, ok := it.mod.Function(name)
	if !ok {
		return fmt.Errorf("function %q not in module", name)
	}
	return it.invoke(fn, args)
}

// frame is one function activation.
type frame struct {
	env   map[string]Value
	tasks *errgroup.Group
}

func (it *Interp) invoke(fn *Function, args []Value) error {
	if len(args) != len(fn.Params) {
		return fmt.Errorf("calling %q: %d args for %d params", fn.Name, len(args), len(fn.Params))
	}
	f := &frame{env: make(map[string]Value, len(fn.Params)+8)}
	for i, p := range fn.Params {
		v, err := coerceParam(p, args[i])
		if err != nil {
			return fmt.Errorf("calling %q: %w", fn.Name, err)
		}
		f.env[p.Name] = v
	}
	if err := it.execBlock(f, fn.Body); err != nil {
		return fmt.Errorf("in %q: %w", fn.Name, err)
	}
	if f.tasks != nil {
		return fmt.Errorf("in %q: function returned with unjoined tasks", fn.Name)
	}
	return nil
}

func coerceParam(p Param, v Value) (Value, error) {
	switch p.Kind {
	case ParamScalarInt:
		n, err := asInt(v)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", p.Name, err)
		}
		return n, nil
	case ParamScalarFloat:
		x, err := asFloat(v)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", p.Name, err)
		}
		return x, nil
	case ParamArrayFloat:
		arr, ok := v.([]float64)
		if !ok {
			return nil, fmt.Errorf("param %q: want array, got %T", p.Name, v)
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("param %q: unknown kind", p.Name)
	}
}

func (it *Interp) execBlock(f *frame, body []Stmt) error {
	for _, s := range body {
		if err := it.exec(f, s); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interp) exec(f *frame, s Stmt) error {
	switch st := s.(type) {
	case DeclScalar:
		v, err := it.eval(f, st.Init)
		if err != nil {
			return err
		}
		f.env[st.Name] = v
		return nil

	case DeclArray:
		f.env[st.Name] = make([]float64, st.Size)
		return nil

	case Assign:
		v, err := it.eval(f, st.Value)
		if err != nil {
			return err
		}
		f.env[st.Name] = v
		return nil

	case Store:
		arr, err := f.array(st.Arr)
		if err != nil {
			return err
		}
		idx, err := it.evalInt(f, st.Idx)
		if err != nil {
			return err
		}
		v, err := it.evalFloat(f, st.Value)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(arr) {
			return fmt.Errorf("store to %q[%d] out of bounds (len %d)", st.Arr, idx, len(arr))
		}
		arr[idx] = v
		return nil

	case For:
		start, err := it.evalInt(f, st.Start)
		if err != nil {
			return err
		}
		end, err := it.evalInt(f, st.End)
		if err != nil {
			return err
		}
		step, err := it.evalInt(f, st.Step)
		if err != nil {
			return err
		}
		if step <= 0 {
			return fmt.Errorf("loop %q has non-positive step %d", st.Var, step)
		}
		for i := start; i < end; i += step {
			f.env[st.Var] = i
			if err := it.execBlock(f, st.Body); err != nil {
				return err
			}
		}
		delete(f.env, st.Var)
		return nil

	case VecBin:
		dst, err := f.array(st.Dst)
		if err != nil {
			return err
		}
		a, err := f.array(st.A)
		if err != nil {
			return err
		}
		bArr, err := f.array(st.B)
		if err != nil {
			return err
		}
		di, err := it.evalInt(f, st.DstIdx)
		if err != nil {
			return err
		}
		ai, err := it.evalInt(f, st.AIdx)
		if err != nil {
			return err
		}
		bi, err := it.evalInt(f, st.BIdx)
		if err != nil {
			return err
		}
		if err := checkLanes(st.Dst, dst, di, st.Width); err != nil {
			return err
		}
		if err := checkLanes(st.A, a, ai, st.Width); err != nil {
			return err
		}
		if err := checkLanes(st.B, bArr, bi, st.Width); err != nil {
			return err
		}
		for lane := 0; lane < st.Width; lane++ {
			dst[di+lane] = applyFloat(st.Op, a[ai+lane], bArr[bi+lane])
		}
		return nil

	case VecScalar:
		dst, err := f.array(st.Dst)
		if err != nil {
			return err
		}
		a, err := f.array(st.A)
		if err != nil {
			return err
		}
		di, err := it.evalInt(f, st.DstIdx)
		if err != nil {
			return err
		}
		ai, err := it.evalInt(f, st.AIdx)
		if err != nil {
			return err
		}
		sv, err := it.evalFloat(f, st.S)
		if err != nil {
			return err
		}
		if err := checkLanes(st.Dst, dst, di, st.Width); err != nil {
			return err
		}
		if err := checkLanes(st.A, a, ai, st.Width); err != nil {
			return err
		}
		for lane := 0; lane < st.Width; lane++ {
			dst[di+lane] = applyFloat(st.Op, a[ai+lane], sv)
		}
		return nil

	case Call:
		fn, ok := it.mod.Function(st.Fn)
		if !ok {
			return fmt.Errorf("call to undefined function %q", st.Fn)
		}
		args := make([]Value, len(st.Args))
		for i, a := range st.Args {
			v, err := it.eval(f, a)
			if err != nil {
				return err
			}
			args[i] = v
		}
		return it.invoke(fn, args)

	case StartTasks:
		fn, ok := it.mod.Function(st.Fn)
		if !ok {
			return fmt.Errorf("dispatch to undefined function %q", st.Fn)
		}
		if f.tasks == nil {
			f.tasks = it.pool.newGroup()
		}
		// Arguments are evaluated in the dispatching frame before launch.
		for _, tuple := range st.Args {
			args := make([]Value, len(tuple))
			for i, a := range tuple {
				v, err := it.eval(f, a)
				if err != nil {
					return err
				}
				args[i] = v
			}
			f.tasks.Go(func() error {
				return it.invoke(fn, args)
			})
		}
		return nil

	case WaitAll:
		if f.tasks == nil {
			return nil
		}
		err := f.tasks.Wait()
		f.tasks = nil
		return err

	default:
		return fmt.Errorf("unknown statement %T", s)
	}
}

func checkLanes(name string, arr []float64, idx, width int) error {
	if idx < 0 || idx+width > len(arr) {
		return fmt.Errorf("lane access %q[%d:%d] out of bounds (len %d)", name, idx, idx+width, len(arr))
	}
	return nil
}

func (f *frame) array(name string) ([]float64, error) {
	v, ok := f.env[name]
	if !ok {
		return nil, fmt.Errorf("undefined array %q", name)
	}
	arr, ok := v.([]float64)
	if !ok {
		return nil, fmt.Errorf("%q is not an array (got %T)", name, v)
	}
	return arr, nil
}

func (it *Interp) eval(f *frame, e Expr) (Value, error) {
	switch ex := e.(type) {
	case ConstFloat:
		return ex.V, nil
	case ConstInt:
		return ex.V, nil
	case Ref:
		v, ok := f.env[ex.Name]
		if !ok {
			return nil, fmt.Errorf("undefined name %q", ex.Name)
		}
		return v, nil
	case Index:
		arr, err := f.array(ex.Arr)
		if err != nil {
			return nil, err
		}
		idx, err := it.evalInt(f, ex.Idx)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(arr) {
			return nil, fmt.Errorf("read of %q[%d] out of bounds (len %d)", ex.Arr, idx, len(arr))
		}
		return arr[idx], nil
	case Bin:
		a, err := it.eval(f, ex.A)
		if err != nil {
			return nil, err
		}
		b, err := it.eval(f, ex.B)
		if err != nil {
			return nil, err
		}
		return apply(ex.Op, a, b)
	default:
		return nil, fmt.Errorf("unknown expression %T", e)
	}
}

func (it *Interp) evalInt(f *frame, e Expr) (int, error) {
	v, err := it.eval(f, e)
	if err != nil {
		return 0, err
	}
	return asInt(v)
}

func (it *Interp) evalFloat(f *frame, e Expr) (float64, error) {
	v, err := it.eval(f, e)
	if err != nil {
		return 0, err
	}
	return asFloat(v)
}

// apply keeps integer arithmetic exact when both operands are integers;
// anything else promotes to float64.
func apply(op BinOp, a, b Value) (Value, error) {
	ai, aok := a.(int)
	bi, bok := b.(int)
	if aok && bok {
		switch op {
		case OpAdd:
			return ai + bi, nil
		case OpSub:
			return ai - bi, nil
		case OpMul:
			return ai * bi, nil
		case OpDiv:
			if bi == 0 {
				return nil, fmt.Errorf("integer division by zero")
			}
			return ai / bi, nil
		case OpMin:
			return min(ai, bi), nil
		case OpMax:
			return max(ai, bi), nil
		}
	}
	af, err := asFloat(a)
	if err != nil {
		return nil, err
	}
	bf, err := asFloat(b)
	if err != nil {
		return nil, err
	}
	return applyFloat(op, af, bf), nil
}

func applyFloat(op BinOp, a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		return a / b
	case OpMin:
		return math.Min(a, b)
	case OpMax:
		return math.Max(a, b)
	default:
		return math.NaN()
	}
}

func asInt(v Value) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("want int, got %T", v)
	}
}

func asFloat(v Value) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("want number, got %T", v)
	}
}
