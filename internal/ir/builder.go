package ir

import "strconv"

// Builder constructs a function body statement by statement. Nested
// statement lists (loop bodies) are built through child builders handed to
// closures, so emission code reads in source order.
type Builder struct {
	fn    *Function
	stmts *[]Stmt
	seq   *int
}

// NewFunction starts building a function with the given parameters.
func NewFunction(name string, params ...Param) *Builder {
	fn := &Function{Name: name, Params: params}
	seq := 0
	return &Builder{fn: fn, stmts: &fn.Body, seq: &seq}
}

// Function finalizes and returns the built function.
func (b *Builder) Function() *Function { return b.fn }

func (b *Builder) emit(s Stmt) { *b.stmts = append(*b.stmts, s) }

// FreshName returns a name unique within the function, for loop variables
// and temporaries.
func (b *Builder) FreshName(prefix string) string {
	*b.seq++
	return prefix + "_" + strconv.Itoa(*b.seq)
}

// DeclScalar introduces a scalar local.
func (b *Builder) DeclScalar(name string, init Expr) {
	b.emit(DeclScalar{Name: name, Init: init})
}

// DeclArray introduces a zero-filled array local.
func (b *Builder) DeclArray(name string, size int) {
	b.emit(DeclArray{Name: name, Size: size})
}

// Assign stores into a scalar local.
func (b *Builder) Assign(name string, v Expr) {
	b.emit(Assign{Name: name, Value: v})
}

// Store writes one array element.
func (b *Builder) Store(arr string, idx, v Expr) {
	b.emit(Store{Arr: arr, Idx: idx, Value: v})
}

// For emits a bounded counting loop; body is built against a child builder
// and receives the loop variable as an expression.
func (b *Builder) For(start, end, step Expr, body func(b *Builder, iv Expr)) {
	name := b.FreshName("i")
	loop := For{Var: name, Start: start, End: end, Step: step}
	child := &Builder{fn: b.fn, stmts: &loop.Body, seq: b.seq}
	body(child, Ref{Name: name})
	b.emit(loop)
}

// VecBin emits a vector lane operation over two arrays.
func (b *Builder) VecBin(op BinOp, dst string, dstIdx Expr, a string, aIdx Expr, arrB string, bIdx Expr, width int) {
	b.emit(VecBin{Op: op, Dst: dst, DstIdx: dstIdx, A: a, AIdx: aIdx, B: arrB, BIdx: bIdx, Width: width})
}

// VecScalar emits a vector lane operation against a broadcast scalar.
func (b *Builder) VecScalar(op BinOp, dst string, dstIdx Expr, a string, aIdx Expr, s Expr, width int) {
	b.emit(VecScalar{Op: op, Dst: dst, DstIdx: dstIdx, A: a, AIdx: aIdx, S: s, Width: width})
}

// Call invokes another function for effect.
func (b *Builder) Call(fn string, args ...Expr) {
	b.emit(Call{Fn: fn, Args: args})
}

// StartTasks dispatches one task per argument tuple.
func (b *Builder) StartTasks(fn string, args [][]Expr) {
	b.emit(StartTasks{Fn: fn, Args: args})
}

// WaitAll joins all dispatched tasks of the enclosing function.
func (b *Builder) WaitAll() {
	b.emit(WaitAll{})
}
