package ir

import "fmt"

// BinOp enumerates the arithmetic primitives.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMin
	OpMax
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMin:
		return "min"
	case OpMax:
		return "max"
	default:
		return fmt.Sprintf("BinOp(%d)", int(op))
	}
}

// Expr is a side-effect-free value expression.
type Expr interface{ isExpr() }

// ConstFloat is a floating-point literal.
type ConstFloat struct{ V float64 }

// ConstInt is an integer literal.
type ConstInt struct{ V int }

// Ref reads a scalar local or parameter.
type Ref struct{ Name string }

// Index reads one element of an array local or parameter.
type Index struct {
	Arr string
	Idx Expr
}

// Bin applies a binary arithmetic op to two operands.
type Bin struct {
	Op   BinOp
	A, B Expr
}

func (ConstFloat) isExpr() {}
func (ConstInt) isExpr()   {}
func (Ref) isExpr()        {}
func (Index) isExpr()      {}
func (Bin) isExpr()        {}

// Float wraps a literal as an expression.
func Float(v float64) Expr { return ConstFloat{V: v} }

// Int wraps a literal as an expression.
func Int(v int) Expr { return ConstInt{V: v} }

// Stmt is one statement of a function body.
type Stmt interface{ isStmt() }

// DeclScalar introduces a scalar local with an initial value.
type DeclScalar struct {
	Name string
	Init Expr
}

// DeclArray introduces a zero-filled array local of fixed size.
type DeclArray struct {
	Name string
	Size int
}

// Assign stores into a scalar local.
type Assign struct {
	Name  string
	Value Expr
}

// Store writes one element of an array.
type Store struct {
	Arr   string
	Idx   Expr
	Value Expr
}

// For is a bounded counting loop: for Var := Start; Var < End; Var += Step.
type For struct {
	Var   string
	Start Expr
	End   Expr
	Step  Expr
	Body  []Stmt
}

// VecBin is a vector lane operation over two arrays:
// Dst[DstIdx+i] = A[AIdx+i] op B[BIdx+i] for i in [0, Width).
type VecBin struct {
	Op     BinOp
	Dst    string
	DstIdx Expr
	A      string
	AIdx   Expr
	B      string
	BIdx   Expr
	Width  int
}

// VecScalar is a vector lane operation against a broadcast scalar:
// Dst[DstIdx+i] = A[AIdx+i] op S for i in [0, Width).
type VecScalar struct {
	Op     BinOp
	Dst    string
	DstIdx Expr
	A      string
	AIdx   Expr
	S      Expr
	Width  int
}

// Call invokes another function in the module for effect.
type Call struct {
	Fn   string
	Args []Expr
}

// StartTasks launches one task per argument tuple against the runtime
// pool, each invoking the named task function. Tasks share no mutable
// state by contract: each writes only to its assigned output sub-range.
type StartTasks struct {
	Fn   string
	Args [][]Expr
}

// WaitAll joins every task started by the preceding StartTasks statements
// of the enclosing function. It is a hard ordering barrier: no statement
// after it runs before all tasks complete.
type WaitAll struct{}

func (DeclScalar) isStmt() {}
func (DeclArray) isStmt()  {}
func (Assign) isStmt()     {}
func (Store) isStmt()      {}
func (For) isStmt()        {}
func (VecBin) isStmt()     {}
func (VecScalar) isStmt()  {}
func (Call) isStmt()       {}
func (StartTasks) isStmt() {}
func (WaitAll) isStmt()    {}

// ParamKind distinguishes function parameter shapes.
type ParamKind int

const (
	ParamScalarFloat ParamKind = iota
	ParamScalarInt
	ParamArrayFloat
)

// Param is one function parameter. Array parameters carry their element
// count for header emission; the interpreter passes arrays by reference.
type Param struct {
	Name string
	Kind ParamKind
	Size int
}

// ScalarInt declares an integer scalar parameter.
func ScalarInt(name string) Param { return Param{Name: name, Kind: ParamScalarInt} }

// ScalarFloat declares a floating-point scalar parameter.
func ScalarFloat(name string) Param { return Param{Name: name, Kind: ParamScalarFloat} }

// ArrayFloat declares a floating-point array parameter of the given size.
func ArrayFloat(name string, size int) Param {
	return Param{Name: name, Kind: ParamArrayFloat, Size: size}
}

// Function is one emitted function: a name, parameters, and a body.
type Function struct {
	Name   string
	Params []Param
	Body   []Stmt
}
