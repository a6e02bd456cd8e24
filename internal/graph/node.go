package graph

// Op is the behavior attached to a node. Implementations describe their port
// signature and know how to clone themselves; everything else (evaluation,
// rewriting, lowering, persistence) is an optional capability asserted at
// the point of use.
type Op interface {
	// OpName returns the stable kind name used for archives and diagnostics.
	OpName() string

	// Clone returns a deep copy of the op's owned state.
	Clone() Op

	// Ports derives the op's input and output port descriptions from the
	// descriptions of the outputs its inputs will bind to, validating
	// element types and sizes. An incompatible source is an ErrTypeMismatch.
	Ports(sources []PortInfo) (in, out []PortInfo, err error)
}

// Computer is the optional reference-evaluation capability. Buffers hold
// one float64 per active element regardless of target element type; the
// element type governs binding and code generation, not interpretation.
// IR-only ops may return ErrNotImplemented.
type Computer interface {
	Compute(in [][]float64) ([][]float64, error)
}

// Node is a compute unit inside a Model: an op plus its typed input and
// output ports. Nodes are created only through Model.AddNode so the model
// can track ownership and assign the identifier.
type Node struct {
	id      NodeID
	op      Op
	inputs  []*InputPort
	outputs []*OutputPort
}

// ID returns the node's stable identifier within its model.
func (n *Node) ID() NodeID { return n.id }

// Op returns the node's behavior.
func (n *Node) Op() Op { return n.op }

// Inputs returns the node's input ports in declaration order.
func (n *Node) Inputs() []*InputPort { return n.inputs }

// Outputs returns the node's output ports in declaration order.
func (n *Node) Outputs() []*OutputPort { return n.outputs }

// Input returns the input port at index i.
func (n *Node) Input(i int) *InputPort { return n.inputs[i] }

// Output returns the output port at index i.
func (n *Node) Output(i int) *OutputPort { return n.outputs[i] }

// OutputRef returns the address of output port i.
func (n *Node) OutputRef(i int) PortRef { return PortRef{Node: n.id, Port: i} }

// InputRefAt returns the address of input port i.
func (n *Node) InputRefAt(i int) InputRef { return InputRef{Node: n.id, Port: i} }
