package transform

import "github.com/emberlab/emberc/internal/graph"

// NodeAction is the decision for one node during a transformation pass.
type NodeAction int

const (
	// ActionAbstain defers the decision to the next override, or to the
	// default policy.
	ActionAbstain NodeAction = iota
	// ActionRefine asks the node to rewrite itself into simpler nodes.
	ActionRefine
	// ActionCompile marks the node ready for native lowering; it is carried
	// over unchanged.
	ActionCompile
)

func (a NodeAction) String() string {
	switch a {
	case ActionAbstain:
		return "abstain"
	case ActionRefine:
		return "refine"
	case ActionCompile:
		return "compile"
	default:
		return "unknown"
	}
}

// NodeActionFunc overrides the default refine-or-compile decision for a
// node. Returning ActionAbstain leaves the decision to earlier overrides or
// the default policy.
type NodeActionFunc func(n *graph.Node) NodeAction

// Compilability answers whether a node can be lowered to native code under
// the active compiler. The compile package's Compiler implements it.
type Compilability interface {
	IsCompilable(n *graph.Node) bool
}

// Context carries the state that drives one transformation: a chain of
// per-node action overrides plus a read-only reference to the active
// compiler for compilability queries. Create one per transformer invocation
// and discard it afterwards.
type Context struct {
	actions  []NodeActionFunc
	compiler Compilability
}

// NewContext returns a context with the given overrides and no compiler.
func NewContext(actions ...NodeActionFunc) *Context {
	return &Context{actions: actions}
}

// NewCompilerContext returns a context bound to the given compiler.
func NewCompilerContext(compiler Compilability, actions ...NodeActionFunc) *Context {
	return &Context{actions: actions, compiler: compiler}
}

// AddNodeAction appends an override. Later overrides take precedence.
func (c *Context) AddNodeAction(f NodeActionFunc) {
	c.actions = append(c.actions, f)
}

// Compiler returns the active compiler, or nil if none is set.
func (c *Context) Compiler() Compilability { return c.compiler }

// IsCompilable reports whether the node can be lowered under the active
// compiler. Without a compiler nothing is compilable.
func (c *Context) IsCompilable(n *graph.Node) bool {
	return c.compiler != nil && c.compiler.IsCompilable(n)
}

// NodeAction returns the action to take on a node: the result of the last
// override that does not abstain, or, if all abstain, ActionCompile when
// the node is compilable under the current compiler and ActionRefine
// otherwise.
func (c *Context) NodeAction(n *graph.Node) NodeAction {
	for i := len(c.actions) - 1; i >= 0; i-- {
		if action := c.actions[i](n); action != ActionAbstain {
			return action
		}
	}
	if c.IsCompilable(n) {
		return ActionCompile
	}
	return ActionRefine
}
