// Package graph defines the typed dataflow graph the compiler operates on:
// models, nodes, ports, and memory layouts.
//
// # Why Graph Package Exists
//
// A Model owns an ordered set of nodes forming a directed acyclic graph.
// Nodes exchange values through ports: an OutputPort owns the value it
// produces (element type, size, memory layout) and tracks the set of input
// ports that reference it; an InputPort references at most one OutputPort
// and inherits that port's type and size. Ports address their peers by
// stable node identifier plus port index rather than by pointer, so graphs
// can be copied and rewritten without dangling references.
//
// # Node Polymorphism
//
// Node behavior lives in an Op implementation attached to each node. Ops
// are polymorphic over a set of optional capabilities, asserted where they
// are consumed:
//   - Computer (this package): reference/interpreted evaluation
//   - transform.Refiner: rewrite into an equivalent subgraph
//   - compile.Lowerable: emit native IR
//   - archive.FieldWriter / archive.FieldReader: field persistence
//
// An op may support any subset. Ops that cannot be lowered must be
// rewritten away by refinement before final code generation.
//
// # Concurrency
//
// Models are built and transformed by a single goroutine; the graph
// structures perform no internal locking.
package graph
