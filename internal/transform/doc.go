// Package transform copies, grafts, and iteratively refines models.
//
// A Transformer performs one graph-to-graph operation at a time: copying a
// whole model, copying a submodel onto a new location (possibly in-place),
// or refining a model to a fixed point. During an operation it accumulates
// a correspondence map from source ports to their counterparts in the
// result, queryable afterwards through CorrespondingOutputs and
// CorrespondingInputs.
//
// Refinement is the compiler's outer loop: each pass walks the model in
// dependency order and, per node, consults the Context for an action.
// Nodes flagged for refinement may rewrite themselves into an equivalent
// subgraph; the loop repeats until an iteration produces no rewrites or the
// iteration budget is exhausted. Exhausting the budget with non-lowerable
// nodes remaining is not an error here: the residual list is returned as
// data and the caller decides whether it is fatal.
//
// All transformation is single-threaded, synchronous, compile-time work.
package transform
