// Package compile drives native lowering: it turns a fully refined model
// into an IR module, one statement region per node, under a set of
// target options.
//
// The Compiler implements transform.Compilability, so a refinement run can
// ask it which nodes are lowerable. CompileModel then walks the model in
// dependency order, assigns every output port a buffer (entry parameter,
// result parameter, or state array), and calls each op's Lower method with
// a LowerContext that exposes the policy helpers:
//
//   - EmitParallelFor splits an independent index range into tasks
//     dispatched to the runtime pool, or falls back to one sequential loop.
//     Both paths are emitted from the same body callback, so they cannot
//     diverge semantically.
//   - EmitBlockedLoop emits a vector-width loop over the aligned prefix of
//     a range plus a scalar remainder loop, or a plain scalar loop when
//     vectorization is off or the block is too small.
//
// The header writer emits the C-ABI surface of a compiled module: the
// state struct as anonymous fixed-size members and one signature per
// exported function. Functions with a reserved "_" prefix or the internal
// "emberc__" naming convention are excluded.
package compile
