// Package nodes is the built-in op library.
//
// Every op provides reference evaluation; the primitive ops (constant,
// input, the binary arithmetic ops, relu, matvec) additionally lower to
// native code, while the composite ops (affine, poly) refine into
// primitives instead. Each op registers itself with the archive registry
// from init so saved models round-trip without extra wiring.
package nodes
