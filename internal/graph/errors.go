package graph

import "errors"

// Sentinel errors for graph contract violations. They are raised synchronously
// at the call that violates the contract and are never retried: graph
// construction and transformation are expected to be correct by construction.
var (
	// ErrTypeMismatch reports an attempt to bind ports of incompatible
	// element type or size.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrIllegalState reports a query against a port or node that is not in
	// a state where the query is meaningful, such as reading the referenced
	// port of an unbound input.
	ErrIllegalState = errors.New("illegal state")

	// ErrNotImplemented reports an op capability that is intentionally
	// unsupported, such as interpreted evaluation of an IR-only op.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnmappedPort reports a correspondence-map query for a port that was
	// never established during a transformation.
	ErrUnmappedPort = errors.New("unmapped port")
)
