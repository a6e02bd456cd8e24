// Package archive persists models as MessagePack documents.
//
// A saved model is a versioned list of node records: op name, input
// bindings, and an op-defined field map. Ops opt into persistence of
// their configuration through the FieldWriter and FieldReader
// capabilities; ops without state round-trip on their name alone.
//
// Loading reconstructs the graph through the model's own creation API,
// so every invariant the graph package enforces at build time holds for
// loaded models too. Node identifiers are reassigned on load; the
// structure and bindings are preserved exactly.
package archive
