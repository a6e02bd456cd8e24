// Package app wires the compiler front end together: it owns the
// configured logger, the filesystem, and the command implementations the
// CLI dispatches to.
package app
