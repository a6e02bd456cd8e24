// Package cli parses command-line arguments into an app configuration,
// validating user input and owning process-level concerns like exit
// codes.
package cli
