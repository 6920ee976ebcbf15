// Package errors provides the structured error type shared by the pipeflow
// packages. Every error carries a machine-readable code, an HTTP status for
// the compute endpoint, and free-form details such as the offending column
// or the list of faulting rows.
package errors
