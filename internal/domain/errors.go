package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports one offending field. The validator never
// short-circuits, so callers should expect ValidationErrors (plural) in
// practice, not a single ValidationError, but both satisfy error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors accumulates every failing check found during a single
// Validate call (spec §4.1: "validators must not short-circuit").
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Error()
	}
	return strings.Join(parts, "; ")
}

// HasErrors reports whether any validation error was recorded.
func (e ValidationErrors) HasErrors() bool { return len(e) > 0 }

// NumericalDegeneracyError marks a locally-recovered numerical failure
// (non-PSD covariance, singular GP kernel). It is never returned from
// run() — it is folded into the result's Flags map per the propagation
// rule in spec §7.
type NumericalDegeneracyError struct {
	Reason string
}

func (e NumericalDegeneracyError) Error() string {
	return "numerical degeneracy: " + e.Reason
}

// SimulatorFailureError marks a quantum-backend crash or timeout at a
// single step. Recovered by falling back to the classical estimate for
// that point; never returned from run().
type SimulatorFailureError struct {
	Reason string
}

func (e SimulatorFailureError) Error() string {
	return "simulator failure: " + e.Reason
}

// ResourceExhaustionError is a run-level failure (out of memory during
// Monte Carlo or circuit construction). Unlike NumericalDegeneracyError
// and SimulatorFailureError, this is surfaced to the caller: no partial
// result is returned.
type ResourceExhaustionError struct {
	Reason string
}

func (e ResourceExhaustionError) Error() string {
	return "resource exhaustion: " + e.Reason
}

// CancelledError indicates a run ended via cooperative cancellation.
// Callers receive a partial Result with Cancelled=true rather than this
// error; it exists so internal plumbing can use normal error returns.
type CancelledError struct{}

func (CancelledError) Error() string { return "run cancelled" }

// PersistenceError wraps an I/O or schema-version failure from a
// TestRunStore/ProjectStore. Per spec §4.9, persistence errors are
// always surfaced, never swallowed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }
