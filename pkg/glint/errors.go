package glint

import (
	"errors"
	"fmt"
)

// ErrUnknownSignal is the sentinel for operations on a handle or key that
// was never declared on the engine. This is a programmer error: it is
// delivered as a panic from handle operations and as a wrapped error from
// Lookup.
var ErrUnknownSignal = errors.New("glint: unknown signal")

// ErrDuplicateSignal is returned when declaring a signal under a key that
// is already taken on the engine.
var ErrDuplicateSignal = errors.New("glint: duplicate signal key")

// ErrCyclicUpdate is the sentinel for update cycles that cannot settle:
// either a derivation reads itself (directly or transitively) during its
// own computation, or a flush keeps producing new writes past the engine's
// round limit. Delivered as a panic carrying this sentinel; recover and
// test with errors.Is.
var ErrCyclicUpdate = errors.New("glint: cyclic update")

// ErrEngineClosed is returned or panicked when declaring or writing on an
// engine after Close.
var ErrEngineClosed = errors.New("glint: engine closed")

// EvaluationError wraps a failure of a user-supplied derivation or
// observer function, identifying the node that failed.
type EvaluationError struct {
	// Node identifies the derivation or observer whose function failed.
	Node NodeInfo

	// Err is the error returned by (or recovered from) the function.
	Err error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("glint: %s %q evaluation failed: %v", e.Node.Kind, e.Node.Label, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// isCyclic reports whether err carries the ErrCyclicUpdate sentinel.
func isCyclic(err error) bool {
	return errors.Is(err, ErrCyclicUpdate)
}
