// Package glint implements a reactive computation graph: signals hold
// mutable values, derivations are cached computations over them, and
// observers are side effects re-run when their inputs change.
//
// Reading a signal or derivation during a tracked evaluation (a derivation
// recompute or an observer run) automatically records it as a dependency.
// Dependency sets are rebuilt from scratch on every evaluation, so a node
// that stops reading an input stops being invalidated by it.
//
// Writes are collected per update cycle and flushed as a single pass over
// the affected observers, in registration order. Batch groups several
// writes into one cycle. A flush whose observers keep writing signals they
// depend on is cut off after a bounded number of rounds with ErrCyclicUpdate.
//
// All declaration, write, and flush activity belongs to a single Engine
// instance and must happen on one goroutine; Snapshot is safe to call from
// other goroutines.
package glint
