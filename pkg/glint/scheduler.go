package glint

import (
	"fmt"
	"sync/atomic"
	"time"
)

// SchedulerState is the phase of the invalidation scheduler.
type SchedulerState int32

const (
	// StateIdle means no writes are outstanding.
	StateIdle SchedulerState = iota

	// StateCollecting means writes are being accumulated into the
	// pending set of the current update cycle, typically inside Batch.
	StateCollecting

	// StateFlushing means queued observers are being run.
	StateFlushing
)

// String returns a human-readable name for the state.
func (s SchedulerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

// FlushInfo summarizes one completed flush for hooks.
type FlushInfo struct {
	// Rounds is how many passes over the pending observers were needed.
	// Greater than one means observers wrote signals during the flush.
	Rounds int

	// ObserverRuns counts observer executions across all rounds.
	ObserverRuns int

	// Duration is the wall time of the whole flush.
	Duration time.Duration
}

// scheduler coalesces signal writes into one observer pass per update
// cycle. A write marks every transitive dependent: derivations go stale
// (they recompute lazily on the next read), observers become pending.
// The pending observers then run once per flush round in registration
// order; writes made during the flush merge into a fresh round of the
// same flush, bounded by the engine's round limit.
type scheduler struct {
	eng *Engine

	// state is atomic only so Snapshot can read it from another
	// goroutine; transitions happen on the engine goroutine.
	state atomic.Int32

	batchDepth int
}

func newScheduler(e *Engine) *scheduler {
	return &scheduler{eng: e}
}

// State returns the current phase.
func (sc *scheduler) State() SchedulerState {
	return SchedulerState(sc.state.Load())
}

func (sc *scheduler) setState(s SchedulerState) {
	sc.state.Store(int32(s))
}

// enqueueWrite records a signal write: dependents are invalidated
// transitively and, outside a batch, the cycle flushes immediately.
func (sc *scheduler) enqueueWrite(src source) {
	sc.invalidate(src)

	switch sc.State() {
	case StateFlushing:
		// Picked up by the next round of the running flush.
		return
	case StateIdle:
		sc.setState(StateCollecting)
	}

	if sc.batchDepth == 0 {
		sc.flush()
	}
}

// invalidate walks the dependency graph from src, marking every
// transitive dependent exactly once.
func (sc *scheduler) invalidate(src source) {
	seen := make(map[uint64]struct{})

	var walk func(s source)
	walk = func(s source) {
		s.eachSub(func(d dependent) {
			id := d.info().ID
			if _, done := seen[id]; done {
				return
			}
			seen[id] = struct{}{}

			d.markStale()

			// Derivations are themselves sources; their dependents
			// are invalidated too, without recomputing anything.
			if ds, ok := d.(source); ok {
				walk(ds)
			}
		})
	}
	walk(src)
}

// batch runs fn as one discrete update cycle. Nested batches only flush
// when the outermost one completes.
func (sc *scheduler) batch(fn func()) {
	sc.batchDepth++

	defer func() {
		sc.batchDepth--
		if sc.batchDepth == 0 && sc.State() == StateCollecting {
			sc.flush()
		}
	}()

	fn()
}

// flush runs pending observers in registration order until none remain.
// Each round snapshots the pending set, so an observer runs at most once
// per round. Any panic escaping the flush, whether the round limit here
// or a cycle surfacing out of an observer's evaluation, aborts first:
// the pending set is cleared and the scheduler returns to Idle before
// the panic reaches the caller that triggered the flush.
func (sc *scheduler) flush() {
	sc.setState(StateFlushing)

	defer func() {
		if r := recover(); r != nil {
			sc.abort()
			panic(r)
		}
	}()

	start := time.Now()
	rounds := 0
	runs := 0

	for {
		pending := sc.collectPending()
		if len(pending) == 0 {
			break
		}

		rounds++
		if rounds > sc.eng.maxRounds {
			panic(fmt.Errorf("glint: flush exceeded %d rounds: %w", sc.eng.maxRounds, ErrCyclicUpdate))
		}

		for _, o := range pending {
			if o.pending.Load() {
				o.run()
				runs++
			}
		}
	}

	sc.setState(StateIdle)
	sc.eng.emitFlush(FlushInfo{
		Rounds:       rounds,
		ObserverRuns: runs,
		Duration:     time.Since(start),
	})
}

// collectPending returns the observers flagged for this round, in
// registration order.
func (sc *scheduler) collectPending() []*Observer {
	var pending []*Observer
	for _, o := range sc.eng.orderedObservers() {
		if o.pending.Load() {
			pending = append(pending, o)
		}
	}
	return pending
}

// abort clears all pending flags and returns to Idle so the engine stays
// usable after a cycle error.
func (sc *scheduler) abort() {
	for _, o := range sc.eng.orderedObservers() {
		o.pending.Store(false)
	}
	sc.setState(StateIdle)
}
