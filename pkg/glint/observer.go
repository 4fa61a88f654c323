package glint

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Observer is a side-effecting function that re-runs when any signal or
// derivation it read during its last run changes. Observers run once at
// declaration and then at most once per flush round, in registration
// order. A failure is reported to the engine's error sink and never stops
// the other observers in the flush.
type Observer struct {
	id    uint64
	label string
	eng   *Engine

	fn func() error

	// deps is the dependency set recorded by the last run.
	deps []source

	// pending marks the observer for the current flush.
	pending  atomic.Bool
	disposed atomic.Bool
}

// Observe declares an observer on the engine and runs it once
// immediately. The label identifies the observer in hook events and
// reported failures.
func (e *Engine) Observe(label string, fn func() error) *Observer {
	e.checkOpen()

	o := &Observer{
		id:    nextID(),
		label: label,
		eng:   e,
		fn:    fn,
	}

	e.registerObserver(o)
	e.emitDeclare(o.info())

	o.run()
	return o
}

// ID returns the unique identifier for this observer.
func (o *Observer) ID() uint64 {
	return o.id
}

// Label returns the label the observer was declared with.
func (o *Observer) Label() string {
	return o.label
}

// run executes the observer function inside a tracking frame. The
// dependency set is replaced with whatever was read, including on
// failure, so a partially-run observer still re-runs when its inputs
// change again.
func (o *Observer) run() {
	if o.disposed.Load() {
		return
	}
	o.pending.Store(false)

	frame := newFrame()
	start := time.Now()
	err := o.invoke(frame)

	for _, dep := range o.deps {
		dep.removeSub(o)
	}
	o.deps = frame.sources
	for _, dep := range o.deps {
		dep.addSub(o)
	}

	if err != nil {
		err = &EvaluationError{Node: o.info(), Err: err}
		o.eng.reportObserverError(err)
	}
	o.eng.emitObserverRun(o.info(), time.Since(start), err)
}

// invoke calls the observer function inside the frame, converting a panic
// into an error so one broken observer cannot take down the flush.
func (o *Observer) invoke(frame *trackingFrame) (err error) {
	o.eng.pushFrame(frame)
	defer o.eng.popFrame()

	defer func() {
		if r := recover(); r != nil {
			// A cycle detected inside the observer is a programmer
			// error and must surface past the scheduler.
			if e, ok := r.(error); ok && isCyclic(e) {
				panic(r)
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return o.fn()
}

// Dispose unsubscribes the observer from all sources and removes it from
// the engine's run order. Idempotent.
func (o *Observer) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	for _, dep := range o.deps {
		dep.removeSub(o)
	}
	o.deps = nil

	o.eng.removeObserver(o)
}

// Disposed reports whether Dispose has been called.
func (o *Observer) Disposed() bool {
	return o.disposed.Load()
}

func (o *Observer) info() NodeInfo {
	return NodeInfo{ID: o.id, Kind: KindObserver, Label: o.label}
}

// markStale flags the observer for the current flush. Implements the
// dependent interface.
func (o *Observer) markStale() {
	if o.disposed.Load() {
		return
	}
	o.pending.CompareAndSwap(false, true)
}
