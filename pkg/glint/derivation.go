package glint

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Derivation is a cached computation over signals and other derivations.
// It is lazy: the compute function runs on the first Get and again only
// when a read finds the cache stale. Every run records its dependency set
// from scratch, so conditional reads drop inputs that are no longer used.
type Derivation[T any] struct {
	base sourceBase
	eng  *Engine

	compute func() (T, error)

	value   T
	valueMu sync.RWMutex

	// cachedAt is the logical time stamped on the last successful run;
	// rev mirrors it for downstream staleness bookkeeping.
	cachedAt uint64
	rev      atomic.Uint64

	// valid is false when a source in the last dependency set changed
	// since cachedAt.
	valid atomic.Bool

	// deps is the dependency set of the most recent run.
	deps []source

	// computing guards against the derivation reading itself.
	computing bool
}

// Derive creates a derivation on the engine. The label identifies it in
// snapshots, hook events, and evaluation errors. The compute function must
// not write signals; an error it returns is propagated unchanged to the
// Get call that triggered the run, and the previous cached value is kept.
func Derive[T any](e *Engine, label string, compute func() (T, error)) *Derivation[T] {
	e.checkOpen()

	d := &Derivation[T]{
		base: sourceBase{
			id:    nextID(),
			label: label,
		},
		eng:     e,
		compute: compute,
	}

	e.registerSource("", d, d)
	e.emitDeclare(d.info())

	return d
}

// Label returns the label the derivation was declared with.
func (d *Derivation[T]) Label() string {
	return d.base.label
}

// ID returns the unique identifier for this derivation.
func (d *Derivation[T]) ID() uint64 {
	return d.base.id
}

// Get returns the derivation's value, recomputing it first when the cache
// is stale. The derivation is recorded as a dependency of the active
// evaluation regardless of the outcome. When the compute function fails
// the error is returned and the prior cached value stays in place.
func (d *Derivation[T]) Get() (T, error) {
	d.check()

	d.eng.recordRead(d)

	if !d.valid.Load() {
		if err := d.recompute(); err != nil {
			var zero T
			return zero, err
		}
	}

	d.valueMu.RLock()
	value := d.value
	d.valueMu.RUnlock()
	return value, nil
}

// MustGet is Get for derivations whose compute function cannot fail; it
// panics on error.
func (d *Derivation[T]) MustGet() T {
	value, err := d.Get()
	if err != nil {
		panic(err)
	}
	return value
}

// Peek returns the value without recording a dependency. It still
// recomputes when the cache is stale.
func (d *Derivation[T]) Peek() (T, error) {
	d.check()

	if !d.valid.Load() {
		if err := d.recompute(); err != nil {
			var zero T
			return zero, err
		}
	}

	d.valueMu.RLock()
	value := d.value
	d.valueMu.RUnlock()
	return value, nil
}

// recompute runs the compute function inside a fresh tracking frame. The
// dependency set is replaced with the frame's reads either way; the cached
// value and revision advance only on success.
func (d *Derivation[T]) recompute() error {
	if d.computing {
		panic(fmt.Errorf("glint: derivation %q reads itself: %w", d.base.label, ErrCyclicUpdate))
	}
	d.computing = true
	defer func() { d.computing = false }()

	frame := newFrame()
	d.eng.pushFrame(frame)
	defer d.eng.popFrame()

	start := time.Now()
	value, err := d.compute()

	// Dependency set reflects the most recent run, successful or not, so
	// a failed derivation is still invalidated, and its observers
	// re-triggered, when the inputs it managed to read change.
	for _, dep := range d.deps {
		dep.removeSub(d)
	}
	d.deps = frame.sources
	for _, dep := range d.deps {
		dep.addSub(d)
	}

	if err != nil {
		err = &EvaluationError{Node: d.info(), Err: err}
		d.eng.emitRecompute(d.info(), time.Since(start), err)
		return err
	}

	d.valueMu.Lock()
	d.value = value
	d.valueMu.Unlock()

	d.cachedAt = d.eng.now()
	d.rev.Store(d.cachedAt)
	d.valid.Store(true)

	d.eng.emitRecompute(d.info(), time.Since(start), nil)
	return nil
}

func (d *Derivation[T]) check() {
	if d == nil || d.eng == nil {
		panic(ErrUnknownSignal)
	}
}

func (d *Derivation[T]) info() NodeInfo {
	return NodeInfo{ID: d.base.id, Kind: KindDerivation, Label: d.base.label}
}

func (d *Derivation[T]) revision() uint64 {
	return d.rev.Load()
}

// markStale invalidates the cache. Idempotent; the scheduler walks the
// graph itself, so no propagation happens here.
func (d *Derivation[T]) markStale() {
	d.valid.CompareAndSwap(true, false)
}

func (d *Derivation[T]) addSub(sub dependent)       { d.base.addSub(sub) }
func (d *Derivation[T]) removeSub(sub dependent)    { d.base.removeSub(sub) }
func (d *Derivation[T]) eachSub(fn func(dependent)) { d.base.eachSub(fn) }

func (d *Derivation[T]) snapshot() NodeSnapshot {
	return NodeSnapshot{
		ID:       d.base.id,
		Kind:     KindDerivation.String(),
		Label:    d.base.label,
		Revision: d.rev.Load(),
		Stale:    !d.valid.Load(),
		Subs:     d.base.subIDs(),
	}
}
