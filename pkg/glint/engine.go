package glint

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// defaultMaxFlushRounds bounds how many times a single flush may pick up
// writes made by its own observers before giving up with ErrCyclicUpdate.
const defaultMaxFlushRounds = 64

// Engine owns one reactive graph: the signal registry, the tracking stack,
// the scheduler, and the registered observers. One engine per session; all
// mutation must happen on a single goroutine.
type Engine struct {
	logger    *slog.Logger
	hooks     []Hook
	errSink   func(error)
	maxRounds int

	// clock is the logical time of the graph, bumped on every signal
	// write and read when stamping derivation caches. Atomic only so
	// Snapshot can read it from another goroutine.
	clock atomic.Uint64

	// frames is the tracking stack (innermost evaluation last).
	frames []*trackingFrame

	sched *scheduler

	// mu guards the registries below so Snapshot can walk them safely.
	mu        sync.Mutex
	byKey     map[string]any
	sources   []source
	observers []*Observer
	cleanups  []func()

	closed atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for observer failures and debug output.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHook attaches an instrumentation hook to the engine. Hooks receive
// declarations, writes, recomputes, observer runs, and flush summaries.
// Multiple hooks may be attached; they are invoked in attachment order.
func WithHook(h Hook) Option {
	return func(e *Engine) {
		if h != nil {
			e.hooks = append(e.hooks, h)
		}
	}
}

// WithErrorSink sets the function that receives observer failures.
// By default failures are logged through the engine logger.
func WithErrorSink(sink func(error)) Option {
	return func(e *Engine) {
		e.errSink = sink
	}
}

// WithMaxFlushRounds overrides the bound on nested flush rounds before a
// cycle is declared. Values below 1 are ignored.
func WithMaxFlushRounds(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxRounds = n
		}
	}
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxRounds: defaultMaxFlushRounds,
		byKey:     make(map[string]any),
	}
	e.sched = newScheduler(e)

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.errSink == nil {
		e.errSink = func(err error) {
			e.logger.Error("observer failed", "error", err)
		}
	}

	return e
}

// AttachHook adds an instrumentation hook after construction. Like all
// engine mutation it must be called from the engine goroutine; events
// that fired before attachment are not replayed.
func (e *Engine) AttachHook(h Hook) {
	if h != nil {
		e.hooks = append(e.hooks, h)
	}
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	return e.closed.Load()
}

// OnCleanup registers a function to run when the engine is closed.
// If the engine is already closed the function runs immediately.
func (e *Engine) OnCleanup(fn func()) {
	if fn == nil {
		return
	}
	if e.closed.Load() {
		fn()
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cleanups = append(e.cleanups, fn)
}

// Close disposes all observers (most recently declared first), runs
// registered cleanups in reverse order, and rejects further declarations
// and writes. Close is idempotent.
func (e *Engine) Close() {
	if e.closed.Swap(true) {
		return
	}

	e.mu.Lock()
	observers := make([]*Observer, len(e.observers))
	copy(observers, e.observers)
	cleanups := e.cleanups
	e.cleanups = nil
	e.mu.Unlock()

	for i := len(observers) - 1; i >= 0; i-- {
		observers[i].Dispose()
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// tick advances the logical clock and returns the new time.
func (e *Engine) tick() uint64 {
	return e.clock.Add(1)
}

// now returns the current logical time.
func (e *Engine) now() uint64 {
	return e.clock.Load()
}

func (e *Engine) checkOpen() {
	if e.closed.Load() {
		panic(ErrEngineClosed)
	}
}

// registerSource records a signal or derivation for snapshots. Signals
// additionally claim their key in the registry; a taken key panics with
// ErrDuplicateSignal.
func (e *Engine) registerSource(key string, handle any, src source) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if key != "" {
		if _, exists := e.byKey[key]; exists {
			panic(fmt.Errorf("glint: declare %q: %w", key, ErrDuplicateSignal))
		}
		e.byKey[key] = handle
	}
	e.sources = append(e.sources, src)
}

// registerObserver appends to the ordered observer list. Registration
// order is the flush execution order.
func (e *Engine) registerObserver(o *Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// removeObserver drops a disposed observer from the ordered list.
func (e *Engine) removeObserver(o *Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, existing := range e.observers {
		if existing == o {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// orderedObservers returns a copy of the observer list in registration
// order.
func (e *Engine) orderedObservers() []*Observer {
	e.mu.Lock()
	defer e.mu.Unlock()

	observers := make([]*Observer, len(e.observers))
	copy(observers, e.observers)
	return observers
}

// lookupAny returns the registered handle for key.
func (e *Engine) lookupAny(key string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	handle, ok := e.byKey[key]
	return handle, ok
}

// reportObserverError delivers an observer failure to the error sink.
func (e *Engine) reportObserverError(err error) {
	e.errSink(err)
}

// Batch groups multiple signal writes into a single update cycle. All
// writes inside fn are collected and the affected observers run once when
// the outermost batch completes. Batches nest; only the outermost one
// flushes.
func (e *Engine) Batch(fn func()) {
	e.sched.batch(fn)
}

// Untracked runs fn without recording signal or derivation reads as
// dependencies of the current evaluation.
func (e *Engine) Untracked(fn func()) {
	e.pushFrame(untrackedFrame())
	defer e.popFrame()
	fn()
}
