package glint

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Signal is a mutable input value tracked for change notification.
// Reading it during a tracked evaluation records a dependency; writing it
// always counts as a change and invalidates every dependent, even when the
// new value equals the old one.
type Signal[T any] struct {
	base sourceBase
	eng  *Engine

	value T
	mu    sync.RWMutex

	// rev is the logical time of the last write.
	rev atomic.Uint64
}

// Declare creates a signal on the engine under the given key. The key
// identifies the signal in lookups, snapshots, and hook events; declaring
// a taken key panics with ErrDuplicateSignal.
func Declare[T any](e *Engine, key string, initial T) *Signal[T] {
	e.checkOpen()

	s := &Signal[T]{
		base: sourceBase{
			id:    nextID(),
			label: key,
		},
		eng:   e,
		value: initial,
	}

	e.registerSource(key, s, s)
	e.emitDeclare(s.info())

	return s
}

// Lookup returns the signal declared under key. The error wraps
// ErrUnknownSignal when the key was never declared, and reports a type
// mismatch when the declared signal holds a different value type.
func Lookup[T any](e *Engine, key string) (*Signal[T], error) {
	handle, ok := e.lookupAny(key)
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w", key, ErrUnknownSignal)
	}

	s, ok := handle.(*Signal[T])
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w (declared with a different type)", key, ErrUnknownSignal)
	}
	return s, nil
}

// Key returns the key the signal was declared under.
func (s *Signal[T]) Key() string {
	return s.base.label
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

// Get returns the current value and records the signal as a dependency of
// the active evaluation, if any.
func (s *Signal[T]) Get() T {
	s.check()

	s.mu.RLock()
	value := s.value
	s.mu.RUnlock()

	s.eng.recordRead(s)
	return value
}

// Peek returns the current value without recording a dependency.
func (s *Signal[T]) Peek() T {
	s.check()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set writes a new value, bumps the signal's revision, and schedules all
// dependents for the current update cycle. There is no value-equality
// short-circuit: writing the same value still triggers downstream work.
func (s *Signal[T]) Set(value T) {
	s.check()
	s.eng.checkOpen()

	s.mu.Lock()
	s.value = value
	s.mu.Unlock()

	rev := s.eng.tick()
	s.rev.Store(rev)

	s.eng.emitWrite(s.info(), rev)
	s.eng.sched.enqueueWrite(s)
}

// Update atomically applies fn to the current value and writes the result.
func (s *Signal[T]) Update(fn func(T) T) {
	s.check()
	s.eng.checkOpen()

	s.mu.Lock()
	s.value = fn(s.value)
	s.mu.Unlock()

	rev := s.eng.tick()
	s.rev.Store(rev)

	s.eng.emitWrite(s.info(), rev)
	s.eng.sched.enqueueWrite(s)
}

// check panics with ErrUnknownSignal on a zero-value handle that was
// never declared through an engine.
func (s *Signal[T]) check() {
	if s == nil || s.eng == nil {
		panic(ErrUnknownSignal)
	}
}

func (s *Signal[T]) info() NodeInfo {
	return NodeInfo{ID: s.base.id, Kind: KindSignal, Label: s.base.label}
}

func (s *Signal[T]) revision() uint64 {
	return s.rev.Load()
}

func (s *Signal[T]) addSub(d dependent)         { s.base.addSub(d) }
func (s *Signal[T]) removeSub(d dependent)      { s.base.removeSub(d) }
func (s *Signal[T]) eachSub(fn func(dependent)) { s.base.eachSub(fn) }

func (s *Signal[T]) snapshot() NodeSnapshot {
	return NodeSnapshot{
		ID:       s.base.id,
		Kind:     KindSignal.String(),
		Label:    s.base.label,
		Revision: s.rev.Load(),
		Subs:     s.base.subIDs(),
	}
}
