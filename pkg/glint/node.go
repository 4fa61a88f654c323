package glint

import (
	"sync"
	"sync/atomic"
)

// NodeKind identifies the role of a node in the graph.
type NodeKind uint8

const (
	KindSignal NodeKind = iota + 1
	KindDerivation
	KindObserver
)

// String returns a human-readable name for the node kind.
func (k NodeKind) String() string {
	switch k {
	case KindSignal:
		return "signal"
	case KindDerivation:
		return "derivation"
	case KindObserver:
		return "observer"
	default:
		return "unknown"
	}
}

// NodeInfo identifies a node to hooks, errors, and snapshots.
type NodeInfo struct {
	ID    uint64
	Kind  NodeKind
	Label string
}

// idCounter is the source of unique IDs for all nodes across all engines.
// Atomic so concurrent engines never hand out the same ID.
var idCounter uint64

// nextID returns the next unique node ID. IDs are monotonically
// increasing and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

// source is anything that can be depended on: a signal or a derivation.
type source interface {
	info() NodeInfo

	// revision returns the source's current revision stamp.
	revision() uint64

	// addSub / removeSub maintain the downstream edge set.
	addSub(d dependent)
	removeSub(d dependent)

	// eachSub visits a copy of the current subscribers.
	eachSub(fn func(dependent))

	// snapshot renders the node for GraphSnapshot.
	snapshot() NodeSnapshot
}

// dependent is anything that records sources: a derivation or an observer.
type dependent interface {
	info() NodeInfo

	// markStale notes that a source in the node's last dependency set
	// changed. For derivations this invalidates the cache; for observers
	// it makes them eligible for the pending run queue.
	markStale()
}

// sourceBase provides kind-erased subscriber management, embedded in
// Signal and Derivation. Subscribers are deduplicated by node ID, and
// notification walks a copy so callbacks never run under the lock.
type sourceBase struct {
	id    uint64
	label string

	subs  []dependent
	subMu sync.RWMutex
}

func (s *sourceBase) addSub(d dependent) {
	if d == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	did := d.info().ID
	for _, existing := range s.subs {
		if existing.info().ID == did {
			return
		}
	}
	s.subs = append(s.subs, d)
}

func (s *sourceBase) removeSub(d dependent) {
	if d == nil {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	did := d.info().ID
	for i, existing := range s.subs {
		if existing.info().ID == did {
			s.subs[i] = s.subs[len(s.subs)-1]
			s.subs = s.subs[:len(s.subs)-1]
			return
		}
	}
}

func (s *sourceBase) eachSub(fn func(dependent)) {
	s.subMu.RLock()
	subs := make([]dependent, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	for _, d := range subs {
		fn(d)
	}
}

func (s *sourceBase) subIDs() []uint64 {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	ids := make([]uint64, len(s.subs))
	for i, d := range s.subs {
		ids[i] = d.info().ID
	}
	return ids
}
