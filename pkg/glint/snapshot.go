package glint

// NodeSnapshot describes one node of the graph at snapshot time.
type NodeSnapshot struct {
	ID    uint64 `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`

	// Revision is the logical time of the node's last write or
	// successful recompute. Always zero for observers.
	Revision uint64 `json:"revision,omitempty"`

	// Stale is true for a derivation whose cache needs recomputation.
	Stale bool `json:"stale,omitempty"`

	// Pending is true for an observer queued for the current flush.
	Pending bool `json:"pending,omitempty"`

	// Subs lists the IDs of direct dependents (edges out of this node).
	Subs []uint64 `json:"subs,omitempty"`
}

// GraphSnapshot is a point-in-time view of the whole dependency graph.
// It is what the devtools inspector serves.
type GraphSnapshot struct {
	// Clock is the engine's logical time.
	Clock uint64 `json:"clock"`

	// State is the scheduler phase: idle, collecting, or flushing.
	State string `json:"state"`

	Nodes []NodeSnapshot `json:"nodes"`
}

// Snapshot captures the current graph: every signal, derivation, and
// observer with its revision, staleness, and outgoing edges. Safe to call
// from any goroutine.
func (e *Engine) Snapshot() GraphSnapshot {
	e.mu.Lock()
	sources := make([]source, len(e.sources))
	copy(sources, e.sources)
	observers := make([]*Observer, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	snap := GraphSnapshot{
		Clock: e.now(),
		State: e.sched.State().String(),
		Nodes: make([]NodeSnapshot, 0, len(sources)+len(observers)),
	}

	for _, src := range sources {
		snap.Nodes = append(snap.Nodes, src.snapshot())
	}
	for _, o := range observers {
		info := o.info()
		snap.Nodes = append(snap.Nodes, NodeSnapshot{
			ID:      info.ID,
			Kind:    info.Kind.String(),
			Label:   info.Label,
			Pending: o.pending.Load(),
		})
	}

	return snap
}
