package devtools

import (
	"time"

	"github.com/glint-dev/glint/pkg/glint"
)

// Event is one engine occurrence as streamed to inspector clients.
type Event struct {
	Time time.Time `json:"time"`

	// Type is one of "declare", "write", "recompute", "observer_run",
	// "flush".
	Type string `json:"type"`

	// Node identifies the affected node; empty for flush events.
	Node *NodeRef `json:"node,omitempty"`

	// Revision is set on write events.
	Revision uint64 `json:"revision,omitempty"`

	// DurationMs is set on recompute, observer_run, and flush events.
	DurationMs float64 `json:"duration_ms,omitempty"`

	// Error carries the failure message of a recompute or observer run.
	Error string `json:"error,omitempty"`

	// Rounds and ObserverRuns are set on flush events.
	Rounds       int `json:"rounds,omitempty"`
	ObserverRuns int `json:"observer_runs,omitempty"`
}

// NodeRef identifies a node in streamed events.
type NodeRef struct {
	ID    uint64 `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
}

func nodeRef(node glint.NodeInfo) *NodeRef {
	return &NodeRef{
		ID:    node.ID,
		Kind:  node.Kind.String(),
		Label: node.Label,
	}
}

// hook feeds engine events into the hub.
type hook struct {
	glint.BaseHook

	hub *hub
}

func (h *hook) OnDeclare(node glint.NodeInfo) {
	h.hub.broadcast(Event{
		Time: time.Now(),
		Type: "declare",
		Node: nodeRef(node),
	})
}

func (h *hook) OnWrite(node glint.NodeInfo, rev uint64) {
	h.hub.broadcast(Event{
		Time:     time.Now(),
		Type:     "write",
		Node:     nodeRef(node),
		Revision: rev,
	})
}

func (h *hook) OnRecompute(node glint.NodeInfo, d time.Duration, err error) {
	h.hub.broadcast(Event{
		Time:       time.Now(),
		Type:       "recompute",
		Node:       nodeRef(node),
		DurationMs: float64(d) / float64(time.Millisecond),
		Error:      errString(err),
	})
}

func (h *hook) OnObserverRun(node glint.NodeInfo, d time.Duration, err error) {
	h.hub.broadcast(Event{
		Time:       time.Now(),
		Type:       "observer_run",
		Node:       nodeRef(node),
		DurationMs: float64(d) / float64(time.Millisecond),
		Error:      errString(err),
	})
}

func (h *hook) OnFlush(info glint.FlushInfo) {
	h.hub.broadcast(Event{
		Time:         time.Now(),
		Type:         "flush",
		DurationMs:   float64(info.Duration) / float64(time.Millisecond),
		Rounds:       info.Rounds,
		ObserverRuns: info.ObserverRuns,
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
