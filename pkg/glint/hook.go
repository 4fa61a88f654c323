package glint

import "time"

// Hook receives engine lifecycle events. Metrics, tracing, and the
// devtools inspector all attach through this interface. Hook methods are
// called synchronously on the engine goroutine and must return quickly.
//
// Embed BaseHook to implement only the methods you care about.
type Hook interface {
	// OnDeclare fires when a signal, derivation, or observer is created.
	OnDeclare(node NodeInfo)

	// OnWrite fires after a signal write, with the new revision.
	OnWrite(node NodeInfo, rev uint64)

	// OnRecompute fires after a derivation run, successful or not.
	OnRecompute(node NodeInfo, d time.Duration, err error)

	// OnObserverRun fires after an observer run, successful or not.
	OnObserverRun(node NodeInfo, d time.Duration, err error)

	// OnFlush fires when a flush returns to idle.
	OnFlush(info FlushInfo)
}

// BaseHook is a no-op Hook implementation for embedding.
type BaseHook struct{}

func (BaseHook) OnDeclare(NodeInfo)                           {}
func (BaseHook) OnWrite(NodeInfo, uint64)                     {}
func (BaseHook) OnRecompute(NodeInfo, time.Duration, error)   {}
func (BaseHook) OnObserverRun(NodeInfo, time.Duration, error) {}
func (BaseHook) OnFlush(FlushInfo)                            {}

func (e *Engine) emitDeclare(node NodeInfo) {
	for _, h := range e.hooks {
		h.OnDeclare(node)
	}
}

func (e *Engine) emitWrite(node NodeInfo, rev uint64) {
	for _, h := range e.hooks {
		h.OnWrite(node, rev)
	}
}

func (e *Engine) emitRecompute(node NodeInfo, d time.Duration, err error) {
	for _, h := range e.hooks {
		h.OnRecompute(node, d, err)
	}
}

func (e *Engine) emitObserverRun(node NodeInfo, d time.Duration, err error) {
	for _, h := range e.hooks {
		h.OnObserverRun(node, d, err)
	}
}

func (e *Engine) emitFlush(info FlushInfo) {
	for _, h := range e.hooks {
		h.OnFlush(info)
	}
}
