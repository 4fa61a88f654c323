package tracing

import (
	"errors"
	"testing"
	"time"

	"github.com/glint-dev/glint/pkg/glint"
)

// The global tracer provider defaults to a no-op; these tests exercise
// the hook paths against it.

func TestTracerAttachesToEngine(t *testing.T) {
	e := glint.New(glint.WithHook(New(WithTracerName("glint-test"))))

	count := glint.Declare(e, "count", 0)
	e.Observe("watcher", func() error {
		_ = count.Get()
		return nil
	})

	count.Set(1)
	e.Batch(func() {
		count.Set(2)
		count.Set(3)
	})
}

func TestTracerEvaluationSpans(t *testing.T) {
	tr := New(WithEvaluationSpans(true))

	node := glint.NodeInfo{ID: 1, Kind: glint.KindDerivation, Label: "d"}
	tr.OnRecompute(node, time.Millisecond, nil)
	tr.OnRecompute(node, time.Millisecond, errors.New("boom"))

	obs := glint.NodeInfo{ID: 2, Kind: glint.KindObserver, Label: "o"}
	tr.OnObserverRun(obs, time.Millisecond, nil)

	tr.OnFlush(glint.FlushInfo{Rounds: 1, ObserverRuns: 1, Duration: time.Millisecond})
}

func TestTracerEvaluationSpansDisabledByDefault(t *testing.T) {
	tr := New()
	if tr.config.EvaluationSpans {
		t.Error("evaluation spans should be off by default")
	}
}
