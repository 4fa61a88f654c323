package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/glint-dev/glint/pkg/glint"
)

func newTestEngine(t *testing.T) (*glint.Engine, *Collector) {
	t.Helper()

	reg := prometheus.NewRegistry()
	col := New(WithRegistry(reg))
	e := glint.New(
		glint.WithHook(col),
		glint.WithErrorSink(func(error) {}),
	)
	return e, col
}

func TestCollectorCountsWritesAndFlushes(t *testing.T) {
	e, col := newTestEngine(t)

	count := glint.Declare(e, "count", 0)
	e.Observe("watcher", func() error {
		_ = count.Get()
		return nil
	})

	count.Set(1)
	count.Set(2)

	if got := testutil.ToFloat64(col.writesTotal); got != 2 {
		t.Errorf("expected 2 writes, got %v", got)
	}
	if got := testutil.ToFloat64(col.flushesTotal); got != 2 {
		t.Errorf("expected 2 flushes, got %v", got)
	}
	if got := testutil.ToFloat64(col.observerRuns.WithLabelValues("ok")); got != 3 {
		t.Errorf("expected 3 ok observer runs (1 initial + 2 flushes), got %v", got)
	}
}

func TestCollectorCountsDeclaresByKind(t *testing.T) {
	e, col := newTestEngine(t)

	count := glint.Declare(e, "count", 0)
	double := glint.Derive(e, "double", func() (int, error) {
		return count.Get() * 2, nil
	})
	e.Observe("watcher", func() error {
		_, err := double.Get()
		return err
	})

	for _, tc := range []struct {
		kind string
		want float64
	}{
		{"signal", 1},
		{"derivation", 1},
		{"observer", 1},
	} {
		if got := testutil.ToFloat64(col.nodesDeclared.WithLabelValues(tc.kind)); got != tc.want {
			t.Errorf("kind %s: expected %v, got %v", tc.kind, tc.want, got)
		}
	}
}

func TestCollectorRecomputeAndErrorStatus(t *testing.T) {
	e, col := newTestEngine(t)

	fail := glint.Declare(e, "fail", false)
	d := glint.Derive(e, "d", func() (int, error) {
		if fail.Get() {
			return 0, errors.New("boom")
		}
		return 1, nil
	})
	e.Observe("watcher", func() error {
		_, err := d.Get()
		return err
	})

	fail.Set(true)

	if got := testutil.ToFloat64(col.recomputesTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("expected 1 ok recompute, got %v", got)
	}
	if got := testutil.ToFloat64(col.recomputesTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("expected 1 failed recompute, got %v", got)
	}
	if got := testutil.ToFloat64(col.observerRuns.WithLabelValues("error")); got != 1 {
		t.Errorf("expected 1 failed observer run, got %v", got)
	}
}
