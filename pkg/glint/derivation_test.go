package glint

import (
	"errors"
	"fmt"
	"testing"
)

func TestDerivationLazy(t *testing.T) {
	e := New()
	count := Declare(e, "count", 2)

	computes := 0
	double := Derive(e, "double", func() (int, error) {
		computes++
		return count.Get() * 2, nil
	})

	if computes != 0 {
		t.Fatalf("derivation must not compute before first read, got %d computes", computes)
	}

	if got := double.MustGet(); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	if computes != 1 {
		t.Errorf("expected 1 compute, got %d", computes)
	}

	// Cached: a second read does not recompute.
	double.MustGet()
	if computes != 1 {
		t.Errorf("expected cached read, got %d computes", computes)
	}
}

func TestDerivationCacheStability(t *testing.T) {
	e := New()
	a := Declare(e, "a", 1)
	b := Declare(e, "b", 1)

	computes := 0
	d := Derive(e, "d", func() (int, error) {
		computes++
		return a.Get() + 1, nil
	})

	d.MustGet()

	// Writing an unrelated signal must not invalidate d.
	b.Set(2)
	d.MustGet()
	if computes != 1 {
		t.Errorf("unrelated write invalidated derivation: %d computes", computes)
	}

	a.Set(2)
	if got := d.MustGet(); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if computes != 2 {
		t.Errorf("expected 2 computes, got %d", computes)
	}
}

func TestDerivationChain(t *testing.T) {
	e := New()
	count := Declare(e, "count", 1)

	double := Derive(e, "double", func() (int, error) {
		return count.Get() * 2, nil
	})
	quad := Derive(e, "quad", func() (int, error) {
		return double.MustGet() * 2, nil
	})

	if got := quad.MustGet(); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}

	count.Set(3)
	if got := quad.MustGet(); got != 12 {
		t.Errorf("expected 12 after write, got %d", got)
	}
}

func TestDerivationDynamicDependencies(t *testing.T) {
	e := New()
	useA := Declare(e, "useA", true)
	a := Declare(e, "a", "a1")
	b := Declare(e, "b", "b1")

	computes := 0
	pick := Derive(e, "pick", func() (string, error) {
		computes++
		if useA.Get() {
			return a.Get(), nil
		}
		return b.Get(), nil
	})

	if got := pick.MustGet(); got != "a1" {
		t.Fatalf("expected a1, got %q", got)
	}

	// Switch the branch: the dependency on a must be dropped.
	useA.Set(false)
	if got := pick.MustGet(); got != "b1" {
		t.Fatalf("expected b1, got %q", got)
	}
	computesAfterSwitch := computes

	a.Set("a2")
	pick.MustGet()
	if computes != computesAfterSwitch {
		t.Errorf("write to dropped dependency recomputed the derivation")
	}

	b.Set("b2")
	if got := pick.MustGet(); got != "b2" {
		t.Errorf("expected b2, got %q", got)
	}
}

func TestDerivationErrorKeepsCache(t *testing.T) {
	e := New()
	count := Declare(e, "count", 1)
	fail := Declare(e, "fail", false)

	errBoom := errors.New("boom")
	d := Derive(e, "d", func() (int, error) {
		if fail.Get() {
			return 0, errBoom
		}
		return count.Get() * 10, nil
	})

	if got := d.MustGet(); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}

	fail.Set(true)
	_, err := d.Get()
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Node.Label != "d" {
		t.Errorf("expected failing node d, got %q", evalErr.Node.Label)
	}

	// The cache stays stale after the failure, so the next read
	// recomputes with the recovered inputs.
	fail.Set(false)
	count.Set(2)
	if got := d.MustGet(); got != 20 {
		t.Errorf("expected 20 after recovery, got %d", got)
	}
}

func TestDerivationFailedComputeStillTracksReads(t *testing.T) {
	e := New()
	ready := Declare(e, "ready", false)

	// The very first compute fails, so the only dependency edges the
	// derivation can have are the ones recorded by the failed run.
	d := Derive(e, "guarded", func() (int, error) {
		if !ready.Get() {
			return 0, errors.New("not ready")
		}
		return 42, nil
	})

	var got int
	runs := 0
	failures := 0
	e.Observe("consumer", func() error {
		runs++
		v, err := d.Get()
		if err != nil {
			failures++
			return err
		}
		got = v
		return nil
	})

	if failures != 1 {
		t.Fatalf("expected the initial run to fail, got %d failures", failures)
	}
	runs = 0

	// The failed run read ready, so this write must invalidate the
	// derivation and re-trigger the consumer without another Get.
	ready.Set(true)

	if runs != 1 {
		t.Fatalf("expected consumer re-run after write, got %d runs", runs)
	}
	if got != 42 {
		t.Errorf("expected 42 after recovery, got %d", got)
	}
}

func TestDerivationSelfReadPanics(t *testing.T) {
	e := New()

	var d *Derivation[int]
	d = Derive(e, "loop", func() (int, error) {
		return d.MustGet() + 1, nil
	})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on self-read")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrCyclicUpdate) {
			t.Errorf("expected ErrCyclicUpdate, got %v", r)
		}
	}()

	d.MustGet()
}

func TestDerivationSharedAcrossObservers(t *testing.T) {
	e := New()
	count := Declare(e, "count", 1)

	computes := 0
	double := Derive(e, "double", func() (int, error) {
		computes++
		return count.Get() * 2, nil
	})

	var got1, got2 int
	e.Observe("o1", func() error {
		got1 = double.MustGet()
		return nil
	})
	e.Observe("o2", func() error {
		got2 = double.MustGet()
		return nil
	})

	if computes != 1 {
		t.Fatalf("intermediate value should be shared, got %d computes", computes)
	}

	count.Set(5)
	if got1 != 10 || got2 != 10 {
		t.Errorf("expected both observers to see 10, got %d and %d", got1, got2)
	}
	if computes != 2 {
		t.Errorf("expected one recompute for the whole flush, got %d", computes)
	}
}

func TestDerivationPeek(t *testing.T) {
	e := New()
	count := Declare(e, "count", 3)
	double := Derive(e, "double", func() (int, error) {
		return count.Get() * 2, nil
	})

	runs := 0
	e.Observe("peeker", func() error {
		runs++
		if _, err := double.Peek(); err != nil {
			return fmt.Errorf("peek: %w", err)
		}
		return nil
	})

	count.Set(4)
	if runs != 1 {
		t.Errorf("Peek should not subscribe the observer, got %d runs", runs)
	}
}
