package glint

import (
	"errors"
	"testing"
)

func TestSignalBasic(t *testing.T) {
	e := New()
	count := Declare(e, "count", 0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestSignalRevisionAdvances(t *testing.T) {
	e := New()
	count := Declare(e, "count", 0)

	snap := e.Snapshot()
	if snap.Clock != 0 {
		t.Errorf("expected clock 0 before any write, got %d", snap.Clock)
	}

	count.Set(1)
	count.Set(2)

	snap = e.Snapshot()
	if snap.Clock != 2 {
		t.Errorf("expected clock 2 after two writes, got %d", snap.Clock)
	}
	if got := snap.Nodes[0].Revision; got != 2 {
		t.Errorf("expected signal revision 2, got %d", got)
	}
}

func TestSignalPeekDoesNotTrack(t *testing.T) {
	e := New()
	count := Declare(e, "count", 42)

	runs := 0
	e.Observe("peeker", func() error {
		runs++
		_ = count.Peek()
		return nil
	})

	if runs != 1 {
		t.Fatalf("expected 1 initial run, got %d", runs)
	}

	count.Set(100)
	if runs != 1 {
		t.Errorf("Peek should not subscribe the observer, got %d runs", runs)
	}
}

func TestSignalSameValueStillNotifies(t *testing.T) {
	e := New()
	count := Declare(e, "count", 1)

	runs := 0
	e.Observe("watcher", func() error {
		runs++
		_ = count.Get()
		return nil
	})

	// Writing an equal value is still a change.
	count.Set(1)
	if runs != 2 {
		t.Errorf("expected re-run on same-value write, got %d runs", runs)
	}

	count.Set(1)
	if runs != 3 {
		t.Errorf("expected re-run on every write, got %d runs", runs)
	}
}

func TestSignalLookup(t *testing.T) {
	e := New()
	Declare(e, "species", "DO")

	s, err := Lookup[string](e, "species")
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}
	if s.Get() != "DO" {
		t.Errorf("expected \"DO\", got %q", s.Get())
	}

	if _, err := Lookup[string](e, "missing"); !errors.Is(err, ErrUnknownSignal) {
		t.Errorf("expected ErrUnknownSignal for missing key, got %v", err)
	}

	// Declared type does not match the requested one.
	if _, err := Lookup[int](e, "species"); !errors.Is(err, ErrUnknownSignal) {
		t.Errorf("expected ErrUnknownSignal for type mismatch, got %v", err)
	}
}

func TestSignalDuplicateKeyPanics(t *testing.T) {
	e := New()
	Declare(e, "count", 0)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on duplicate declare")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrDuplicateSignal) {
			t.Errorf("expected ErrDuplicateSignal, got %v", r)
		}
	}()

	Declare(e, "count", 1)
}

func TestSignalUndeclaredHandlePanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on undeclared handle")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrUnknownSignal) {
			t.Errorf("expected ErrUnknownSignal, got %v", r)
		}
	}()

	var s Signal[int]
	s.Set(1)
}

func TestSignalWriteAfterClosePanics(t *testing.T) {
	e := New()
	count := Declare(e, "count", 0)
	e.Close()

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrEngineClosed) {
			t.Errorf("expected ErrEngineClosed, got %v", r)
		}
	}()

	count.Set(1)
}
