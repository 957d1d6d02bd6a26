package handle

import (
	"errors"
	"testing"

	"github.com/tether-dev/tether-go/pkg/trace"
)

func TestLocalHandleBasics(t *testing.T) {
	h := NewLocal(42)

	if got := *h.Get(); got != 42 {
		t.Errorf("Get: got %d, want 42", got)
	}
	if n := h.StrongCount(); n != 1 {
		t.Errorf("StrongCount: got %d, want 1", n)
	}

	h2 := h.Clone()
	if n := h.StrongCount(); n != 2 {
		t.Errorf("StrongCount after clone: got %d, want 2", n)
	}

	*h2.Get() = 7
	if got := *h.Get(); got != 7 {
		t.Errorf("original sees %d, want 7", got)
	}

	h2.Release()
	h.Release()
}

func TestLocalUpgradeLifecycle(t *testing.T) {
	h := NewLocal("v")
	w := h.Downgrade()

	s, ok := w.Upgrade()
	if !ok {
		t.Fatal("Upgrade failed while alive")
	}
	s.Release()

	h.Release()

	if _, ok := w.Upgrade(); ok {
		t.Error("Upgrade succeeded after death")
	}
	if n := w.StrongCount(); n != 0 {
		t.Errorf("StrongCount after death: got %d, want 0", n)
	}
}

func TestLocalFinalizerRunsOnce(t *testing.T) {
	var runs int
	h := NewLocalWithFinalizer(3, func(v *int) { runs++ })

	h2 := h.Clone()
	h.Release()
	h.Release()
	if runs != 0 {
		t.Fatalf("finalizer ran early (runs=%d)", runs)
	}

	h2.Release()
	if runs != 1 {
		t.Errorf("finalizer runs = %d, want 1", runs)
	}
}

func TestLocalReleasedHandlePanics(t *testing.T) {
	h := NewLocal(1)
	h.Release()

	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("Get after Release did not panic")
		}
		if err, ok := rec.(error); !ok || !errors.Is(err, ErrReleased) {
			t.Errorf("panic value = %v, want ErrReleased", rec)
		}
	}()

	h.Get()
}

func TestLocalTraceUsesLocalKind(t *testing.T) {
	tr := &captureTracer{}
	h := NewLocal(1, WithTracer(tr))
	h.Release()

	if len(tr.events) == 0 {
		t.Fatal("no events recorded")
	}
	for _, e := range tr.events {
		if e.Kind != trace.KindLocalHandle {
			t.Errorf("event kind = %v, want KindLocalHandle", e.Kind)
		}
	}
}
