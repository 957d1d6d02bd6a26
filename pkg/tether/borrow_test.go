package tether

import (
	"errors"
	"testing"

	"github.com/tether-dev/tether-go/pkg/cell"
	"github.com/tether-dev/tether-go/pkg/handle"
	"github.com/tether-dev/tether-go/pkg/trace"
)

func TestBorrowFromRoot(t *testing.T) {
	c := cell.New(7)

	b := Borrow(Root(c))
	if *b.Get() != 7 {
		t.Errorf("got %d, want 7", *b.Get())
	}

	// The bundle holds a real shared borrow on the cell
	if _, err := c.TryBorrowMut(); !errors.Is(err, ErrBorrowConflict) {
		t.Errorf("TryBorrowMut while bundled borrow held: err = %v, want ErrBorrowConflict", err)
	}
	if r, err := c.TryBorrow(); err != nil {
		t.Errorf("second shared borrow failed: %v", err)
	} else {
		r.Release()
	}

	b.Release()

	// Released like a plain borrow
	m, err := c.TryBorrowMut()
	if err != nil {
		t.Fatalf("TryBorrowMut after release: %v", err)
	}
	m.Release()
}

func TestBorrowMutThroughHandle(t *testing.T) {
	finalized := false
	h := handle.NewWithFinalizer(cell.New(10), func(**cell.Cell[int]) {
		finalized = true
	})

	b := BorrowMut(h)
	if *b.Get() != 10 {
		t.Errorf("got %d, want 10", *b.Get())
	}
	b.Set(20)

	if finalized {
		t.Fatal("owner finalized while bundle still held")
	}

	b.Release()
	if !finalized {
		t.Fatal("releasing the bundle did not release the owning handle")
	}
}

func TestTryBorrowConflictReleasesOwner(t *testing.T) {
	c := cell.New(1)
	m := c.BorrowMut()

	finalized := false
	h := handle.NewWithFinalizer(c, func(**cell.Cell[int]) {
		finalized = true
	})

	b, err := TryBorrow(h)
	if !errors.Is(err, ErrBorrowConflict) {
		t.Fatalf("TryBorrow on exclusively held cell: err = %v, want ErrBorrowConflict", err)
	}
	if b != nil {
		t.Fatalf("TryBorrow returned bundle %v on conflict, want nil", b)
	}
	if !finalized {
		t.Error("failed TryBorrow did not release the owner")
	}

	m.Release()
}

func TestTryBorrowMutConflictReleasesOwner(t *testing.T) {
	c := cell.New(1)
	r := c.Borrow()

	finalized := false
	h := handle.NewWithFinalizer(c, func(**cell.Cell[int]) {
		finalized = true
	})

	if _, err := TryBorrowMut(h); !errors.Is(err, ErrBorrowConflict) {
		t.Fatalf("TryBorrowMut on borrowed cell: err = %v, want ErrBorrowConflict", err)
	}
	if !finalized {
		t.Error("failed TryBorrowMut did not release the owner")
	}

	r.Release()
}

func TestBorrowPanicReleasesOwner(t *testing.T) {
	c := cell.New(1)
	m := c.BorrowMut()
	defer m.Release()

	finalized := false
	h := handle.NewWithFinalizer(c, func(**cell.Cell[int]) {
		finalized = true
	})

	func() {
		defer func() {
			rec := recover()
			if rec == nil {
				t.Fatal("Borrow on exclusively held cell did not panic")
			}
			if err, ok := rec.(error); !ok || !errors.Is(err, ErrBorrowConflict) {
				t.Errorf("panic value = %v, want ErrBorrowConflict", rec)
			}
		}()
		Borrow(h)
	}()

	if !finalized {
		t.Error("panicking Borrow did not release the owner")
	}
}

func TestBundleReleaseIdempotent(t *testing.T) {
	releases := 0
	h := handle.NewWithFinalizer(cell.New(1), func(**cell.Cell[int]) {
		releases++
	})

	b := Borrow(h)
	b.Release()
	b.Release()

	if releases != 1 {
		t.Errorf("owner released %d times, want 1", releases)
	}
}

func TestBundleUseAfterReleasePanics(t *testing.T) {
	b := Borrow(Root(cell.New(1)))
	b.Release()

	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("Get after Release did not panic")
		}
		if err, ok := rec.(error); !ok || !errors.Is(err, ErrReleased) {
			t.Errorf("panic value = %v, want ErrReleased", rec)
		}
	}()

	b.Get()
}

func TestBorrowTraceSequence(t *testing.T) {
	tr := &captureTracer{}
	c := cell.New(5, cell.WithTracer(tr))

	b := Borrow(Root(c))
	b.Release()

	var ops []trace.Op
	for _, e := range tr.evs {
		ops = append(ops, e.Op)
	}
	want := []trace.Op{trace.OpNew, trace.OpBorrow, trace.OpRelease}
	if len(ops) != len(want) {
		t.Fatalf("got ops %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op[%d] = %v, want %v", i, ops[i], want[i])
		}
	}
}

// captureTracer records events for inspection. Single-goroutine tests
// only.
type captureTracer struct {
	evs []trace.Event
}

func (c *captureTracer) Trace(event trace.Event) {
	c.evs = append(c.evs, event)
}
