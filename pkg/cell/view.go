package cell

import "github.com/tether-dev/tether-go/pkg/trace"

// Ref is a shared view into a Cell. The pointer returned by Get is valid
// until the view is released.
type Ref[T any] struct {
	cell     *Cell[T]
	released bool
}

// Get returns a pointer to the viewed value.
// It panics with ErrReleased if the view has been released.
func (r *Ref[T]) Get() *T {
	if r.released {
		panic(ErrReleased)
	}
	return &r.cell.value
}

// Release returns the view to the cell. Release is idempotent.
func (r *Ref[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	r.cell.borrows--
	r.cell.emit(trace.OpRelease, trace.OutcomeOK, nil)
}

// RefMut is an exclusive view into a Cell. The pointer returned by Get is
// valid until the view is released.
type RefMut[T any] struct {
	cell     *Cell[T]
	released bool
}

// Get returns a pointer to the viewed value.
// It panics with ErrReleased if the view has been released.
func (r *RefMut[T]) Get() *T {
	if r.released {
		panic(ErrReleased)
	}
	return &r.cell.value
}

// Set replaces the viewed value.
// It panics with ErrReleased if the view has been released.
func (r *RefMut[T]) Set(v T) {
	if r.released {
		panic(ErrReleased)
	}
	r.cell.value = v
}

// Release returns the view to the cell. Release is idempotent.
func (r *RefMut[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	r.cell.borrows = 0
	r.cell.emit(trace.OpRelease, trace.OutcomeOK, nil)
}
