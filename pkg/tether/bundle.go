package tether

// view is the read side shared by cell refs, read guards, and strong
// handles.
type view[T any] interface {
	Get() *T
	Release()
}

// viewMut is the write side shared by mutable cell refs and exclusive
// lock guards.
type viewMut[T any] interface {
	Get() *T
	Set(T)
	Release()
}

type releaser interface {
	Release()
}

// Ref bundles a shared view of a T with the owner the view was taken
// from. Releasing the bundle releases the view, then the owner. Bundles
// with the same leaf type are the same Go type regardless of how deep
// the chain behind them is, so a variable of type *Ref[T] can be
// reassigned across iterations.
type Ref[T any] struct {
	v        view[T]
	owner    releaser
	released bool
}

// Get returns a pointer to the viewed value.
// It panics with ErrReleased if the bundle has been released.
func (r *Ref[T]) Get() *T {
	if r.released {
		panic(ErrReleased)
	}
	return r.v.Get()
}

// Release releases the view and then the owner. It is idempotent.
func (r *Ref[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	r.v.Release()
	r.owner.Release()
}

// RefMut bundles an exclusive view of a T with the owner the view was
// taken from.
type RefMut[T any] struct {
	v        viewMut[T]
	owner    releaser
	released bool
}

// Get returns a pointer to the viewed value.
// It panics with ErrReleased if the bundle has been released.
func (r *RefMut[T]) Get() *T {
	if r.released {
		panic(ErrReleased)
	}
	return r.v.Get()
}

// Set replaces the viewed value.
// It panics with ErrReleased if the bundle has been released.
func (r *RefMut[T]) Set(v T) {
	if r.released {
		panic(ErrReleased)
	}
	r.v.Set(v)
}

// Release releases the view and then the owner. It is idempotent.
func (r *RefMut[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	r.v.Release()
	r.owner.Release()
}

// Bundles are owners themselves, which is what lets chains nest.
var (
	_ Owner[int] = (*Ref[int])(nil)
	_ Owner[int] = (*RefMut[int])(nil)
)
