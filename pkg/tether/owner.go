package tether

// Owner is a releasable container holding a value of type P. Strong
// handles, cell views, lock guards, and bundles all satisfy it; Root
// adapts a bare value. Composition operations take ownership of the
// Owner passed to them.
type Owner[P any] interface {
	// Get returns a pointer to the owned value. It panics if the owner
	// has been released.
	Get() *P
	// Release gives up the ownership. It is idempotent.
	Release()
}

// Root wraps target in an Owner whose Release does nothing, so a value
// that is not itself owned can start a composition chain.
func Root[P any](target P) Owner[P] {
	return &rootOwner[P]{target: target}
}

type rootOwner[P any] struct {
	target P
}

func (r *rootOwner[P]) Get() *P { return &r.target }

func (r *rootOwner[P]) Release() {}
