// Package tether bundles a guard with the owner it was borrowed from.
//
// Taking a view of a shared value usually needs two statements: acquire
// the owner, then acquire the view. When the owner is a temporary (the
// result of an upgrade, a lock acquired mid-expression) the view must
// not outlive it. A bundle pairs the two so one value carries both, and
// a single Release tears them down in the right order: view first,
// owner second.
//
// # Owners and Chains
//
// Anything with Get and Release methods can act as an owner. The
// handles, cells, and lock guards in this module all qualify, and so do
// bundles themselves, so chains compose to arbitrary depth:
//
//	// *handle.Strong[*cell.Cell[Config]]
//	h := handle.New(cell.New(defaultConfig))
//
//	// one value keeps the handle and the borrow alive together
//	b := tether.Borrow(h)
//	defer b.Release()
//	apply(b.Get())
//
// A bare primitive starts a chain through Root, which wraps it in an
// owner whose Release does nothing:
//
//	b := tether.BorrowMut(tether.Root(c))
//
// # Consume Semantics
//
// Composition operations consume their owner. After passing an owner to
// Borrow, Upgrade, Lock, or any other operation here, do not use it
// independently; release the returned bundle instead. Failed operations
// release the owner before returning, so a failed TryBorrow or a dead
// Upgrade leaves nothing to clean up.
//
// # Failure Reporting
//
// Fallible operations return the sentinel errors of the underlying
// primitives, re-exported here: ErrBorrowConflict, ErrWouldBlock,
// ErrPoisoned. Lock and TryLock on a poisoned mutex still return a
// usable bundle alongside the error. Upgrade reports death with a bare
// false, matching handle.Weak.
package tether
