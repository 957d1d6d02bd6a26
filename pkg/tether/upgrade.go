package tether

import (
	"github.com/tether-dev/tether-go/pkg/handle"
)

// Upgrade upgrades the weak handle held by owner and bundles the
// resulting strong handle with the owner. If the target has already
// been finalized it releases the owner and returns (nil, false).
func Upgrade[T any, O Owner[*handle.Weak[T]]](owner O) (*Ref[T], bool) {
	w := *owner.Get()
	s, ok := w.Upgrade()
	if !ok {
		owner.Release()
		return nil, false
	}
	return &Ref[T]{v: s, owner: owner}, true
}

// UpgradeLocal is Upgrade for the single-goroutine handle family.
func UpgradeLocal[T any, O Owner[*handle.LocalWeak[T]]](owner O) (*Ref[T], bool) {
	w := *owner.Get()
	s, ok := w.Upgrade()
	if !ok {
		owner.Release()
		return nil, false
	}
	return &Ref[T]{v: s, owner: owner}, true
}
