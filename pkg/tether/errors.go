package tether

import (
	"errors"

	"github.com/tether-dev/tether-go/pkg/cell"
	"github.com/tether-dev/tether-go/pkg/lock"
)

// Sentinel errors of the underlying primitives, re-exported so callers
// composing through this package match against a single import.
var (
	ErrBorrowConflict = cell.ErrBorrowConflict
	ErrWouldBlock     = lock.ErrWouldBlock
	ErrPoisoned       = lock.ErrPoisoned
)

// ErrReleased is the panic value for use of a released bundle.
var ErrReleased = errors.New("use of released bundle")
