package tether

import (
	"github.com/tether-dev/tether-go/pkg/cell"
)

// Borrow takes a shared view of the cell held by owner and bundles it
// with the owner. Like cell.Borrow it panics when the cell is
// exclusively held; the owner is released before the panic propagates.
func Borrow[T any, O Owner[*cell.Cell[T]]](owner O) *Ref[T] {
	c := *owner.Get()
	ok := false
	defer func() {
		if !ok {
			owner.Release()
		}
	}()
	v := c.Borrow()
	ok = true
	return &Ref[T]{v: v, owner: owner}
}

// TryBorrow is the non-panicking form of Borrow. On conflict it
// releases the owner and returns an error wrapping ErrBorrowConflict.
func TryBorrow[T any, O Owner[*cell.Cell[T]]](owner O) (*Ref[T], error) {
	c := *owner.Get()
	v, err := c.TryBorrow()
	if err != nil {
		owner.Release()
		return nil, err
	}
	return &Ref[T]{v: v, owner: owner}, nil
}

// BorrowMut takes the exclusive view of the cell held by owner and
// bundles it with the owner. Like cell.BorrowMut it panics when the
// cell is borrowed at all; the owner is released before the panic
// propagates.
func BorrowMut[T any, O Owner[*cell.Cell[T]]](owner O) *RefMut[T] {
	c := *owner.Get()
	ok := false
	defer func() {
		if !ok {
			owner.Release()
		}
	}()
	v := c.BorrowMut()
	ok = true
	return &RefMut[T]{v: v, owner: owner}
}

// TryBorrowMut is the non-panicking form of BorrowMut. On conflict it
// releases the owner and returns an error wrapping ErrBorrowConflict.
func TryBorrowMut[T any, O Owner[*cell.Cell[T]]](owner O) (*RefMut[T], error) {
	c := *owner.Get()
	v, err := c.TryBorrowMut()
	if err != nil {
		owner.Release()
		return nil, err
	}
	return &RefMut[T]{v: v, owner: owner}, nil
}
