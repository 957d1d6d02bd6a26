// Package cell provides a mutable cell whose borrow rules are checked at
// runtime: any number of shared views, or exactly one exclusive view,
// never both. A Cell is a single-goroutine primitive.
package cell

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tether-dev/tether-go/pkg/trace"
)

// Borrow errors.
var (
	ErrBorrowConflict = errors.New("borrow conflict")
	ErrReleased       = errors.New("use of released view")
)

// Cell wraps a value of type T and tracks outstanding views.
type Cell[T any] struct {
	value   T
	borrows int // 0 free, n > 0 shared views, -1 exclusive view

	tracer trace.Tracer
	label  string
	id     string
}

// New creates a Cell holding v.
func New[T any](v T, opts ...Option) *Cell[T] {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Cell[T]{value: v, tracer: cfg.tracer, label: cfg.label}
	if c.tracer != nil {
		c.id = uuid.New().String()
		c.emit(trace.OpNew, trace.OutcomeOK, nil)
	}
	return c
}

// Borrow returns a shared view of the value. Any number of shared views
// may be outstanding at once. Borrow panics with an error wrapping
// ErrBorrowConflict if an exclusive view is outstanding; use TryBorrow
// for a fallible variant.
func (c *Cell[T]) Borrow() *Ref[T] {
	r, err := c.borrow(trace.OpBorrow)
	if err != nil {
		panic(err)
	}
	return r
}

// TryBorrow is like Borrow but reports the conflict as an error instead
// of panicking. The cell is left untouched on failure.
func (c *Cell[T]) TryBorrow() (*Ref[T], error) {
	return c.borrow(trace.OpTryBorrow)
}

// BorrowMut returns an exclusive view of the value. It panics with an
// error wrapping ErrBorrowConflict if any view is outstanding; use
// TryBorrowMut for a fallible variant.
func (c *Cell[T]) BorrowMut() *RefMut[T] {
	r, err := c.borrowMut(trace.OpBorrowMut)
	if err != nil {
		panic(err)
	}
	return r
}

// TryBorrowMut is like BorrowMut but reports the conflict as an error
// instead of panicking. The cell is left untouched on failure.
func (c *Cell[T]) TryBorrowMut() (*RefMut[T], error) {
	return c.borrowMut(trace.OpTryBorrowMut)
}

// Replace swaps in a new value and returns the previous one. It panics
// with an error wrapping ErrBorrowConflict if any view is outstanding.
func (c *Cell[T]) Replace(v T) T {
	if c.borrows != 0 {
		err := fmt.Errorf("%w: cell is already borrowed", ErrBorrowConflict)
		c.emit(trace.OpReplace, trace.OutcomeConflict, err)
		panic(err)
	}
	old := c.value
	c.value = v
	c.emit(trace.OpReplace, trace.OutcomeOK, nil)
	return old
}

func (c *Cell[T]) borrow(op trace.Op) (*Ref[T], error) {
	if c.borrows < 0 {
		err := fmt.Errorf("%w: cell is exclusively held", ErrBorrowConflict)
		c.emit(op, trace.OutcomeConflict, err)
		return nil, err
	}
	c.borrows++
	c.emit(op, trace.OutcomeOK, nil)
	return &Ref[T]{cell: c}, nil
}

func (c *Cell[T]) borrowMut(op trace.Op) (*RefMut[T], error) {
	if c.borrows != 0 {
		err := fmt.Errorf("%w: cell is already borrowed", ErrBorrowConflict)
		c.emit(op, trace.OutcomeConflict, err)
		return nil, err
	}
	c.borrows = -1
	c.emit(op, trace.OutcomeOK, nil)
	return &RefMut[T]{cell: c}, nil
}

func (c *Cell[T]) emit(op trace.Op, outcome trace.Outcome, err error) {
	if c.tracer == nil {
		return
	}
	ev := trace.Event{
		Timestamp:  time.Now(),
		InstanceID: c.id,
		Kind:       trace.KindCell,
		Op:         op,
		Outcome:    outcome,
		Label:      c.label,
		Access: &trace.AccessState{
			Shared:    max(c.borrows, 0),
			Exclusive: c.borrows < 0,
		},
	}
	if err != nil {
		ev.Err = err.Error()
	}
	c.tracer.Trace(ev)
}
