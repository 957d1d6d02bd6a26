// Package lock provides value-owning locks that hand out guard objects
// and carry a poison flag. A lock becomes poisoned when a holder fails
// (panics or exits) inside one of the Do closure forms; later acquirers
// are told, but the guarded value stays fully usable.
package lock

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tether-dev/tether-go/pkg/trace"
)

// Lock errors.
var (
	ErrWouldBlock = errors.New("would block")
	ErrPoisoned   = errors.New("lock is poisoned")
	ErrReleased   = errors.New("use of released guard")
)

// Mutex owns a value of type T behind an exclusive lock.
type Mutex[T any] struct {
	mu       sync.Mutex
	value    T
	poisoned atomic.Bool

	tracer trace.Tracer
	label  string
	id     string
}

// NewMutex creates a Mutex owning v.
func NewMutex[T any](v T, opts ...Option) *Mutex[T] {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Mutex[T]{value: v, tracer: cfg.tracer, label: cfg.label}
	if m.tracer != nil {
		m.id = uuid.New().String()
		m.emit(trace.OpNew, trace.OutcomeOK, nil, false)
	}
	return m
}

// Lock acquires the mutex, blocking until it is available. On a poisoned
// mutex the guard is still returned, together with an error wrapping
// ErrPoisoned; the guarded value remains fully usable.
func (m *Mutex[T]) Lock() (*Guard[T], error) {
	m.mu.Lock()
	return m.acquired(trace.OpLock)
}

// TryLock acquires the mutex without blocking. If the mutex is held it
// returns an error wrapping ErrWouldBlock and leaves the mutex
// untouched. A free but poisoned mutex behaves like Lock.
func (m *Mutex[T]) TryLock() (*Guard[T], error) {
	if !m.mu.TryLock() {
		err := fmt.Errorf("%w: mutex is held", ErrWouldBlock)
		m.emit(trace.OpTryLock, trace.OutcomeWouldBlock, err, true)
		return nil, err
	}
	return m.acquired(trace.OpTryLock)
}

// Do runs fn while holding the mutex. If fn panics or exits the
// goroutine while holding the lock, the mutex is marked poisoned and
// the panic propagates. Do returns an error wrapping ErrPoisoned
// without running fn when the mutex is already poisoned.
func (m *Mutex[T]) Do(fn func(*T)) error {
	m.mu.Lock()
	if m.poisoned.Load() {
		err := fmt.Errorf("%w: a previous holder failed", ErrPoisoned)
		m.emit(trace.OpLock, trace.OutcomePoisoned, err, true)
		m.mu.Unlock()
		return err
	}
	m.emit(trace.OpLock, trace.OutcomeOK, nil, true)

	completed := false
	defer func() {
		if !completed {
			m.poison()
		}
		m.emit(trace.OpRelease, trace.OutcomeOK, nil, false)
		m.mu.Unlock()
	}()

	fn(&m.value)
	completed = true
	return nil
}

// Poisoned reports whether a holder failed while holding the lock.
func (m *Mutex[T]) Poisoned() bool {
	return m.poisoned.Load()
}

// ClearPoison removes the poison flag.
func (m *Mutex[T]) ClearPoison() {
	if m.poisoned.CompareAndSwap(true, false) {
		m.emit(trace.OpClearPoison, trace.OutcomeOK, nil, false)
	}
}

// acquired is called with m.mu held.
func (m *Mutex[T]) acquired(op trace.Op) (*Guard[T], error) {
	g := &Guard[T]{m: m}
	if m.poisoned.Load() {
		err := fmt.Errorf("%w: a previous holder failed", ErrPoisoned)
		m.emit(op, trace.OutcomePoisoned, err, true)
		return g, err
	}
	m.emit(op, trace.OutcomeOK, nil, true)
	return g, nil
}

func (m *Mutex[T]) poison() {
	m.poisoned.Store(true)
	m.emit(trace.OpPoison, trace.OutcomeOK, nil, true)
}

func (m *Mutex[T]) emit(op trace.Op, outcome trace.Outcome, err error, held bool) {
	if m.tracer == nil {
		return
	}
	ev := trace.Event{
		Timestamp:  time.Now(),
		InstanceID: m.id,
		Kind:       trace.KindMutex,
		Op:         op,
		Outcome:    outcome,
		Label:      m.label,
		Access: &trace.AccessState{
			Exclusive: held,
			Poisoned:  m.poisoned.Load(),
		},
	}
	if err != nil {
		ev.Err = err.Error()
	}
	m.tracer.Trace(ev)
}

// Guard is an exclusive view of a Mutex's value. Abandoning a guard
// without calling Release leaves the mutex locked; it does not poison.
type Guard[T any] struct {
	m        *Mutex[T]
	released bool
}

// Get returns a pointer to the guarded value.
// It panics with ErrReleased if the guard has been released.
func (g *Guard[T]) Get() *T {
	if g.released {
		panic(ErrReleased)
	}
	return &g.m.value
}

// Set replaces the guarded value.
// It panics with ErrReleased if the guard has been released.
func (g *Guard[T]) Set(v T) {
	if g.released {
		panic(ErrReleased)
	}
	g.m.value = v
}

// Release unlocks the mutex. Release is idempotent.
func (g *Guard[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.m.emit(trace.OpRelease, trace.OutcomeOK, nil, false)
	g.m.mu.Unlock()
}
