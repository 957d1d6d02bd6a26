package lock

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tether-dev/tether-go/pkg/trace"
)

// RWMutex owns a value of type T behind a reader-writer lock. Only a
// failed exclusive holder poisons the lock; failed readers do not.
type RWMutex[T any] struct {
	mu       sync.RWMutex
	value    T
	poisoned atomic.Bool

	tracer trace.Tracer
	label  string
	id     string
}

// NewRWMutex creates an RWMutex owning v.
func NewRWMutex[T any](v T, opts ...Option) *RWMutex[T] {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &RWMutex[T]{value: v, tracer: cfg.tracer, label: cfg.label}
	if m.tracer != nil {
		m.id = uuid.New().String()
		m.emit(trace.OpNew, trace.OutcomeOK, nil, false)
	}
	return m
}

// Read acquires a shared lock, blocking until it is available. On a
// poisoned lock the guard is still returned, together with an error
// wrapping ErrPoisoned.
func (m *RWMutex[T]) Read() (*ReadGuard[T], error) {
	m.mu.RLock()
	return m.readAcquired(trace.OpRead)
}

// TryRead acquires a shared lock without blocking. If the lock is held
// exclusively it returns an error wrapping ErrWouldBlock.
func (m *RWMutex[T]) TryRead() (*ReadGuard[T], error) {
	if !m.mu.TryRLock() {
		err := fmt.Errorf("%w: lock is held exclusively", ErrWouldBlock)
		m.emit(trace.OpTryRead, trace.OutcomeWouldBlock, err, true)
		return nil, err
	}
	return m.readAcquired(trace.OpTryRead)
}

// Write acquires the exclusive lock, blocking until it is available. On
// a poisoned lock the guard is still returned, together with an error
// wrapping ErrPoisoned.
func (m *RWMutex[T]) Write() (*WriteGuard[T], error) {
	m.mu.Lock()
	return m.writeAcquired(trace.OpWrite)
}

// TryWrite acquires the exclusive lock without blocking. If the lock is
// held it returns an error wrapping ErrWouldBlock.
func (m *RWMutex[T]) TryWrite() (*WriteGuard[T], error) {
	if !m.mu.TryLock() {
		err := fmt.Errorf("%w: lock is held", ErrWouldBlock)
		m.emit(trace.OpTryWrite, trace.OutcomeWouldBlock, err, true)
		return nil, err
	}
	return m.writeAcquired(trace.OpTryWrite)
}

// DoRead runs fn while holding a shared lock. A panic inside fn
// propagates without poisoning the lock. DoRead returns an error
// wrapping ErrPoisoned without running fn when the lock is poisoned.
func (m *RWMutex[T]) DoRead(fn func(*T)) error {
	m.mu.RLock()
	if m.poisoned.Load() {
		err := fmt.Errorf("%w: a previous writer failed", ErrPoisoned)
		m.emit(trace.OpRead, trace.OutcomePoisoned, err, false)
		m.mu.RUnlock()
		return err
	}
	m.emit(trace.OpRead, trace.OutcomeOK, nil, false)

	defer func() {
		m.emit(trace.OpRelease, trace.OutcomeOK, nil, false)
		m.mu.RUnlock()
	}()

	fn(&m.value)
	return nil
}

// DoWrite runs fn while holding the exclusive lock. If fn panics or
// exits the goroutine while holding the lock, the lock is marked
// poisoned and the panic propagates. DoWrite returns an error wrapping
// ErrPoisoned without running fn when the lock is already poisoned.
func (m *RWMutex[T]) DoWrite(fn func(*T)) error {
	m.mu.Lock()
	if m.poisoned.Load() {
		err := fmt.Errorf("%w: a previous writer failed", ErrPoisoned)
		m.emit(trace.OpWrite, trace.OutcomePoisoned, err, true)
		m.mu.Unlock()
		return err
	}
	m.emit(trace.OpWrite, trace.OutcomeOK, nil, true)

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

// Poisoned reports whether a writer failed while holding the lock.
func (m *RWMutex[T]) Poisoned() bool {
	return m.poisoned.Load()
}

// ClearPoison removes the poison flag.
func (m *RWMutex[T]) ClearPoison() {
	if m.poisoned.CompareAndSwap(true, false) {
		m.emit(trace.OpClearPoison, trace.OutcomeOK, nil, false)
	}
}

// readAcquired is called with m.mu read-held.
func (m *RWMutex[T]) readAcquired(op trace.Op) (*ReadGuard[T], error) {
	g := &ReadGuard[T]{m: m}
	if m.poisoned.Load() {
		err := fmt.Errorf("%w: a previous writer failed", ErrPoisoned)
		m.emit(op, trace.OutcomePoisoned, err, false)
		return g, err
	}
	m.emit(op, trace.OutcomeOK, nil, false)
	return g, nil
}

// writeAcquired is called with m.mu held.
func (m *RWMutex[T]) writeAcquired(op trace.Op) (*WriteGuard[T], error) {
	g := &WriteGuard[T]{m: m}
	if m.poisoned.Load() {
		err := fmt.Errorf("%w: a previous writer failed", ErrPoisoned)
		m.emit(op, trace.OutcomePoisoned, err, true)
		return g, err
	}
	m.emit(op, trace.OutcomeOK, nil, true)
	return g, nil
}

func (m *RWMutex[T]) poison() {
	m.poisoned.Store(true)
	m.emit(trace.OpPoison, trace.OutcomeOK, nil, true)
}

func (m *RWMutex[T]) emit(op trace.Op, outcome trace.Outcome, err error, exclusive bool) {
	if m.tracer == nil {
		return
	}
	ev := trace.Event{
		Timestamp:  time.Now(),
		InstanceID: m.id,
		Kind:       trace.KindRWMutex,
		Op:         op,
		Outcome:    outcome,
		Label:      m.label,
		Access: &trace.AccessState{
			Exclusive: exclusive,
			Poisoned:  m.poisoned.Load(),
		},
	}
	if err != nil {
		ev.Err = err.Error()
	}
	m.tracer.Trace(ev)
}

// ReadGuard is a shared view of an RWMutex's value. Abandoning a guard
// without calling Release leaves the read lock held; it does not poison.
type ReadGuard[T any] struct {
	m        *RWMutex[T]
	released bool
}

// Get returns a pointer to the guarded value.
// It panics with ErrReleased if the guard has been released.
func (g *ReadGuard[T]) Get() *T {
	if g.released {
		panic(ErrReleased)
	}
	return &g.m.value
}

// Release unlocks the read lock. Release is idempotent.
func (g *ReadGuard[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.m.emit(trace.OpRelease, trace.OutcomeOK, nil, false)
	g.m.mu.RUnlock()
}

// WriteGuard is an exclusive view of an RWMutex's value. Abandoning a
// guard without calling Release leaves the lock held; it does not poison.
type WriteGuard[T any] struct {
	m        *RWMutex[T]
	released bool
}

// Get returns a pointer to the guarded value.
// It panics with ErrReleased if the guard has been released.
func (g *WriteGuard[T]) Get() *T {
	if g.released {
		panic(ErrReleased)
	}
	return &g.m.value
}

// Set replaces the guarded value.
// It panics with ErrReleased if the guard has been released.
func (g *WriteGuard[T]) Set(v T) {
	if g.released {
		panic(ErrReleased)
	}
	g.m.value = v
}

// Release unlocks the lock. Release is idempotent.
func (g *WriteGuard[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.m.emit(trace.OpRelease, trace.OutcomeOK, nil, false)
	g.m.mu.Unlock()
}
