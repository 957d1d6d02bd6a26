// Package handle provides reference-counted strong and weak handles to a
// shared value. Strong/Weak use atomic counters and may be cloned across
// goroutines; LocalStrong/LocalWeak use plain counters for
// single-goroutine use. Individual handles are owned by one holder at a
// time; clone a handle instead of sharing it.
package handle

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tether-dev/tether-go/pkg/trace"
)

// Handle errors.
var (
	ErrReleased = errors.New("use of released handle")
)

// shared is the allocation a handle family points at.
type shared[T any] struct {
	value  T
	strong atomic.Int64
	weak   atomic.Int64
	fin    func(*T)

	tracer trace.Tracer
	label  string
	id     string
}

// Strong keeps the shared value alive. When the last strong handle is
// released the finalizer (if any) runs and weak handles stop upgrading.
type Strong[T any] struct {
	shared   *shared[T]
	released bool
}

// Weak observes the shared value without keeping it alive.
type Weak[T any] struct {
	shared   *shared[T]
	released bool
}

// New creates a shared value with one strong handle.
func New[T any](v T, opts ...Option) *Strong[T] {
	return NewWithFinalizer(v, nil, opts...)
}

// NewWithFinalizer is like New, with a finalizer that runs exactly once,
// synchronously, in the goroutine that releases the last strong handle.
func NewWithFinalizer[T any](v T, fin func(*T), opts ...Option) *Strong[T] {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &shared[T]{value: v, fin: fin, tracer: cfg.tracer, label: cfg.label}
	s.strong.Store(1)
	if s.tracer != nil {
		s.id = uuid.New().String()
		s.emit(trace.OpNew, trace.OutcomeOK)
	}
	return &Strong[T]{shared: s}
}

// Get returns a pointer to the shared value.
// It panics with ErrReleased if the handle has been released.
func (h *Strong[T]) Get() *T {
	if h.released {
		panic(ErrReleased)
	}
	return &h.shared.value
}

// Clone returns a new strong handle to the same value.
// It panics with ErrReleased if the handle has been released.
func (h *Strong[T]) Clone() *Strong[T] {
	if h.released {
		panic(ErrReleased)
	}
	h.shared.strong.Add(1)
	h.shared.emit(trace.OpClone, trace.OutcomeOK)
	return &Strong[T]{shared: h.shared}
}

// Downgrade returns a weak handle to the same value.
// It panics with ErrReleased if the handle has been released.
func (h *Strong[T]) Downgrade() *Weak[T] {
	if h.released {
		panic(ErrReleased)
	}
	h.shared.weak.Add(1)
	h.shared.emit(trace.OpDowngrade, trace.OutcomeOK)
	return &Weak[T]{shared: h.shared}
}

// Release drops this handle. Releasing the last strong handle runs the
// finalizer and makes all upgrades fail. Release is idempotent.
func (h *Strong[T]) Release() {
	if h.released {
		return
	}
	h.released = true
	h.shared.emit(trace.OpRelease, trace.OutcomeOK)
	if h.shared.strong.Add(-1) == 0 {
		h.shared.finalize()
	}
}

// StrongCount returns the number of live strong handles. The value is a
// snapshot and may be stale as soon as it is read.
func (h *Strong[T]) StrongCount() int64 {
	return h.shared.strong.Load()
}

// WeakCount returns the number of live weak handles. The value is a
// snapshot and may be stale as soon as it is read.
func (h *Strong[T]) WeakCount() int64 {
	return h.shared.weak.Load()
}

// Upgrade attempts to obtain a strong handle. It reports false once the
// last strong handle has been released; it never blocks and never
// returns a stale value. It panics with ErrReleased if this weak handle
// itself has been released.
func (w *Weak[T]) Upgrade() (*Strong[T], bool) {
	if w.released {
		panic(ErrReleased)
	}
	for {
		n := w.shared.strong.Load()
		if n == 0 {
			w.shared.emit(trace.OpUpgrade, trace.OutcomeGone)
			return nil, false
		}
		if w.shared.strong.CompareAndSwap(n, n+1) {
			w.shared.emit(trace.OpUpgrade, trace.OutcomeOK)
			return &Strong[T]{shared: w.shared}, true
		}
	}
}

// Clone returns a new weak handle to the same value.
// It panics with ErrReleased if the handle has been released.
func (w *Weak[T]) Clone() *Weak[T] {
	if w.released {
		panic(ErrReleased)
	}
	w.shared.weak.Add(1)
	w.shared.emit(trace.OpClone, trace.OutcomeOK)
	return &Weak[T]{shared: w.shared}
}

// Release drops this handle. Release is idempotent.
func (w *Weak[T]) Release() {
	if w.released {
		return
	}
	w.released = true
	w.shared.weak.Add(-1)
	w.shared.emit(trace.OpRelease, trace.OutcomeOK)
}

// StrongCount returns the number of live strong handles. The value is a
// snapshot and may be stale as soon as it is read.
func (w *Weak[T]) StrongCount() int64 {
	return w.shared.strong.Load()
}

func (s *shared[T]) finalize() {
	if s.fin != nil {
		s.fin(&s.value)
	}
	s.emit(trace.OpFinalize, trace.OutcomeOK)
}

func (s *shared[T]) emit(op trace.Op, outcome trace.Outcome) {
	if s.tracer == nil {
		return
	}
	s.tracer.Trace(trace.Event{
		Timestamp:  time.Now(),
		InstanceID: s.id,
		Kind:       trace.KindHandle,
		Op:         op,
		Outcome:    outcome,
		Label:      s.label,
		Counts: &trace.HandleCounts{
			Strong: s.strong.Load(),
			Weak:   s.weak.Load(),
		},
	})
}
