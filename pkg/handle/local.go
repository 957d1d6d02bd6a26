package handle

import (
	"time"

	"github.com/google/uuid"

	"github.com/tether-dev/tether-go/pkg/trace"
)

// localShared is the single-goroutine counterpart of shared.
type localShared[T any] struct {
	value  T
	strong int
	weak   int
	fin    func(*T)

	tracer trace.Tracer
	label  string
	id     string
}

// LocalStrong is the single-goroutine counterpart of Strong. It uses
// plain counters and must not be shared across goroutines.
type LocalStrong[T any] struct {
	shared   *localShared[T]
	released bool
}

// LocalWeak is the single-goroutine counterpart of Weak.
type LocalWeak[T any] struct {
	shared   *localShared[T]
	released bool
}

// NewLocal creates a shared value with one local strong handle.
func NewLocal[T any](v T, opts ...Option) *LocalStrong[T] {
	return NewLocalWithFinalizer(v, nil, opts...)
}

// NewLocalWithFinalizer is like NewLocal, with a finalizer that runs
// exactly once when the last strong handle is released.
func NewLocalWithFinalizer[T any](v T, fin func(*T), opts ...Option) *LocalStrong[T] {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &localShared[T]{value: v, strong: 1, fin: fin, tracer: cfg.tracer, label: cfg.label}
	if s.tracer != nil {
		s.id = uuid.New().String()
		s.emit(trace.OpNew, trace.OutcomeOK)
	}
	return &LocalStrong[T]{shared: s}
}

// Get returns a pointer to the shared value.
// It panics with ErrReleased if the handle has been released.
func (h *LocalStrong[T]) Get() *T {
	if h.released {
		panic(ErrReleased)
	}
	return &h.shared.value
}

// Clone returns a new strong handle to the same value.
// It panics with ErrReleased if the handle has been released.
func (h *LocalStrong[T]) Clone() *LocalStrong[T] {
	if h.released {
		panic(ErrReleased)
	}
	h.shared.strong++
	h.shared.emit(trace.OpClone, trace.OutcomeOK)
	return &LocalStrong[T]{shared: h.shared}
}

// Downgrade returns a weak handle to the same value.
// It panics with ErrReleased if the handle has been released.
func (h *LocalStrong[T]) Downgrade() *LocalWeak[T] {
	if h.released {
		panic(ErrReleased)
	}
	h.shared.weak++
	h.shared.emit(trace.OpDowngrade, trace.OutcomeOK)
	return &LocalWeak[T]{shared: h.shared}
}

// Release drops this handle. Releasing the last strong handle runs the
// finalizer and makes all upgrades fail. Release is idempotent.
func (h *LocalStrong[T]) Release() {
	if h.released {
		return
	}
	h.released = true
	h.shared.strong--
	h.shared.emit(trace.OpRelease, trace.OutcomeOK)
	if h.shared.strong == 0 {
		h.shared.finalize()
	}
}

// StrongCount returns the number of live strong handles.
func (h *LocalStrong[T]) StrongCount() int {
	return h.shared.strong
}

// WeakCount returns the number of live weak handles.
func (h *LocalStrong[T]) WeakCount() int {
	return h.shared.weak
}

// Upgrade attempts to obtain a strong handle. It reports false once the
// last strong handle has been released. It panics with ErrReleased if
// this weak handle itself has been released.
func (w *LocalWeak[T]) Upgrade() (*LocalStrong[T], bool) {
	if w.released {
		panic(ErrReleased)
	}
	if w.shared.strong == 0 {
		w.shared.emit(trace.OpUpgrade, trace.OutcomeGone)
		return nil, false
	}
	w.shared.strong++
	w.shared.emit(trace.OpUpgrade, trace.OutcomeOK)
	return &LocalStrong[T]{shared: w.shared}, true
}

// Clone returns a new weak handle to the same value.
// It panics with ErrReleased if the handle has been released.
func (w *LocalWeak[T]) Clone() *LocalWeak[T] {
	if w.released {
		panic(ErrReleased)
	}
	w.shared.weak++
	w.shared.emit(trace.OpClone, trace.OutcomeOK)
	return &LocalWeak[T]{shared: w.shared}
}

// Release drops this handle. Release is idempotent.
func (w *LocalWeak[T]) Release() {
	if w.released {
		return
	}
	w.released = true
	w.shared.weak--
	w.shared.emit(trace.OpRelease, trace.OutcomeOK)
}

// StrongCount returns the number of live strong handles.
func (w *LocalWeak[T]) StrongCount() int {
	return w.shared.strong
}

func (s *localShared[T]) finalize() {
	if s.fin != nil {
		s.fin(&s.value)
	}
	s.emit(trace.OpFinalize, trace.OutcomeOK)
}

func (s *localShared[T]) emit(op trace.Op, outcome trace.Outcome) {
	if s.tracer == nil {
		return
	}
	s.tracer.Trace(trace.Event{
		Timestamp:  time.Now(),
		InstanceID: s.id,
		Kind:       trace.KindLocalHandle,
		Op:         op,
		Outcome:    outcome,
		Label:      s.label,
		Counts: &trace.HandleCounts{
			Strong: int64(s.strong),
			Weak:   int64(s.weak),
		},
	})
}
