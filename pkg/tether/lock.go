package tether

import (
	"errors"

	"github.com/tether-dev/tether-go/pkg/lock"
)

// Lock acquires the mutex held by owner, blocking until it is
// available, and bundles the guard with the owner. On a poisoned mutex
// the bundle is still returned, fully usable, alongside an error
// wrapping ErrPoisoned.
func Lock[T any, O Owner[*lock.Mutex[T]]](owner O) (*RefMut[T], error) {
	m := *owner.Get()
	g, err := m.Lock()
	return &RefMut[T]{v: g, owner: owner}, err
}

// TryLock is the non-blocking form of Lock. If the mutex is held it
// releases the owner and returns an error wrapping ErrWouldBlock. A
// poisoned but free mutex yields the bundle alongside ErrPoisoned.
func TryLock[T any, O Owner[*lock.Mutex[T]]](owner O) (*RefMut[T], error) {
	m := *owner.Get()
	g, err := m.TryLock()
	if errors.Is(err, ErrWouldBlock) {
		owner.Release()
		return nil, err
	}
	return &RefMut[T]{v: g, owner: owner}, err
}

// TryRead acquires a shared lock on the RWMutex held by owner without
// blocking and bundles the guard with the owner. If the lock is held
// exclusively it releases the owner and returns an error wrapping
// ErrWouldBlock. A poisoned lock yields the bundle alongside
// ErrPoisoned.
func TryRead[T any, O Owner[*lock.RWMutex[T]]](owner O) (*Ref[T], error) {
	m := *owner.Get()
	g, err := m.TryRead()
	if errors.Is(err, ErrWouldBlock) {
		owner.Release()
		return nil, err
	}
	return &Ref[T]{v: g, owner: owner}, err
}

// TryWrite acquires the exclusive lock on the RWMutex held by owner
// without blocking and bundles the guard with the owner. If the lock is
// held it releases the owner and returns an error wrapping
// ErrWouldBlock. A poisoned lock yields the bundle alongside
// ErrPoisoned.
func TryWrite[T any, O Owner[*lock.RWMutex[T]]](owner O) (*RefMut[T], error) {
	m := *owner.Get()
	g, err := m.TryWrite()
	if errors.Is(err, ErrWouldBlock) {
		owner.Release()
		return nil, err
	}
	return &RefMut[T]{v: g, owner: owner}, err
}
