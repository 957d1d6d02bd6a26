package scenario

import (
	"errors"
	"fmt"

	"github.com/tether-dev/tether-go/pkg/cell"
	"github.com/tether-dev/tether-go/pkg/handle"
	"github.com/tether-dev/tether-go/pkg/lock"
	"github.com/tether-dev/tether-go/pkg/tether"
)

// actionFunc executes one step against the run's environment. The
// returned error means the step itself is invalid (unknown object, bad
// params), not that a primitive reported a contract outcome; contract
// outcomes land in the "outcome" output for expectations to check.
type actionFunc func(e *env, step *Step) (map[string]interface{}, error)

var actions = map[string]actionFunc{
	"make_cell":      actionMakeCell,
	"borrow":         actionBorrow,
	"try_borrow":     actionTryBorrow,
	"borrow_mut":     actionBorrowMut,
	"try_borrow_mut": actionTryBorrowMut,
	"replace":        actionReplace,

	"make_mutex":   actionMakeMutex,
	"lock":         actionLock,
	"try_lock":     actionTryLock,
	"poison":       actionPoison,
	"clear_poison": actionClearPoison,

	"make_rwmutex": actionMakeRWMutex,
	"try_read":     actionTryRead,
	"try_write":    actionTryWrite,

	"make_strong": actionMakeStrong,
	"clone":       actionClone,
	"downgrade":   actionDowngrade,
	"upgrade":     actionUpgrade,

	"release": actionRelease,
	"read":    actionRead,
	"write":   actionWrite,
}

// errPoisonInjected is the panic payload used by the poison action.
var errPoisonInjected = errors.New("scenario poison")

func stringParam(step *Step, key string) (string, error) {
	v, ok := step.Params[key]
	if !ok {
		return "", fmt.Errorf("action %s requires param %q", step.Action, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q must be a string, got %T", key, v)
	}
	return s, nil
}

// newName resolves the param naming a new object and rejects collisions.
func (e *env) newName(step *Step, key string) (string, error) {
	name, err := stringParam(step, key)
	if err != nil {
		return "", err
	}
	if e.nameInUse(name) {
		return "", fmt.Errorf("name %q already in use", name)
	}
	return name, nil
}

func outcomeName(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, tether.ErrBorrowConflict):
		return "conflict"
	case errors.Is(err, tether.ErrWouldBlock):
		return "would_block"
	case errors.Is(err, tether.ErrPoisoned):
		return "poisoned"
	default:
		return "error"
	}
}

// ---------------------------------------------------------------------------
// Cell actions
// ---------------------------------------------------------------------------

func actionMakeCell(e *env, step *Step) (map[string]interface{}, error) {
	name, err := e.newName(step, "name")
	if err != nil {
		return nil, err
	}
	v := step.Params["value"]
	e.cells[name] = cell.New(v, e.cellOpts(name)...)
	return map[string]interface{}{"value": v}, nil
}

func actionBorrow(e *env, step *Step) (out map[string]interface{}, err error) {
	c, as, err := e.cellAcquireParams(step)
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			recErr, ok := rec.(error)
			if !ok || !errors.Is(recErr, tether.ErrBorrowConflict) {
				panic(rec)
			}
			out = map[string]interface{}{"outcome": "conflict", "error": recErr.Error()}
			err = nil
		}
	}()

	b := tether.Borrow(tether.Root(c))
	e.views[as] = &boundView{get: b.Get, release: b.Release}
	return map[string]interface{}{"outcome": "ok", "value": *b.Get()}, nil
}

func actionTryBorrow(e *env, step *Step) (map[string]interface{}, error) {
	c, as, err := e.cellAcquireParams(step)
	if err != nil {
		return nil, err
	}

	b, err := tether.TryBorrow(tether.Root(c))
	if err != nil {
		return map[string]interface{}{"outcome": outcomeName(err), "error": err.Error()}, nil
	}
	e.views[as] = &boundView{get: b.Get, release: b.Release}
	return map[string]interface{}{"outcome": "ok", "value": *b.Get()}, nil
}

func actionBorrowMut(e *env, step *Step) (out map[string]interface{}, err error) {
	c, as, err := e.cellAcquireParams(step)
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			recErr, ok := rec.(error)
			if !ok || !errors.Is(recErr, tether.ErrBorrowConflict) {
				panic(rec)
			}
			out = map[string]interface{}{"outcome": "conflict", "error": recErr.Error()}
			err = nil
		}
	}()

	b := tether.BorrowMut(tether.Root(c))
	e.views[as] = &boundView{get: b.Get, set: b.Set, release: b.Release}
	return map[string]interface{}{"outcome": "ok", "value": *b.Get()}, nil
}

func actionTryBorrowMut(e *env, step *Step) (map[string]interface{}, error) {
	c, as, err := e.cellAcquireParams(step)
	if err != nil {
		return nil, err
	}

	b, err := tether.TryBorrowMut(tether.Root(c))
	if err != nil {
		return map[string]interface{}{"outcome": outcomeName(err), "error": err.Error()}, nil
	}
	e.views[as] = &boundView{get: b.Get, set: b.Set, release: b.Release}
	return map[string]interface{}{"outcome": "ok", "value": *b.Get()}, nil
}

func actionReplace(e *env, step *Step) (out map[string]interface{}, err error) {
	name, err := stringParam(step, "name")
	if err != nil {
		return nil, err
	}
	c, ok := e.cells[name]
	if !ok {
		return nil, fmt.Errorf("no cell named %q", name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			recErr, ok := rec.(error)
			if !ok || !errors.Is(recErr, tether.ErrBorrowConflict) {
				panic(rec)
			}
			out = map[string]interface{}{"outcome": "conflict", "error": recErr.Error()}
			err = nil
		}
	}()

	old := c.Replace(step.Params["value"])
	return map[string]interface{}{"outcome": "ok", "old": old}, nil
}

// ---------------------------------------------------------------------------
// Mutex actions
// ---------------------------------------------------------------------------

func actionMakeMutex(e *env, step *Step) (map[string]interface{}, error) {
	name, err := e.newName(step, "name")
	if err != nil {
		return nil, err
	}
	v := step.Params["value"]
	e.mutexes[name] = lock.NewMutex(v, e.lockOpts(name)...)
	return map[string]interface{}{"value": v}, nil
}

func actionLock(e *env, step *Step) (map[string]interface{}, error) {
	m, as, err := e.mutexAcquireParams(step)
	if err != nil {
		return nil, err
	}

	// Scenarios run on a single goroutine, so a blocking lock on a held
	// mutex would never return. Probe first and fail the step instead.
	if g, tryErr := m.TryLock(); errors.Is(tryErr, tether.ErrWouldBlock) {
		name, _ := stringParam(step, "name")
		return nil, fmt.Errorf("cannot lock %q while it is held", name)
	} else if g != nil {
		g.Release()
	}

	b, lockErr := tether.Lock(tether.Root(m))
	e.views[as] = &boundView{get: b.Get, set: b.Set, release: b.Release}
	out := map[string]interface{}{
		"outcome":  outcomeName(lockErr),
		"value":    *b.Get(),
		"poisoned": m.Poisoned(),
	}
	if lockErr != nil {
		out["error"] = lockErr.Error()
	}
	return out, nil
}

func actionTryLock(e *env, step *Step) (map[string]interface{}, error) {
	m, as, err := e.mutexAcquireParams(step)
	if err != nil {
		return nil, err
	}

	b, lockErr := tether.TryLock(tether.Root(m))
	if b == nil {
		return map[string]interface{}{
			"outcome": outcomeName(lockErr),
			"error":   lockErr.Error(),
		}, nil
	}
	e.views[as] = &boundView{get: b.Get, set: b.Set, release: b.Release}
	out := map[string]interface{}{
		"outcome":  outcomeName(lockErr),
		"value":    *b.Get(),
		"poisoned": m.Poisoned(),
	}
	if lockErr != nil {
		out["error"] = lockErr.Error()
	}
	return out, nil
}

func actionPoison(e *env, step *Step) (map[string]interface{}, error) {
	name, err := stringParam(step, "name")
	if err != nil {
		return nil, err
	}
	v, hasValue := step.Params["value"]

	if m, ok := e.mutexes[name]; ok {
		// Poisoning goes through Do, which blocks while a view holds the
		// lock. Runs are single-goroutine, so that would hang the suite.
		if g, tryErr := m.TryLock(); errors.Is(tryErr, tether.ErrWouldBlock) {
			return nil, fmt.Errorf("cannot poison %q while it is held", name)
		} else if g != nil {
			g.Release()
		}
		func() {
			defer func() { _ = recover() }()
			_ = m.Do(func(p *any) {
				if hasValue {
					*p = v
				}
				panic(errPoisonInjected)
			})
		}()
		return map[string]interface{}{"poisoned": m.Poisoned()}, nil
	}

	if m, ok := e.rwmutexes[name]; ok {
		if g, tryErr := m.TryWrite(); errors.Is(tryErr, tether.ErrWouldBlock) {
			return nil, fmt.Errorf("cannot poison %q while it is held", name)
		} else if g != nil {
			g.Release()
		}
		func() {
			defer func() { _ = recover() }()
			_ = m.DoWrite(func(p *any) {
				if hasValue {
					*p = v
				}
				panic(errPoisonInjected)
			})
		}()
		return map[string]interface{}{"poisoned": m.Poisoned()}, nil
	}

	return nil, fmt.Errorf("no lock named %q", name)
}

func actionClearPoison(e *env, step *Step) (map[string]interface{}, error) {
	name, err := stringParam(step, "name")
	if err != nil {
		return nil, err
	}

	if m, ok := e.mutexes[name]; ok {
		m.ClearPoison()
		return map[string]interface{}{"poisoned": m.Poisoned()}, nil
	}
	if m, ok := e.rwmutexes[name]; ok {
		m.ClearPoison()
		return map[string]interface{}{"poisoned": m.Poisoned()}, nil
	}

	return nil, fmt.Errorf("no lock named %q", name)
}

// ---------------------------------------------------------------------------
// RWMutex actions
// ---------------------------------------------------------------------------

func actionMakeRWMutex(e *env, step *Step) (map[string]interface{}, error) {
	name, err := e.newName(step, "name")
	if err != nil {
		return nil, err
	}
	v := step.Params["value"]
	e.rwmutexes[name] = lock.NewRWMutex(v, e.lockOpts(name)...)
	return map[string]interface{}{"value": v}, nil
}

func actionTryRead(e *env, step *Step) (map[string]interface{}, error) {
	m, as, err := e.rwmutexAcquireParams(step)
	if err != nil {
		return nil, err
	}

	b, lockErr := tether.TryRead(tether.Root(m))
	if b == nil {
		return map[string]interface{}{
			"outcome": outcomeName(lockErr),
			"error":   lockErr.Error(),
		}, nil
	}
	e.views[as] = &boundView{get: b.Get, release: b.Release}
	out := map[string]interface{}{
		"outcome":  outcomeName(lockErr),
		"value":    *b.Get(),
		"poisoned": m.Poisoned(),
	}
	if lockErr != nil {
		out["error"] = lockErr.Error()
	}
	return out, nil
}

func actionTryWrite(e *env, step *Step) (map[string]interface{}, error) {
	m, as, err := e.rwmutexAcquireParams(step)
	if err != nil {
		return nil, err
	}

	b, lockErr := tether.TryWrite(tether.Root(m))
	if b == nil {
		return map[string]interface{}{
			"outcome": outcomeName(lockErr),
			"error":   lockErr.Error(),
		}, nil
	}
	e.views[as] = &boundView{get: b.Get, set: b.Set, release: b.Release}
	out := map[string]interface{}{
		"outcome":  outcomeName(lockErr),
		"value":    *b.Get(),
		"poisoned": m.Poisoned(),
	}
	if lockErr != nil {
		out["error"] = lockErr.Error()
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Handle actions
// ---------------------------------------------------------------------------

func actionMakeStrong(e *env, step *Step) (map[string]interface{}, error) {
	name, err := e.newName(step, "name")
	if err != nil {
		return nil, err
	}
	h := handle.New(step.Params["value"], e.handleOpts(name)...)
	e.strongs[name] = h
	return map[string]interface{}{"strong_count": h.StrongCount()}, nil
}

func actionClone(e *env, step *Step) (map[string]interface{}, error) {
	from, err := stringParam(step, "from")
	if err != nil {
		return nil, err
	}
	as, err := e.newName(step, "as")
	if err != nil {
		return nil, err
	}

	h, ok := e.strongs[from]
	if !ok {
		return nil, fmt.Errorf("no strong handle named %q", from)
	}
	clone := h.Clone()
	e.strongs[as] = clone
	return map[string]interface{}{"strong_count": clone.StrongCount()}, nil
}

func actionDowngrade(e *env, step *Step) (map[string]interface{}, error) {
	from, err := stringParam(step, "from")
	if err != nil {
		return nil, err
	}
	as, err := e.newName(step, "as")
	if err != nil {
		return nil, err
	}

	h, ok := e.strongs[from]
	if !ok {
		return nil, fmt.Errorf("no strong handle named %q", from)
	}
	w := h.Downgrade()
	e.weaks[as] = w
	return map[string]interface{}{"weak_count": h.WeakCount()}, nil
}

func actionUpgrade(e *env, step *Step) (map[string]interface{}, error) {
	from, err := stringParam(step, "from")
	if err != nil {
		return nil, err
	}
	as, err := e.newName(step, "as")
	if err != nil {
		return nil, err
	}

	w, ok := e.weaks[from]
	if !ok {
		return nil, fmt.Errorf("no weak handle named %q", from)
	}

	b, alive := tether.Upgrade(tether.Root(w))
	if !alive {
		return map[string]interface{}{"outcome": "gone", "ok": false}, nil
	}
	e.views[as] = &boundView{get: b.Get, release: b.Release}
	return map[string]interface{}{
		"outcome":      "ok",
		"ok":           true,
		"value":        *b.Get(),
		"strong_count": w.StrongCount(),
	}, nil
}

// ---------------------------------------------------------------------------
// Shared actions
// ---------------------------------------------------------------------------

func actionRelease(e *env, step *Step) (map[string]interface{}, error) {
	name, err := stringParam(step, "name")
	if err != nil {
		return nil, err
	}

	if v, ok := e.views[name]; ok {
		v.release()
		delete(e.views, name)
		return map[string]interface{}{}, nil
	}
	if h, ok := e.strongs[name]; ok {
		h.Release()
		delete(e.strongs, name)
		return map[string]interface{}{}, nil
	}
	if w, ok := e.weaks[name]; ok {
		w.Release()
		delete(e.weaks, name)
		return map[string]interface{}{}, nil
	}

	return nil, fmt.Errorf("no view or handle named %q", name)
}

func actionRead(e *env, step *Step) (map[string]interface{}, error) {
	name, err := stringParam(step, "name")
	if err != nil {
		return nil, err
	}
	v, ok := e.views[name]
	if !ok {
		return nil, fmt.Errorf("no view named %q", name)
	}
	return map[string]interface{}{"value": *v.get()}, nil
}

func actionWrite(e *env, step *Step) (map[string]interface{}, error) {
	name, err := stringParam(step, "name")
	if err != nil {
		return nil, err
	}
	v, ok := e.views[name]
	if !ok {
		return nil, fmt.Errorf("no view named %q", name)
	}
	if v.set == nil {
		return nil, fmt.Errorf("view %q is read-only", name)
	}
	v.set(step.Params["value"])
	return map[string]interface{}{"value": step.Params["value"]}, nil
}

// ---------------------------------------------------------------------------
// Lookup helpers
// ---------------------------------------------------------------------------

func (e *env) cellAcquireParams(step *Step) (c *cell.Cell[any], as string, err error) {
	from, err := stringParam(step, "from")
	if err != nil {
		return nil, "", err
	}
	as, err = e.newName(step, "as")
	if err != nil {
		return nil, "", err
	}
	c, ok := e.cells[from]
	if !ok {
		return nil, "", fmt.Errorf("no cell named %q", from)
	}
	return c, as, nil
}

func (e *env) mutexAcquireParams(step *Step) (m *lock.Mutex[any], as string, err error) {
	from, err := stringParam(step, "from")
	if err != nil {
		return nil, "", err
	}
	as, err = e.newName(step, "as")
	if err != nil {
		return nil, "", err
	}
	m, ok := e.mutexes[from]
	if !ok {
		return nil, "", fmt.Errorf("no mutex named %q", from)
	}
	return m, as, nil
}

func (e *env) rwmutexAcquireParams(step *Step) (m *lock.RWMutex[any], as string, err error) {
	from, err := stringParam(step, "from")
	if err != nil {
		return nil, "", err
	}
	as, err = e.newName(step, "as")
	if err != nil {
		return nil, "", err
	}
	m, ok := e.rwmutexes[from]
	if !ok {
		return nil, "", fmt.Errorf("no rwmutex named %q", from)
	}
	return m, as, nil
}
