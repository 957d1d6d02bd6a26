package tether_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/tether-dev/tether-go/pkg/cell"
	"github.com/tether-dev/tether-go/pkg/handle"
	"github.com/tether-dev/tether-go/pkg/lock"
	"github.com/tether-dev/tether-go/pkg/tether"
)

// These tests exercise composition chains across package boundaries:
// cells holding cells, strong handles guarding weak handles, locks
// guarding cells. Per-primitive behavior is covered in the package
// tests; here the subject is the chains themselves.

// TestNestedCellChain builds a cell three deep, composes three shared
// acquisitions, and checks the innermost value is read through the
// whole chain. Replacing the middle layer redirects the same chain to
// the new contents.
func TestNestedCellChain(t *testing.T) {
	inner := cell.New(0)
	mid := cell.New(inner)
	outer := cell.New(mid)

	b := tether.Borrow(tether.Borrow(tether.Borrow(tether.Root(outer))))
	if got := *b.Get(); got != 0 {
		t.Errorf("three-deep borrow = %d, want 0", got)
	}
	b.Release()

	mid.Replace(cell.New(2))

	b = tether.Borrow(tether.Borrow(tether.Borrow(tether.Root(outer))))
	if got := *b.Get(); got != 2 {
		t.Errorf("three-deep borrow after middle replace = %d, want 2", got)
	}
	b.Release()
}

// TestNestedCellChainDepths checks chains of increasing depth over a
// single innermost cell. Bundles with the same leaf type stay the same
// Go type no matter how deep the chain behind them is.
func TestNestedCellChainDepths(t *testing.T) {
	c1 := cell.New(41)

	b1 := tether.Borrow(tether.Root(c1))
	defer b1.Release()

	c2 := cell.New(c1)
	b2 := tether.Borrow(tether.Borrow(tether.Root(c2)))
	defer b2.Release()

	c3 := cell.New(c2)
	b3 := tether.Borrow(tether.Borrow(tether.Borrow(tether.Root(c3))))
	defer b3.Release()

	for i, b := range []*tether.Ref[int]{b1, b2, b3} {
		if got := *b.Get(); got != 41 {
			t.Errorf("depth %d: got %d, want 41", i+1, got)
		}
	}
}

// TestWeakUpgradeChain threads three weak handles, each guarded by the
// next level's strong handle, and upgrades through all of them.
func TestWeakUpgradeChain(t *testing.T) {
	level1 := handle.New(7)
	defer level1.Release()
	level2 := handle.New(level1.Downgrade())
	defer level2.Release()
	level3 := handle.New(level2.Downgrade())
	defer level3.Release()

	w := level3.Downgrade()
	defer w.Release()

	b1, ok := tether.Upgrade(tether.Root(w.Clone()))
	if !ok {
		t.Fatal("upgrade level 3 failed with root alive")
	}
	b2, ok := tether.Upgrade(b1)
	if !ok {
		t.Fatal("upgrade level 2 failed with root alive")
	}
	b3, ok := tether.Upgrade(b2)
	if !ok {
		t.Fatal("upgrade level 1 failed with root alive")
	}
	if got := *b3.Get(); got != 7 {
		t.Errorf("chained upgrade = %d, want 7", got)
	}
	b3.Release()
}

// TestWeakUpgradeChainRootReleased releases the innermost strong
// handle before upgrading. The outer levels still upgrade, the level
// whose target died reports failure rather than a stale value.
func TestWeakUpgradeChainRootReleased(t *testing.T) {
	level1 := handle.New(7)
	level2 := handle.New(level1.Downgrade())
	defer level2.Release()
	level3 := handle.New(level2.Downgrade())
	defer level3.Release()

	w := level3.Downgrade()
	defer w.Release()

	level1.Release()

	b1, ok := tether.Upgrade(tether.Root(w.Clone()))
	if !ok {
		t.Fatal("upgrade level 3 failed; only level 1 was released")
	}
	b2, ok := tether.Upgrade(b1)
	if !ok {
		t.Fatal("upgrade level 2 failed; only level 1 was released")
	}
	if b3, ok := tether.Upgrade(b2); ok {
		t.Errorf("upgrade level 1 succeeded after release, got %d", *b3.Get())
	}
}

// TestLocalUpgradeChain is the single-goroutine handle family variant.
func TestLocalUpgradeChain(t *testing.T) {
	root := handle.NewLocal("payload")
	defer root.Release()
	outer := handle.NewLocal(root.Downgrade())
	defer outer.Release()

	w := outer.Downgrade()
	defer w.Release()

	b1, ok := tether.UpgradeLocal(tether.Root(w.Clone()))
	if !ok {
		t.Fatal("outer upgrade failed")
	}
	b2, ok := tether.UpgradeLocal(b1)
	if !ok {
		t.Fatal("inner upgrade failed")
	}
	if got := *b2.Get(); got != "payload" {
		t.Errorf("chained local upgrade = %q, want \"payload\"", got)
	}
	b2.Release()
}

// TestWriteThenReadVisibility acquires exclusively, mutates, releases,
// then re-acquires shared and checks the mutation is observed.
func TestWriteThenReadVisibility(t *testing.T) {
	c := cell.New(1)
	w := tether.BorrowMut(tether.Root(c))
	w.Set(2)
	w.Release()

	r := tether.Borrow(tether.Root(c))
	if got := *r.Get(); got != 2 {
		t.Errorf("cell read after exclusive write = %d, want 2", got)
	}
	r.Release()

	rw := lock.NewRWMutex(1)
	wg, err := tether.TryWrite(tether.Root(rw))
	if err != nil {
		t.Fatalf("TryWrite on free lock: %v", err)
	}
	wg.Set(2)
	wg.Release()

	rg, err := tether.TryRead(tether.Root(rw))
	if err != nil {
		t.Fatalf("TryRead on free lock: %v", err)
	}
	if got := *rg.Get(); got != 2 {
		t.Errorf("rwmutex read after exclusive write = %d, want 2", got)
	}
	rg.Release()
}

// TestTryLockWouldBlock holds a mutex and checks a composed TryLock
// reports would-block immediately, leaving the lock usable.
func TestTryLockWouldBlock(t *testing.T) {
	m := lock.NewMutex(5)
	g, err := m.Lock()
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	if _, err := tether.TryLock(tether.Root(m)); !errors.Is(err, tether.ErrWouldBlock) {
		t.Errorf("TryLock on held mutex: err = %v, want ErrWouldBlock", err)
	}

	g.Release()

	b, err := tether.TryLock(tether.Root(m))
	if err != nil {
		t.Fatalf("TryLock after release: %v", err)
	}
	if got := *b.Get(); got != 5 {
		t.Errorf("value after failed try = %d, want 5", got)
	}
	b.Release()
}

// TestLockPoisonRecovery fails a holder mid-update and checks the next
// composed acquire reports the poison while still exposing the value
// the failed holder last wrote.
func TestLockPoisonRecovery(t *testing.T) {
	m := lock.NewMutex(1)

	func() {
		defer func() { _ = recover() }()
		_ = m.Do(func(v *int) {
			*v = 9
			panic("holder failure")
		})
	}()

	if !m.Poisoned() {
		t.Fatal("mutex not poisoned after holder panic")
	}

	b, err := tether.Lock(tether.Root(m))
	if !errors.Is(err, tether.ErrPoisoned) {
		t.Errorf("Lock on poisoned mutex: err = %v, want ErrPoisoned", err)
	}
	if got := *b.Get(); got != 9 {
		t.Errorf("poisoned payload = %d, want 9 (failed holder's write)", got)
	}
	b.Release()

	bt, err := tether.TryLock(tether.Root(m))
	if !errors.Is(err, tether.ErrPoisoned) {
		t.Errorf("TryLock on poisoned mutex: err = %v, want ErrPoisoned", err)
	}
	bt.Release()
}

func swapTargets[T any](a, b *T) {
	*a, *b = *b, *a
}

// TestSwapThroughExclusiveViews exchanges the contents of two cells
// through independently composed exclusive views, then re-acquires
// shared views to observe the exchange.
func TestSwapThroughExclusiveViews(t *testing.T) {
	ca := cell.New("left")
	cb := cell.New("right")

	wa := tether.BorrowMut(tether.Root(ca))
	wb := tether.BorrowMut(tether.Root(cb))
	swapTargets(wa.Get(), wb.Get())
	wa.Release()
	wb.Release()

	ra := tether.Borrow(tether.Root(ca))
	rb := tether.Borrow(tether.Root(cb))
	if got := *ra.Get(); got != "right" {
		t.Errorf("first cell after swap = %q, want \"right\"", got)
	}
	if got := *rb.Get(); got != "left" {
		t.Errorf("second cell after swap = %q, want \"left\"", got)
	}
	ra.Release()
	rb.Release()
}

// TestBundleReassign reassigns one bundle variable across loop
// iterations, which only works because chain depth does not change the
// bundle's type.
func TestBundleReassign(t *testing.T) {
	cells := []*cell.Cell[int]{cell.New(1), cell.New(2), cell.New(3)}

	var b *tether.Ref[int]
	sum := 0
	for _, c := range cells {
		if b != nil {
			b.Release()
		}
		b = tether.Borrow(tether.Root(c))
		sum += *b.Get()
	}
	b.Release()

	if sum != 6 {
		t.Errorf("sum over reassigned bundles = %d, want 6", sum)
	}

	for i, c := range cells {
		r, err := c.TryBorrowMut()
		if err != nil {
			t.Errorf("cell %d still borrowed after reassign loop: %v", i, err)
			continue
		}
		r.Release()
	}
}

// TestMutexOfCell locks a mutex whose value is a cell and continues the
// chain with a borrow, mixing lock and cell composition.
func TestMutexOfCell(t *testing.T) {
	m := lock.NewMutex(cell.New(3))

	g, err := tether.Lock(tether.Root(m))
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	b := tether.Borrow(g)
	if got := *b.Get(); got != 3 {
		t.Errorf("borrow through locked mutex = %d, want 3", got)
	}
	b.Release()

	if g2, err := m.TryLock(); err != nil {
		t.Errorf("mutex still held after chain release: %v", err)
	} else {
		g2.Release()
	}
}

// TestCellOfWeak borrows a cell holding a weak handle and continues the
// chain with an upgrade.
func TestCellOfWeak(t *testing.T) {
	root := handle.New(11)
	c := cell.New(root.Downgrade())

	b, ok := tether.Upgrade(tether.Borrow(tether.Root(c)))
	if !ok {
		t.Fatal("upgrade through cell failed with root alive")
	}
	if got := *b.Get(); got != 11 {
		t.Errorf("upgrade through cell = %d, want 11", got)
	}
	b.Release()

	root.Release()

	if _, ok := tether.Upgrade(tether.Borrow(tether.Root(c))); ok {
		t.Error("upgrade through cell succeeded after root release")
	}

	// The failed upgrade released the whole chain, so the cell must be
	// free again.
	r, err := c.TryBorrowMut()
	if err != nil {
		t.Fatalf("cell left borrowed after failed upgrade: %v", err)
	}
	r.Release()
}

// TestConcurrentComposedLocks hammers one mutex from several goroutines
// through composed acquires and checks every increment lands.
func TestConcurrentComposedLocks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrency test in short mode")
	}

	const goroutines = 8
	const iterations = 100

	m := lock.NewMutex(0)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				b, err := tether.Lock(tether.Root(m))
				if err != nil {
					t.Errorf("Lock: %v", err)
					return
				}
				*b.Get()++
				b.Release()
			}
		}()
	}
	wg.Wait()

	g, err := m.Lock()
	if err != nil {
		t.Fatalf("final Lock: %v", err)
	}
	if got := *g.Get(); got != goroutines*iterations {
		t.Errorf("counter = %d, want %d", got, goroutines*iterations)
	}
	g.Release()
}
