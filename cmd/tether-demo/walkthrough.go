package main

import (
	"errors"
	"log"

	"github.com/tether-dev/tether-go/pkg/cell"
	"github.com/tether-dev/tether-go/pkg/handle"
	"github.com/tether-dev/tether-go/pkg/lock"
	"github.com/tether-dev/tether-go/pkg/tether"
	"github.com/tether-dev/tether-go/pkg/trace"
	"github.com/tether-dev/tether-go/pkg/version"
)

// runWalkthrough drives each primitive through a short scripted
// exchange, printing what happens at every step. tracer may be nil.
func runWalkthrough(tracer trace.Tracer) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	log.Printf("tether %s walkthrough", version.Release)
	log.Println("=========================")

	demoBorrowChain(tracer)
	demoWeakUpgrade(tracer)
	demoPoisonRecovery(tracer)

	log.Println("Done. Try -interactive to drive the primitives yourself.")
}

func cellOpts(tracer trace.Tracer, label string) []cell.Option {
	if tracer == nil {
		return nil
	}
	return []cell.Option{cell.WithTracer(tracer), cell.WithLabel(label)}
}

func lockOpts(tracer trace.Tracer, label string) []lock.Option {
	if tracer == nil {
		return nil
	}
	return []lock.Option{lock.WithTracer(tracer), lock.WithLabel(label)}
}

func handleOpts(tracer trace.Tracer, label string) []handle.Option {
	if tracer == nil {
		return nil
	}
	return []handle.Option{handle.WithTracer(tracer), handle.WithLabel(label)}
}

// demoBorrowChain reads through a cell nested two deep with a single
// chain of composed borrows, then shows a conflict being reported.
func demoBorrowChain(tracer trace.Tracer) {
	log.Println()
	log.Println("-- Borrow chain through nested cells --")

	inner := cell.New(21, cellOpts(tracer, "inner")...)
	outer := cell.New(inner, cellOpts(tracer, "outer")...)
	log.Println("Created cell \"outer\" holding cell \"inner\" holding 21")

	b := tether.Borrow(tether.Borrow(tether.Root(outer)))
	log.Printf("Composed two shared borrows, read %d through the chain", *b.Get())

	if _, err := inner.TryBorrowMut(); err != nil {
		log.Printf("Exclusive acquire while the chain is live: %v", err)
	}

	b.Release()
	log.Println("Released the chain, view first, owner second")

	w := tether.BorrowMut(tether.Root(inner))
	w.Set(42)
	w.Release()
	r := tether.Borrow(tether.Root(inner))
	log.Printf("Wrote through an exclusive view, next shared view reads %d", *r.Get())
	r.Release()
}

// demoWeakUpgrade upgrades a weak handle while its owner lives, then
// shows the upgrade failing once the owner is gone.
func demoWeakUpgrade(tracer trace.Tracer) {
	log.Println()
	log.Println("-- Weak handles --")

	strong := handle.New("shared state", handleOpts(tracer, "state")...)
	weak := strong.Downgrade()
	log.Printf("Created strong handle (strong=%d) and a weak companion", strong.StrongCount())

	if b, ok := tether.Upgrade(tether.Root(weak.Clone())); ok {
		log.Printf("Upgrade while the owner lives: %q (strong=%d)", *b.Get(), strong.StrongCount())
		b.Release()
	}

	strong.Release()
	log.Println("Released the last strong handle")

	if _, ok := tether.Upgrade(tether.Root(weak.Clone())); !ok {
		log.Println("Upgrade now reports the value is gone, never a stale read")
	}
	weak.Release()
}

// demoPoisonRecovery poisons a mutex through a failing holder and
// recovers the value it left behind.
func demoPoisonRecovery(tracer trace.Tracer) {
	log.Println()
	log.Println("-- Lock poisoning --")

	m := lock.NewMutex(100, lockOpts(tracer, "balance")...)
	log.Println("Created mutex \"balance\" holding 100")

	if b, err := tether.TryLock(tether.Root(m)); err == nil {
		log.Printf("TryLock succeeded, value %d", *b.Get())

		if _, err := m.TryLock(); errors.Is(err, lock.ErrWouldBlock) {
			log.Printf("Second TryLock while held: %v", err)
		}
		b.Release()
	}

	func() {
		defer func() { _ = recover() }()
		_ = m.Do(func(v *int) {
			*v = 250
			panic("holder crashed mid-update")
		})
	}()
	log.Println("A holder wrote 250 and then panicked while holding the lock")

	b, err := tether.Lock(tether.Root(m))
	if errors.Is(err, lock.ErrPoisoned) {
		log.Printf("Next acquire reports: %v", err)
		log.Printf("The payload is still reachable: %d", *b.Get())
	}
	b.Release()

	m.ClearPoison()
	if b, err := tether.Lock(tether.Root(m)); err == nil {
		log.Printf("Poison cleared, acquire is clean again, value %d", *b.Get())
		b.Release()
	}
}
