// Package interactive provides the interactive command-line interface
// for tether-demo.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tether-dev/tether-go/pkg/cell"
	"github.com/tether-dev/tether-go/pkg/handle"
	"github.com/tether-dev/tether-go/pkg/lock"
	"github.com/tether-dev/tether-go/pkg/tether"
	"github.com/tether-dev/tether-go/pkg/trace"
)

var errPoisonInjected = errors.New("demo poison")

// Session handles interactive mode for tether-demo. Every object lives
// in a named registry so views can be created, inspected, and released
// across commands.
type Session struct {
	rl     *readline.Instance
	tracer trace.Tracer

	cells        map[string]*cell.Cell[any]
	mutexes      map[string]*lock.Mutex[any]
	rwmutexes    map[string]*lock.RWMutex[any]
	strongs      map[string]*handle.Strong[any]
	weaks        map[string]*handle.Weak[any]
	localStrongs map[string]*handle.LocalStrong[any]
	localWeaks   map[string]*handle.LocalWeak[any]
	views        map[string]*view
}

// view is a type-erased bundle held under a name. set is nil for
// shared views.
type view struct {
	source  string
	mode    string
	get     func() *any
	set     func(any)
	release func()
}

// New creates a new interactive session handler.
func New() (*Session, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tether> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Session{
		rl:           rl,
		cells:        make(map[string]*cell.Cell[any]),
		mutexes:      make(map[string]*lock.Mutex[any]),
		rwmutexes:    make(map[string]*lock.RWMutex[any]),
		strongs:      make(map[string]*handle.Strong[any]),
		weaks:        make(map[string]*handle.Weak[any]),
		localStrongs: make(map[string]*handle.LocalStrong[any]),
		localWeaks:   make(map[string]*handle.LocalWeak[any]),
		views:        make(map[string]*view),
	}, nil
}

// Stdout returns a writer that properly coordinates with the readline
// input. Use this for log output to avoid interfering with the prompt.
func (s *Session) Stdout() io.Writer {
	return s.rl.Stdout()
}

// SetTracer attaches tr to every primitive created after this call.
// Object names become trace labels.
func (s *Session) SetTracer(tr trace.Tracer) {
	s.tracer = tr
}

// Run starts the interactive command loop.
func (s *Session) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "new", "n":
			s.cmdNew(args)

		case "borrow", "b":
			s.cmdBorrow(args, false)

		case "borrowmut", "bm":
			s.cmdBorrow(args, true)

		case "replace":
			s.cmdReplace(args)

		case "lock", "l":
			s.cmdLock(args)

		case "read", "r":
			s.cmdRead(args)

		case "write", "w":
			s.cmdWrite(args)

		case "poison":
			s.cmdPoison(args)

		case "clearpoison", "clear-poison":
			s.cmdClearPoison(args)

		case "clone":
			s.cmdClone(args)

		case "downgrade":
			s.cmdDowngrade(args)

		case "upgrade":
			s.cmdUpgrade(args)

		case "get", "g":
			s.cmdGet(args)

		case "set":
			s.cmdSet(args)

		case "release", "rel":
			s.cmdRelease(args)

		case "ls", "list":
			s.cmdList()

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *Session) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
Tether Demo Commands:
  Creation:
    new cell <name> <value>     - Borrow-checked cell
    new mutex <name> <value>    - Poisonable mutex
    new rwmutex <name> <value>  - Poisonable reader/writer lock
    new handle <name> <value>   - Counted handle (atomic)
    new local <name> <value>    - Counted handle (single goroutine)

  Acquisition (non-blocking in the shell):
    borrow <cell> <view>        - Shared borrow
    borrowmut <cell> <view>     - Exclusive borrow
    lock <mutex> <view>         - Acquire a mutex
    read <rwmutex> <view>       - Acquire a shared read guard
    write <rwmutex> <view>      - Acquire an exclusive write guard
    upgrade <weak> <view>       - Upgrade a weak handle

  Views:
    get <view>                  - Print the value behind a view
    set <view> <value>          - Write through an exclusive view
    release <name>              - Release a view or handle

  Cells and locks:
    replace <cell> <value>      - Swap a cell's value
    poison <name> [value]       - Poison a mutex or rwmutex
    clearpoison <name>          - Clear the poison flag

  Handles:
    clone <handle> <name>       - Clone a strong or weak handle
    downgrade <handle> <name>   - Create a weak handle from a strong one

  General:
    ls                          - List objects and live views
    help                        - Show this help
    quit                        - Exit`)
}

// cmdNew handles the new command.
func (s *Session) cmdNew(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: new <cell|mutex|rwmutex|handle|local> <name> <value>")
		return
	}

	kind := strings.ToLower(args[0])
	name := args[1]
	value := parseValue(strings.Join(args[2:], " "))

	if s.nameInUse(name) {
		fmt.Fprintf(s.rl.Stdout(), "Name already in use: %s\n", name)
		return
	}

	switch kind {
	case "cell":
		s.cells[name] = cell.New(value, s.cellOpts(name)...)
	case "mutex":
		s.mutexes[name] = lock.NewMutex(value, s.lockOpts(name)...)
	case "rwmutex":
		s.rwmutexes[name] = lock.NewRWMutex(value, s.lockOpts(name)...)
	case "handle":
		s.strongs[name] = handle.New(value, s.handleOpts(name)...)
	case "local":
		s.localStrongs[name] = handle.NewLocal(value, s.handleOpts(name)...)
	default:
		fmt.Fprintf(s.rl.Stdout(), "Unknown kind: %s (cell, mutex, rwmutex, handle, local)\n", kind)
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "%s %s = %v\n", kind, name, value)
}

// cmdBorrow handles the borrow and borrowmut commands.
func (s *Session) cmdBorrow(args []string, exclusive bool) {
	if len(args) < 2 {
		if exclusive {
			fmt.Fprintln(s.rl.Stdout(), "Usage: borrowmut <cell> <view>")
		} else {
			fmt.Fprintln(s.rl.Stdout(), "Usage: borrow <cell> <view>")
		}
		return
	}

	c, ok := s.cells[args[0]]
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "No cell named %s\n", args[0])
		return
	}
	name := args[1]
	if s.nameInUse(name) {
		fmt.Fprintf(s.rl.Stdout(), "Name already in use: %s\n", name)
		return
	}

	if exclusive {
		b, err := tether.TryBorrowMut(tether.Root(c))
		if err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Borrow failed: %v\n", err)
			return
		}
		s.views[name] = &view{source: args[0], mode: "exclusive", get: b.Get, set: b.Set, release: b.Release}
		fmt.Fprintf(s.rl.Stdout(), "%s = %v (exclusive)\n", name, *b.Get())
		return
	}

	b, err := tether.TryBorrow(tether.Root(c))
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Borrow failed: %v\n", err)
		return
	}
	s.views[name] = &view{source: args[0], mode: "shared", get: b.Get, release: b.Release}
	fmt.Fprintf(s.rl.Stdout(), "%s = %v (shared)\n", name, *b.Get())
}

// cmdReplace handles the replace command.
func (s *Session) cmdReplace(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: replace <cell> <value>")
		return
	}

	c, ok := s.cells[args[0]]
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "No cell named %s\n", args[0])
		return
	}
	value := parseValue(strings.Join(args[1:], " "))

	old, err := func() (old any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				recErr, isErr := rec.(error)
				if !isErr || !errors.Is(recErr, tether.ErrBorrowConflict) {
					panic(rec)
				}
				err = recErr
			}
		}()
		return c.Replace(value), nil
	}()
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Replace failed: %v\n", err)
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "%s = %v (was %v)\n", args[0], value, old)
}

// cmdLock handles the lock command.
func (s *Session) cmdLock(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: lock <mutex> <view>")
		return
	}

	m, ok := s.mutexes[args[0]]
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "No mutex named %s\n", args[0])
		return
	}
	name := args[1]
	if s.nameInUse(name) {
		fmt.Fprintf(s.rl.Stdout(), "Name already in use: %s\n", name)
		return
	}

	b, err := tether.TryLock(tether.Root(m))
	if b == nil {
		fmt.Fprintf(s.rl.Stdout(), "Lock failed: %v\n", err)
		return
	}
	s.views[name] = &view{source: args[0], mode: "exclusive", get: b.Get, set: b.Set, release: b.Release}
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Warning: %v\n", err)
	}
	fmt.Fprintf(s.rl.Stdout(), "%s = %v (locked)\n", name, *b.Get())
}

// cmdRead handles the read command (shared rwmutex guard).
func (s *Session) cmdRead(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: read <rwmutex> <view>")
		return
	}

	m, ok := s.rwmutexes[args[0]]
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "No rwmutex named %s\n", args[0])
		return
	}
	name := args[1]
	if s.nameInUse(name) {
		fmt.Fprintf(s.rl.Stdout(), "Name already in use: %s\n", name)
		return
	}

	b, err := tether.TryRead(tether.Root(m))
	if b == nil {
		fmt.Fprintf(s.rl.Stdout(), "Read failed: %v\n", err)
		return
	}
	s.views[name] = &view{source: args[0], mode: "shared", get: b.Get, release: b.Release}
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Warning: %v\n", err)
	}
	fmt.Fprintf(s.rl.Stdout(), "%s = %v (read)\n", name, *b.Get())
}

// cmdWrite handles the write command (exclusive rwmutex guard).
func (s *Session) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: write <rwmutex> <view>")
		return
	}

	m, ok := s.rwmutexes[args[0]]
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "No rwmutex named %s\n", args[0])
		return
	}
	name := args[1]
	if s.nameInUse(name) {
		fmt.Fprintf(s.rl.Stdout(), "Name already in use: %s\n", name)
		return
	}

	b, err := tether.TryWrite(tether.Root(m))
	if b == nil {
		fmt.Fprintf(s.rl.Stdout(), "Write failed: %v\n", err)
		return
	}
	s.views[name] = &view{source: args[0], mode: "exclusive", get: b.Get, set: b.Set, release: b.Release}
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Warning: %v\n", err)
	}
	fmt.Fprintf(s.rl.Stdout(), "%s = %v (write)\n", name, *b.Get())
}

// cmdPoison handles the poison command.
func (s *Session) cmdPoison(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: poison <mutex|rwmutex> [value]")
		return
	}

	name := args[0]
	var value any
	hasValue := len(args) > 1
	if hasValue {
		value = parseValue(strings.Join(args[1:], " "))
	}

	if m, ok := s.mutexes[name]; ok {
		if g, err := m.TryLock(); errors.Is(err, tether.ErrWouldBlock) {
			fmt.Fprintf(s.rl.Stdout(), "Cannot poison %s while it is held\n", name)
			return
		} else if g != nil {
			g.Release()
		}
		func() {
			defer func() { _ = recover() }()
			_ = m.Do(func(p *any) {
				if hasValue {
					*p = value
				}
				panic(errPoisonInjected)
			})
		}()
		fmt.Fprintf(s.rl.Stdout(), "%s poisoned\n", name)
		return
	}

	if m, ok := s.rwmutexes[name]; ok {
		if g, err := m.TryWrite(); errors.Is(err, tether.ErrWouldBlock) {
			fmt.Fprintf(s.rl.Stdout(), "Cannot poison %s while it is held\n", name)
			return
		} else if g != nil {
			g.Release()
		}
		func() {
			defer func() { _ = recover() }()
			_ = m.DoWrite(func(p *any) {
				if hasValue {
					*p = value
				}
				panic(errPoisonInjected)
			})
		}()
		fmt.Fprintf(s.rl.Stdout(), "%s poisoned\n", name)
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "No mutex or rwmutex named %s\n", name)
}

// cmdClearPoison handles the clearpoison command.
func (s *Session) cmdClearPoison(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: clearpoison <mutex|rwmutex>")
		return
	}

	name := args[0]
	if m, ok := s.mutexes[name]; ok {
		m.ClearPoison()
		fmt.Fprintf(s.rl.Stdout(), "%s poison cleared\n", name)
		return
	}
	if m, ok := s.rwmutexes[name]; ok {
		m.ClearPoison()
		fmt.Fprintf(s.rl.Stdout(), "%s poison cleared\n", name)
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "No mutex or rwmutex named %s\n", name)
}

// cmdClone handles the clone command.
func (s *Session) cmdClone(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: clone <handle> <name>")
		return
	}

	from, name := args[0], args[1]
	if s.nameInUse(name) {
		fmt.Fprintf(s.rl.Stdout(), "Name already in use: %s\n", name)
		return
	}

	if h, ok := s.strongs[from]; ok {
		s.strongs[name] = h.Clone()
		fmt.Fprintf(s.rl.Stdout(), "%s cloned (strong=%d)\n", from, h.StrongCount())
		return
	}
	if w, ok := s.weaks[from]; ok {
		s.weaks[name] = w.Clone()
		fmt.Fprintf(s.rl.Stdout(), "%s cloned\n", from)
		return
	}
	if h, ok := s.localStrongs[from]; ok {
		s.localStrongs[name] = h.Clone()
		fmt.Fprintf(s.rl.Stdout(), "%s cloned (strong=%d)\n", from, h.StrongCount())
		return
	}
	if w, ok := s.localWeaks[from]; ok {
		s.localWeaks[name] = w.Clone()
		fmt.Fprintf(s.rl.Stdout(), "%s cloned\n", from)
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "No handle named %s\n", from)
}

// cmdDowngrade handles the downgrade command.
func (s *Session) cmdDowngrade(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: downgrade <strong> <name>")
		return
	}

	from, name := args[0], args[1]
	if s.nameInUse(name) {
		fmt.Fprintf(s.rl.Stdout(), "Name already in use: %s\n", name)
		return
	}

	if h, ok := s.strongs[from]; ok {
		s.weaks[name] = h.Downgrade()
		fmt.Fprintf(s.rl.Stdout(), "%s downgraded (weak=%d)\n", from, h.WeakCount())
		return
	}
	if h, ok := s.localStrongs[from]; ok {
		s.localWeaks[name] = h.Downgrade()
		fmt.Fprintf(s.rl.Stdout(), "%s downgraded (weak=%d)\n", from, h.WeakCount())
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "No strong handle named %s\n", from)
}

// cmdUpgrade handles the upgrade command.
func (s *Session) cmdUpgrade(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: upgrade <weak> <view>")
		return
	}

	from, name := args[0], args[1]
	if s.nameInUse(name) {
		fmt.Fprintf(s.rl.Stdout(), "Name already in use: %s\n", name)
		return
	}

	if w, ok := s.weaks[from]; ok {
		b, alive := tether.Upgrade(tether.Root(w))
		if !alive {
			fmt.Fprintf(s.rl.Stdout(), "Gone: %s has no strong handles left\n", from)
			return
		}
		s.views[name] = &view{source: from, mode: "shared", get: b.Get, release: b.Release}
		fmt.Fprintf(s.rl.Stdout(), "%s = %v (strong=%d)\n", name, *b.Get(), w.StrongCount())
		return
	}
	if w, ok := s.localWeaks[from]; ok {
		b, alive := tether.UpgradeLocal(tether.Root(w))
		if !alive {
			fmt.Fprintf(s.rl.Stdout(), "Gone: %s has no strong handles left\n", from)
			return
		}
		s.views[name] = &view{source: from, mode: "shared", get: b.Get, release: b.Release}
		fmt.Fprintf(s.rl.Stdout(), "%s = %v (strong=%d)\n", name, *b.Get(), w.StrongCount())
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "No weak handle named %s\n", from)
}

// cmdGet handles the get command.
func (s *Session) cmdGet(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: get <view>")
		return
	}

	v, ok := s.views[args[0]]
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "No view named %s\n", args[0])
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s = %v\n", args[0], *v.get())
}

// cmdSet handles the set command.
func (s *Session) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: set <view> <value>")
		return
	}

	v, ok := s.views[args[0]]
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "No view named %s\n", args[0])
		return
	}
	if v.set == nil {
		fmt.Fprintf(s.rl.Stdout(), "View %s is read-only\n", args[0])
		return
	}

	value := parseValue(strings.Join(args[1:], " "))
	v.set(value)
	fmt.Fprintf(s.rl.Stdout(), "%s = %v\n", args[0], value)
}

// cmdRelease handles the release command.
func (s *Session) cmdRelease(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: release <view|handle>")
		return
	}

	name := args[0]
	if v, ok := s.views[name]; ok {
		v.release()
		delete(s.views, name)
		fmt.Fprintf(s.rl.Stdout(), "%s released\n", name)
		return
	}
	if h, ok := s.strongs[name]; ok {
		h.Release()
		delete(s.strongs, name)
		fmt.Fprintf(s.rl.Stdout(), "%s released\n", name)
		return
	}
	if w, ok := s.weaks[name]; ok {
		w.Release()
		delete(s.weaks, name)
		fmt.Fprintf(s.rl.Stdout(), "%s released\n", name)
		return
	}
	if h, ok := s.localStrongs[name]; ok {
		h.Release()
		delete(s.localStrongs, name)
		fmt.Fprintf(s.rl.Stdout(), "%s released\n", name)
		return
	}
	if w, ok := s.localWeaks[name]; ok {
		w.Release()
		delete(s.localWeaks, name)
		fmt.Fprintf(s.rl.Stdout(), "%s released\n", name)
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "No view or handle named %s\n", name)
}

// cmdList handles the ls command.
func (s *Session) cmdList() {
	out := s.rl.Stdout()

	total := len(s.cells) + len(s.mutexes) + len(s.rwmutexes) +
		len(s.strongs) + len(s.weaks) + len(s.localStrongs) + len(s.localWeaks)
	if total == 0 && len(s.views) == 0 {
		fmt.Fprintln(out, "Nothing here yet (try 'new cell counter 10')")
		return
	}

	fmt.Fprintf(out, "\nObjects (%d):\n", total)
	fmt.Fprintln(out, "-------------------------------------------")
	for _, name := range sortedKeys(s.cells) {
		fmt.Fprintf(out, "  %-16s cell\n", name)
	}
	for _, name := range sortedKeys(s.mutexes) {
		poisoned := ""
		if s.mutexes[name].Poisoned() {
			poisoned = " [poisoned]"
		}
		fmt.Fprintf(out, "  %-16s mutex%s\n", name, poisoned)
	}
	for _, name := range sortedKeys(s.rwmutexes) {
		poisoned := ""
		if s.rwmutexes[name].Poisoned() {
			poisoned = " [poisoned]"
		}
		fmt.Fprintf(out, "  %-16s rwmutex%s\n", name, poisoned)
	}
	for _, name := range sortedKeys(s.strongs) {
		h := s.strongs[name]
		fmt.Fprintf(out, "  %-16s strong (strong=%d weak=%d)\n", name, h.StrongCount(), h.WeakCount())
	}
	for _, name := range sortedKeys(s.weaks) {
		fmt.Fprintf(out, "  %-16s weak (strong=%d)\n", name, s.weaks[name].StrongCount())
	}
	for _, name := range sortedKeys(s.localStrongs) {
		h := s.localStrongs[name]
		fmt.Fprintf(out, "  %-16s local strong (strong=%d weak=%d)\n", name, h.StrongCount(), h.WeakCount())
	}
	for _, name := range sortedKeys(s.localWeaks) {
		fmt.Fprintf(out, "  %-16s local weak (strong=%d)\n", name, s.localWeaks[name].StrongCount())
	}

	if len(s.views) > 0 {
		fmt.Fprintf(out, "\nViews (%d):\n", len(s.views))
		fmt.Fprintln(out, "-------------------------------------------")
		for _, name := range sortedKeys(s.views) {
			v := s.views[name]
			fmt.Fprintf(out, "  %-16s %-10s <- %s\n", name, v.mode, v.source)
		}
	}
	fmt.Fprintln(out)
}

// nameInUse reports whether name is taken by any object or view.
func (s *Session) nameInUse(name string) bool {
	if _, ok := s.cells[name]; ok {
		return true
	}
	if _, ok := s.mutexes[name]; ok {
		return true
	}
	if _, ok := s.rwmutexes[name]; ok {
		return true
	}
	if _, ok := s.strongs[name]; ok {
		return true
	}
	if _, ok := s.weaks[name]; ok {
		return true
	}
	if _, ok := s.localStrongs[name]; ok {
		return true
	}
	if _, ok := s.localWeaks[name]; ok {
		return true
	}
	if _, ok := s.views[name]; ok {
		return true
	}
	return false
}

func (s *Session) cellOpts(name string) []cell.Option {
	if s.tracer == nil {
		return nil
	}
	return []cell.Option{cell.WithTracer(s.tracer), cell.WithLabel(name)}
}

func (s *Session) lockOpts(name string) []lock.Option {
	if s.tracer == nil {
		return nil
	}
	return []lock.Option{lock.WithTracer(s.tracer), lock.WithLabel(name)}
}

func (s *Session) handleOpts(name string) []handle.Option {
	if s.tracer == nil {
		return nil
	}
	return []handle.Option{handle.WithTracer(s.tracer), handle.WithLabel(name)}
}

// parseValue parses a command argument value (try int, then float,
// then bool, then string).
func parseValue(raw string) any {
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		return v
	}
	// Treat as string (strip quotes if present)
	return strings.Trim(raw, "\"'")
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
