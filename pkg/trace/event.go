package trace

import (
	"time"
)

// Event represents a single primitive event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// InstanceID uniquely identifies the primitive instance (UUID).
	InstanceID string `cbor:"2,keyasint"`

	// Kind of primitive that emitted the event.
	Kind Kind `cbor:"3,keyasint"`

	// Op is the operation that was attempted.
	Op Op `cbor:"4,keyasint"`

	// Outcome of the operation.
	Outcome Outcome `cbor:"5,keyasint"`

	// Label is the user-assigned instance label (if any).
	Label string `cbor:"6,keyasint,omitempty"`

	// Access snapshots holder state after the event, where the
	// primitive tracks it (cells and locks).
	Access *AccessState `cbor:"7,keyasint,omitempty"`

	// Counts snapshots reference counts after the event (handles).
	Counts *HandleCounts `cbor:"8,keyasint,omitempty"`

	// Err is the error text for failed operations.
	Err string `cbor:"9,keyasint,omitempty"`
}

// Kind identifies the primitive family that emitted an event.
type Kind uint8

const (
	// KindCell is a dynamically borrow-checked cell.
	KindCell Kind = 0
	// KindMutex is a poisoning exclusive lock.
	KindMutex Kind = 1
	// KindRWMutex is a poisoning reader-writer lock.
	KindRWMutex Kind = 2
	// KindHandle is an atomically counted strong/weak handle allocation.
	KindHandle Kind = 3
	// KindLocalHandle is a single-goroutine strong/weak handle allocation.
	KindLocalHandle Kind = 4
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCell:
		return "CELL"
	case KindMutex:
		return "MUTEX"
	case KindRWMutex:
		return "RWMUTEX"
	case KindHandle:
		return "HANDLE"
	case KindLocalHandle:
		return "LOCAL_HANDLE"
	default:
		return "UNKNOWN"
	}
}

// Op identifies the operation an event records.
type Op uint8

const (
	// OpNew indicates instance construction.
	OpNew Op = 0
	// OpBorrow indicates a shared borrow.
	OpBorrow Op = 1
	// OpTryBorrow indicates a fallible shared borrow.
	OpTryBorrow Op = 2
	// OpBorrowMut indicates an exclusive borrow.
	OpBorrowMut Op = 3
	// OpTryBorrowMut indicates a fallible exclusive borrow.
	OpTryBorrowMut Op = 4
	// OpReplace indicates a value replacement.
	OpReplace Op = 5
	// OpLock indicates a blocking exclusive acquire.
	OpLock Op = 6
	// OpTryLock indicates a non-blocking exclusive acquire.
	OpTryLock Op = 7
	// OpRead indicates a blocking shared acquire.
	OpRead Op = 8
	// OpTryRead indicates a non-blocking shared acquire.
	OpTryRead Op = 9
	// OpWrite indicates a blocking exclusive acquire on a reader-writer lock.
	OpWrite Op = 10
	// OpTryWrite indicates a non-blocking exclusive acquire on a reader-writer lock.
	OpTryWrite Op = 11
	// OpClone indicates a handle clone.
	OpClone Op = 12
	// OpDowngrade indicates a strong-to-weak downgrade.
	OpDowngrade Op = 13
	// OpUpgrade indicates a weak-to-strong upgrade attempt.
	OpUpgrade Op = 14
	// OpRelease indicates a view, guard, or handle release.
	OpRelease Op = 15
	// OpPoison indicates the poison flag was set.
	OpPoison Op = 16
	// OpClearPoison indicates the poison flag was cleared.
	OpClearPoison Op = 17
	// OpFinalize indicates the last strong handle released and the
	// finalizer (if any) ran.
	OpFinalize Op = 18
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpNew:
		return "NEW"
	case OpBorrow:
		return "BORROW"
	case OpTryBorrow:
		return "TRY_BORROW"
	case OpBorrowMut:
		return "BORROW_MUT"
	case OpTryBorrowMut:
		return "TRY_BORROW_MUT"
	case OpReplace:
		return "REPLACE"
	case OpLock:
		return "LOCK"
	case OpTryLock:
		return "TRY_LOCK"
	case OpRead:
		return "READ"
	case OpTryRead:
		return "TRY_READ"
	case OpWrite:
		return "WRITE"
	case OpTryWrite:
		return "TRY_WRITE"
	case OpClone:
		return "CLONE"
	case OpDowngrade:
		return "DOWNGRADE"
	case OpUpgrade:
		return "UPGRADE"
	case OpRelease:
		return "RELEASE"
	case OpPoison:
		return "POISON"
	case OpClearPoison:
		return "CLEAR_POISON"
	case OpFinalize:
		return "FINALIZE"
	default:
		return "UNKNOWN"
	}
}

// Outcome classifies how an operation ended.
type Outcome uint8

const (
	// OutcomeOK indicates the operation succeeded.
	OutcomeOK Outcome = 0
	// OutcomeConflict indicates a borrow conflict.
	OutcomeConflict Outcome = 1
	// OutcomeWouldBlock indicates a non-blocking acquire found the lock held.
	OutcomeWouldBlock Outcome = 2
	// OutcomePoisoned indicates the lock was poisoned. The acquire still
	// succeeded; the outcome flags the poison.
	OutcomePoisoned Outcome = 3
	// OutcomeGone indicates an upgrade found the value already dead.
	OutcomeGone Outcome = 4
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "OK"
	case OutcomeConflict:
		return "CONFLICT"
	case OutcomeWouldBlock:
		return "WOULD_BLOCK"
	case OutcomePoisoned:
		return "POISONED"
	case OutcomeGone:
		return "GONE"
	default:
		return "UNKNOWN"
	}
}

// AccessState snapshots the holder state of a cell or lock after an event.
// Locks that do not track shared holder counts leave Shared at zero.
type AccessState struct {
	// Shared is the number of outstanding shared holders.
	Shared int `cbor:"1,keyasint"`

	// Exclusive indicates an outstanding exclusive holder.
	Exclusive bool `cbor:"2,keyasint,omitempty"`

	// Poisoned indicates the poison flag is set.
	Poisoned bool `cbor:"3,keyasint,omitempty"`
}

// HandleCounts snapshots the reference counts of a handle allocation
// after an event.
type HandleCounts struct {
	// Strong is the number of live strong handles.
	Strong int64 `cbor:"1,keyasint"`

	// Weak is the number of live weak handles.
	Weak int64 `cbor:"2,keyasint"`
}
