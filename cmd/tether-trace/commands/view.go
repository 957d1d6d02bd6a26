// Package commands implements the tether-trace CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/tether-dev/tether-go/pkg/trace"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Kind    *trace.Kind
	Op      *trace.Op
	Outcome *trace.Outcome
	Label   string
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event trace.Event) {
	// Header line: timestamp [inst:id] KIND OP OUTCOME "label"
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	inst := shortenInstanceID(event.InstanceID)

	fmt.Fprintf(w, "%s [inst:%s] %-12s %-14s %s", ts, inst, event.Kind, event.Op, event.Outcome)
	if event.Label != "" {
		fmt.Fprintf(w, " %q", event.Label)
	}
	fmt.Fprintln(w)

	if event.Access != nil {
		formatAccessDetails(w, event.Access)
	}
	if event.Counts != nil {
		fmt.Fprintf(w, "  Counts: strong=%d weak=%d\n", event.Counts.Strong, event.Counts.Weak)
	}
	if event.Err != "" {
		fmt.Fprintf(w, "  Error: %s\n", event.Err)
	}
}

// shortenInstanceID returns the first 8 characters of the instance ID.
func shortenInstanceID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatAccessDetails writes the holder snapshot of a cell or lock.
func formatAccessDetails(w io.Writer, access *trace.AccessState) {
	switch {
	case access.Exclusive:
		fmt.Fprintln(w, "  Holders: exclusive")
	case access.Shared > 0:
		fmt.Fprintf(w, "  Holders: %d shared\n", access.Shared)
	default:
		fmt.Fprintln(w, "  Holders: none")
	}
	if access.Poisoned {
		fmt.Fprintln(w, "  Poisoned: true")
	}
}

// filterEvents returns events matching the filter criteria.
func filterEvents(events []trace.Event, filter ViewFilter) []trace.Event {
	var result []trace.Event
	for _, e := range events {
		if filter.Kind != nil && e.Kind != *filter.Kind {
			continue
		}
		if filter.Op != nil && e.Op != *filter.Op {
			continue
		}
		if filter.Outcome != nil && e.Outcome != *filter.Outcome {
			continue
		}
		if filter.Label != "" && e.Label != filter.Label {
			continue
		}
		result = append(result, e)
	}
	return result
}

// ParseKindFlag parses a kind string from a command-line flag (case-insensitive).
func ParseKindFlag(s string) (trace.Kind, error) {
	return parseKind(s)
}

// parseKind parses a kind string (case-insensitive).
func parseKind(s string) (trace.Kind, error) {
	switch strings.ToLower(s) {
	case "cell":
		return trace.KindCell, nil
	case "mutex":
		return trace.KindMutex, nil
	case "rwmutex":
		return trace.KindRWMutex, nil
	case "handle":
		return trace.KindHandle, nil
	case "local_handle":
		return trace.KindLocalHandle, nil
	default:
		return 0, fmt.Errorf("invalid kind: %s (must be cell, mutex, rwmutex, handle, or local_handle)", s)
	}
}

// ParseOpFlag parses an operation string from a command-line flag (case-insensitive).
func ParseOpFlag(s string) (trace.Op, error) {
	return parseOp(s)
}

// parseOp parses an operation string (case-insensitive).
func parseOp(s string) (trace.Op, error) {
	switch strings.ToLower(s) {
	case "new":
		return trace.OpNew, nil
	case "borrow":
		return trace.OpBorrow, nil
	case "try_borrow":
		return trace.OpTryBorrow, nil
	case "borrow_mut":
		return trace.OpBorrowMut, nil
	case "try_borrow_mut":
		return trace.OpTryBorrowMut, nil
	case "replace":
		return trace.OpReplace, nil
	case "lock":
		return trace.OpLock, nil
	case "try_lock":
		return trace.OpTryLock, nil
	case "read":
		return trace.OpRead, nil
	case "try_read":
		return trace.OpTryRead, nil
	case "write":
		return trace.OpWrite, nil
	case "try_write":
		return trace.OpTryWrite, nil
	case "clone":
		return trace.OpClone, nil
	case "downgrade":
		return trace.OpDowngrade, nil
	case "upgrade":
		return trace.OpUpgrade, nil
	case "release":
		return trace.OpRelease, nil
	case "poison":
		return trace.OpPoison, nil
	case "clear_poison":
		return trace.OpClearPoison, nil
	case "finalize":
		return trace.OpFinalize, nil
	default:
		return 0, fmt.Errorf("invalid op: %s", s)
	}
}

// ParseOutcomeFlag parses an outcome string from a command-line flag (case-insensitive).
func ParseOutcomeFlag(s string) (trace.Outcome, error) {
	return parseOutcome(s)
}

// parseOutcome parses an outcome string (case-insensitive).
func parseOutcome(s string) (trace.Outcome, error) {
	switch strings.ToLower(s) {
	case "ok":
		return trace.OutcomeOK, nil
	case "conflict":
		return trace.OutcomeConflict, nil
	case "would_block":
		return trace.OutcomeWouldBlock, nil
	case "poisoned":
		return trace.OutcomePoisoned, nil
	case "gone":
		return trace.OutcomeGone, nil
	default:
		return 0, fmt.Errorf("invalid outcome: %s (must be ok, conflict, would_block, poisoned, or gone)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := trace.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		// Apply filter
		if filter.Kind != nil && event.Kind != *filter.Kind {
			continue
		}
		if filter.Op != nil && event.Op != *filter.Op {
			continue
		}
		if filter.Outcome != nil && event.Outcome != *filter.Outcome {
			continue
		}
		if filter.Label != "" && event.Label != filter.Label {
			continue
		}

		formatEvent(output, event)
	}

	return nil
}
