package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/tether-dev/tether-go/pkg/trace"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents     int
	EventsByKind    map[trace.Kind]int
	EventsByOp      map[trace.Op]int
	EventsByOutcome map[trace.Outcome]int
	Instances       map[string]*InstanceStats
	Failures        int
	TimeRange       struct {
		Start time.Time
		End   time.Time
	}
}

// InstanceStats holds statistics for a single primitive instance.
type InstanceStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Failures  int
	Label     string
	Kind      trace.Kind
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := trace.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByKind:    make(map[trace.Kind]int),
		EventsByOp:      make(map[trace.Op]int),
		EventsByOutcome: make(map[trace.Outcome]int),
		Instances:       make(map[string]*InstanceStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByKind[event.Kind]++
		stats.EventsByOp[event.Op]++
		stats.EventsByOutcome[event.Outcome]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		// Track instance stats
		inst, ok := stats.Instances[event.InstanceID]
		if !ok {
			inst = &InstanceStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
				Kind:      event.Kind,
			}
			stats.Instances[event.InstanceID] = inst
		}
		inst.Events++
		if event.Timestamp.After(inst.LastSeen) {
			inst.LastSeen = event.Timestamp
		}
		if event.Label != "" && inst.Label == "" {
			inst.Label = event.Label
		}

		// Count failed operations
		if event.Outcome != trace.OutcomeOK {
			stats.Failures++
			inst.Failures++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Primitive Trace Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	// Total events
	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	// Events by kind
	fmt.Fprintln(w, "Events by Kind:")
	for _, kind := range []trace.Kind{trace.KindCell, trace.KindMutex, trace.KindRWMutex, trace.KindHandle, trace.KindLocalHandle} {
		if count := stats.EventsByKind[kind]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", kind.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Events by operation
	fmt.Fprintln(w, "Events by Op:")
	for op := trace.OpNew; op <= trace.OpFinalize; op++ {
		if count := stats.EventsByOp[op]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", op.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Events by outcome
	fmt.Fprintln(w, "Events by Outcome:")
	for _, outcome := range []trace.Outcome{trace.OutcomeOK, trace.OutcomeConflict, trace.OutcomeWouldBlock, trace.OutcomePoisoned, trace.OutcomeGone} {
		if count := stats.EventsByOutcome[outcome]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", outcome.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Instances
	fmt.Fprintf(w, "Instances: %d\n", len(stats.Instances))
	if len(stats.Instances) > 0 {
		// Sort by first seen time
		type instInfo struct {
			id    string
			stats *InstanceStats
		}
		insts := make([]instInfo, 0, len(stats.Instances))
		for id, is := range stats.Instances {
			insts = append(insts, instInfo{id, is})
		}
		sort.Slice(insts, func(i, j int) bool {
			return insts[i].stats.FirstSeen.Before(insts[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		table := tablewriter.NewWriter(w)
		table.Header("Instance", "Label", "Kind", "Events", "Failures", "Lifetime")
		for _, in := range insts {
			lifetime := in.stats.LastSeen.Sub(in.stats.FirstSeen).Round(time.Millisecond)
			table.Append(
				shortenInstanceID(in.id),
				in.stats.Label,
				in.stats.Kind.String(),
				fmt.Sprintf("%d", in.stats.Events),
				fmt.Sprintf("%d", in.stats.Failures),
				lifetime.String(),
			)
		}
		table.Render()
	}

	// Failures
	if stats.Failures > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Failed Operations: %d\n", stats.Failures)
	}
}
