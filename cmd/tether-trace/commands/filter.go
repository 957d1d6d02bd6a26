package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/tether-dev/tether-go/pkg/trace"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output     string
	InstanceID string
	Label      string
	TimeStart  string
	TimeEnd    string
	Kind       string
	Op         string
	Outcome    string
}

// RunFilter filters the trace file and writes matching events to a new file.
func RunFilter(path string, opts FilterOptions) error {
	// Build filter
	filter := trace.Filter{
		InstanceID: opts.InstanceID,
		Label:      opts.Label,
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Kind != "" {
		k, err := parseKind(opts.Kind)
		if err != nil {
			return err
		}
		filter.Kind = &k
	}

	if opts.Op != "" {
		o, err := parseOp(opts.Op)
		if err != nil {
			return err
		}
		filter.Op = &o
	}

	if opts.Outcome != "" {
		o, err := parseOutcome(opts.Outcome)
		if err != nil {
			return err
		}
		filter.Outcome = &o
	}

	// Open input
	reader, err := trace.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	// Create file tracer to write filtered events
	tracer, err := trace.NewFileTracer(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output tracer: %w", err)
	}
	defer tracer.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		tracer.Trace(event)
		count++
	}

	fmt.Printf("Filtered %d events to %s\n", count, opts.Output)
	return nil
}
