// Package trace provides structured event tracing for tether primitives.
//
// This package defines the Tracer interface and Event types for capturing
// lifecycle and acquisition events from cells, locks, and handles. It is
// separate from operational logging (slog) - a trace is a complete
// machine-readable record of every acquire, release, and state transition
// for debugging and analysis.
//
// # Basic Usage
//
// Tracing is opt-in per instance via constructor options:
//
//	// For development: trace to console via slog
//	c := cell.New(0, cell.WithTracer(trace.NewSlogTracer(slog.Default())))
//
//	// For capture: write to binary file
//	ft, _ := trace.NewFileTracer("run.ttr")
//	m := lock.NewMutex(state, lock.WithTracer(ft))
//
//	// Both: use MultiTracer
//	tr := trace.NewMultiTracer(
//	    trace.NewSlogTracer(slog.Default()),
//	    ft,
//	)
//
// # Event Shape
//
// Every event names the instance (UUID plus optional label), the primitive
// kind, the operation, and its outcome. Cells and locks attach an
// AccessState snapshot; handles attach a HandleCounts snapshot; failed
// operations attach the error text.
//
// # File Format
//
// Trace files use CBOR encoding with .ttr extension. The tether-trace CLI
// tool provides viewing, filtering, and export capabilities.
package trace
