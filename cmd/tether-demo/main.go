// Command tether-demo demonstrates the tether primitives.
//
// By default it runs a scripted walkthrough: borrow chains through
// nested cells, weak upgrades before and after the owner is gone, and
// poison recovery on a failed lock holder. With -interactive it starts
// a shell instead, keeping named cells, locks, and handles in a
// registry so views can be acquired, inspected, poisoned, and released
// by hand. With tracing enabled, every operation is also recorded so
// the resulting file can be inspected with tether-trace.
//
// Usage:
//
//	tether-demo [flags]
//
// Flags:
//
//	-interactive    Start the interactive shell instead of the walkthrough
//	-trace string   File path for primitive trace output (CBOR format)
//	-events         Echo trace events to the console as they happen
//
// Examples:
//
//	# Scripted walkthrough
//	tether-demo
//
//	# Interactive shell, recording a trace for later inspection
//	tether-demo -interactive -trace session.ttr
//	tether-trace stats session.ttr
//
//	# Watch events live while typing commands
//	tether-demo -interactive -events
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tether-dev/tether-go/cmd/tether-demo/interactive"
	"github.com/tether-dev/tether-go/pkg/trace"
	"github.com/tether-dev/tether-go/pkg/version"
)

var (
	interactiveMode = flag.Bool("interactive", false, "Start the interactive shell instead of the walkthrough")
	traceOut        = flag.String("trace", "", "File path for primitive trace output (CBOR format)")
	events          = flag.Bool("events", false, "Echo trace events to the console as they happen")
)

func main() {
	flag.Parse()

	if *interactiveMode {
		runShell()
		return
	}

	tracer, fileTracer, err := buildTracer(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	runWalkthrough(tracer)

	if fileTracer != nil {
		fileTracer.Close()
	}
}

func runShell() {
	sess, err := interactive.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tracer, fileTracer, err := buildTracer(sess.Stdout())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if tracer != nil {
		sess.SetTracer(tracer)
	}

	fmt.Printf("tether %s interactive shell\n", version.Release)
	if *traceOut != "" {
		fmt.Printf("Tracing to %s\n", *traceOut)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess.Run(ctx, cancel)

	if fileTracer != nil {
		fileTracer.Close()
	}
}

// buildTracer assembles the tracer stack selected by the -trace and
// -events flags. The returned FileTracer, if any, must be closed by
// the caller.
func buildTracer(eventSink io.Writer) (trace.Tracer, *trace.FileTracer, error) {
	var tracers []trace.Tracer
	var fileTracer *trace.FileTracer

	if *traceOut != "" {
		var err error
		fileTracer, err = trace.NewFileTracer(*traceOut)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
		}
		tracers = append(tracers, fileTracer)
	}
	if *events {
		// SlogTracer emits at Debug level, which the default handler
		// would drop.
		logger := slog.New(slog.NewTextHandler(eventSink, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		tracers = append(tracers, trace.NewSlogTracer(logger))
	}

	switch len(tracers) {
	case 0:
		return nil, nil, nil
	case 1:
		return tracers[0], fileTracer, nil
	default:
		return trace.NewMultiTracer(tracers...), fileTracer, nil
	}
}
