// Command tether-trace is a tool for viewing and analyzing primitive trace files.
//
// Trace files are created by attaching a trace.FileTracer to cells, locks,
// and handles, or by running tether-scenario with the -trace flag.
//
// Usage:
//
//	tether-trace <command> [flags] <file.ttr>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSON or CSV format
//	filter   Filter trace file and write to new file
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View all events
//	tether-trace view run.ttr
//
//	# View only mutex events
//	tether-trace view --kind mutex run.ttr
//
//	# View only failed acquires
//	tether-trace view --outcome would_block run.ttr
//
//	# Export to JSONL
//	tether-trace export --format jsonl run.ttr
//
//	# Filter by label and save to new file
//	tether-trace filter --label job-queue -o filtered.ttr run.ttr
//
//	# Show statistics
//	tether-trace stats run.ttr
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tether-dev/tether-go/cmd/tether-trace/commands"
)

const usage = `tether-trace - Primitive Trace Analyzer

Usage:
  tether-trace <command> [flags] <file.ttr>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSON or CSV format
  filter   Filter trace file and write to new file
  stats    Show statistics about the trace file

Use "tether-trace <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `tether-trace view - View trace file in human-readable format

Usage:
  tether-trace view [flags] <file.ttr>

Flags:
`)
		fs.PrintDefaults()
	}

	kind := fs.String("kind", "", "Filter by primitive kind (cell, mutex, rwmutex, handle, local_handle)")
	op := fs.String("op", "", "Filter by operation (new, borrow, lock, upgrade, release, ...)")
	outcome := fs.String("outcome", "", "Filter by outcome (ok, conflict, would_block, poisoned, gone)")
	label := fs.String("label", "", "Filter by instance label")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	// Build filter
	var filter commands.ViewFilter
	filter.Label = *label

	if *kind != "" {
		k, err := commands.ParseKindFlag(*kind)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Kind = &k
	}

	if *op != "" {
		o, err := commands.ParseOpFlag(*op)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Op = &o
	}

	if *outcome != "" {
		o, err := commands.ParseOutcomeFlag(*outcome)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Outcome = &o
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `tether-trace export - Export trace file to JSON or CSV format

Usage:
  tether-trace export [flags] <file.ttr>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `tether-trace filter - Filter trace file and write to new file

Usage:
  tether-trace filter [flags] <file.ttr>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	instanceID := fs.String("instance-id", "", "Filter by instance ID")
	label := fs.String("label", "", "Filter by instance label")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	kind := fs.String("kind", "", "Filter by primitive kind (cell, mutex, rwmutex, handle, local_handle)")
	op := fs.String("op", "", "Filter by operation (new, borrow, lock, upgrade, release, ...)")
	outcome := fs.String("outcome", "", "Filter by outcome (ok, conflict, would_block, poisoned, gone)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	opts := commands.FilterOptions{
		Output:     *output,
		InstanceID: *instanceID,
		Label:      *label,
		TimeStart:  *timeStart,
		TimeEnd:    *timeEnd,
		Kind:       *kind,
		Op:         *op,
		Outcome:    *outcome,
	}

	if err := commands.RunFilter(path, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `tether-trace stats - Show statistics about the trace file

Usage:
  tether-trace stats <file.ttr>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
