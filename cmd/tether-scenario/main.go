// Command tether-scenario runs YAML scenario files against the tether
// primitives.
//
// A scenario describes a sequence of actions (make_cell, borrow, lock,
// poison, ...) with expected outputs. The runner executes each scenario
// against real primitives in a fresh registry and reports pass/fail.
//
// Usage:
//
//	tether-scenario [flags] <scenario-file-or-directory>
//
// Flags:
//
//	-verbose        Enable verbose output (per-step detail)
//	-json           Output results as JSON
//	-pretty         Indent JSON output (implies -json)
//	-junit          Output results as JUnit XML
//	-run string     Run only scenarios whose ID or name matches this regexp
//	-suite string   Suite name used in reports (default: path base name)
//	-trace string   File path for primitive trace output (CBOR format)
//
// Examples:
//
//	# Run a single scenario
//	tether-scenario contracts/cell-borrow.yaml
//
//	# Run a directory of scenarios with verbose text output
//	tether-scenario -verbose ./contracts
//
//	# Run only the cell scenarios
//	tether-scenario -run 'SC-CELL-' ./contracts
//
//	# Run with JUnit output for CI and a trace file for debugging
//	tether-scenario -junit -trace run.ttr ./contracts
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tether-dev/tether-go/internal/scenario"
	"github.com/tether-dev/tether-go/pkg/trace"
	"github.com/tether-dev/tether-go/pkg/version"
)

var (
	verbose  = flag.Bool("verbose", false, "Enable verbose output")
	jsonOut  = flag.Bool("json", false, "Output results as JSON")
	pretty   = flag.Bool("pretty", false, "Indent JSON output (implies -json)")
	junitOut = flag.Bool("junit", false, "Output results as JUnit XML")
	run      = flag.String("run", "", "Run only scenarios whose ID or name matches this regexp")
	suite    = flag.String("suite", "", "Suite name used in reports (default: path base name)")
	traceOut = flag.String("trace", "", "File path for primitive trace output (CBOR format)")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: scenario file or directory required")
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	// Determine output format
	outputFormat := "text"
	if *jsonOut || *pretty {
		outputFormat = "json"
	} else if *junitOut {
		outputFormat = "junit"
	}

	if outputFormat == "text" {
		log.SetFlags(log.Ltime)
		if *verbose {
			log.SetFlags(log.Ltime | log.Lmicroseconds)
		}
		printBanner()
		log.Printf("Scenarios: %s", path)
		if *traceOut != "" {
			log.Printf("Trace output: %s", *traceOut)
		}
		log.Println()
	}

	scenarios, err := loadScenarios(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *run != "" {
		re, err := regexp.Compile(*run)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -run pattern: %v\n", err)
			os.Exit(1)
		}
		scenarios = filterScenarios(scenarios, re)
	}
	if len(scenarios) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no scenarios found")
		os.Exit(1)
	}

	// Set up primitive tracing if requested
	var opts []scenario.RunnerOption
	var tracer *trace.FileTracer
	if *traceOut != "" {
		tracer, err = trace.NewFileTracer(*traceOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create tracer: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, scenario.WithTracer(tracer))
	}

	suiteName := *suite
	if suiteName == "" {
		suiteName = filepath.Base(path)
	}

	runner := scenario.NewRunner(opts...)
	result := runner.RunSuite(suiteName, scenarios)

	var reporter scenario.Reporter
	switch outputFormat {
	case "json":
		reporter = scenario.NewJSONReporter(os.Stdout, *pretty)
	case "junit":
		reporter = scenario.NewJUnitReporter(os.Stdout)
	default:
		reporter = scenario.NewTextReporter(os.Stdout, *verbose)
	}
	reporter.ReportSuite(result)

	if tracer != nil {
		tracer.Close()
	}

	if result.FailCount > 0 {
		os.Exit(1)
	}
}

// filterScenarios keeps the scenarios whose ID or name matches re.
func filterScenarios(scenarios []*scenario.Scenario, re *regexp.Regexp) []*scenario.Scenario {
	var kept []*scenario.Scenario
	for _, sc := range scenarios {
		if re.MatchString(sc.ID) || re.MatchString(sc.Name) {
			kept = append(kept, sc)
		}
	}
	return kept
}

// loadScenarios loads a single scenario file or every scenario in a
// directory, depending on what path points at.
func loadScenarios(path string) ([]*scenario.Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return scenario.LoadDirectory(path)
	}
	sc, err := scenario.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return []*scenario.Scenario{sc}, nil
}

func printBanner() {
	fmt.Printf(`
 _       _   _
| |_ ___| |_| |__   ___ _ __
| __/ _ \ __| '_ \ / _ \ '__|
| ||  __/ |_| | | |  __/ |
 \__\___|\__|_| |_|\___|_|

Scenario Runner %s
`, version.Release)
}
