package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Reporter formats and outputs scenario results.
type Reporter interface {
	// ReportSuite reports results for a scenario suite.
	ReportSuite(result *SuiteResult)

	// ReportScenario reports results for a single scenario.
	ReportScenario(result *Result)
}

// TextReporter outputs human-readable text reports.
type TextReporter struct {
	writer  io.Writer
	verbose bool
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(w io.Writer, verbose bool) *TextReporter {
	return &TextReporter{
		writer:  w,
		verbose: verbose,
	}
}

// ReportSuite reports suite results in text format.
func (r *TextReporter) ReportSuite(result *SuiteResult) {
	fmt.Fprintf(r.writer, "\n=== Suite: %s ===\n", result.Name)
	fmt.Fprintf(r.writer, "Duration: %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(r.writer, "\n")

	for _, sr := range result.Results {
		r.ReportScenario(sr)
	}

	// Summary
	fmt.Fprintf(r.writer, "\n--- Summary ---\n")
	fmt.Fprintf(r.writer, "Total:   %d\n", len(result.Results))
	fmt.Fprintf(r.writer, "Passed:  %d\n", result.PassCount)
	fmt.Fprintf(r.writer, "Failed:  %d\n", result.FailCount)
	fmt.Fprintf(r.writer, "Skipped: %d\n", result.SkipCount)

	// Pass rate
	total := result.PassCount + result.FailCount
	if total > 0 {
		rate := float64(result.PassCount) / float64(total) * 100
		fmt.Fprintf(r.writer, "Pass Rate: %.1f%%\n", rate)
	}
}

// ReportScenario reports a single scenario result in text format.
func (r *TextReporter) ReportScenario(result *Result) {
	sc := result.Scenario

	// Status indicator
	var status string
	switch {
	case result.Skipped:
		status = "SKIP"
	case result.Passed:
		status = "PASS"
	default:
		status = "FAIL"
	}

	fmt.Fprintf(r.writer, "[%s] %s - %s (%s)\n",
		status, sc.ID, sc.Name, result.Duration.Round(time.Millisecond))

	if result.Skipped && result.SkipReason != "" {
		fmt.Fprintf(r.writer, "       Skip reason: %s\n", result.SkipReason)
	}

	if !result.Passed && result.Error != nil {
		fmt.Fprintf(r.writer, "       Error: %v\n", result.Error)
	}

	// Verbose: show step details
	if r.verbose {
		for _, sr := range result.StepResults {
			stepStatus := "PASS"
			if !sr.Passed {
				stepStatus = "FAIL"
			}
			fmt.Fprintf(r.writer, "    [%s] Step %d: %s (%s)\n",
				stepStatus, sr.StepIndex+1, sr.Step.Action, sr.Duration.Round(time.Millisecond))

			if !sr.Passed && sr.Error != nil {
				fmt.Fprintf(r.writer, "           Error: %v\n", sr.Error)
			}

			// Show expectation results
			for key, er := range sr.ExpectResults {
				expStatus := "OK"
				if !er.Passed {
					expStatus = "FAILED"
				}
				fmt.Fprintf(r.writer, "           [%s] %s: %s\n", expStatus, key, er.Message)
			}
		}
	}
}

// JSONReporter outputs JSON-formatted reports.
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(w io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{
		writer: w,
		pretty: pretty,
	}
}

// JSONSuiteResult is the JSON representation of suite results.
type JSONSuiteResult struct {
	SuiteName string               `json:"suite_name"`
	Duration  string               `json:"duration"`
	Total     int                  `json:"total"`
	Passed    int                  `json:"passed"`
	Failed    int                  `json:"failed"`
	Skipped   int                  `json:"skipped"`
	PassRate  float64              `json:"pass_rate"`
	Scenarios []JSONScenarioResult `json:"scenarios"`
}

// JSONScenarioResult is the JSON representation of a scenario result.
type JSONScenarioResult struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Status     string           `json:"status"`
	Duration   string           `json:"duration"`
	Error      string           `json:"error,omitempty"`
	SkipReason string           `json:"skip_reason,omitempty"`
	Steps      []JSONStepResult `json:"steps,omitempty"`
}

// JSONStepResult is the JSON representation of a step result.
type JSONStepResult struct {
	Index    int                   `json:"index"`
	Action   string                `json:"action"`
	Status   string                `json:"status"`
	Duration string                `json:"duration"`
	Error    string                `json:"error,omitempty"`
	Expects  map[string]JSONExpect `json:"expects,omitempty"`
	Outputs  map[string]any        `json:"outputs,omitempty"`
}

// JSONExpect is the JSON representation of an expectation result.
type JSONExpect struct {
	Passed   bool   `json:"passed"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Message  string `json:"message"`
}

// ReportSuite reports suite results in JSON format.
func (r *JSONReporter) ReportSuite(result *SuiteResult) {
	total := result.PassCount + result.FailCount
	var passRate float64
	if total > 0 {
		passRate = float64(result.PassCount) / float64(total) * 100
	}

	jr := JSONSuiteResult{
		SuiteName: result.Name,
		Duration:  result.Duration.Round(time.Millisecond).String(),
		Total:     len(result.Results),
		Passed:    result.PassCount,
		Failed:    result.FailCount,
		Skipped:   result.SkipCount,
		PassRate:  passRate,
		Scenarios: make([]JSONScenarioResult, 0, len(result.Results)),
	}

	for _, sr := range result.Results {
		jr.Scenarios = append(jr.Scenarios, r.scenarioToJSON(sr))
	}

	r.writeJSON(jr)
}

// ReportScenario reports a single scenario result in JSON format.
func (r *JSONReporter) ReportScenario(result *Result) {
	jr := r.scenarioToJSON(result)
	r.writeJSON(jr)
}

func (r *JSONReporter) scenarioToJSON(result *Result) JSONScenarioResult {
	sc := result.Scenario

	var status string
	switch {
	case result.Skipped:
		status = "skipped"
	case result.Passed:
		status = "passed"
	default:
		status = "failed"
	}

	jr := JSONScenarioResult{
		ID:       sc.ID,
		Name:     sc.Name,
		Status:   status,
		Duration: result.Duration.Round(time.Millisecond).String(),
	}

	if result.Error != nil {
		jr.Error = result.Error.Error()
	}
	if result.SkipReason != "" {
		jr.SkipReason = result.SkipReason
	}

	// Add step results
	for _, sr := range result.StepResults {
		stepStatus := "passed"
		if !sr.Passed {
			stepStatus = "failed"
		}

		jsr := JSONStepResult{
			Index:    sr.StepIndex,
			Action:   sr.Step.Action,
			Status:   stepStatus,
			Duration: sr.Duration.Round(time.Millisecond).String(),
			Expects:  make(map[string]JSONExpect),
			Outputs:  sr.Output,
		}

		if sr.Error != nil {
			jsr.Error = sr.Error.Error()
		}

		for key, er := range sr.ExpectResults {
			jsr.Expects[key] = JSONExpect{
				Passed:   er.Passed,
				Expected: er.Expected,
				Actual:   er.Actual,
				Message:  er.Message,
			}
		}

		jr.Steps = append(jr.Steps, jsr)
	}

	return jr
}

func (r *JSONReporter) writeJSON(v any) {
	var data []byte
	var err error

	if r.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		fmt.Fprintf(r.writer, `{"error": "failed to marshal: %s"}`, err)
		return
	}

	fmt.Fprintln(r.writer, string(data))
}

// JUnitReporter outputs JUnit XML format for CI integration.
type JUnitReporter struct {
	writer io.Writer
}

// NewJUnitReporter creates a new JUnit reporter.
func NewJUnitReporter(w io.Writer) *JUnitReporter {
	return &JUnitReporter{writer: w}
}

// ReportSuite reports suite results in JUnit XML format.
func (r *JUnitReporter) ReportSuite(result *SuiteResult) {
	var b strings.Builder

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString("\n")

	// testsuite element
	fmt.Fprintf(&b, `<testsuite name="%s" tests="%d" failures="%d" skipped="%d" time="%.3f">`,
		escapeXML(result.Name),
		len(result.Results),
		result.FailCount,
		result.SkipCount,
		result.Duration.Seconds())
	b.WriteString("\n")

	// testcase elements
	for _, sr := range result.Results {
		sc := sr.Scenario
		fmt.Fprintf(&b, `  <testcase name="%s" classname="%s" time="%.3f">`,
			escapeXML(sc.Name),
			escapeXML(sc.ID),
			sr.Duration.Seconds())
		b.WriteString("\n")

		if sr.Skipped {
			fmt.Fprintf(&b, `    <skipped message="%s"/>`, escapeXML(sr.SkipReason))
			b.WriteString("\n")
		} else if !sr.Passed && sr.Error != nil {
			fmt.Fprintf(&b, `    <failure message="%s">`, escapeXML(sr.Error.Error()))
			b.WriteString("\n")

			// Add step details in CDATA
			b.WriteString("      <![CDATA[")
			for _, st := range sr.StepResults {
				if !st.Passed {
					fmt.Fprintf(&b, "Step %d (%s): %v\n", st.StepIndex+1, st.Step.Action, st.Error)
				}
			}
			b.WriteString("]]>\n")
			b.WriteString("    </failure>\n")
		}

		b.WriteString("  </testcase>\n")
	}

	b.WriteString("</testsuite>\n")

	fmt.Fprint(r.writer, b.String())
}

// ReportScenario reports a single scenario in JUnit format (wraps in minimal testsuite).
func (r *JUnitReporter) ReportScenario(result *Result) {
	// Wrap single scenario in suite
	suite := &SuiteResult{
		Name:     "Single Scenario",
		Results:  []*Result{result},
		Duration: result.Duration,
	}
	if result.Passed {
		suite.PassCount = 1
	} else if result.Skipped {
		suite.SkipCount = 1
	} else {
		suite.FailCount = 1
	}
	r.ReportSuite(suite)
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
