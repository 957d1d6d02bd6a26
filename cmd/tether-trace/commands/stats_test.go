package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tether-dev/tether-go/pkg/trace"
)

func TestStatsCountsByKind(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []trace.Event{
		{Timestamp: ts, InstanceID: "a", Kind: trace.KindCell, Op: trace.OpNew, Outcome: trace.OutcomeOK},
		{Timestamp: ts, InstanceID: "a", Kind: trace.KindCell, Op: trace.OpBorrow, Outcome: trace.OutcomeOK},
		{Timestamp: ts, InstanceID: "b", Kind: trace.KindMutex, Op: trace.OpNew, Outcome: trace.OutcomeOK},
		{Timestamp: ts, InstanceID: "c", Kind: trace.KindRWMutex, Op: trace.OpNew, Outcome: trace.OutcomeOK},
	}

	path := createTestTraceFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	// Check kind counts
	if !strings.Contains(output, "CELL:") {
		t.Error("expected CELL kind in output")
	}
	if !strings.Contains(output, "MUTEX:") {
		t.Error("expected MUTEX kind in output")
	}
	if !strings.Contains(output, "RWMUTEX:") {
		t.Error("expected RWMUTEX kind in output")
	}
}

func TestStatsCountsByOutcome(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []trace.Event{
		{Timestamp: ts, InstanceID: "a", Kind: trace.KindCell, Op: trace.OpBorrowMut, Outcome: trace.OutcomeOK},
		{Timestamp: ts, InstanceID: "a", Kind: trace.KindCell, Op: trace.OpTryBorrow, Outcome: trace.OutcomeConflict},
		{Timestamp: ts, InstanceID: "b", Kind: trace.KindMutex, Op: trace.OpTryLock, Outcome: trace.OutcomeWouldBlock},
		{Timestamp: ts, InstanceID: "c", Kind: trace.KindHandle, Op: trace.OpUpgrade, Outcome: trace.OutcomeGone},
	}

	path := createTestTraceFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	// Check outcome counts
	if !strings.Contains(output, "OK:") {
		t.Error("expected OK outcome in output")
	}
	if !strings.Contains(output, "CONFLICT:") {
		t.Error("expected CONFLICT outcome in output")
	}
	if !strings.Contains(output, "WOULD_BLOCK:") {
		t.Error("expected WOULD_BLOCK outcome in output")
	}
	if !strings.Contains(output, "GONE:") {
		t.Error("expected GONE outcome in output")
	}
}

func TestStatsCountsInstances(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []trace.Event{
		{Timestamp: ts, InstanceID: "inst-aaaa-bbbb", Kind: trace.KindMutex, Op: trace.OpNew, Outcome: trace.OutcomeOK, Label: "job-queue"},
		{Timestamp: ts.Add(time.Second), InstanceID: "inst-aaaa-bbbb", Kind: trace.KindMutex, Op: trace.OpLock, Outcome: trace.OutcomeOK, Label: "job-queue"},
		{Timestamp: ts, InstanceID: "inst-cccc-dddd", Kind: trace.KindCell, Op: trace.OpNew, Outcome: trace.OutcomeOK},
	}

	path := createTestTraceFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	// Check instance count
	if !strings.Contains(output, "Instances: 2") {
		t.Errorf("expected 2 instances in output, got:\n%s", output)
	}

	// Check instance details in the table
	if !strings.Contains(output, "inst-aaa") {
		t.Error("expected inst-aaaa instance details")
	}
	if !strings.Contains(output, "job-queue") {
		t.Error("expected instance label in output")
	}
}

func TestStatsTotalEvents(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []trace.Event{
		{Timestamp: ts, InstanceID: "a", Kind: trace.KindCell, Op: trace.OpNew, Outcome: trace.OutcomeOK},
		{Timestamp: ts, InstanceID: "a", Kind: trace.KindCell, Op: trace.OpBorrow, Outcome: trace.OutcomeOK},
		{Timestamp: ts, InstanceID: "a", Kind: trace.KindCell, Op: trace.OpRelease, Outcome: trace.OutcomeOK},
	}

	path := createTestTraceFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Total Events: 3") {
		t.Errorf("expected 3 total events in output, got:\n%s", output)
	}
}

func TestStatsTimeRange(t *testing.T) {
	start := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 28, 11, 0, 0, 0, time.UTC)
	events := []trace.Event{
		{Timestamp: start, InstanceID: "a", Kind: trace.KindCell, Op: trace.OpNew, Outcome: trace.OutcomeOK},
		{Timestamp: end, InstanceID: "a", Kind: trace.KindCell, Op: trace.OpFinalize, Outcome: trace.OutcomeOK},
	}

	path := createTestTraceFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Duration:") {
		t.Error("expected Duration in output")
	}
	if !strings.Contains(output, "1h0m0s") {
		t.Errorf("expected 1h0m0s duration in output, got:\n%s", output)
	}
}

func TestStatsFailureCount(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []trace.Event{
		{Timestamp: ts, InstanceID: "a", Kind: trace.KindCell, Op: trace.OpBorrow, Outcome: trace.OutcomeOK},
		{Timestamp: ts, InstanceID: "a", Kind: trace.KindCell, Op: trace.OpBorrowMut, Outcome: trace.OutcomeConflict},
		{Timestamp: ts, InstanceID: "b", Kind: trace.KindMutex, Op: trace.OpTryLock, Outcome: trace.OutcomeWouldBlock},
	}

	path := createTestTraceFile(t, events)

	var buf bytes.Buffer
	err := RunStats(path, &buf)
	if err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Failed Operations: 2") {
		t.Errorf("expected 2 failed operations in output, got:\n%s", output)
	}
}
