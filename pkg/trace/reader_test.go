package trace

import (
	"io"
	"path/filepath"
	"testing"
	"time"
)

func createTestTraceFile(t *testing.T, events []Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.ttr")

	tracer, err := NewFileTracer(path)
	if err != nil {
		t.Fatalf("failed to create test trace: %v", err)
	}

	for _, e := range events {
		tracer.Trace(e)
	}
	tracer.Close()

	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var read []Event
	for {
		event, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		read = append(read, event)
	}
	return read
}

func TestReaderIteratesEvents(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), InstanceID: "inst-1", Kind: KindCell, Op: OpNew, Outcome: OutcomeOK},
		{Timestamp: time.Now(), InstanceID: "inst-1", Kind: KindCell, Op: OpBorrow, Outcome: OutcomeOK},
		{Timestamp: time.Now(), InstanceID: "inst-2", Kind: KindMutex, Op: OpLock, Outcome: OutcomeOK},
	}

	path := createTestTraceFile(t, events)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)

	if len(read) != 3 {
		t.Fatalf("got %d events, want 3", len(read))
	}

	// Verify order
	if read[0].Op != OpNew {
		t.Errorf("first event Op = %v, want %v", read[0].Op, OpNew)
	}
	if read[2].InstanceID != "inst-2" {
		t.Errorf("last event InstanceID = %q, want %q", read[2].InstanceID, "inst-2")
	}
}

func TestReaderHandlesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.ttr")

	tracer, _ := NewFileTracer(path)
	tracer.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	event, err := reader.Next()
	if err != io.EOF {
		t.Errorf("expected io.EOF, got err=%v, event=%+v", err, event)
	}
}

func TestReaderFilterByInstanceID(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), InstanceID: "inst-A", Kind: KindCell, Op: OpBorrow, Outcome: OutcomeOK},
		{Timestamp: time.Now(), InstanceID: "inst-B", Kind: KindCell, Op: OpBorrow, Outcome: OutcomeOK},
		{Timestamp: time.Now(), InstanceID: "inst-A", Kind: KindCell, Op: OpRelease, Outcome: OutcomeOK},
		{Timestamp: time.Now(), InstanceID: "inst-C", Kind: KindMutex, Op: OpLock, Outcome: OutcomeOK},
	}

	path := createTestTraceFile(t, events)

	reader, err := NewFilteredReader(path, Filter{InstanceID: "inst-A"})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)

	if len(read) != 2 {
		t.Fatalf("got %d events, want 2", len(read))
	}

	for _, e := range read {
		if e.InstanceID != "inst-A" {
			t.Errorf("event has InstanceID=%q, want %q", e.InstanceID, "inst-A")
		}
	}
}

func TestReaderFilterByOutcome(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), InstanceID: "inst-1", Kind: KindCell, Op: OpTryBorrowMut, Outcome: OutcomeConflict},
		{Timestamp: time.Now(), InstanceID: "inst-1", Kind: KindCell, Op: OpBorrow, Outcome: OutcomeOK},
		{Timestamp: time.Now(), InstanceID: "inst-2", Kind: KindCell, Op: OpTryBorrowMut, Outcome: OutcomeConflict},
		{Timestamp: time.Now(), InstanceID: "inst-3", Kind: KindMutex, Op: OpTryLock, Outcome: OutcomeWouldBlock},
	}

	path := createTestTraceFile(t, events)

	outcome := OutcomeConflict
	reader, err := NewFilteredReader(path, Filter{Outcome: &outcome})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)

	if len(read) != 2 {
		t.Fatalf("got %d events, want 2", len(read))
	}

	for _, e := range read {
		if e.Outcome != OutcomeConflict {
			t.Errorf("event has Outcome=%v, want %v", e.Outcome, OutcomeConflict)
		}
	}
}

func TestReaderFilterByTimeRange(t *testing.T) {
	baseTime := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	events := []Event{
		{Timestamp: baseTime.Add(-1 * time.Hour), InstanceID: "inst-1", Kind: KindCell, Op: OpNew, Outcome: OutcomeOK},
		{Timestamp: baseTime, InstanceID: "inst-2", Kind: KindCell, Op: OpNew, Outcome: OutcomeOK},
		{Timestamp: baseTime.Add(30 * time.Minute), InstanceID: "inst-3", Kind: KindCell, Op: OpNew, Outcome: OutcomeOK},
		{Timestamp: baseTime.Add(2 * time.Hour), InstanceID: "inst-4", Kind: KindCell, Op: OpNew, Outcome: OutcomeOK},
	}

	path := createTestTraceFile(t, events)

	start := baseTime.Add(-5 * time.Minute)
	end := baseTime.Add(1 * time.Hour)
	reader, err := NewFilteredReader(path, Filter{
		TimeStart: &start,
		TimeEnd:   &end,
	})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)

	if len(read) != 2 {
		t.Fatalf("got %d events, want 2 (events within time range)", len(read))
	}

	if read[0].InstanceID != "inst-2" {
		t.Errorf("first event InstanceID = %q, want %q", read[0].InstanceID, "inst-2")
	}
	if read[1].InstanceID != "inst-3" {
		t.Errorf("second event InstanceID = %q, want %q", read[1].InstanceID, "inst-3")
	}
}

func TestReaderCombinedFilters(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), InstanceID: "inst-A", Kind: KindCell, Op: OpBorrow, Outcome: OutcomeOK},
		{Timestamp: time.Now(), InstanceID: "inst-A", Kind: KindMutex, Op: OpLock, Outcome: OutcomeOK},
		{Timestamp: time.Now(), InstanceID: "inst-B", Kind: KindMutex, Op: OpLock, Outcome: OutcomeOK},
		{Timestamp: time.Now(), InstanceID: "inst-A", Kind: KindMutex, Op: OpTryLock, Outcome: OutcomeWouldBlock},
	}

	path := createTestTraceFile(t, events)

	kind := KindMutex
	outcome := OutcomeWouldBlock
	reader, err := NewFilteredReader(path, Filter{
		InstanceID: "inst-A",
		Kind:       &kind,
		Outcome:    &outcome,
	})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)

	// Only the last event matches all criteria
	if len(read) != 1 {
		t.Fatalf("got %d events, want 1", len(read))
	}

	if read[0].InstanceID != "inst-A" || read[0].Kind != KindMutex || read[0].Outcome != OutcomeWouldBlock {
		t.Error("event doesn't match all filter criteria")
	}
}

func TestReaderFilterByLabel(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), InstanceID: "inst-1", Kind: KindCell, Op: OpNew, Outcome: OutcomeOK, Label: "config"},
		{Timestamp: time.Now(), InstanceID: "inst-2", Kind: KindCell, Op: OpNew, Outcome: OutcomeOK, Label: "state"},
		{Timestamp: time.Now(), InstanceID: "inst-1", Kind: KindCell, Op: OpBorrow, Outcome: OutcomeOK, Label: "config"},
	}

	path := createTestTraceFile(t, events)

	reader, err := NewFilteredReader(path, Filter{Label: "config"})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)

	if len(read) != 2 {
		t.Fatalf("got %d events, want 2", len(read))
	}

	for _, e := range read {
		if e.Label != "config" {
			t.Errorf("event has Label=%q, want %q", e.Label, "config")
		}
	}
}
