package trace

import (
	"testing"
	"time"
)

// recordingTracer captures events for test inspection.
type recordingTracer struct {
	events []Event
}

func (r *recordingTracer) Trace(event Event) {
	r.events = append(r.events, event)
}

func TestMultiTracerFansOut(t *testing.T) {
	a := &recordingTracer{}
	b := &recordingTracer{}

	multi := NewMultiTracer(a, b)

	event := Event{
		Timestamp:  time.Now(),
		InstanceID: "inst-1",
		Kind:       KindCell,
		Op:         OpBorrow,
		Outcome:    OutcomeOK,
	}
	multi.Trace(event)

	if len(a.events) != 1 {
		t.Errorf("first tracer got %d events, want 1", len(a.events))
	}
	if len(b.events) != 1 {
		t.Errorf("second tracer got %d events, want 1", len(b.events))
	}
	if a.events[0].InstanceID != "inst-1" {
		t.Errorf("first tracer event InstanceID = %q, want %q", a.events[0].InstanceID, "inst-1")
	}
}

func TestMultiTracerPreservesOrder(t *testing.T) {
	rec := &recordingTracer{}
	multi := NewMultiTracer(rec)

	for i := 0; i < 5; i++ {
		multi.Trace(Event{
			Timestamp:  time.Now(),
			InstanceID: "inst-1",
			Kind:       KindCell,
			Op:         OpBorrow,
			Outcome:    OutcomeOK,
			Access:     &AccessState{Shared: i + 1},
		})
	}

	if len(rec.events) != 5 {
		t.Fatalf("got %d events, want 5", len(rec.events))
	}
	for i, e := range rec.events {
		if e.Access == nil || e.Access.Shared != i+1 {
			t.Errorf("event %d Access.Shared = %+v, want %d", i, e.Access, i+1)
		}
	}
}

func TestMultiTracerEmpty(t *testing.T) {
	multi := NewMultiTracer()

	// Should not panic with no tracers
	multi.Trace(Event{
		Timestamp:  time.Now(),
		InstanceID: "inst-1",
		Kind:       KindCell,
		Op:         OpNew,
		Outcome:    OutcomeOK,
	})
}
