package trace

// Tracer is the interface applications implement to receive primitive events.
// Pass nil or NoopTracer to disable tracing.
type Tracer interface {
	// Trace records a primitive event. Implementations must be thread-safe.
	// The event should be processed quickly or queued; blocking affects
	// every traced operation.
	Trace(event Event)
}

// NoopTracer discards all events. Use when tracing is disabled.
// NoopTracer is safe for concurrent use and usable as a zero value.
type NoopTracer struct{}

// Trace discards the event.
func (NoopTracer) Trace(Event) {}

// Compile-time interface satisfaction check.
var _ Tracer = NoopTracer{}
