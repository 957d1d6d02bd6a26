package trace

import (
	"context"
	"log/slog"
)

// SlogTracer writes primitive events to an slog.Logger.
// Useful for development when you want to see events in console.
type SlogTracer struct {
	logger *slog.Logger
}

// NewSlogTracer creates a new SlogTracer that writes to the given slog.Logger.
func NewSlogTracer(logger *slog.Logger) *SlogTracer {
	return &SlogTracer{logger: logger}
}

// Trace writes the event to the slog logger at Debug level.
func (s *SlogTracer) Trace(event Event) {
	attrs := []slog.Attr{
		slog.String("instance", event.InstanceID),
		slog.String("kind", event.Kind.String()),
		slog.String("op", event.Op.String()),
		slog.String("outcome", event.Outcome.String()),
	}

	if event.Label != "" {
		attrs = append(attrs, slog.String("label", event.Label))
	}

	// Add type-specific attributes
	switch {
	case event.Access != nil:
		attrs = append(attrs,
			slog.Int("shared", event.Access.Shared),
			slog.Bool("exclusive", event.Access.Exclusive),
		)
		if event.Access.Poisoned {
			attrs = append(attrs, slog.Bool("poisoned", true))
		}
	case event.Counts != nil:
		attrs = append(attrs,
			slog.Int64("strong", event.Counts.Strong),
			slog.Int64("weak", event.Counts.Weak),
		)
	}

	if event.Err != "" {
		attrs = append(attrs, slog.String("err", event.Err))
	}

	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "tether", attrs...)
}

// Compile-time interface satisfaction check.
var _ Tracer = (*SlogTracer)(nil)
