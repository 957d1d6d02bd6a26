package handle

import "github.com/tether-dev/tether-go/pkg/trace"

type config struct {
	tracer trace.Tracer
	label  string
}

// Option configures a handle allocation at construction.
type Option func(*config)

// WithTracer attaches a tracer that receives this allocation's events.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) { c.tracer = t }
}

// WithLabel sets a human-readable label included in trace events.
func WithLabel(label string) Option {
	return func(c *config) { c.label = label }
}
