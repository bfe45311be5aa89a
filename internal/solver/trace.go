package solver

import "fmt"

// tracer collects human-readable steps when Options.Debug is set; when not,
// logf is a no-op so callers don't pay for formatting they never read.
type tracer struct {
	enabled bool
	lines   []string
}

func newTracer(enabled bool) *tracer {
	return &tracer{enabled: enabled}
}

func (t *tracer) logf(format string, args ...any) {
	if !t.enabled {
		return
	}
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}
