package scope

import (
	"go.uber.org/zap"
)

// Tracer receives key/value lines describing policy and resolver decisions.
// Implementations must not influence outcomes.
type Tracer interface {
	Trace(key, value string)
}

// TraceFunc adapts a function to Tracer.
type TraceFunc func(key, value string)

// Trace calls f.
func (f TraceFunc) Trace(key, value string) { f(key, value) }

type nopTracer struct{}

func (nopTracer) Trace(string, string) {}

// NopTracer discards everything.
var NopTracer Tracer = nopTracer{}

// NewZapTracer returns a Tracer that writes lines at debug level.
func NewZapTracer(logger *zap.Logger) Tracer {
	log := logger.With(zap.String("component", "scope.trace"))
	return TraceFunc(func(key, value string) {
		log.Debug(key, zap.String("detail", value))
	})
}

// lineTracer collects "key:value" lines for diagnostics and forwards to next.
// Only used from the goroutine running a single preview.
type lineTracer struct {
	lines []string
	next  Tracer
}

func newLineTracer(next Tracer) *lineTracer {
	if next == nil {
		next = NopTracer
	}
	return &lineTracer{lines: []string{}, next: next}
}

func (t *lineTracer) Trace(key, value string) {
	if value == "" {
		t.lines = append(t.lines, key)
	} else {
		t.lines = append(t.lines, key+":"+value)
	}
	t.next.Trace(key, value)
}
