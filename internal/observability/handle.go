// Package observability injects logging and metrics into the core without
// making either a hard dependency of the scoring, feature-extraction,
// aggregation, witness, or proving packages. Collaborators that log
// (scoring.ReadableEngine, cmd/scoreservice's HTTP handlers) take a
// Handle; a caller that wants no ambient logging at all passes Null().
package observability

import "log"

// Handle is the logging/metrics sink the core calls into. The owning
// application supplies a concrete Handle; the core never imports a logging
// or metrics library directly.
type Handle interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	// ObserveDuration records a named stage's wall-clock duration in
	// seconds (e.g. "feature_extraction", "proof_generation").
	ObserveDuration(stage string, seconds float64)

	// IncCounter increments a named event counter (e.g.
	// "witness_generated", "proof_verification_failed").
	IncCounter(name string)
}

// stdHandle logs through the standard library "log" package with a
// "[Component]" prefix, the same convention cmd/scoreengine/main.go uses.
// It discards metrics.
type stdHandle struct {
	component string
}

// NewStdHandle returns a Handle that logs via the standard "log" package.
// component is used as the "[Component]" prefix.
func NewStdHandle(component string) Handle {
	return &stdHandle{component: component}
}

func (h *stdHandle) Infof(format string, args ...any) {
	log.Printf("[%s] "+format, append([]any{h.component}, args...)...)
}

func (h *stdHandle) Warnf(format string, args ...any) {
	log.Printf("[%s] WARNING: "+format, append([]any{h.component}, args...)...)
}

func (h *stdHandle) Errorf(format string, args ...any) {
	log.Printf("[%s] ERROR: "+format, append([]any{h.component}, args...)...)
}

func (h *stdHandle) ObserveDuration(stage string, seconds float64) {}

func (h *stdHandle) IncCounter(name string) {}

type nullHandle struct{}

// Null returns a Handle that discards everything. Used by tests and by any
// caller that does not want ambient logging.
func Null() Handle { return nullHandle{} }

func (nullHandle) Infof(string, ...any)          {}
func (nullHandle) Warnf(string, ...any)          {}
func (nullHandle) Errorf(string, ...any)         {}
func (nullHandle) ObserveDuration(string, float64) {}
func (nullHandle) IncCounter(string)             {}
