// Package metrics implements observability.Handle on top of
// prometheus/client_golang, so cmd/scoreservice can expose proof-latency
// and score-distribution counters without the core ever importing a
// metrics library directly.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusHandle logs through the standard library exactly like
// observability.NewStdHandle, and additionally records durations/counts
// into Prometheus metrics registered under the zk_credit_score namespace.
type PrometheusHandle struct {
	component string
	durations *prometheus.HistogramVec
	counters  *prometheus.CounterVec
}

// NewPrometheusHandle registers the service's metrics and returns a handle
// for the given component name (e.g. "scoreservice").
func NewPrometheusHandle(component string) *PrometheusHandle {
	return &PrometheusHandle{
		component: component,
		durations: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "zk_credit_score",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of a pipeline stage (feature_extraction, scoring, witness_format, proof_generation).",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		counters: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zk_credit_score",
			Name:      "events_total",
			Help:      "Count of named pipeline events (witness_generated, proof_verification_failed, ...).",
		}, []string{"event"}),
	}
}

func (h *PrometheusHandle) Infof(format string, args ...any) {
	log.Printf("[%s] "+format, append([]any{h.component}, args...)...)
}

func (h *PrometheusHandle) Warnf(format string, args ...any) {
	log.Printf("[%s] WARNING: "+format, append([]any{h.component}, args...)...)
}

func (h *PrometheusHandle) Errorf(format string, args ...any) {
	log.Printf("[%s] ERROR: "+format, append([]any{h.component}, args...)...)
}

func (h *PrometheusHandle) ObserveDuration(stage string, seconds float64) {
	h.durations.WithLabelValues(stage).Observe(seconds)
}

func (h *PrometheusHandle) IncCounter(name string) {
	h.counters.WithLabelValues(name).Inc()
}
