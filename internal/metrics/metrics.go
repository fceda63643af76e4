package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects widget metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	gatherer         prometheus.Gatherer
	dialogueRequests *prometheus.CounterVec
	dialogueDuration prometheus.Histogram
	sessionsMounted  prometheus.Gauge
	revealsCancelled prometheus.Counter
}

// New registers the widget collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		gatherer: reg,
		dialogueRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "widget",
			Name:      "dialogue_requests_total",
			Help:      "Dialogue round trips by outcome.",
		}, []string{"outcome"}),
		dialogueDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "widget",
			Name:      "dialogue_request_duration_seconds",
			Help:      "Latency of dialogue round trips.",
			Buckets:   prometheus.DefBuckets,
		}),
		sessionsMounted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "widget",
			Name:      "sessions_mounted",
			Help:      "Conversation views currently mounted.",
		}),
		revealsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "widget",
			Name:      "reveals_cancelled_total",
			Help:      "Text reveals torn down before completion.",
		}),
	}
	reg.MustRegister(
		r.dialogueRequests,
		r.dialogueDuration,
		r.sessionsMounted,
		r.revealsCancelled,
		prometheus.NewGoCollector(),
	)
	return r
}

// DialogueCompleted records one finished round trip.
func (r *Recorder) DialogueCompleted(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.dialogueRequests.WithLabelValues(outcome).Inc()
	r.dialogueDuration.Observe(elapsed.Seconds())
}

// SessionMounted increments the mounted gauge.
func (r *Recorder) SessionMounted() {
	if r == nil {
		return
	}
	r.sessionsMounted.Inc()
}

// SessionUnmounted decrements the mounted gauge.
func (r *Recorder) SessionUnmounted() {
	if r == nil {
		return
	}
	r.sessionsMounted.Dec()
}

// RevealCancelled counts a reveal stopped mid-sequence.
func (r *Recorder) RevealCancelled() {
	if r == nil {
		return
	}
	r.revealsCancelled.Inc()
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Gatherer(), promhttp.HandlerOpts{})
}
