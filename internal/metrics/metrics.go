// Package metrics exposes operational measurements in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

var _ driven.MetricsRecorder = (*Recorder)(nil)

const namespace = "atlas"

// Recorder implements driven.MetricsRecorder on a private registry
type Recorder struct {
	registry *prometheus.Registry

	sessions           prometheus.Gauge
	queueDepth         prometheus.Gauge
	busy               prometheus.Gauge
	takeovers          prometheus.Counter
	queries            *prometheus.CounterVec
	collectionFailures *prometheus.CounterVec
	fallbacks          *prometheus.CounterVec
	searchLatency      prometheus.Histogram
	generationLatency  prometheus.Histogram
}

// NewRecorder registers every collector, including Go runtime and process collectors
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "sessions_connected",
			Help: "Number of connected client sessions.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "inference_queue_depth",
			Help: "Number of sessions waiting for the inference slot.",
		}),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "inference_busy",
			Help: "1 while a request holds the inference slot.",
		}),
		takeovers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "session_takeovers_total",
			Help: "Connections that evicted another holder of the same access code.",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "queries_total",
			Help: "Answered queries by classified intent.",
		}, []string{"intent"}),
		collectionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "collection_failures_total",
			Help: "Failed or timed out per-collection searches.",
		}, []string{"collection"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fallbacks_total",
			Help: "Degraded answers by pipeline stage.",
		}, []string{"stage"}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "search_duration_seconds",
			Help:    "Site search latency.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		generationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "generation_duration_seconds",
			Help:    "Answer generation latency.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.sessions, r.queueDepth, r.busy, r.takeovers,
		r.queries, r.collectionFailures, r.fallbacks,
		r.searchLatency, r.generationLatency,
	)
	return r
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) SetAdmission(sessions, queueDepth int, busy bool) {
	r.sessions.Set(float64(sessions))
	r.queueDepth.Set(float64(queueDepth))
	if busy {
		r.busy.Set(1)
	} else {
		r.busy.Set(0)
	}
}

func (r *Recorder) IncTakeover() {
	r.takeovers.Inc()
}

func (r *Recorder) IncQuery(intent string) {
	r.queries.WithLabelValues(intent).Inc()
}

func (r *Recorder) IncCollectionFailure(collection string) {
	r.collectionFailures.WithLabelValues(collection).Inc()
}

func (r *Recorder) IncFallback(stage string) {
	r.fallbacks.WithLabelValues(stage).Inc()
}

func (r *Recorder) ObserveSearch(d time.Duration) {
	r.searchLatency.Observe(d.Seconds())
}

func (r *Recorder) ObserveGeneration(d time.Duration) {
	r.generationLatency.Observe(d.Seconds())
}
