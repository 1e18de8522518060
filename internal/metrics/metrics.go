// Package metrics exposes Prometheus counters for crawl, transcription and
// trend collection. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trendcrawl"

type Metrics struct {
	PagesFetched       *prometheus.CounterVec
	VideosTranscribed  *prometheus.CounterVec
	CacheLookups       *prometheus.CounterVec
	CollectorRuns      *prometheus.CounterVec
	FallbackActivated  prometheus.Counter
	TranscribeDuration prometheus.Histogram
}

// New creates and registers all metrics on reg (the default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		PagesFetched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "pages_total",
			Help:      "Pages processed by the crawl engine, by status",
		}, []string{"status"}),
		VideosTranscribed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "transcriptions_total",
			Help:      "Transcription attempts, by result",
		}, []string{"result"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trends",
			Name:      "cache_lookups_total",
			Help:      "Snapshot cache lookups, by outcome",
		}, []string{"outcome"}),
		CollectorRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trends",
			Name:      "collector_runs_total",
			Help:      "Collector invocations, by source and result",
		}, []string{"source", "result"}),
		FallbackActivated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trends",
			Name:      "fallback_total",
			Help:      "Collections that fell back to static content",
		}),
		TranscribeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "transcribe_seconds",
			Help:      "Wall time of a full transcription (extraction + inference)",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}),
	}
}

func (m *Metrics) Page(status string) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(status).Inc()
}

func (m *Metrics) Transcription(result string, seconds float64) {
	if m == nil {
		return
	}
	m.VideosTranscribed.WithLabelValues(result).Inc()
	m.TranscribeDuration.Observe(seconds)
}

func (m *Metrics) Cache(outcome string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Collector(source, result string) {
	if m == nil {
		return
	}
	m.CollectorRuns.WithLabelValues(source, result).Inc()
}

func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.FallbackActivated.Inc()
}
