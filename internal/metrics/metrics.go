package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the crawler collectors on a private registry so tests can
// create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	sourceResults *prometheus.CounterVec
	ingestResults *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastRunTS     prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.sourceResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notice_crawler",
		Name:      "source_results_total",
		Help:      "Crawl outcomes per source",
	}, []string{"source", "status"})
	m.ingestResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notice_crawler",
		Name:      "ingest_results_total",
		Help:      "Ingestion API outcomes",
	}, []string{"status"})
	m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "notice_crawler",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of a full crawl run",
		Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
	})
	m.lastRunTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "notice_crawler",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last crawl run finished",
	})

	m.registry.MustRegister(
		m.sourceResults,
		m.ingestResults,
		m.runDuration,
		m.lastRunTS,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// SourceResult counts one per-source outcome. Safe on a nil receiver.
func (m *Metrics) SourceResult(source, status string) {
	if m == nil {
		return
	}
	m.sourceResults.WithLabelValues(source, status).Inc()
}

func (m *Metrics) IngestResult(status string) {
	if m == nil {
		return
	}
	m.ingestResults.WithLabelValues(status).Inc()
}

func (m *Metrics) RunFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
	m.lastRunTS.SetToCurrentTime()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
