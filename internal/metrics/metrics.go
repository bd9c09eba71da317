// Package metrics exposes Prometheus instrumentation for the dashboard
// server: HTTP traffic, dataset loads and page section failures.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pm10dash"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	loads          *prometheus.CounterVec
	loadLatency    prometheus.Histogram
	sectionErrors  *prometheus.CounterVec
	rows           prometheus.Gauge
}

// New creates and registers the dashboard collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset file reads, by outcome.",
		}, []string{"result"}),
		loadLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time spent reading and parsing the dataset file.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		sectionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "section_errors_total",
			Help:      "Dashboard sections that failed to render, by section.",
		}, []string{"section"}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the most recently loaded dataset.",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestLatency,
		m.loads,
		m.loadLatency,
		m.sectionErrors,
		m.rows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served request. route should be the route
// template, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(route, method string, status int, took time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(route).Observe(took.Seconds())
}

// ObserveLoad records one dataset read. It matches dataset.LoadObserver.
func (m *Metrics) ObserveLoad(fileName string, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.loads.WithLabelValues(result).Inc()
	m.loadLatency.Observe(took.Seconds())
}

// SetRows records the row count of the active dataset
func (m *Metrics) SetRows(n int) {
	m.rows.Set(float64(n))
}

// SectionFailed counts a dashboard section that rendered an inline error
func (m *Metrics) SectionFailed(section string) {
	m.sectionErrors.WithLabelValues(section).Inc()
}
