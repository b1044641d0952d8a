package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec
	QueryCount      *prometheus.CounterVec
	CacheHits       prometheus.Counter
	HealthStatus    prometheus.Gauge

	registry *prometheus.Registry
	handler  http.Handler
}

func NewMetrics() *Metrics {
	m := &Metrics{
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status_code"},
		),
		ResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint", "status_code"},
		),
		QueryCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bar_queries_total",
				Help: "Total number of constructed bar queries",
			},
			[]string{"outcome"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bar_query_cache_hits_total",
				Help: "Total number of answers served from the memory layer",
			},
		),
		HealthStatus: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "app_health_status",
				Help: "Application health status (1 = healthy, 0 = unhealthy)",
			},
		),
	}

	return m
}

func (m *Metrics) RecordRequest(method, endpoint string, statusCode int, duration time.Duration, responseSize int64) {
	status := strconv.Itoa(statusCode)

	m.RequestCount.WithLabelValues(method, endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, endpoint, status).Observe(float64(responseSize))
}

func (m *Metrics) RecordQuery(outcome string) {
	m.QueryCount.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

func (m *Metrics) SetHealthStatus(healthy bool) {
	if healthy {
		m.HealthStatus.Set(1)
	} else {
		m.HealthStatus.Set(0)
	}
}

func (m *Metrics) Handler() http.Handler {
	if m.handler != nil {
		return m.handler
	}
	return promhttp.Handler()
}

// Register registers all metrics with a private registry so tests can
// instantiate Metrics more than once per process.
func (m *Metrics) Register() error {
	m.registry = prometheus.NewRegistry()

	collectors := []prometheus.Collector{
		m.RequestCount,
		m.RequestDuration,
		m.ResponseSize,
		m.QueryCount,
		m.CacheHits,
		m.HealthStatus,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return err
		}
	}

	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return nil
}
