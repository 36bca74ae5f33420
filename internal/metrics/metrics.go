package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics interface for dependency injection
type Metrics interface {
	RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration)
	RecordPoll(source, outcome string, duration time.Duration)
	RecordAlertsParsed(source string, count int)
	RecordNotification(source, outcome string)
	SetDBConnectionsActive(count float64)
	RecordDBQuery(operation, status string)
	Handler() http.Handler
}

// NoOpMetrics provides a no-op implementation
type NoOpMetrics struct{}

func (m *NoOpMetrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
}
func (m *NoOpMetrics) RecordPoll(source, outcome string, duration time.Duration) {}
func (m *NoOpMetrics) RecordAlertsParsed(source string, count int)               {}
func (m *NoOpMetrics) RecordNotification(source, outcome string)                 {}
func (m *NoOpMetrics) SetDBConnectionsActive(count float64)                      {}
func (m *NoOpMetrics) RecordDBQuery(operation, status string)                    {}
func (m *NoOpMetrics) Handler() http.Handler                                     { return http.NotFoundHandler() }

// PrometheusMetrics exports everything on its own registry
type PrometheusMetrics struct {
	registry      *prometheus.Registry
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	polls         *prometheus.CounterVec
	pollDuration  *prometheus.HistogramVec
	alertsParsed  *prometheus.CounterVec
	notifications *prometheus.CounterVec
	dbConnections prometheus.Gauge
	dbQueries     *prometheus.CounterVec
}

// NewPrometheus registers the monitor's collectors on a fresh registry
func NewPrometheus() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sasmex_http_requests_total",
			Help: "API requests by method, route and status.",
		}, []string{"method", "endpoint", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sasmex_http_request_duration_seconds",
			Help:    "API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		polls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sasmex_polls_total",
			Help: "Feed poll cycles by source and outcome.",
		}, []string{"source", "outcome"}),
		pollDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sasmex_poll_duration_seconds",
			Help:    "Duration of a fetch, parse, dedupe and notify cycle.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"source"}),
		alertsParsed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sasmex_records_parsed_total",
			Help: "Records built from fetched feeds.",
		}, []string{"source"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sasmex_notifications_total",
			Help: "Notifications by source and outcome.",
		}, []string{"source", "outcome"}),
		dbConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "sasmex_db_connections_active",
			Help: "Acquired database connections.",
		}),
		dbQueries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sasmex_db_queries_total",
			Help: "Store operations by kind and status.",
		}, []string{"operation", "status"}),
	}
}

func (m *PrometheusMetrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordPoll(source, outcome string, duration time.Duration) {
	m.polls.WithLabelValues(source, outcome).Inc()
	m.pollDuration.WithLabelValues(source).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordAlertsParsed(source string, count int) {
	m.alertsParsed.WithLabelValues(source).Add(float64(count))
}

func (m *PrometheusMetrics) RecordNotification(source, outcome string) {
	m.notifications.WithLabelValues(source, outcome).Inc()
}

func (m *PrometheusMetrics) SetDBConnectionsActive(count float64) {
	m.dbConnections.Set(count)
}

func (m *PrometheusMetrics) RecordDBQuery(operation, status string) {
	m.dbQueries.WithLabelValues(operation, status).Inc()
}

func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Global metrics instance
var (
	mu            sync.RWMutex
	globalMetrics Metrics = &NoOpMetrics{}
)

// Init switches the process to Prometheus metrics when enabled
func Init(enabled bool) {
	if enabled {
		Set(NewPrometheus())
		return
	}
	Set(&NoOpMetrics{})
}

// Set replaces the global metrics implementation
func Set(m Metrics) {
	mu.Lock()
	defer mu.Unlock()
	globalMetrics = m
}

func current() Metrics {
	mu.RLock()
	defer mu.RUnlock()
	return globalMetrics
}

// Handler returns the metrics handler
func Handler() http.Handler {
	return current().Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	current().RecordHTTPRequest(method, endpoint, statusCode, duration)
}

// RecordPoll records one poll cycle
func RecordPoll(source, outcome string, duration time.Duration) {
	current().RecordPoll(source, outcome, duration)
}

// RecordAlertsParsed counts records built in a cycle
func RecordAlertsParsed(source string, count int) {
	current().RecordAlertsParsed(source, count)
}

// RecordNotification records a notification attempt
func RecordNotification(source, outcome string) {
	current().RecordNotification(source, outcome)
}

// SetDBConnectionsActive sets the number of active database connections
func SetDBConnectionsActive(count float64) {
	current().SetDBConnectionsActive(count)
}

// RecordDBQuery records database query metrics
func RecordDBQuery(operation, status string) {
	current().RecordDBQuery(operation, status)
}
