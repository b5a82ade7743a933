package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Execution metrics
	Executions       *prometheus.CounterVec
	Attempts         *prometheus.CounterVec
	GateRejections   *prometheus.CounterVec
	FallbackTiers    *prometheus.CounterVec
	EvalDuration     prometheus.Histogram
	RecordsExtracted prometheus.Histogram

	// Dependency metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec
	BreakerState    *prometheus.GaugeVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for the JSON status endpoint
type Snapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	Executions     int64   `json:"executions"`
	Succeeded      int64   `json:"succeeded"`
	AvgDurationSec float64 `json:"avg_request_duration_seconds"`
	UptimeSec      float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics creates a metrics collector backed by its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_executions_total",
				Help: "Top-level executions by terminal result",
			},
			[]string{"result"},
		),
		Attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_attempts_total",
				Help: "Evaluation attempts by outcome",
			},
			[]string{"outcome"},
		),
		GateRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_gate_rejections_total",
				Help: "Static gate rejections by capability",
			},
			[]string{"capability"},
		),
		FallbackTiers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_fallback_tiers_total",
				Help: "Fallback tier invocations by tier and status",
			},
			[]string{"tier", "status"},
		),
		EvalDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scraper_sandbox_eval_duration_seconds",
				Help:    "Sandbox evaluation duration in seconds",
				Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10},
			},
		),
		RecordsExtracted: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scraper_records_extracted",
				Help:    "Validated records returned per successful execution",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 500},
			},
		),

		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_service_calls_total",
				Help: "Total number of external dependency calls",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_service_duration_seconds",
				Help:    "External dependency call duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"service", "method"},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scraper_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordExecution records the terminal result of one top-level execution
func (m *Metrics) RecordExecution(result string, records int) {
	m.Executions.WithLabelValues(result).Inc()
	if records > 0 {
		m.RecordsExtracted.Observe(float64(records))
	}

	m.mu.Lock()
	m.snapshot.Executions++
	if result == "succeeded" {
		m.snapshot.Succeeded++
	}
	m.mu.Unlock()
}

// RecordAttempt records one evaluation attempt
func (m *Metrics) RecordAttempt(outcome string, duration time.Duration) {
	m.Attempts.WithLabelValues(outcome).Inc()
	if duration > 0 {
		m.EvalDuration.Observe(duration.Seconds())
	}
}

// RecordGateRejection records a static gate rejection
func (m *Metrics) RecordGateRejection(capability string) {
	m.GateRejections.WithLabelValues(capability).Inc()
}

// RecordFallbackTier records one fallback tier invocation
func (m *Metrics) RecordFallbackTier(tier, status string) {
	m.FallbackTiers.WithLabelValues(tier, status).Inc()
}

// RecordServiceCall records an external dependency call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// SetBreakerState records a breaker transition
func (m *Metrics) SetBreakerState(name string, state int) {
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns a copy of the running totals
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AvgDurationSec = s.totalDuration / float64(s.TotalRequests)
	}
	s.UptimeSec = time.Since(m.startTime).Seconds()
	return s
}
