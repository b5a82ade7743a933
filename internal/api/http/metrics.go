package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/PromptScraper/internal/sandbox"
)

// MetricsHandler exposes collected metrics in Prometheus and JSON form
type MetricsHandler struct {
	metrics  *monitoring.Metrics
	pool     PoolStatter
	breakers map[string]func() resilience.State
}

// NewMetricsHandler creates a metrics handler. pool may be nil.
func NewMetricsHandler(metrics *monitoring.Metrics, pool PoolStatter) *MetricsHandler {
	return &MetricsHandler{
		metrics:  metrics,
		pool:     pool,
		breakers: make(map[string]func() resilience.State),
	}
}

// WithBreaker reports the named circuit breaker in the JSON summary
func (h *MetricsHandler) WithBreaker(name string, state func() resilience.State) *MetricsHandler {
	h.breakers[name] = state
	return h
}

// MetricsSnapshot is the JSON view of the running service
type MetricsSnapshot struct {
	Timestamp time.Time           `json:"timestamp"`
	Totals    monitoring.Snapshot `json:"totals"`
	Summary   MetricsSummary      `json:"summary"`
	Sandbox   *sandbox.PoolStats  `json:"sandbox,omitempty"`
	Breakers  map[string]string   `json:"breakers,omitempty"`
}

// MetricsSummary provides high-level ratios
type MetricsSummary struct {
	AverageLatencyMs float64 `json:"average_latency_ms"`
	ErrorRate        float64 `json:"error_rate"`
	SuccessRate      float64 `json:"execution_success_rate"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

// Prometheus serves the text exposition format
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Summary serves a JSON snapshot
func (h *MetricsHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.Snapshot())
}

// Snapshot assembles the JSON view
func (h *MetricsHandler) Snapshot() MetricsSnapshot {
	totals := h.metrics.Snapshot()
	snap := MetricsSnapshot{
		Timestamp: time.Now(),
		Totals:    totals,
		Summary: MetricsSummary{
			AverageLatencyMs: totals.AvgDurationSec * 1000,
			UptimeSeconds:    totals.UptimeSec,
		},
	}
	if totals.TotalRequests > 0 {
		snap.Summary.ErrorRate = float64(totals.TotalErrors) / float64(totals.TotalRequests)
	}
	if totals.Executions > 0 {
		snap.Summary.SuccessRate = float64(totals.Succeeded) / float64(totals.Executions)
	}
	if h.pool != nil {
		stats := h.pool.Stats()
		snap.Sandbox = &stats
	}
	if len(h.breakers) > 0 {
		snap.Breakers = make(map[string]string, len(h.breakers))
		for name, state := range h.breakers {
			snap.Breakers[name] = state().String()
		}
	}
	return snap
}
