package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/config"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/logging"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Logging.Development = true
	cfg.Fetch.RenderEnabled = false
	cfg.Sandbox.PoolSize = 1
	cfg.RateLimit.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := NewServer(cfg, &logging.Logger{Logger: zap.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func do(s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestBuildWithoutOptionalServices(t *testing.T) {
	c, err := Build(testConfig(), &logging.Logger{Logger: zap.NewNop()})
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Renderer)
	assert.Nil(t, c.CodeGen)
	assert.NotNil(t, c.Service)
	assert.Equal(t, []string{"minimal"}, rankNames(c.Ladder.Ranks()))
	assert.Equal(t, 3, c.Orchestrator.MaxRetries())
}

func TestBuildWithRenderer(t *testing.T) {
	cfg := testConfig()
	cfg.Fetch.RenderEnabled = true

	c, err := Build(cfg, &logging.Logger{Logger: zap.NewNop()})
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Renderer)
	assert.Equal(t, []string{"rendered", "minimal"}, rankNames(c.Ladder.Ranks()))
}

func TestBuildRejectsBadHostPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Fetch.DeniedHostGlobs = []string{"[unclosed"}

	_, err := Build(cfg, &logging.Logger{Logger: zap.NewNop()})
	assert.ErrorContains(t, err, "invalid host policy")
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		status   int
		contains string
	}{
		{"root", http.MethodGet, "/", "", http.StatusOK, `"service":"PromptScraper"`},
		{"health", http.MethodGet, "/health", "", http.StatusOK, `"status":"healthy"`},
		{"prometheus", http.MethodGet, "/metrics", "", http.StatusOK, "scraper_"},
		{"metrics json", http.MethodGet, "/metrics/json", "", http.StatusOK, `"breakers":{"fetch":"closed"}`},
		{"missing prompt", http.MethodPost, "/scrape", `{"url":"example.com"}`, http.StatusBadRequest, "prompt is required"},
		{"no generator", http.MethodPost, "/scrape", `{"prompt":"p","url":"example.com"}`, http.StatusBadGateway, "no generator configured"},
		{"csv no generator", http.MethodPost, "/scrape/csv", `{"prompt":"p","url":"example.com"}`, http.StatusBadGateway, "no generator configured"},
		{"unknown format", http.MethodPost, "/scrape/xml", `{"prompt":"p","url":"example.com"}`, http.StatusBadRequest, "unknown format"},
		{"unmatched", http.MethodGet, "/nope", "", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestRateLimitedScrapes(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerSecond = 1
	cfg.RateLimit.Burst = 1
	s := newTestServer(t, cfg)

	body := `{"url":"example.com"}`
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/scrape", body, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(s, http.MethodPost, "/scrape", body, nil).Code)
	// Health is outside the limited group.
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/health", "", nil).Code)
}

func TestMetricsCountRequests(t *testing.T) {
	s := newTestServer(t, testConfig())

	do(s, http.MethodGet, "/health", "", nil)
	do(s, http.MethodPost, "/scrape", `{}`, nil)

	snap := s.Components().Metrics.Snapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}

func TestCompression(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := do(s, http.MethodGet, "/metrics", "", map[string]string{"Accept-Encoding": "gzip"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}
