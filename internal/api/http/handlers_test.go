package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/PromptScraper/internal/domain/orchestrator"
	"github.com/GriffinCanCode/PromptScraper/internal/domain/scrape"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/PromptScraper/internal/sandbox"
	"github.com/GriffinCanCode/PromptScraper/internal/shared/id"
)

type stubScraper struct {
	res       *scrape.Result
	err       error
	prompt    string
	url       string
	observers int
}

func (s *stubScraper) Scrape(_ context.Context, prompt, url string, observers ...orchestrator.Observer) (*scrape.Result, error) {
	s.prompt, s.url, s.observers = prompt, url, len(observers)
	return s.res, s.err
}

type stubPool struct{}

func (stubPool) Stats() sandbox.PoolStats { return sandbox.PoolStats{Size: 4, Available: 3, InUse: 1} }

func newRouter(s Scraper) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandlers(s, stubPool{}, nil)
	r := gin.New()
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.POST("/scrape", h.Scrape)
	r.POST("/scrape/:format", h.ScrapeFormat)
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func okResult() *scrape.Result {
	return &scrape.Result{
		RunID:    id.NewRunID(),
		URL:      "https://example.com",
		Records:  []map[string]any{{"title": "A", "price": 10}, {"title": "B", "price": 12}},
		Attempts: 2,
	}
}

func TestRootAndHealth(t *testing.T) {
	r := newRouter(&stubScraper{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(4), body["sandbox"].(map[string]any)["size"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PromptScraper", decode(t, w)["service"])
}

func TestScrapeSuccess(t *testing.T) {
	s := &stubScraper{res: okResult()}
	r := newRouter(s)

	w := post(r, "/scrape", `{"prompt":"titles","url":"example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, float64(2), body["attempts"])
	assert.Len(t, body["data"], 2)
	assert.Equal(t, s.res.RunID.String(), body["run_id"])
	assert.Equal(t, s.res.RunID.String(), w.Header().Get("X-Run-ID"))

	assert.Equal(t, "titles", s.prompt)
	assert.Equal(t, "example.com", s.url)
	assert.Equal(t, 1, s.observers)
}

func TestScrapeErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		status   int
		message  string
		wantKind string
	}{
		{
			name:    "malformed body",
			body:    `{"prompt":`,
			status:  http.StatusBadRequest,
			message: "invalid request body",
		},
		{
			name:    "missing prompt",
			body:    `{"url":"example.com"}`,
			err:     fmt.Errorf("%w: prompt is required", scrape.ErrInvalidRequest),
			status:  http.StatusBadRequest,
			message: "invalid request: prompt is required",
		},
		{
			name: "safety rejected",
			body: `{"prompt":"p","url":"u"}`,
			err: &orchestrator.Error{
				Kind:    orchestrator.ErrSafetyRejected,
				Message: "forbidden capability process: matched child_process",
			},
			status:   http.StatusUnprocessableEntity,
			message:  "forbidden capability process: matched child_process",
			wantKind: "safety_rejected",
		},
		{
			name:    "generation failure",
			body:    `{"prompt":"p","url":"u"}`,
			err:     fmt.Errorf("%w: %w", scrape.ErrGenerate, errors.New("upstream 500")),
			status:  http.StatusBadGateway,
			message: "failed to generate scraping code: upstream 500",
		},
		{
			name: "budget exhausted",
			body: `{"prompt":"p","url":"u"}`,
			err: &orchestrator.Error{
				Kind:    orchestrator.ErrBudgetExhausted,
				Message: orchestrator.MsgBudgetExhausted,
			},
			status:   http.StatusInternalServerError,
			message:  orchestrator.MsgBudgetExhausted,
			wantKind: "budget_exhausted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(&stubScraper{err: tt.err})
			w := post(r, "/scrape", tt.body)

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["error"])
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, body["kind"])
			} else {
				assert.NotContains(t, body, "kind")
			}
		})
	}
}

func TestScrapeFormat(t *testing.T) {
	tests := []struct {
		format      string
		contentType string
		filename    string
		contains    string
	}{
		{"csv", "text/csv; charset=utf-8", "scraped_data.csv", "price,title\n10,A\n12,B\n"},
		{"json", "application/json; charset=utf-8", "scraped_data.json", `"title": "A"`},
		{"yaml", "application/yaml; charset=utf-8", "scraped_data.yaml", "title: A"},
		{"toml", "application/toml; charset=utf-8", "scraped_data.toml", "[[records]]"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r := newRouter(&stubScraper{res: okResult()})
			w := post(r, "/scrape/"+tt.format, `{"prompt":"p","url":"example.com"}`)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename="`+tt.filename+`"`, w.Header().Get("Content-Disposition"))
			assert.Equal(t, "2", w.Header().Get("X-Record-Count"))
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestScrapeFormatUnknown(t *testing.T) {
	s := &stubScraper{res: okResult()}
	r := newRouter(s)

	w := post(r, "/scrape/xml", `{"prompt":"p","url":"example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "unknown format")
	assert.Empty(t, s.prompt, "scrape must not run for an unknown format")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(&orchestrator.Error{Kind: orchestrator.ErrRuntime}))
}

func TestMetricsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := monitoring.NewMetrics()
	m.RecordHTTPRequest("POST", "/scrape", "200", 0, 0, 0)
	m.RecordHTTPRequest("POST", "/scrape", "500", 0, 0, 0)
	m.RecordExecution("succeeded", 3)

	h := NewMetricsHandler(m, stubPool{}).
		WithBreaker("codegen", func() resilience.State { return resilience.StateOpen })

	r := gin.New()
	r.GET("/metrics", h.Prometheus)
	r.GET("/metrics/json", h.Summary)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics/json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	summary := body["summary"].(map[string]any)
	assert.InDelta(t, 0.5, summary["error_rate"], 1e-9)
	assert.InDelta(t, 1.0, summary["execution_success_rate"], 1e-9)
	assert.Equal(t, "open", body["breakers"].(map[string]any)["codegen"])
	assert.Equal(t, float64(1), body["sandbox"].(map[string]any)["in_use"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# TYPE")
}
