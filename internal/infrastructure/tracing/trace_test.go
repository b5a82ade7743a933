package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(t *testing.T) (*Tracer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return New("test", zap.New(core)), logs
}

func TestStartSpanInheritsTrace(t *testing.T) {
	tracer, _ := newObserved(t)
	defer tracer.Close()

	parent, ctx := tracer.StartSpan(context.Background(), "scrape")
	child, _ := tracer.StartSpan(ctx, "generate")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)
	assert.Equal(t, parent.TraceID, GetTraceID(ctx))
}

func TestTraceRecordsError(t *testing.T) {
	tracer, logs := newObserved(t)

	boom := errors.New("boom")
	err := tracer.Trace(context.Background(), "execute", func(ctx context.Context) error {
		assert.NotEmpty(t, GetSpanID(ctx))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	tracer.Close()
	entries := logs.FilterMessage("span completed with error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "execute", entries[0].ContextMap()["operation"])
}

func TestNilTracerRunsFn(t *testing.T) {
	var tracer *Tracer
	called := false
	err := tracer.Trace(context.Background(), "noop", func(context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestHTTPMiddlewarePropagatesHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, _ := newObserved(t)
	defer tracer.Close()

	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	var seen TraceID
	router.GET("/health", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderTraceID, "trace-abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, TraceID("trace-abc"), seen)
	assert.Equal(t, "trace-abc", rec.Header().Get(HeaderTraceID))
	assert.NotEmpty(t, rec.Header().Get(HeaderSpanID))
}

func TestInjectExtractRoundTrip(t *testing.T) {
	tracer, _ := newObserved(t)
	defer tracer.Close()

	_, ctx := tracer.StartSpan(context.Background(), "fetch")
	headers := map[string]string{}
	InjectTraceContext(ctx, headers)

	traceID, spanID := ExtractTraceContext(headers)
	assert.Equal(t, GetTraceID(ctx), traceID)
	assert.Equal(t, GetSpanID(ctx), spanID)
}
