package ws

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/PromptScraper/internal/domain/orchestrator"
	"github.com/GriffinCanCode/PromptScraper/internal/domain/scrape"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PromptScraper/internal/shared/id"
)

type stubScraper struct {
	attempts []orchestrator.Attempt
	res      *scrape.Result
	err      error
}

func (s *stubScraper) Scrape(ctx context.Context, _, _ string, observers ...orchestrator.Observer) (*scrape.Result, error) {
	for _, a := range s.attempts {
		for _, o := range observers {
			o.OnAttempt(ctx, a)
		}
	}
	return s.res, s.err
}

func dial(t *testing.T, s Scraper, m *monitoring.Metrics) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(s, nil, nil)
	if m != nil {
		h.WithMetrics(m)
	}
	r := gin.New()
	r.GET("/ws", h.HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	welcome := read(t, conn)
	require.Equal(t, TypeSystem, welcome["type"])
	assert.True(t, strings.HasPrefix(welcome["conn_id"].(string), id.ConnPrefix+"_"))
	return conn
}

func read(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, sonic.Unmarshal(data, &frame))
	return frame
}

func write(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	data, err := sonic.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestScrapeStreamsAttempts(t *testing.T) {
	s := &stubScraper{
		attempts: []orchestrator.Attempt{
			{Index: 0, Outcome: orchestrator.OutcomeRuntimeError, Err: errors.New("ReferenceError: x is not defined")},
			{Index: 1, Outcome: orchestrator.OutcomeRecords, Records: 2, Fidelity: "primary", Duration: 15 * time.Millisecond},
		},
		res: &scrape.Result{
			RunID:    id.NewRunID(),
			Records:  []map[string]any{{"a": 1}, {"a": 2}},
			Attempts: 2,
		},
	}
	conn := dial(t, s, nil)

	write(t, conn, Message{Type: TypeScrape, Prompt: "p", URL: "example.com"})

	first := read(t, conn)
	assert.Equal(t, TypeAttempt, first["type"])
	assert.Equal(t, float64(0), first["attempt"])
	assert.Equal(t, "runtime_error", first["outcome"])
	assert.Equal(t, "ReferenceError: x is not defined", first["error"])

	second := read(t, conn)
	assert.Equal(t, "records", second["outcome"])
	assert.Equal(t, "primary", second["fidelity"])
	assert.Equal(t, float64(15), second["duration_ms"])
	assert.NotContains(t, second, "error")

	done := read(t, conn)
	assert.Equal(t, TypeComplete, done["type"])
	assert.Equal(t, float64(2), done["count"])
	assert.Equal(t, s.res.RunID.String(), done["run_id"])
}

func TestScrapeError(t *testing.T) {
	s := &stubScraper{err: &orchestrator.Error{
		Kind:    orchestrator.ErrSafetyRejected,
		Message: "forbidden capability filesystem: matched readFile",
	}}
	conn := dial(t, s, nil)

	write(t, conn, Message{Type: TypeScrape, Prompt: "p", URL: "u"})

	frame := read(t, conn)
	assert.Equal(t, TypeError, frame["type"])
	assert.Equal(t, "forbidden capability filesystem: matched readFile", frame["error"])
	assert.Equal(t, "safety_rejected", frame["kind"])
}

func TestPingAndUnknown(t *testing.T) {
	m := monitoring.NewMetrics()
	conn := dial(t, &stubScraper{}, m)

	write(t, conn, Message{Type: TypePing})
	assert.Equal(t, TypePong, read(t, conn)["type"])

	write(t, conn, Message{Type: "dance"})
	frame := read(t, conn)
	assert.Equal(t, TypeError, frame["type"])
	assert.Equal(t, "unknown message type", frame["error"])
	assert.NotContains(t, frame, "kind")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "invalid message", read(t, conn)["error"])
}
