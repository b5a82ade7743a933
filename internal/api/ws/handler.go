// Package ws streams scrape progress over a WebSocket. A client sends
// {"type":"scrape","prompt":...,"url":...} and receives one "attempt" frame
// per pass through the execution chain followed by "complete" or "error".
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PromptScraper/internal/domain/orchestrator"
	"github.com/GriffinCanCode/PromptScraper/internal/domain/scrape"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PromptScraper/internal/shared/id"
)

const (
	maxMessageSize = 64 << 10
	writeWait      = 10 * time.Second
	scrapeTimeout  = 3 * time.Minute
)

// Frame types
const (
	TypeScrape   = "scrape"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeSystem   = "system"
	TypeAttempt  = "attempt"
	TypeComplete = "complete"
	TypeError    = "error"
)

// Scraper runs a prompt against a page
type Scraper interface {
	Scrape(ctx context.Context, prompt, url string, observers ...orchestrator.Observer) (*scrape.Result, error)
}

// Message is a client request
type Message struct {
	Type   string `json:"type"`
	Prompt string `json:"prompt,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Handler manages WebSocket connections
type Handler struct {
	scraper  Scraper
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader
	timeout  time.Duration
}

// NewHandler creates a WebSocket handler. checkOrigin may be nil to accept
// every origin.
func NewHandler(scraper Scraper, checkOrigin func(*http.Request) bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		scraper:  scraper,
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		timeout:  scrapeTimeout,
	}
}

// WithMetrics enables connection and message counters
func (h *Handler) WithMetrics(m *monitoring.Metrics) *Handler {
	h.metrics = m
	return h
}

// WithTimeout bounds each scrape submitted over a connection
func (h *Handler) WithTimeout(d time.Duration) *Handler {
	if d > 0 {
		h.timeout = d
	}
	return h
}

// conn serializes writes; gorilla allows one concurrent writer
type conn struct {
	ws      *websocket.Conn
	mu      sync.Mutex
	metrics *monitoring.Metrics
}

func (c *conn) send(frame map[string]any) error {
	data, err := sonic.Marshal(frame)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	if c.metrics != nil {
		if t, ok := frame["type"].(string); ok {
			c.metrics.RecordWSMessage("out", t)
		}
	}
	return nil
}

func (c *conn) sendError(msg string, err error) error {
	frame := map[string]any{
		"type":      TypeError,
		"error":     msg,
		"timestamp": time.Now().Unix(),
	}
	if kind := orchestrator.KindName(err); kind != "unknown" {
		frame["kind"] = kind
	}
	return c.send(frame)
}

// HandleConnection upgrades the request and serves messages until the
// client disconnects
func (h *Handler) HandleConnection(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()
	ws.SetReadLimit(maxMessageSize)

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	connID := id.NewConnID()
	log := h.logger.With(zap.String("conn_id", connID.String()))
	cn := &conn{ws: ws, metrics: h.metrics}
	reqCtx := c.Request.Context()

	if err := cn.send(map[string]any{
		"type":    TypeSystem,
		"message": "Connected to PromptScraper",
		"conn_id": connID,
	}); err != nil {
		return
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			_ = cn.sendError("invalid message", nil)
			continue
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}

		switch msg.Type {
		case TypeScrape:
			h.handleScrape(reqCtx, cn, msg, log)
		case TypePing:
			_ = cn.send(map[string]any{"type": TypePong})
		default:
			_ = cn.sendError("unknown message type", nil)
		}
	}
}

func (h *Handler) handleScrape(reqCtx context.Context, cn *conn, msg Message, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(reqCtx, h.timeout)
	defer cancel()

	progress := orchestrator.ObserverFunc(func(_ context.Context, a orchestrator.Attempt) {
		frame := map[string]any{
			"type":        TypeAttempt,
			"attempt":     a.Index,
			"outcome":     string(a.Outcome),
			"records":     a.Records,
			"duration_ms": a.Duration.Milliseconds(),
			"timestamp":   time.Now().Unix(),
		}
		if a.Fidelity != "" {
			frame["fidelity"] = a.Fidelity
		}
		if a.Err != nil {
			frame["error"] = a.Err.Error()
		}
		if err := cn.send(frame); err != nil {
			log.Debug("dropping attempt frame", zap.Error(err))
		}
	})

	res, err := h.scraper.Scrape(ctx, msg.Prompt, msg.URL, progress)
	if err != nil {
		log.Info("scrape over websocket failed", zap.String("kind", orchestrator.KindName(err)), zap.Error(err))
		_ = cn.sendError(err.Error(), err)
		return
	}

	_ = cn.send(map[string]any{
		"type":      TypeComplete,
		"run_id":    res.RunID,
		"data":      res.Records,
		"count":     len(res.Records),
		"attempts":  res.Attempts,
		"timestamp": time.Now().Unix(),
	})
}
