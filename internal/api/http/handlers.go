package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PromptScraper/internal/api/middleware"
	"github.com/GriffinCanCode/PromptScraper/internal/domain/orchestrator"
	"github.com/GriffinCanCode/PromptScraper/internal/domain/scrape"
	"github.com/GriffinCanCode/PromptScraper/internal/sandbox"
	"github.com/GriffinCanCode/PromptScraper/internal/shared/formats"
)

// Version is reported by the root banner
const Version = "1.0.0"

// Scraper runs a prompt against a page
type Scraper interface {
	Scrape(ctx context.Context, prompt, url string, observers ...orchestrator.Observer) (*scrape.Result, error)
}

// PoolStatter reports sandbox pool occupancy
type PoolStatter interface {
	Stats() sandbox.PoolStats
}

// ScrapeRequest is the body of every scrape endpoint
type ScrapeRequest struct {
	Prompt string `json:"prompt"`
	URL    string `json:"url"`
}

// Handlers contains all HTTP handlers
type Handlers struct {
	scraper Scraper
	pool    PoolStatter
	logger  *zap.Logger
}

// NewHandlers creates a new handler set. pool may be nil.
func NewHandlers(scraper Scraper, pool PoolStatter, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		scraper: scraper,
		pool:    pool,
		logger:  logger,
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "PromptScraper",
		"version": Version,
	})
}

// Health handles the liveness check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{"status": "healthy"}
	if h.pool != nil {
		body["sandbox"] = h.pool.Stats()
	}
	c.JSON(http.StatusOK, body)
}

// Scrape generates and runs extraction code, answering with the records
// in a JSON envelope
func (h *Handlers) Scrape(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}
	c.Header("X-Run-ID", res.RunID.String())
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     res.Records,
		"count":    len(res.Records),
		"run_id":   res.RunID,
		"attempts": res.Attempts,
	})
}

// ScrapeFormat runs a scrape and answers with the records encoded as a
// downloadable attachment in the format named by the :format param
func (h *Handlers) ScrapeFormat(c *gin.Context) {
	f, err := formats.Parse(c.Param("format"))
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	res, ok := h.run(c)
	if !ok {
		return
	}

	body, err := formats.Render(f, res.Records)
	if err != nil {
		h.logger.Error("failed to render records",
			zap.String("format", string(f)),
			zap.String("run_id", res.RunID.String()),
			zap.Error(err))
		fail(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("X-Run-ID", res.RunID.String())
	c.Header("X-Record-Count", strconv.Itoa(len(res.Records)))
	c.Header("Content-Disposition", `attachment; filename="`+f.Filename()+`"`)
	c.Data(http.StatusOK, f.ContentType(), body)
}

func (h *Handlers) run(c *gin.Context) (*scrape.Result, bool) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, errors.New("invalid request body"))
		return nil, false
	}

	log := h.logger.With(zap.String("request_id", middleware.GetRequestID(c)))
	trace := orchestrator.ObserverFunc(func(_ context.Context, a orchestrator.Attempt) {
		log.Debug("attempt finished",
			zap.Int("attempt", a.Index),
			zap.String("outcome", string(a.Outcome)),
			zap.Int("records", a.Records),
			zap.Duration("duration", a.Duration))
	})

	res, err := h.scraper.Scrape(c.Request.Context(), req.Prompt, req.URL, trace)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error("scrape failed", zap.String("kind", orchestrator.KindName(err)), zap.Error(err))
		} else {
			log.Info("scrape refused", zap.String("kind", orchestrator.KindName(err)), zap.Error(err))
		}
		_ = c.Error(err)
		fail(c, status, err)
		return nil, false
	}
	return res, true
}

// StatusFor maps a scrape error to an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, scrape.ErrInvalidRequest), errors.Is(err, formats.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrSafetyRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scrape.ErrGenerate):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, status int, err error) {
	body := gin.H{
		"success": false,
		"error":   err.Error(),
	}
	if kind := orchestrator.KindName(err); kind != "unknown" {
		body["kind"] = kind
	}
	c.AbortWithStatusJSON(status, body)
}
