package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/PromptScraper/internal/api/http"
	"github.com/GriffinCanCode/PromptScraper/internal/api/middleware"
	"github.com/GriffinCanCode/PromptScraper/internal/api/ws"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/config"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/logging"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/tracing"
)

const shutdownGrace = 15 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	components *Components
	logger     *logging.Logger
	config     *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	logger.Info("Initializing PromptScraper server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	components, err := Build(cfg, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(components.Tracer))
	router.Use(monitoring.Middleware(components.Metrics))
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(cfg.Server.AllowOrigins)))

	handlers := apihttp.NewHandlers(components.Service, components.Pool, logger.Component("api"))
	metricsHandler := apihttp.NewMetricsHandler(components.Metrics, components.Pool).
		WithBreaker("fetch", components.Fetcher.BreakerState)
	if components.CodeGen != nil {
		metricsHandler.WithBreaker("codegen", components.CodeGen.BreakerState)
	}
	if components.Renderer != nil {
		metricsHandler.WithBreaker("render", components.Renderer.BreakerState)
	}
	wsHandler := ws.NewHandler(components.Service, nil, logger.Component("ws")).
		WithMetrics(components.Metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", metricsHandler.Prometheus)
	router.GET("/metrics/json", metricsHandler.Summary)

	scrapes := router.Group("/scrape")
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limit := middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})
		scrapes.Use(limit)
		router.GET("/ws", limit, wsHandler.HandleConnection)
	} else {
		router.GET("/ws", wsHandler.HandleConnection)
	}
	scrapes.POST("", handlers.Scrape)
	scrapes.POST("/:format", handlers.ScrapeFormat)

	s := &Server{
		router:     router,
		components: components,
		logger:     logger,
		config:     cfg,
	}
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// Handler returns the root handler with response compression. WebSocket
// upgrades bypass compression so the connection can be hijacked.
func (s *Server) Handler() http.Handler {
	compressed := gzhttp.GzipHandler(s.router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") != "" {
			s.router.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}

// Components exposes the wired pipeline
func (s *Server) Components() *Components {
	return s.components
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", zap.Duration("grace", shutdownGrace))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases the pipeline. Call after Run returns.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	if err := s.components.Close(); err != nil {
		s.logger.Error("Failed to close components", zap.Error(err))
		return fmt.Errorf("failed to close components: %w", err)
	}

	_ = s.logger.Sync()
	return nil
}
