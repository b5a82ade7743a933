package server

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/PromptScraper/internal/domain/fallback"
	"github.com/GriffinCanCode/PromptScraper/internal/domain/orchestrator"
	"github.com/GriffinCanCode/PromptScraper/internal/domain/scrape"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/config"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/logging"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/PromptScraper/internal/providers/codegen"
	"github.com/GriffinCanCode/PromptScraper/internal/providers/fetch"
	"github.com/GriffinCanCode/PromptScraper/internal/providers/scraper"
	"github.com/GriffinCanCode/PromptScraper/internal/sandbox"
	"github.com/GriffinCanCode/PromptScraper/internal/sandbox/gate"
)

// Components is the assembled scrape pipeline shared by the HTTP server
// and the CLI
type Components struct {
	Metrics      *monitoring.Metrics
	Tracer       *tracing.Tracer
	Fetcher      *fetch.Client
	Renderer     *fetch.Renderer // nil when rendering is disabled
	CodeGen      *codegen.Client // nil when no model endpoint is configured
	Pool         *sandbox.Pool
	Ladder       *fallback.Ladder
	Orchestrator *orchestrator.Orchestrator
	Service      *scrape.Service
}

// Build wires every component from cfg
func Build(cfg *config.Config, logger *logging.Logger) (*Components, error) {
	c := &Components{
		Metrics: monitoring.NewMetrics(),
		Tracer:  tracing.New("promptscraper", logger.Component("tracing")),
	}

	policy, err := fetch.NewHostPolicy(cfg.Fetch.DeniedHostGlobs)
	if err != nil {
		return nil, fmt.Errorf("invalid host policy: %w", err)
	}

	kit := scraper.NewToolkit()
	c.Fetcher = fetch.NewClient(fetch.Options{
		Name:          "fetch",
		UserAgent:     cfg.Fetch.UserAgent,
		Timeout:       cfg.Fetch.StaticTimeout,
		Retries:       cfg.Fetch.Retries,
		RatePerSecond: cfg.Fetch.RatePerSecond,
	}, policy, logger.Component("fetch")).WithMetrics(c.Metrics)

	services := sandbox.Services{Fetcher: c.Fetcher, Toolkit: kit}
	tiers := []fallback.Tier{fallback.MinimalTier(c.Fetcher.Fetch, kit)}

	if cfg.Fetch.RenderEnabled {
		c.Renderer = fetch.NewRenderer(fetch.RenderOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			NavTimeout: cfg.Fetch.RenderTimeout,
			SettleMin:  cfg.Fetch.SettleMin,
			SettleMax:  cfg.Fetch.SettleMax,
			ExecPath:   cfg.Fetch.ChromePath,
			Headless:   cfg.Fetch.Headless,
		}, policy, logger.Component("render")).WithMetrics(c.Metrics)
		services.Renderer = c.Renderer
		tiers = append(tiers, fallback.RenderedTier(c.Renderer.Render, kit))
	} else {
		logger.Info("Headless rendering disabled; the rendered fallback tier is skipped")
	}

	c.Pool, err = sandbox.NewPool(sandbox.Config{
		Timeout:          cfg.Sandbox.Timeout,
		MaxCallStackSize: cfg.Sandbox.MaxCallStack,
		MaxSleep:         sandbox.DefaultConfig().MaxSleep,
		EnableConsole:    true,
	}, services, cfg.Sandbox.PoolSize, logger.Component("sandbox"))
	if err != nil {
		c.Tracer.Close()
		return nil, fmt.Errorf("failed to create sandbox pool: %w", err)
	}

	c.Ladder = fallback.New(logger.Component("fallback"), tiers...).WithMetrics(c.Metrics)

	gen, err := codegen.New(codegen.Config{
		APIKey:      cfg.CodeGen.APIKey,
		BaseURL:     cfg.CodeGen.BaseURL,
		Model:       cfg.CodeGen.Model,
		Temperature: cfg.CodeGen.Temperature,
		Timeout:     cfg.CodeGen.Timeout,
	}, logger.Component("codegen"))
	switch {
	case errors.Is(err, codegen.ErrNotConfigured):
		logger.Warn("Code generation not configured; only caller-supplied code can run",
			zap.String("hint", "set OPENAI_API_KEY or OPENAI_BASE_URL"))
	case err != nil:
		c.Close()
		return nil, err
	default:
		c.CodeGen = gen.WithMetrics(c.Metrics)
	}

	// Typed nils must not leak into the interface parameters below.
	var (
		repairer  orchestrator.Repairer
		generator scrape.Generator
	)
	if c.CodeGen != nil {
		repairer = c.CodeGen
		generator = c.CodeGen
	}

	c.Orchestrator = orchestrator.New(gate.New(), c.Pool, c.Ladder, repairer,
		cfg.Orchestrator.MaxRetries, logger.Component("orchestrator")).WithMetrics(c.Metrics)
	c.Service = scrape.New(generator, c.Orchestrator, c.Tracer, logger.Component("scrape"))

	logger.Info("Scrape pipeline ready",
		zap.Int("sandbox_pool", cfg.Sandbox.PoolSize),
		zap.Duration("sandbox_timeout", cfg.Sandbox.Timeout),
		zap.Int("max_retries", c.Orchestrator.MaxRetries()),
		zap.Strings("fallback_tiers", rankNames(c.Ladder.Ranks())),
		zap.Bool("codegen", c.CodeGen != nil),
	)
	return c, nil
}

// Close releases the sandbox pool and stops the tracer
func (c *Components) Close() error {
	var err error
	if c.Pool != nil {
		err = c.Pool.Close()
	}
	if c.Tracer != nil {
		c.Tracer.Close()
	}
	return err
}

func rankNames(ranks []fallback.Rank) []string {
	names := make([]string, len(ranks))
	for i, r := range ranks {
		names[i] = r.String()
	}
	return names
}
