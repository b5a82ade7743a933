// Package scrape turns a natural-language request into records: it asks
// the generator for code and hands that code to the orchestrator.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/PromptScraper/internal/domain/orchestrator"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/PromptScraper/internal/shared/id"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrGenerate       = errors.New("failed to generate scraping code")
)

// Generator writes extraction code
type Generator interface {
	Generate(ctx context.Context, prompt, url string) (string, error)
}

// Executor runs code to completion
type Executor interface {
	Execute(ctx context.Context, code, url string, observers ...orchestrator.Observer) ([]map[string]any, error)
}

// Result is a finished scrape
type Result struct {
	RunID    id.RunID         `json:"run_id"`
	URL      string           `json:"url"`
	Code     string           `json:"code,omitempty"`
	Records  []map[string]any `json:"data"`
	Attempts int              `json:"attempts"`
	Duration time.Duration    `json:"-"`
}

// Service coordinates generation and execution
type Service struct {
	generator Generator
	executor  Executor
	tracer    *tracing.Tracer
	logger    *zap.Logger
}

// New creates a scrape service. generator may be nil when only Run is used.
func New(generator Generator, executor Executor, tracer *tracing.Tracer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		generator: generator,
		executor:  executor,
		tracer:    tracer,
		logger:    logger,
	}
}

// Scrape generates code for prompt and executes it against rawURL
func (s *Service) Scrape(ctx context.Context, prompt, rawURL string, observers ...orchestrator.Observer) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, fmt.Errorf("%w: no generator configured", ErrGenerate)
	}

	res := &Result{RunID: id.NewRunID(), URL: target}
	start := time.Now()
	log := s.logger.With(zap.String("run_id", res.RunID.String()), zap.String("url", target))
	log.Info("scrape started", zap.String("prompt", prompt))

	err = s.tracer.Trace(ctx, "scrape", func(ctx context.Context) error {
		err := s.tracer.Trace(ctx, "generate", func(ctx context.Context) error {
			code, err := s.generator.Generate(ctx, prompt, target)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrGenerate, err)
			}
			res.Code = code
			return nil
		})
		if err != nil {
			return err
		}
		return s.execute(ctx, res, observers)
	})
	res.Duration = time.Since(start)

	if err != nil {
		log.Warn("scrape failed", zap.Duration("duration", res.Duration), zap.Error(err))
		return nil, err
	}
	log.Info("scrape finished",
		zap.Int("records", len(res.Records)),
		zap.Int("attempts", res.Attempts),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// Run executes caller-supplied code against rawURL without generation
func (s *Service) Run(ctx context.Context, code, rawURL string, observers ...orchestrator.Observer) (*Result, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidRequest)
	}

	res := &Result{RunID: id.NewRunID(), URL: target, Code: code}
	start := time.Now()
	err = s.tracer.Trace(ctx, "run", func(ctx context.Context) error {
		return s.execute(ctx, res, observers)
	})
	res.Duration = time.Since(start)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) execute(ctx context.Context, res *Result, observers []orchestrator.Observer) error {
	counter := orchestrator.ObserverFunc(func(context.Context, orchestrator.Attempt) { res.Attempts++ })
	observers = append([]orchestrator.Observer{counter}, observers...)

	return s.tracer.Trace(ctx, "execute", func(ctx context.Context) error {
		records, err := s.executor.Execute(ctx, res.Code, res.URL, observers...)
		if err != nil {
			return err
		}
		res.Records = records
		return nil
	})
}

// NormalizeURL trims rawURL and prefixes https:// when it carries no http
// or https scheme
func NormalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}

	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: malformed url %q", ErrInvalidRequest, rawURL)
	}
	return u.String(), nil
}
