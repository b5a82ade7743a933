// Package codegen asks an OpenAI-compatible chat model to write and repair
// scraping code.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/resilience"
)

var (
	ErrNotConfigured = errors.New("code generation is not configured")
	ErrGeneration    = errors.New("code generation failed")
	ErrNoCode        = errors.New("model returned no code")
)

// Config configures the client
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client generates and repairs scraping code
type Client struct {
	api     *openai.Client
	config  Config
	breaker *resilience.Breaker
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates a client. Either an API key or a base URL for a local
// OpenAI-compatible server is required.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	c := &Client{
		api:    openai.NewClientWithConfig(apiCfg),
		config: cfg,
		logger: logger,
	}
	c.breaker = resilience.External("codegen", c.onBreakerChange)
	return c, nil
}

// WithMetrics attaches a metrics collector
func (c *Client) WithMetrics(m *monitoring.Metrics) *Client {
	c.metrics = m
	return c
}

func (c *Client) onBreakerChange(name string, from, to resilience.State) {
	c.logger.Warn("codegen breaker state changed",
		zap.String("breaker", name),
		zap.Stringer("from", from),
		zap.Stringer("to", to))
	if c.metrics != nil {
		c.metrics.SetBreakerState(name, int(to))
	}
}

// Generate writes extraction code for prompt against url
func (c *Client) Generate(ctx context.Context, prompt, url string) (string, error) {
	code, err := c.complete(ctx, "generate", generatePrompt(prompt, url))
	if err != nil {
		return "", err
	}
	c.logger.Info("generated scraping code", zap.String("url", url), zap.Int("bytes", len(code)))
	return code, nil
}

// Repair revises code that failed with errText
func (c *Client) Repair(ctx context.Context, code, errText, url string) (string, error) {
	fixed, err := c.complete(ctx, "repair", repairPrompt(code, errText, url))
	if err != nil {
		return "", err
	}
	c.logger.Info("repaired scraping code", zap.String("url", url), zap.Int("bytes", len(fixed)))
	return fixed, nil
}

func (c *Client) complete(ctx context.Context, method, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := resilience.Call(c.breaker, func() (string, error) {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.config.Model,
			Temperature: c.config.Temperature,
			MaxTokens:   c.config.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("no choices in response")
		}
		return resp.Choices[0].Message.Content, nil
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordServiceCall("codegen", method, status, time.Since(start))
	}
	if err != nil {
		c.logger.Error("code generation call failed", zap.String("method", method), zap.Error(err))
		return "", fmt.Errorf("%w: %s: %w", ErrGeneration, method, err)
	}

	code := ExtractCode(reply)
	if code == "" {
		return "", fmt.Errorf("%w: %s: %w", ErrGeneration, method, ErrNoCode)
	}
	return code, nil
}

// BreakerState reports the state of the client's circuit breaker
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}
