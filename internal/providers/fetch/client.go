package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/PromptScraper/internal/providers/scraper"
)

// Options configures a Client
type Options struct {
	Name          string // breaker and metrics label
	UserAgent     string
	Timeout       time.Duration
	Retries       int
	RatePerSecond float64 // <= 0 means unlimited
	Headers       map[string]string
}

// Client fetches pages over plain HTTP
type Client struct {
	name    string
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	policy  *HostPolicy
	logger  *zap.Logger
	metrics *monitoring.Metrics
	mu      sync.RWMutex
}

// NewClient creates an HTTP fetch client
func NewClient(opts Options, policy *HostPolicy, logger *zap.Logger) *Client {
	if opts.Name == "" {
		opts.Name = "fetch"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.Retries
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(opts.Timeout).
		SetHeaders(DefaultHeaders()).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return policy.Check(req.URL.String())
		}))
	if opts.UserAgent != "" {
		restyClient.SetHeader("User-Agent", opts.UserAgent)
	}
	for k, v := range opts.Headers {
		restyClient.SetHeader(k, v)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSecond > 0 {
		burst := int(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	c := &Client{
		name:    opts.Name,
		resty:   restyClient,
		limiter: limiter,
		policy:  policy,
		logger:  logger,
	}
	c.breaker = resilience.External(opts.Name, c.onBreakerChange)
	return c
}

// WithMetrics attaches a metrics collector
func (c *Client) WithMetrics(m *monitoring.Metrics) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
	return c
}

func (c *Client) onBreakerChange(name string, from, to resilience.State) {
	c.logger.Warn("fetch breaker state changed",
		zap.String("breaker", name),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
	c.mu.RLock()
	m := c.metrics
	c.mu.RUnlock()
	if m != nil {
		m.SetBreakerState(name, int(to))
	}
}

// Fetch retrieves rawURL and returns it as a text page
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if err := c.policy.Check(rawURL); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.mu.RLock()
	timer := monitoring.NewTimer(c.metrics, c.name, "get")
	c.mu.RUnlock()

	start := time.Now()
	resp, err := resilience.Call(c.breaker, func() (*resty.Response, error) {
		resp, err := c.resty.R().SetContext(ctx).Get(rawURL)
		if err != nil {
			return nil, err
		}
		// Server errors count against the breaker; client errors do not.
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, fmt.Errorf("%w: %d from %s", ErrHTTPStatus, resp.StatusCode(), rawURL)
		}
		return resp, nil
	})
	if err != nil {
		timer.Stop("error")
		if resilience.IsRejected(err) {
			return nil, fmt.Errorf("fetch %s: external service unavailable: %w", rawURL, err)
		}
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	page, err := toPage(rawURL, resp)
	if err != nil {
		timer.Stop("error")
		return nil, err
	}
	page.Duration = time.Since(start)
	timer.Stop("success")

	c.logger.Debug("fetched page",
		zap.String("url", rawURL),
		zap.Int("status", page.Status),
		zap.Int("bytes", len(page.HTML)),
		zap.Duration("duration", page.Duration),
	)
	return page, nil
}

// FetchHTML returns only the page body
func (c *Client) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	page, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return page.HTML, nil
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

func toPage(rawURL string, resp *resty.Response) (*Page, error) {
	status := resp.StatusCode()
	if status < 200 || status >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrHTTPStatus, status, rawURL)
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("%w from %s (status: %d)", ErrEmptyBody, rawURL, status)
	}
	if len(body) > scraper.MaxHTMLSize {
		body = body[:scraper.MaxHTMLSize]
	}
	if !isText(mimetype.Detect(body)) {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotText, rawURL, mimetype.Detect(body).String())
	}

	final := rawURL
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		final = resp.RawResponse.Request.URL.String()
	}

	return &Page{
		URL:         rawURL,
		FinalURL:    final,
		Status:      status,
		ContentType: resp.Header().Get("Content-Type"),
		HTML:        string(body),
	}, nil
}

// isText reports whether the detected type is text/plain or one of its
// descendants (html, xml, json, ...)
func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
