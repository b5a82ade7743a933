package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PromptScraper/internal/infrastructure/resilience"
)

// RenderOptions configures a Renderer
type RenderOptions struct {
	UserAgent  string
	NavTimeout time.Duration
	SettleMin  time.Duration
	SettleMax  time.Duration
	ExecPath   string
	Headless   bool
	Headers    map[string]string
}

// Renderer loads pages in headless Chrome. Each Render owns its own browser
// for the duration of the call and tears it down on every return path.
type Renderer struct {
	opts    RenderOptions
	policy  *HostPolicy
	breaker *resilience.Breaker
	logger  *zap.Logger
	metrics *monitoring.Metrics
	mu      sync.RWMutex

	// run executes the browser session; swapped in tests
	run func(ctx context.Context, rawURL string, settle time.Duration) (*Page, error)
}

// NewRenderer creates a chromedp-backed renderer
func NewRenderer(opts RenderOptions, policy *HostPolicy, logger *zap.Logger) *Renderer {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{
		opts:   opts,
		policy: policy,
		logger: logger,
	}
	r.breaker = resilience.External("render", r.onBreakerChange)
	r.run = r.session
	return r
}

// WithMetrics attaches a metrics collector
func (r *Renderer) WithMetrics(m *monitoring.Metrics) *Renderer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = m
	return r
}

func (r *Renderer) onBreakerChange(name string, from, to resilience.State) {
	r.logger.Warn("render breaker state changed",
		zap.String("breaker", name),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
	r.mu.RLock()
	m := r.metrics
	r.mu.RUnlock()
	if m != nil {
		m.SetBreakerState(name, int(to))
	}
}

// BreakerState reports the state of the render circuit breaker
func (r *Renderer) BreakerState() resilience.State {
	return r.breaker.State()
}

// Render navigates to rawURL, waits a jittered settle delay and returns the
// rendered document
func (r *Renderer) Render(ctx context.Context, rawURL string) (*Page, error) {
	if err := r.policy.Check(rawURL); err != nil {
		return nil, err
	}

	r.mu.RLock()
	timer := monitoring.NewTimer(r.metrics, "render", "navigate")
	r.mu.RUnlock()

	settle := Jitter(r.opts.SettleMin, r.opts.SettleMax)
	start := time.Now()
	page, err := resilience.Call(r.breaker, func() (*Page, error) {
		return r.run(ctx, rawURL, settle)
	})
	if err != nil {
		timer.Stop("error")
		return nil, fmt.Errorf("render %s: %w", rawURL, err)
	}
	page.Duration = time.Since(start)
	timer.Stop("success")

	r.logger.Debug("rendered page",
		zap.String("url", rawURL),
		zap.Duration("settle", settle),
		zap.Int("bytes", len(page.HTML)),
		zap.Duration("duration", page.Duration),
	)
	return page, nil
}

// RenderHTML returns only the rendered markup
func (r *Renderer) RenderHTML(ctx context.Context, rawURL string) (string, error) {
	page, err := r.Render(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return page.HTML, nil
}

func (r *Renderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", r.opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	if r.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.opts.UserAgent))
	}
	if r.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.opts.ExecPath))
	}
	return opts
}

// session runs one browser from launch to teardown
func (r *Renderer) session(ctx context.Context, rawURL string, settle time.Duration) (*Page, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(r.logger.Sugar().Debugf),
	)
	defer cancelBrowser()

	// The first Run launches the browser; it must not carry the navigation
	// timeout or the deadline would kill the browser itself.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	headers := network.Headers{}
	for k, v := range DefaultHeaders() {
		headers[k] = v
	}
	for k, v := range r.opts.Headers {
		headers[k] = v
	}

	navCtx, cancelNav := context.WithTimeout(browserCtx, r.opts.NavTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(rawURL),
	); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	var html, location string
	captureCtx, cancelCapture := context.WithTimeout(browserCtx, settle+10*time.Second)
	defer cancelCapture()
	if err := chromedp.Run(captureCtx,
		chromedp.Sleep(settle),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	if html == "" {
		return nil, ErrEmptyBody
	}

	return &Page{
		URL:         rawURL,
		FinalURL:    location,
		Status:      200,
		ContentType: "text/html",
		HTML:        html,
	}, nil
}
