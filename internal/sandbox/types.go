package sandbox

import (
	"context"
	"errors"
	"time"

	"github.com/GriffinCanCode/PromptScraper/internal/providers/scraper"
)

var (
	ErrTimeout          = errors.New("execution timeout exceeded")
	ErrClosed           = errors.New("sandbox runtime is closed")
	ErrCapabilityDenied = errors.New("capability denied")
)

// Config defines sandbox configuration
type Config struct {
	Timeout          time.Duration // Wall-clock bound for one evaluation
	MaxCallStackSize int           // Recursion bound
	MaxSleep         time.Duration // Upper bound for one sleep() call
	EnableConsole    bool          // Capture console.log/warn/error/info
}

// DefaultConfig returns the default sandbox configuration
func DefaultConfig() Config {
	return Config{
		Timeout:          10 * time.Second,
		MaxCallStackSize: 1024,
		MaxSleep:         5 * time.Second,
		EnableConsole:    true,
	}
}

// Result holds execution result
type Result struct {
	Output   any           // results array, or the completion value when results is empty
	Console  []LogEntry    // Console output
	Duration time.Duration // Execution time
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, warn, error, info
	Message string    // Log message
	Time    time.Time // Timestamp
}

// PageFetcher backs the fetch() helper
type PageFetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// PageRenderer backs the render() helper
type PageRenderer interface {
	RenderHTML(ctx context.Context, url string) (string, error)
}

// Services are the vetted host capabilities the scope helpers call into.
// A nil Fetcher or Renderer makes the matching helper throw when called.
type Services struct {
	Fetcher  PageFetcher
	Renderer PageRenderer
	Toolkit  *scraper.Toolkit
}
