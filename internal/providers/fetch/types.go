package fetch

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

var (
	ErrHostDenied  = errors.New("host denied by fetch policy")
	ErrBadURL      = errors.New("invalid fetch url")
	ErrNotText     = errors.New("response is not a text document")
	ErrEmptyBody   = errors.New("empty response body")
	ErrHTTPStatus  = errors.New("unexpected http status")
	ErrRenderUnset = errors.New("rendered fetch is disabled")
)

// Page is a fetched document
type Page struct {
	URL         string
	FinalURL    string
	Status      int
	ContentType string
	HTML        string
	Duration    time.Duration
}

// Fetcher loads a page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// DefaultHeaders are sent with every fetch in addition to User-Agent
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"DNT":                       "1",
		"Upgrade-Insecure-Requests": "1",
	}
}

// Jitter returns a random duration in [min, max]. It returns min when the
// window is empty or inverted.
func Jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)+1))
}
