package fetch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// HostPolicy rejects URLs that are not http(s) or whose host matches a deny
// glob such as "127.*" or "*.internal". A nil policy only checks the scheme.
type HostPolicy struct {
	globs []string
}

// NewHostPolicy validates and lowercases the deny globs
func NewHostPolicy(globs []string) (*HostPolicy, error) {
	p := &HostPolicy{globs: make([]string, 0, len(globs))}
	for _, g := range globs {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid host glob %q", g)
		}
		p.globs = append(p.globs, g)
	}
	return p, nil
}

// Check returns nil when rawURL may be fetched
func (p *HostPolicy) Check(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrBadURL, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrBadURL)
	}
	if p == nil {
		return nil
	}
	for _, g := range p.globs {
		if ok, _ := doublestar.Match(g, host); ok {
			return fmt.Errorf("%w: %s matches %s", ErrHostDenied, host, g)
		}
	}
	return nil
}
