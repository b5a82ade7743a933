// Package fetch provides the two page-fetching capabilities used by sandbox
// helpers and fallback tiers:
//   - Client: plain HTTP GET built on resty with a retrying transport,
//     circuit breaker, optional rate limit and a text-content check
//   - Renderer: headless Chrome via chromedp with extra headers, a bounded
//     navigation and a jittered settle delay
//
// Both refuse URLs whose host matches the configured deny globs, and both
// stop promptly when the caller's context is cancelled.
package fetch
