// Package main is the entry point for the PromptScraper HTTP server.
//
// The server accepts a plain-language extraction request and a page URL,
// asks a language model for JavaScript that performs the extraction, and
// runs that code in a sandboxed VM with a fixed set of helpers. Failures
// are fed back to the model for repair within a bounded retry budget.
//
//	Client → POST /scrape → generate → gate → sandbox → validate → records
//	                                     ↑                  ↓ empty
//	                                     └──── repair ←── fallback ladder
//
// Endpoints:
//   - GET  /              service banner
//   - GET  /health        liveness and sandbox pool occupancy
//   - POST /scrape        {prompt, url} → {success, data, count, run_id}
//   - POST /scrape/:format  records as a csv, json, yaml or toml attachment
//   - GET  /ws            attempt-by-attempt progress for socket submissions
//   - GET  /metrics       Prometheus exposition
//   - GET  /metrics/json  summary snapshot
//
// Configuration comes from the environment (see internal/infrastructure/config),
// optionally seeded from a local .env file. OPENAI_API_KEY or OPENAI_BASE_URL
// enables generation; without either only caller-supplied code can run.
//
// Usage:
//
//	./server -port 8000
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
