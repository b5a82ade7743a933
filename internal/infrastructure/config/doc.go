// Package config provides 12-factor configuration management for the scraper service.
//
// Configuration is loaded from environment variables with sensible defaults.
// A .env file in the working directory is read first when present; variables
// already set in the environment win.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, CORS origins)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Sandbox: Runtime pool size, evaluation timeout, call stack bound
//   - Orchestrator: Retry budget for the repair loop
//   - Fetch: User agent, timeouts, settle delay, denied hosts, Chrome options
//   - CodeGen: Model endpoint, key and sampling settings
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - SANDBOX_POOL_SIZE, SANDBOX_TIMEOUT, MAX_RETRIES
//   - FETCH_*, CHROME_PATH, CHROME_HEADLESS, RENDER_ENABLED
//   - OPENAI_API_KEY, OPENAI_BASE_URL, CODEGEN_MODEL
package config
