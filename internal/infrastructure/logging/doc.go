// Package logging provides structured logging using uber/zap.
//
// Two encodings are available:
//   - Production: JSON lines for log shippers
//   - Development: colored console output with stack traces on errors
//
// FromSettings builds a logger from the LOG_LEVEL and LOG_DEV settings and
// falls back to the production default when the level is not recognized.
// Subsystems take a named child via Component so every line carries its
// origin ("sandbox", "orchestrator", "codegen", "fetch", ...).
//
// The server logs to stdout. scrapectl logs to stderr so records written to
// stdout stay machine-readable.
//
//	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
//	log := logger.Component("sandbox")
//	log.Info("pool ready", zap.Int("size", 4))
package logging
