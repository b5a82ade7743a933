package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig
	Logging      LogConfig
	RateLimit    RateLimitConfig
	Sandbox      SandboxConfig
	Orchestrator OrchestratorConfig
	Fetch        FetchConfig
	CodeGen      CodeGenConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string   `envconfig:"PORT" default:"8000"`
	Host         string   `envconfig:"HOST" default:"0.0.0.0"`
	AllowOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"20"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// SandboxConfig bounds evaluation of generated code.
type SandboxConfig struct {
	PoolSize     int           `envconfig:"SANDBOX_POOL_SIZE" default:"4"`
	Timeout      time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"10s"`
	MaxCallStack int           `envconfig:"SANDBOX_MAX_CALL_STACK" default:"1024"`
}

// OrchestratorConfig holds the retry budget.
type OrchestratorConfig struct {
	MaxRetries int `envconfig:"MAX_RETRIES" default:"3"`
}

// FetchConfig holds outbound fetch settings for helpers and fallback tiers.
type FetchConfig struct {
	UserAgent       string        `envconfig:"FETCH_USER_AGENT" default:"Mozilla/5.0 (compatible; PromptScraper/1.0; +https://github.com/GriffinCanCode/PromptScraper)"`
	StaticTimeout   time.Duration `envconfig:"FETCH_STATIC_TIMEOUT" default:"10s"`
	RenderTimeout   time.Duration `envconfig:"FETCH_RENDER_TIMEOUT" default:"30s"`
	SettleMin       time.Duration `envconfig:"FETCH_SETTLE_MIN" default:"3s"`
	SettleMax       time.Duration `envconfig:"FETCH_SETTLE_MAX" default:"5s"`
	Retries         int           `envconfig:"FETCH_RETRIES" default:"2"`
	RatePerSecond   float64       `envconfig:"FETCH_RPS" default:"0"`
	ChromePath      string        `envconfig:"CHROME_PATH"`
	Headless        bool          `envconfig:"CHROME_HEADLESS" default:"true"`
	RenderEnabled   bool          `envconfig:"RENDER_ENABLED" default:"true"`
	DeniedHostGlobs []string      `envconfig:"FETCH_DENIED_HOSTS" default:"localhost,127.*,10.*,192.168.*,169.254.*,*.internal,*.local"`
}

// CodeGenConfig holds code generation service settings.
type CodeGenConfig struct {
	APIKey      string        `envconfig:"OPENAI_API_KEY"`
	BaseURL     string        `envconfig:"OPENAI_BASE_URL"`
	Model       string        `envconfig:"CODEGEN_MODEL" default:"gpt-4o-mini"`
	Temperature float32       `envconfig:"CODEGEN_TEMPERATURE" default:"0.2"`
	Timeout     time.Duration `envconfig:"CODEGEN_TIMEOUT" default:"60s"`
}

// Load loads configuration from a local .env file (if any) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Fetch.SettleMax < cfg.Fetch.SettleMin {
		return nil, fmt.Errorf("failed to load config: FETCH_SETTLE_MAX %s below FETCH_SETTLE_MIN %s",
			cfg.Fetch.SettleMax, cfg.Fetch.SettleMin)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8000",
			Host:         "0.0.0.0",
			AllowOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
			Enabled:           true,
		},
		Sandbox: SandboxConfig{
			PoolSize:     4,
			Timeout:      10 * time.Second,
			MaxCallStack: 1024,
		},
		Orchestrator: OrchestratorConfig{
			MaxRetries: 3,
		},
		Fetch: FetchConfig{
			UserAgent:     "Mozilla/5.0 (compatible; PromptScraper/1.0; +https://github.com/GriffinCanCode/PromptScraper)",
			StaticTimeout: 10 * time.Second,
			RenderTimeout: 30 * time.Second,
			SettleMin:     3 * time.Second,
			SettleMax:     5 * time.Second,
			Retries:       2,
			Headless:      true,
			RenderEnabled: true,
			DeniedHostGlobs: []string{
				"localhost", "127.*", "10.*", "192.168.*", "169.254.*", "*.internal", "*.local",
			},
		},
		CodeGen: CodeGenConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			Timeout:     60 * time.Second,
		},
	}
}
