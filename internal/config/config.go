package config

import "time"

// Config represents the complete application configuration. Values layer as:
// file (XDG config path or --config), then environment variables with the
// DEVPULSE_ prefix, then flags bound by the commands.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	GitHub  GitHubConfig  `mapstructure:"github"`
	Insight InsightConfig `mapstructure:"insight"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`

	RateLimits      map[string]int `mapstructure:"rate_limits"`
	RateLimitMargin float64        `mapstructure:"rate_limit_margin"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// GitHubConfig contains API access and fetch retry configuration. The token
// is read from DEVPULSE_GITHUB_TOKEN or GITHUB_TOKEN and never written to
// disk.
type GitHubConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	Token              string        `mapstructure:"-"`
	MaxAttempts        int           `mapstructure:"max_attempts"`
	BaseDelay          time.Duration `mapstructure:"base_delay"`
	MaxDelay           time.Duration `mapstructure:"max_delay"`
	IncludeCommitStats bool          `mapstructure:"include_commit_stats"`
	CommitStatsLimit   int           `mapstructure:"commit_stats_limit"`
}

// InsightConfig contains AI provider configuration. The API key is read from
// DEVPULSE_OPENAI_API_KEY or OPENAI_API_KEY and never written to disk.
type InsightConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Provider    string        `mapstructure:"provider"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"-"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// LoggingConfig contains logging configuration.
// Profiles follow the gofulmen progressive model:
// - SIMPLE: console output only (CLI commands)
// - STRUCTURED: structured sinks with correlation IDs (serve mode)
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format).
	// Metrics are also available at the main HTTP port in JSON format.
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
