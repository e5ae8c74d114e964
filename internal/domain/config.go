package domain

import "time"

// Config holds the complete Harrier configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	Alerts     AlertConfig      `json:"alerts"`

	// Analysis settings
	Risk   RiskConfig   `json:"risk"`
	Screen ScreenConfig `json:"screen"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// RiskConfig holds analysis and cache-freshness settings.
type RiskConfig struct {
	// DefaultWindowDays is the analysis window when the caller does not
	// specify one.
	DefaultWindowDays int `json:"defaultWindowDays"`

	// Cache TTLs per value class.
	ProfileTTL  time.Duration `json:"profileTTL"`
	PatternTTL  time.Duration `json:"patternTTL"`
	TimelineTTL time.Duration `json:"timelineTTL"`

	// ExternalRiskFactor is an optional multiplicative boost from external
	// signals (e.g. merchant credit risk). Zero when absent.
	ExternalRiskFactor float64 `json:"externalRiskFactor"`

	// MaxConcurrentDetectors bounds detector fan-out per analysis run.
	MaxConcurrentDetectors int `json:"maxConcurrentDetectors"`
}

// ScreenConfig holds the CEL expressions for ingest-time screening flags.
type ScreenConfig struct {
	AmountFlagExpr   string `json:"amountFlagExpr"`
	TimeFlagExpr     string `json:"timeFlagExpr"`
	VelocityFlagExpr string `json:"velocityFlagExpr"`

	// VelocityWindow is the lookback for the velocity count fed into the
	// velocity expression.
	VelocityWindow time.Duration `json:"velocityWindow"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool   `json:"enabled"`
	ServiceName  string `json:"serviceName"`
	ExporterType string `json:"exporterType"` // stdout, otlp, jaeger
	Endpoint     string `json:"endpoint"`
}

// DefaultConfig returns the default single-node configuration:
// SQLite storage, in-memory LRU cache, in-process alert channel.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./harrier.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
		},
		Alerts: AlertConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Risk: RiskConfig{
			DefaultWindowDays:      30,
			ProfileTTL:             time.Hour,
			PatternTTL:             15 * time.Minute,
			TimelineTTL:            30 * time.Minute,
			MaxConcurrentDetectors: 5,
		},
		Screen: ScreenConfig{
			AmountFlagExpr:   "amount > 10000.0",
			TimeFlagExpr:     "hour >= 23 || hour <= 4",
			VelocityFlagExpr: "velocity_count > 10",
			VelocityWindow:   time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "harrier",
		},
	}
}

// ProConfig returns a configuration for distributed deployments:
// PostgreSQL storage, two-phase Redis cache, NATS alert fan-out.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "harrier",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
		LocalTTL:       5 * time.Minute,
	}
	cfg.Alerts = AlertConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
