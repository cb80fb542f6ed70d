package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/formatter"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Search   SearchConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Auth     AuthConfig
	AI       AIConfig
	Insights InsightsConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// SearchConfig holds the OpenSearch connection and tool timeouts
type SearchConfig struct {
	Endpoint string
	Username string
	Password string
	Index    string
	// Timeout bounds each storage call made by a tool
	Timeout time.Duration
	// FallbackEnabled serves fixture data when the cluster is unreachable
	FallbackEnabled bool
}

// CacheConfig holds search result caching configuration
type CacheConfig struct {
	Enabled    bool
	TTL        time.Duration
	MaxEntries int
}

// DatabaseConfig holds the audit store connection. An empty URL logs audit entries instead.
type DatabaseConfig struct {
	URL          string
	MaxConns     int32
	AuditTimeout time.Duration
}

// AuthConfig holds bearer token validation settings
type AuthConfig struct {
	Enabled    bool
	SigningKey string
	Issuer     string
	Audience   string
}

// AIConfig holds Azure OpenAI configuration for result narratives
type AIConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
	Timeout    time.Duration
}

// Enabled reports whether a narrative deployment is configured
func (c AIConfig) Enabled() bool {
	return c.Endpoint != "" && c.APIKey != "" && c.Deployment != ""
}

// InsightsConfig overrides insight thresholds. Zero values keep the defaults.
type InsightsConfig struct {
	StepsLowAverage float64
	StepsOnTrack    float64
	StepsDailyGoal  float64
	HeartRateLow    float64
	HeartRateHigh   float64
	WorkoutsPerWeek int
	SleepLowHours   float64
	SleepHighHours  float64
}

// Policy merges the overrides onto the default insight policy
func (c InsightsConfig) Policy() formatter.Policy {
	p := formatter.DefaultPolicy()
	override := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	override(&p.StepsLowAverage, c.StepsLowAverage)
	override(&p.StepsOnTrack, c.StepsOnTrack)
	override(&p.StepsDailyGoal, c.StepsDailyGoal)
	override(&p.HeartRateLow, c.HeartRateLow)
	override(&p.HeartRateHigh, c.HeartRateHigh)
	override(&p.SleepLowHours, c.SleepLowHours)
	override(&p.SleepHighHours, c.SleepHighHours)
	if c.WorkoutsPerWeek > 0 {
		p.WorkoutsPerWeek = c.WorkoutsPerWeek
	}
	return p
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from defaults, an optional config file and the environment
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)
	v.SetDefault("server.allowedorigins", []string{"*"})

	v.SetDefault("search.index", "health-metrics")
	v.SetDefault("search.timeout", 10*time.Second)
	v.SetDefault("search.fallbackenabled", true)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.maxentries", 1000)

	v.SetDefault("database.maxconns", 5)
	v.SetDefault("database.audittimeout", 5*time.Second)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.issuer", "health-query")
	v.SetDefault("auth.audience", "health-query")

	v.SetDefault("ai.timeout", 15*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")

	// Search
	v.BindEnv("search.endpoint", "OPENSEARCH_ENDPOINT")
	v.BindEnv("search.username", "OPENSEARCH_USERNAME")
	v.BindEnv("search.password", "OPENSEARCH_PASSWORD")
	v.BindEnv("search.index", "OPENSEARCH_INDEX")
	v.BindEnv("search.timeout", "SEARCH_TIMEOUT")
	v.BindEnv("search.fallbackenabled", "SEARCH_FALLBACK_ENABLED")

	// Cache
	v.BindEnv("cache.enabled", "CACHE_ENABLED")
	v.BindEnv("cache.ttl", "CACHE_TTL")

	// Audit database
	v.BindEnv("database.url", "DATABASE_URL")

	// Auth
	v.BindEnv("auth.enabled", "AUTH_ENABLED")
	v.BindEnv("auth.signingkey", "JWT_SIGNING_KEY")
	v.BindEnv("auth.issuer", "JWT_ISSUER")
	v.BindEnv("auth.audience", "JWT_AUDIENCE")

	// Azure OpenAI
	v.BindEnv("ai.endpoint", "AZURE_OPENAI_ENDPOINT")
	v.BindEnv("ai.apikey", "AZURE_OPENAI_API_KEY")
	v.BindEnv("ai.deployment", "AZURE_OPENAI_DEPLOYMENT")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	if c.Search.Endpoint == "" && !c.Search.FallbackEnabled {
		return fmt.Errorf("search.endpoint is required when search.fallbackenabled is false")
	}

	if c.Search.Timeout <= 0 {
		return fmt.Errorf("search.timeout must be positive")
	}

	if c.Cache.Enabled && c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.maxentries must be positive when the cache is enabled")
	}

	if c.Auth.Enabled && c.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signingkey is required when auth is enabled")
	}

	// a partial AI configuration is almost always a typo
	set := 0
	for _, s := range []string{c.AI.Endpoint, c.AI.APIKey, c.AI.Deployment} {
		if s != "" {
			set++
		}
	}
	if set > 0 && set < 3 {
		return fmt.Errorf("ai.endpoint, ai.apikey and ai.deployment must be set together")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}
