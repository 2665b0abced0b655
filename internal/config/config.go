package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/ckcelina/my-wishlist-sub002/pkg/config"
)

// Config holds all configuration for the wishlist service.
type Config struct {
	Environment    string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"0.1.0"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"90s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Client address from X-Real-IP/X-Forwarded-For; only behind a proxy.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// PostgreSQL. DATABASE_URL wins over the individual fields when set.
	DatabaseURL        string        `env:"DATABASE_URL"`
	PostgresHost       string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort       int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser       string        `env:"POSTGRES_USER" envDefault:"wishlist"`
	PostgresPass       string        `env:"POSTGRES_PASSWORD" envDefault:"wishlist_secret"`
	PostgresDB         string        `env:"POSTGRES_DB" envDefault:"wishlist"`
	PostgresSSL        string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns   int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	SlowQueryThreshold time.Duration `env:"POSTGRES_SLOW_QUERY_THRESHOLD" envDefault:"250ms"`

	// Redis page cache
	RedisEnabled bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost    string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort    int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass    string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB      int           `env:"REDIS_DB" envDefault:"0"`
	PageCacheTTL time.Duration `env:"PAGE_CACHE_TTL" envDefault:"10m"`

	// Kafka
	KafkaEnabled     bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers     []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaImportTopic string   `env:"KAFKA_IMPORT_TOPIC" envDefault:"wishlist.imports"`

	// Session tokens (HS256, user id in "sub")
	JWTSecret   string `env:"JWT_SECRET"`
	JWTAudience string `env:"JWT_AUDIENCE" envDefault:"authenticated"`
	JWTIssuer   string `env:"JWT_ISSUER"`

	// Language model
	AnthropicAPIKey  string        `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string        `env:"ANTHROPIC_BASE_URL"`
	LLMModel         string        `env:"LLM_MODEL" envDefault:"claude-3-5-haiku-latest"`
	LLMMaxTokens     int64         `env:"LLM_MAX_TOKENS" envDefault:"4096"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	LLMMaxInputChars int           `env:"LLM_MAX_INPUT_CHARS" envDefault:"8000"`

	// Page fetching
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"5s"`
	FetchMaxBytes  int64         `env:"FETCH_MAX_BYTES" envDefault:"2097152"`
	FetchUserAgent string        `env:"FETCH_USER_AGENT" envDefault:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"`

	// Lets product URLs reach loopback and private addresses. Local use only.
	FetchAllowPrivateNetworks bool `env:"FETCH_ALLOW_PRIVATE_NETWORKS" envDefault:"false"`

	// Rate limiting of model-backed endpoints, per user
	AIRateLimitRPS   float64 `env:"AI_RATE_LIMIT_RPS" envDefault:"0.5"`
	AIRateLimitBurst int     `env:"AI_RATE_LIMIT_BURST" envDefault:"5"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load wishlist config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LLMEnabled reports whether a model API key is configured.
func (c *Config) LLMEnabled() bool {
	return c.AnthropicAPIKey != ""
}

func (c *Config) validate() error {
	var errs []error
	errs = append(errs,
		pkgconfig.CheckPort("HTTP_PORT", c.HTTPPort),
		pkgconfig.CheckPositive("FETCH_TIMEOUT", c.FetchTimeout),
		pkgconfig.CheckPositive("LLM_TIMEOUT", c.LLMTimeout),
		pkgconfig.CheckFraction("OTEL_SAMPLE_RATE", c.OTELSampleRate),
	)
	if c.DatabaseURL == "" {
		errs = append(errs, pkgconfig.CheckPort("POSTGRES_PORT", c.PostgresPort))
	}
	if c.RedisEnabled {
		errs = append(errs,
			pkgconfig.CheckPort("REDIS_PORT", c.RedisPort),
			pkgconfig.CheckPositive("PAGE_CACHE_TTL", c.PageCacheTTL),
		)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.LLMMaxInputChars < 500 {
		errs = append(errs, fmt.Errorf("LLM_MAX_INPUT_CHARS must be at least 500, got %d", c.LLMMaxInputChars))
	}
	if c.LLMMaxTokens < 1 {
		errs = append(errs, fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLMMaxTokens))
	}
	if c.FetchMaxBytes < 1 {
		errs = append(errs, fmt.Errorf("FETCH_MAX_BYTES must be positive, got %d", c.FetchMaxBytes))
	}
	if c.AIRateLimitRPS <= 0 || c.AIRateLimitBurst < 1 {
		errs = append(errs, errors.New("AI_RATE_LIMIT_RPS and AI_RATE_LIMIT_BURST must be positive"))
	}
	return errors.Join(errs...)
}
