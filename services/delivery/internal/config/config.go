package config

import (
	"fmt"

	pkgconfig "github.com/orderforge/commerce/pkg/config"
)

// Config holds all configuration for the delivery service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"DELIVERY_HTTP_PORT" envDefault:"8003"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"commerce"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"commerce_secret"`
	PostgresDB   string `env:"DELIVERY_DB_NAME" envDefault:"delivery_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Collaborator services
	WarehouseBaseURL string `env:"WAREHOUSE_BASE_URL" envDefault:"http://localhost:8002"`
	OrderBaseURL     string `env:"ORDER_BASE_URL" envDefault:"http://localhost:8001"`

	// Pricing. The pool streets decide the warehouse surcharge in the cost
	// formula; they must match the streets warehouses are configured with.
	PoolAddressOne string `env:"DELIVERY_POOL_ADDRESS_1" envDefault:"ADDRESS_1"`
	PoolAddressTwo string `env:"DELIVERY_POOL_ADDRESS_2" envDefault:"ADDRESS_2"`

	// Rate limiting for the unauthenticated emulate endpoints
	EmulateRateLimitRPS   float64 `env:"DELIVERY_EMULATE_RATE_LIMIT_RPS" envDefault:"5"`
	EmulateRateLimitBurst int     `env:"DELIVERY_EMULATE_RATE_LIMIT_BURST" envDefault:"10"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load delivery config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.WarehouseBaseURL == "" {
		return fmt.Errorf("WAREHOUSE_BASE_URL is required")
	}
	if c.OrderBaseURL == "" {
		return fmt.Errorf("ORDER_BASE_URL is required")
	}
	if c.PoolAddressOne == "" || c.PoolAddressTwo == "" {
		return fmt.Errorf("delivery pool addresses are required")
	}
	if c.EmulateRateLimitRPS <= 0 {
		return fmt.Errorf("DELIVERY_EMULATE_RATE_LIMIT_RPS must be positive, got %f", c.EmulateRateLimitRPS)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}
