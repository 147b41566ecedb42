// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full runtime configuration of the server.
type Config struct {
	Environment string
	Server      Server
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Sweep       SweepConfig
	Log         LogConfig
	Telemetry   TelemetryConfig

	// CatalogPath optionally names a JSON requirement catalog that is
	// registered and activated on top of the built-in one.
	CatalogPath string
	// AggregateCacheTTL bounds how long a cached aggregate status lives.
	AggregateCacheTTL time.Duration
	// EventBufferSize bounds undelivered events held in memory.
	EventBufferSize int
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

// DatabaseConfig selects PostgreSQL when URL is set; otherwise the
// in-memory store is used.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
}

// RedisConfig configures the aggregate cache. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the event sink. No brokers means events stay in
// process.
type KafkaConfig struct {
	Brokers    []string
	Topic      string
	ClientID   string
	Partitions int32
}

type SweepConfig struct {
	Interval  time.Duration
	BatchSize int
}

type LogConfig struct {
	Level  string
	Format string
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

// IsProduction reports whether the process runs with production defaults.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []string
	p := parser{errs: &errs}

	env := p.str("KYC_ENV", "development")
	logFormat := "text"
	if env == "production" {
		logFormat = "json"
	}

	cfg := Config{
		Environment: env,
		Server: Server{
			Addr:            p.str("KYC_ADDR", ":8080"),
			ShutdownTimeout: p.duration("KYC_SHUTDOWN_TIMEOUT", 15*time.Second),
			RequestTimeout:  p.duration("KYC_REQUEST_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             p.str("DATABASE_URL", ""),
			MaxOpenConns:    p.integer("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    p.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxIdleTime: p.duration("DATABASE_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    p.list("KAFKA_BROKERS"),
			Topic:      p.str("KAFKA_TOPIC", "kyc.events"),
			ClientID:   p.str("KAFKA_CLIENT_ID", "talentkyc"),
			Partitions: int32(p.integer("KAFKA_TOPIC_PARTITIONS", 3)),
		},
		Sweep: SweepConfig{
			Interval:  p.duration("KYC_SWEEP_INTERVAL", time.Hour),
			BatchSize: p.integer("KYC_SWEEP_BATCH_SIZE", 100),
		},
		Log: LogConfig{
			Level:  p.str("LOG_LEVEL", "info"),
			Format: p.str("LOG_FORMAT", logFormat),
		},
		Telemetry: TelemetryConfig{
			Endpoint:    p.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName: p.str("OTEL_SERVICE_NAME", "talentkyc"),
			SampleRatio: p.float("OTEL_SAMPLE_RATIO", 1.0),
		},
		CatalogPath:       p.str("KYC_CATALOG_PATH", ""),
		AggregateCacheTTL: p.duration("KYC_AGGREGATE_CACHE_TTL", 15*time.Minute),
		EventBufferSize:   p.integer("KYC_EVENT_BUFFER_SIZE", 4096),
	}

	if cfg.Sweep.BatchSize <= 0 {
		errs = append(errs, "KYC_SWEEP_BATCH_SIZE must be positive")
	}
	if cfg.Sweep.Interval <= 0 {
		errs = append(errs, "KYC_SWEEP_INTERVAL must be positive")
	}
	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		errs = append(errs, "OTEL_SAMPLE_RATIO must be within [0,1]")
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

type parser struct {
	errs *[]string
}

func (p parser) str(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (p parser) integer(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Sprintf("%s: %q is not an integer", key, raw))
		return fallback
	}
	return v
}

func (p parser) float(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Sprintf("%s: %q is not a number", key, raw))
		return fallback
	}
	return v
}

func (p parser) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Sprintf("%s: %q is not a duration", key, raw))
		return fallback
	}
	return v
}

func (p parser) list(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
