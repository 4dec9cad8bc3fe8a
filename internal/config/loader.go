package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "sportz.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	return load(yamlPath, CLIFlags{})
}

func load(yamlPath string, f CLIFlags) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)
	applyCLI(&cfg, f)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Port, "SPORTZ_PORT")
	setString(&cfg.Server.CORSOrigin, "SPORTZ_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "SPORTZ_REQUEST_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "SPORTZ_SHUTDOWN_TIMEOUT")
	setDuration(&cfg.Server.IdempotencyTTL, "SPORTZ_IDEMPOTENCY_TTL")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "SPORTZ_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "SPORTZ_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "SPORTZ_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "SPORTZ_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "SPORTZ_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "SPORTZ_NATS_STREAM")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "SPORTZ_CACHE_L1_SIZE_MB")
	setDuration(&cfg.Cache.L1TTL, "SPORTZ_CACHE_L1_TTL")
	setString(&cfg.Cache.L2Bucket, "SPORTZ_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "SPORTZ_CACHE_L2_TTL")

	setString(&cfg.Logging.Level, "SPORTZ_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SPORTZ_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "SPORTZ_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "SPORTZ_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "SPORTZ_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "SPORTZ_RATE_RPS")
	setInt(&cfg.Rate.Burst, "SPORTZ_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "SPORTZ_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "SPORTZ_RATE_MAX_IDLE_TIME")

	// Hub
	setInt(&cfg.Hub.QueueCapacity, "SPORTZ_HUB_QUEUE_CAPACITY")
	setString(&cfg.Hub.Backpressure, "SPORTZ_HUB_BACKPRESSURE")
	setDuration(&cfg.Hub.WriteTimeout, "SPORTZ_HUB_WRITE_TIMEOUT")
	setInt(&cfg.Hub.MaxTopicsPerConnection, "SPORTZ_HUB_MAX_TOPICS")
	setInt64(&cfg.Hub.ReadLimit, "SPORTZ_HUB_READ_LIMIT")
	setDuration(&cfg.Hub.HeartbeatInterval, "SPORTZ_HEARTBEAT_INTERVAL")
	setDuration(&cfg.Hub.HeartbeatTimeout, "SPORTZ_HEARTBEAT_TIMEOUT")
	setInt(&cfg.Hub.MaxMissed, "SPORTZ_HEARTBEAT_MAX_MISSED")
	setStrings(&cfg.Hub.OriginPatterns, "SPORTZ_WS_ORIGINS")

	// OTel
	setBool(&cfg.OTel.Enabled, "SPORTZ_OTEL_ENABLED")
	setString(&cfg.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTel.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTel.Insecure, "SPORTZ_OTEL_INSECURE")
	setFloat64(&cfg.OTel.SampleRate, "SPORTZ_OTEL_SAMPLE_RATE")
}

// validate checks that required fields are set and values are usable.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.IdempotencyTTL <= 0 {
		return errors.New("server.idempotency_ttl must be > 0")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Cache.L1MaxSizeMB < 1 {
		return errors.New("cache.l1_max_size_mb must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.RequestsPerSecond <= 0 {
		return errors.New("rate.requests_per_second must be > 0")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Hub.QueueCapacity < 1 {
		return errors.New("hub.queue_capacity must be >= 1")
	}
	switch cfg.Hub.Backpressure {
	case "drop_oldest", "close":
	default:
		return fmt.Errorf("hub.backpressure must be drop_oldest or close, got %q", cfg.Hub.Backpressure)
	}
	if cfg.Hub.MaxTopicsPerConnection < 1 {
		return errors.New("hub.max_topics_per_connection must be >= 1")
	}
	if cfg.Hub.ReadLimit < 512 {
		return errors.New("hub.read_limit must be >= 512")
	}
	if cfg.Hub.HeartbeatInterval <= 0 || cfg.Hub.HeartbeatTimeout <= 0 {
		return errors.New("hub heartbeat interval and timeout must be > 0")
	}
	if cfg.Hub.HeartbeatTimeout >= cfg.Hub.HeartbeatInterval {
		return errors.New("hub.heartbeat_timeout must be shorter than hub.heartbeat_interval")
	}
	if cfg.Hub.MaxMissed < 1 {
		return errors.New("hub.max_missed must be >= 1")
	}
	if cfg.OTel.Enabled && cfg.OTel.Endpoint == "" {
		return errors.New("otel.endpoint is required when otel is enabled")
	}
	if cfg.OTel.SampleRate < 0 || cfg.OTel.SampleRate > 1 {
		return errors.New("otel.sample_rate must be within [0, 1]")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setStrings(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
