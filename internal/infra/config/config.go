package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config aggregates application configuration. It is built once at startup and
// passed by value.
type Config struct {
	Env      string
	LogLevel slog.Level
	HTTPAddr string
	Storage  string

	PostgresDSN string
	MongoURI    string
	MongoDB     string

	KafkaBrokers        []string
	KafkaTopicPrefix    string
	PaymentEventsTopic  string
	KafkaConsumerGroup  string
	IdempotencyTTL      time.Duration
	OutboxPollInterval  time.Duration
	RetryBackoff        []time.Duration
	CORSAllowedOrigins  []string
	SymmetricPrepBuffer bool
	ReturnPollMaxWait   time.Duration
	HostResponseWindow  time.Duration
	PaymentWindow       time.Duration
	SweepInterval       time.Duration
	SweepBatchSize      int
	PropertyFixtures    string

	PaymentWebhookSecret string
}

var ErrMissingValue = errors.New("config: required value missing")

// Load reads an optional .env file, then the optional TOML file named by
// CONFIG_FILE, then the process environment. Later sources win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}
	return src.build()
}

// source resolves keys against the environment first and the TOML file second.
// TOML keys use the same names as the environment variables, in any case.
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	s := source{file: map[string]string{}}
	if path == "" {
		return s, nil
	}
	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return source{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	for k, v := range raw {
		switch val := v.(type) {
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			s.file[strings.ToUpper(k)] = strings.Join(parts, ",")
		default:
			s.file[strings.ToUpper(k)] = fmt.Sprint(val)
		}
	}
	return s, nil
}

func (s source) build() (Config, error) {
	cfg := Config{
		Env:                s.getEnv("APP_ENV", "dev"),
		HTTPAddr:           s.getEnv("HTTP_ADDR", ":8080"),
		Storage:            strings.ToLower(s.getEnv("STORAGE_MODE", StorageMemory)),
		PostgresDSN:        s.getEnv("POSTGRES_DSN", ""),
		MongoURI:           s.getEnv("MONGO_URI", ""),
		MongoDB:            s.getEnv("MONGO_DB", "rentnow"),
		KafkaTopicPrefix:   s.getEnv("KAFKA_TOPIC_PREFIX", ""),
		PaymentEventsTopic: s.getEnv("PAYMENT_EVENTS_TOPIC", "payments.events"),
		KafkaConsumerGroup: s.getEnv("KAFKA_CONSUMER_GROUP", "rentnow-bookings"),
		KafkaBrokers:       splitList(s.getEnv("KAFKA_BROKERS", "")),
		CORSAllowedOrigins: splitList(s.getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PropertyFixtures:   s.getEnv("PROPERTY_FIXTURES", "data/properties.json"),
	}

	cfg.PaymentWebhookSecret = s.getEnv("PAYMENT_WEBHOOK_SECRET", "")

	var err error
	if cfg.LogLevel, err = s.parseLevel("LOG_LEVEL", slog.LevelInfo); err != nil {
		return Config{}, err
	}
	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"IDEMP_TTL", 168 * time.Hour, &cfg.IdempotencyTTL},
		{"OUTBOX_POLL_INTERVAL", 500 * time.Millisecond, &cfg.OutboxPollInterval},
		{"RETURN_POLL_MAX_WAIT", 2 * time.Minute, &cfg.ReturnPollMaxWait},
		{"HOST_RESPONSE_WINDOW", 24 * time.Hour, &cfg.HostResponseWindow},
		{"PAYMENT_WINDOW", 30 * time.Minute, &cfg.PaymentWindow},
		{"SWEEP_INTERVAL", time.Minute, &cfg.SweepInterval},
	}
	for _, d := range durations {
		if *d.dst, err = s.parseDurationEnv(d.key, d.def); err != nil {
			return Config{}, err
		}
	}
	if cfg.SymmetricPrepBuffer, err = s.parseBoolEnv("PREP_BUFFER_SYMMETRIC", false); err != nil {
		return Config{}, err
	}
	if cfg.SweepBatchSize, err = s.parseIntEnv("SWEEP_BATCH_SIZE", 100); err != nil {
		return Config{}, err
	}
	for _, raw := range splitList(s.getEnv("RETRY_BACKOFF", "1s,5s,30s")) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.SweepBatchSize <= 0 {
		return fmt.Errorf("config: SWEEP_BATCH_SIZE must be positive")
	}
	switch c.Storage {
	case StorageMemory:
		return nil
	case StoragePostgres:
	default:
		return fmt.Errorf("config: unknown STORAGE_MODE %q", c.Storage)
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("%w: POSTGRES_DSN", ErrMissingValue)
	}
	if c.MongoURI == "" {
		return fmt.Errorf("%w: MONGO_URI", ErrMissingValue)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("%w: KAFKA_BROKERS", ErrMissingValue)
	}
	return nil
}

// Dev reports whether the process runs with developer defaults.
func (c Config) Dev() bool {
	return c.Env == "dev" || c.Env == "local"
}

// Topic prefixes a topic name with KAFKA_TOPIC_PREFIX.
func (c Config) Topic(name string) string {
	return c.KafkaTopicPrefix + name
}

func (s source) getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := s.file[key]; v != "" {
		return v
	}
	return def
}

func (s source) parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := s.getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func (s source) parseBoolEnv(key string, def bool) (bool, error) {
	raw := s.getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}

func (s source) parseIntEnv(key string, def int) (int, error) {
	raw := s.getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func (s source) parseLevel(key string, def slog.Level) (slog.Level, error) {
	raw := s.getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return level, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
