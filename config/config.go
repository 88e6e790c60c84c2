package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Ingestion     IngestionConfig     `yaml:"ingestion"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the API server configuration.
type HTTPConfig struct {
	Addr            string  `yaml:"addr"`
	SubmitRateLimit float64 `yaml:"submit_rate_limit"`
	SubmitRateBurst int     `yaml:"submit_rate_burst"`
}

// IngestionConfig holds the consumer-side pipeline configuration.
type IngestionConfig struct {
	WorkerCount     int           `yaml:"worker_count"`
	MessageTimeout  time.Duration `yaml:"message_timeout"`
	AckWait         time.Duration `yaml:"ack_wait"`
	TaskTTL         time.Duration `yaml:"task_ttl"`
	AutoCreateTeams bool          `yaml:"auto_create_teams"`
}

// ObservabilityConfig holds configuration for metrics and tracing.
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

// LoadConfig loads the configuration from a YAML file, falling back to
// environment variables when the file is absent. Env vars always win.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required (config file or DATABASE_URL)")
	}
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS URL is required (config file or NATS_URL)")
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("INGESTION_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ingestion.WorkerCount = n
		}
	}
	if v := os.Getenv("INGESTION_AUTO_CREATE_TEAMS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Ingestion.AutoCreateTeams = b
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.SubmitRateLimit <= 0 {
		cfg.HTTP.SubmitRateLimit = 50
	}
	if cfg.HTTP.SubmitRateBurst <= 0 {
		cfg.HTTP.SubmitRateBurst = 100
	}
	if cfg.Ingestion.WorkerCount <= 0 {
		cfg.Ingestion.WorkerCount = 4
	}
	if cfg.Ingestion.MessageTimeout <= 0 {
		cfg.Ingestion.MessageTimeout = 30 * time.Second
	}
	if cfg.Ingestion.AckWait <= 0 {
		cfg.Ingestion.AckWait = time.Minute
	}
	if cfg.Ingestion.TaskTTL <= 0 {
		cfg.Ingestion.TaskTTL = 24 * time.Hour
	}
}
