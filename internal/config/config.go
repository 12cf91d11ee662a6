// Package config loads the server configuration from an optional YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendNATS     = "nats"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Events  EventsConfig  `yaml:"events"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	APIToken        string        `yaml:"api_token"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	Backend   string         `yaml:"backend"`
	KeyPrefix string         `yaml:"key_prefix"`
	Timeout   time.Duration  `yaml:"timeout"`
	Redis     RedisConfig    `yaml:"redis"`
	Postgres  PostgresConfig `yaml:"postgres"`
	NATS      NATSConfig     `yaml:"nats"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig takes a full DSN, or builds one from the parts
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type NATSConfig struct {
	URL    string `yaml:"url"`
	Bucket string `yaml:"bucket"`
}

type OracleConfig struct {
	URL               string        `yaml:"url"`
	SymbolsParam      string        `yaml:"symbols_param"`
	ListPath          string        `yaml:"list_path"`
	SymbolField       string        `yaml:"symbol_field"`
	PriceField        string        `yaml:"price_field"`
	APIKeyHeader      string        `yaml:"api_key_header"`
	APIKey            string        `yaml:"api_key"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

type EventsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	SubjectPrefix string `yaml:"subject_prefix"`
	Stream        string `yaml:"stream"`
	Buffer        int    `yaml:"buffer"`
}

type LedgerConfig struct {
	Currency      string        `yaml:"currency"`
	Timezone      string        `yaml:"timezone"`
	CheckInterval time.Duration `yaml:"check_interval"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			APIToken:        "dev-token",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Timeout: 5 * time.Second,
			Redis:   RedisConfig{Addr: "localhost:6379"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     "5432",
				User:     "postgres",
				Password: "postgres",
				Name:     "dashboard",
			},
			NATS: NATSConfig{URL: "nats://localhost:4222", Bucket: "dashboard_ledger"},
		},
		Oracle: OracleConfig{
			Timeout:           10 * time.Second,
			RequestsPerSecond: 1,
			Burst:             1,
		},
		Events: EventsConfig{
			SubjectPrefix: "dashboard.ledger.events",
			Stream:        "DASHBOARD_LEDGER_EVENTS",
			Buffer:        256,
		},
		Ledger: LedgerConfig{
			Currency:      "USD",
			Timezone:      "UTC",
			CheckInterval: time.Hour,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (optional) over the defaults, then applies environment overrides
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an explicit environment lookup
func LoadWithEnv(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Server.Addr, "HTTP_ADDR")
	set(&c.Server.APIToken, "API_TOKEN")
	set(&c.Storage.Backend, "STORAGE_BACKEND")
	set(&c.Storage.KeyPrefix, "STORAGE_KEY_PREFIX")
	set(&c.Storage.Redis.Addr, "REDIS_ADDR")
	set(&c.Storage.Redis.Password, "REDIS_PASSWORD")
	set(&c.Storage.Postgres.DSN, "DB_CONN_STR")
	set(&c.Storage.Postgres.Host, "DB_HOST")
	set(&c.Storage.Postgres.Port, "DB_PORT")
	set(&c.Storage.Postgres.User, "DB_USER")
	set(&c.Storage.Postgres.Password, "DB_PASSWORD")
	set(&c.Storage.Postgres.Name, "DB_NAME")
	set(&c.Storage.NATS.URL, "NATS_URL")
	set(&c.Oracle.URL, "ORACLE_URL")
	set(&c.Oracle.APIKey, "ORACLE_API_KEY")
	set(&c.Ledger.Currency, "LEDGER_CURRENCY")
	set(&c.Ledger.Timezone, "LEDGER_TIMEZONE")
	set(&c.Log.Level, "LOG_LEVEL")

	if v := getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		c.Storage.Redis.DB = n
	}
	if v := getenv("EVENTS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid EVENTS_ENABLED %q: %w", v, err)
		}
		c.Events.Enabled = b
	}
	return nil
}

// Validate checks the settings that cannot fall back to a default
func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis, BackendPostgres, BackendNATS:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Ledger.CheckInterval <= 0 {
		return fmt.Errorf("ledger check_interval must be positive")
	}
	if c.Events.Enabled && c.Storage.NATS.URL == "" {
		return fmt.Errorf("events require a nats url")
	}
	return nil
}

// Location is the time zone that decides when a calendar day starts
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ledger timezone %q: %w", c.Ledger.Timezone, err)
	}
	return loc, nil
}

// PostgresDSN returns the explicit DSN, or one built from the individual parts
func (c *Config) PostgresDSN() string {
	p := c.Storage.Postgres
	if p.DSN != "" {
		return p.DSN
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Name)
}
