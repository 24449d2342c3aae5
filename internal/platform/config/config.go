package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	platformstrings "condo/pkg/platform/strings"
)

// Config is the full runtime configuration. Load reads an optional YAML file
// as the base and lets CONDO_* environment variables override it.
type Config struct {
	Server     Server      `yaml:"server"`
	Governance Governance  `yaml:"governance"`
	Storage    Storage     `yaml:"storage"`
	Redis      RedisConfig `yaml:"redis"`
	Kafka      Kafka       `yaml:"kafka"`
	NATS       NATS        `yaml:"nats"`
	Auth       Auth        `yaml:"auth"`
	RateLimit  RateLimit   `yaml:"rate_limit"`
	Log        Log         `yaml:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// Governance seeds the engine on first boot.
type Governance struct {
	// Owner may upgrade the adapter. Defaults to Manager.
	Owner   string `yaml:"owner"`
	Manager string `yaml:"manager"`
	// Implementation is the address the engine registers under and the
	// adapter is first upgraded to.
	Implementation string `yaml:"implementation"`
	// Standby lists further engine addresses registered over the same store.
	// The owner can upgrade the adapter to any of them.
	Standby      []string `yaml:"standby"`
	MonthlyQuota string   `yaml:"monthly_quota"`
}

// Storage selects the governance store. Driver is memory, sqlite, postgres (lib/pq)
// or pgx (pgx stdlib); both PostgreSQL drivers share one dialect.
type Storage struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig configures the optional Redis client. An empty URL disables it.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Kafka configures the notification producer. No brokers disables it.
type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// NATS configures the notification publisher. An empty URL disables it.
type NATS struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Auth configures wallet bearer tokens.
type Auth struct {
	JWTSigningKey string        `yaml:"jwt_signing_key"`
	Issuer        string        `yaml:"issuer"`
	Audience      string        `yaml:"audience"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
}

// RateLimit bounds write requests per wallet.
type RateLimit struct {
	Disabled bool          `yaml:"disabled"`
	Writes   int           `yaml:"writes"`
	Window   time.Duration `yaml:"window"`
}

// Log selects the slog handler.
type Log struct {
	// Format is json or text.
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// Default returns development defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Governance: Governance{
			Manager:        "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
			Implementation: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
			MonthlyQuota:   "1000000000000000",
		},
		Storage: Storage{
			Driver:          "memory",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{Topic: "condo.governance"},
		NATS:  NATS{Subject: "condo.governance"},
		Auth: Auth{
			// Use a default for development - should be overridden in production
			JWTSigningKey: "dev-secret-key-change-in-production",
			Issuer:        "condo",
			Audience:      "condo-api",
			TokenTTL:      24 * time.Hour,
		},
		RateLimit: RateLimit{Writes: 30, Window: time.Minute},
		Log:       Log{Format: "json", Level: "info"},
	}
}

// Load builds the configuration from the YAML file named by CONDO_CONFIG (if
// any) and the environment.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONDO_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if cfg.Governance.Owner == "" {
		cfg.Governance.Owner = cfg.Governance.Manager
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString(getenv, "CONDO_ADDR", &c.Server.Addr)
	setString(getenv, "CONDO_OWNER", &c.Governance.Owner)
	setString(getenv, "CONDO_MANAGER", &c.Governance.Manager)
	setString(getenv, "CONDO_IMPLEMENTATION", &c.Governance.Implementation)
	setString(getenv, "CONDO_MONTHLY_QUOTA", &c.Governance.MonthlyQuota)
	setString(getenv, "CONDO_STORAGE_DRIVER", &c.Storage.Driver)
	setString(getenv, "CONDO_DATABASE_URL", &c.Storage.DSN)
	setString(getenv, "CONDO_REDIS_URL", &c.Redis.URL)
	setString(getenv, "CONDO_KAFKA_TOPIC", &c.Kafka.Topic)
	setString(getenv, "CONDO_NATS_URL", &c.NATS.URL)
	setString(getenv, "CONDO_NATS_SUBJECT", &c.NATS.Subject)
	setString(getenv, "JWT_SIGNING_KEY", &c.Auth.JWTSigningKey)
	setString(getenv, "LOG_FORMAT", &c.Log.Format)
	setString(getenv, "LOG_LEVEL", &c.Log.Level)

	if v := getenv("CONDO_STANDBY_IMPLEMENTATIONS"); v != "" {
		c.Governance.Standby = platformstrings.SplitList(v)
	}
	if v := getenv("CONDO_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = platformstrings.SplitList(v)
	}
	if v := getenv("CONDO_RATE_LIMIT_DISABLED"); v != "" {
		c.RateLimit.Disabled = v == "true"
	}
	if v := getenv("CONDO_RATE_LIMIT_WRITES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONDO_RATE_LIMIT_WRITES: %w", err)
		}
		c.RateLimit.Writes = n
	}
	for key, dst := range map[string]*time.Duration{
		"CONDO_SHUTDOWN_TIMEOUT":  &c.Server.ShutdownTimeout,
		"CONDO_REQUEST_TIMEOUT":   &c.Server.RequestTimeout,
		"CONDO_TOKEN_TTL":         &c.Auth.TokenTTL,
		"CONDO_RATE_LIMIT_WINDOW": &c.RateLimit.Window,
	} {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

func setString(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}
