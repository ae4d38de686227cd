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

// Config holds all server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Store     StoreConfig     `yaml:"store"`
	SQL       SQLConfig       `yaml:"sql"`
	Partition PartitionConfig `yaml:"partition"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// RedisConfig configures the Redis result store.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	ResultTTL string `yaml:"result_ttl"`
}

// StoreConfig selects where results are kept.
type StoreConfig struct {
	Backend string `yaml:"backend"` // redis, memory
}

// SQLConfig configures statement rendering.
type SQLConfig struct {
	TableName    string `yaml:"table_name"`
	EscapeQuotes bool   `yaml:"escape_quotes"`
}

// PartitionConfig configures the shuffle.
type PartitionConfig struct {
	Seed uint64 `yaml:"seed"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":5000",
			MaxUploadBytes: 16 << 20,
		},
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			DB:        0,
			ResultTTL: "24h",
		},
		Store: StoreConfig{
			Backend: "redis",
		},
		SQL: SQLConfig{
			TableName:    "students",
			EscapeQuotes: true,
		},
		Partition: PartitionConfig{
			Seed: 42,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("SETSPLIT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SETSPLIT_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("SETSPLIT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		c.Redis.DB = db
	}
	return nil
}

// GetResultTTL parses redis.result_ttl. Empty means no expiry.
func (c *Config) GetResultTTL() time.Duration {
	if c.Redis.ResultTTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Redis.ResultTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	switch c.Store.Backend {
	case "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("store.backend must be redis or memory, got %q", c.Store.Backend))
	}
	if c.Redis.ResultTTL != "" {
		if d, err := time.ParseDuration(c.Redis.ResultTTL); err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("redis.result_ttl %q is not a valid duration", c.Redis.ResultTTL))
		}
	}
	if c.Redis.DB < 0 {
		errs = append(errs, errors.New("redis.db cannot be negative"))
	}
	if !validTableName(c.SQL.TableName) {
		errs = append(errs, fmt.Errorf("sql.table_name %q must be a plain identifier", c.SQL.TableName))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not json or console", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func validTableName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		case r == '.' && i > 0 && i < len(name)-1:
		default:
			return false
		}
	}
	return true
}
