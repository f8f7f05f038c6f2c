package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvRedisAddr    = "REDIS_ADDR"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// LoadDatabaseDSN reads the database DSN from the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ChannelConfig bounds the outbound message length.
type ChannelConfig struct {
	Limit int `yaml:"limit"`
}

// RedisConfig holds the optional shared-state backend settings used by both
// the rate limiter and the continuation store.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// ContinuationConfig controls retention of parked full answers.
type ContinuationConfig struct {
	TTL      time.Duration `yaml:"-"`
	Capacity int           `yaml:"capacity"`
}

// UnmarshalYAML accepts the TTL as a Go duration string, e.g. "24h".
func (c *ContinuationConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		TTL      string `yaml:"ttl"`
		Capacity int    `yaml:"capacity"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.Capacity = raw.Capacity
	if ttlRaw := strings.TrimSpace(raw.TTL); ttlRaw != "" {
		ttl, errParse := time.ParseDuration(ttlRaw)
		if errParse != nil {
			return fmt.Errorf("parse continuation ttl: %w", errParse)
		}
		c.TTL = ttl
	}
	return nil
}

// OpenAIConfig holds the generative backend credentials.
type OpenAIConfig struct {
	APIKey  string `yaml:"api-key"`
	BaseURL string `yaml:"base-url"`
}

// Config is the full application configuration file.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Channel      ChannelConfig      `yaml:"channel"`
	Redis        RedisConfig        `yaml:"redis"`
	Continuation ContinuationConfig `yaml:"continuation"`
	OpenAI       OpenAIConfig       `yaml:"openai"`
}

const defaultPort = 8317

// Load reads the full YAML config file and applies environment overrides.
// A missing file is not fatal: everything has a workable default except the
// backend API key, which callers must check before serving traffic.
func Load(configPath string) (Config, error) {
	var cfg Config

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	} else if !errors.Is(errRead, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config file: %w", errRead)
	}

	if key := strings.TrimSpace(os.Getenv(EnvOpenAIKey)); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if addr := strings.TrimSpace(os.Getenv(EnvRedisAddr)); addr != "" {
		cfg.Redis.Enabled = true
		cfg.Redis.Addr = addr
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Channel.Limit < 0 {
		cfg.Channel.Limit = 0
	}
	if cfg.Continuation.TTL < 0 {
		cfg.Continuation.TTL = 0
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "smsrouter"
	}
	return cfg, nil
}
