// Package config loads client configuration from files, environment
// variables and defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for a search-server client.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Pool          PoolConfig          `mapstructure:"pool"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServerConfig locates the search server's SphinxQL listener.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// PoolConfig tunes the database/sql connection pool.
type PoolConfig struct {
	MaxOpen     int           `mapstructure:"max_open_conns"`
	MaxIdle     int           `mapstructure:"max_idle_conns"`
	MaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ObservabilityConfig toggles OpenTelemetry instrumentation of the client.
type ObservabilityConfig struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
	TracingEnabled bool `mapstructure:"tracing_enabled"`
}

// DSN returns a MySQL-protocol data source name for the SphinxQL listener.
// Sphinx and Manticore ignore credentials and database names, so neither is
// included.
func (s *ServerConfig) DSN() string {
	return fmt.Sprintf("tcp(%s:%d)/?parseTime=true&loc=UTC&timeout=%s",
		s.Host, s.Port, s.ConnectTimeout)
}

// Load loads configuration with the following precedence:
// 1. Environment variables (RIDDLE_SERVER_HOST, ...)
// 2. Config file (explicit path, or riddle.yaml on the search path)
// 3. Default values
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("riddle")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/riddle/")
		v.AddConfigPath("$HOME/.riddle")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Canonical keys: dot + snake_case. Env vars: RIDDLE_POOL_MAX_OPEN_CONNS
	v.SetEnvPrefix("RIDDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 9306)
	v.SetDefault("server.connect_timeout", 5*time.Second)

	v.SetDefault("pool.max_open_conns", 10)
	v.SetDefault("pool.max_idle_conns", 5)
	v.SetDefault("pool.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("observability.metrics_enabled", false)
	v.SetDefault("observability.tracing_enabled", false)
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("server.host must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	if c.Pool.MaxOpen < 0 || c.Pool.MaxIdle < 0 {
		return fmt.Errorf("pool sizes must not be negative")
	}
	return nil
}
