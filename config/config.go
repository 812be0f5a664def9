/*
Package config loads server configuration and builds the logger.

PRECEDENCE (highest first):
  1. Environment variables, prefix ROSTER_ with "." replaced by "_"
     (ROSTER_SERVER_PORT, ROSTER_DATABASE_PATH, ROSTER_LOG_LEVEL, ...)
  2. .env in the working directory, loaded into the environment first
  3. Config file (YAML), either the -config path or ./config/config.yaml
  4. Defaults below

EXAMPLE config.yaml:
  server:
    port: 8080
    allow_origins: ["http://localhost:5173"]
  database:
    driver: sqlite
    path: ./data/roster.db
  log:
    level: info
    format: json
  monitor:
    enabled: true
    interval: 1h
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "memory". The memory store loses everything on
	// exit and ignores Path.
	Driver string `mapstructure:"driver"`

	// Path of the SQLite file. ":memory:" keeps the database in memory.
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// MonitorConfig controls the overdue-resumption monitor.
type MonitorConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// Load reads configuration from path (optional), .env and the environment.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allow_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "roster.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.interval", "1h")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("invalid config: database.path is required")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid config: database.driver must be sqlite or memory, got %q", c.Database.Driver)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid config: log.level %q: %w", c.Log.Level, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid config: log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Monitor.Enabled && c.Monitor.Interval <= 0 {
		return errors.New("invalid config: monitor.interval must be positive when the monitor is enabled")
	}
	return nil
}

// NewLogger builds a zap logger from the log settings.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	switch cfg.Format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
