// Package config loads service configuration from a YAML file, the
// environment (prefix MIXCOACH_) and built-in defaults, in that order of
// precedence from lowest to highest: defaults, file, environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Events     EventsConfig     `mapstructure:"events"`
	Log        LogConfig        `mapstructure:"log"`
	Assessment AssessmentConfig `mapstructure:"assessment"`
}

type ServerConfig struct {
	Addr            string          `mapstructure:"addr"`
	Mode            string          `mapstructure:"mode"`
	CORSOrigins     []string        `mapstructure:"cors_origins"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
	ReadTimeout     time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration   `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type StoreConfig struct {
	Driver     string        `mapstructure:"driver"`  // memory | sqlite
	DSN        string        `mapstructure:"dsn"`     // sqlite file; empty means the default data path
	Pending    string        `mapstructure:"pending"` // store | redis
	PendingTTL time.Duration `mapstructure:"pending_ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type EventsConfig struct {
	Driver   string      `mapstructure:"driver"` // log | amqp
	AMQPURL  string      `mapstructure:"amqp_url"`
	Exchange string      `mapstructure:"exchange"`
	Retry    RetryConfig `mapstructure:"retry"`
}

// RetryConfig controls exponential backoff for event publishing.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type AssessmentConfig struct {
	PerCategory int `mapstructure:"per_category"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.rps", 10)
	v.SetDefault("server.rate_limit.burst", 20)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.pending", "store")
	v.SetDefault("store.pending_ttl", 2*time.Hour)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("events.driver", "log")
	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.exchange", "mixcoach.events")
	v.SetDefault("events.retry.max_attempts", 3)
	v.SetDefault("events.retry.initial_wait", 200*time.Millisecond)
	v.SetDefault("events.retry.max_wait", 2*time.Second)
	v.SetDefault("events.retry.multiplier", 2.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("assessment.per_category", 3)
}

// Load reads configuration. path names an explicit config file; when empty,
// mixcoach.yaml is searched for in the working directory and the user config
// directory, and a missing file is not an error. A .env file in the working
// directory is loaded into the environment first, if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mixcoach")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "mixcoach"))
		}
	}

	v.SetEnvPrefix("MIXCOACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("store.driver: unknown driver %q (want memory or sqlite)", c.Store.Driver))
	}
	switch c.Store.Pending {
	case "store":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis.addr: required when store.pending is redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.pending: unknown backend %q (want store or redis)", c.Store.Pending))
	}
	if c.Store.PendingTTL <= 0 {
		errs = append(errs, "store.pending_ttl: must be positive")
	}

	switch c.Events.Driver {
	case "log":
	case "amqp":
		if c.Events.Exchange == "" {
			errs = append(errs, "events.exchange: required when events.driver is amqp")
		}
	default:
		errs = append(errs, fmt.Sprintf("events.driver: unknown driver %q (want log or amqp)", c.Events.Driver))
	}
	if r := c.Events.Retry; r.MaxAttempts < 1 || r.Multiplier < 1 || r.InitialWait < 0 || r.MaxWait < r.InitialWait {
		errs = append(errs, "events.retry: need max_attempts >= 1, multiplier >= 1 and 0 <= initial_wait <= max_wait")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("log.level: %v", err))
	}
	if c.Assessment.PerCategory <= 0 {
		errs = append(errs, "assessment.per_category: must be positive")
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst <= 0) {
		errs = append(errs, "server.rate_limit: rps and burst must be positive when enabled")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Sprintf("server.mode: unknown mode %q", c.Server.Mode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
