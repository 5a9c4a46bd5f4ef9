// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int           `yaml:"port"`
	AdminAPIKey string        `yaml:"admin_api_key"`
	JWTSecret   string        `yaml:"jwt_secret"`
	Timeout     time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ReferralConfig struct {
	// GrantTier is the membership tier applied on successful redemption.
	GrantTier string `yaml:"grant_tier"`
	// AttemptLimit / AttemptWindow throttle redeem calls per user.
	AttemptLimit  int           `yaml:"attempt_limit"`
	AttemptWindow time.Duration `yaml:"attempt_window"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Referral ReferralConfig `yaml:"referral"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Timeout <= 0 {
		cfg.Server.Timeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Referral.GrantTier == "" {
		cfg.Referral.GrantTier = "Premium"
	}
	if cfg.Referral.AttemptLimit <= 0 {
		cfg.Referral.AttemptLimit = 10
	}
	if cfg.Referral.AttemptWindow <= 0 {
		cfg.Referral.AttemptWindow = time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Server.JWTSecret == "" && !dev {
		return nil, errors.New("server.jwt_secret is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
