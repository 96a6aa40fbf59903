// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type GatewayConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	WebhookSecret string        `yaml:"webhook_secret"` // HMAC key for inbound notifications; empty disables the check
	Timeout       time.Duration `yaml:"timeout"`
	Noop          bool          `yaml:"noop"` // in-memory gateway for dev
}

type PassConfig struct {
	PriceAmount int64         `yaml:"price_amount"` // minor units
	Currency    string        `yaml:"currency"`
	Duration    time.Duration `yaml:"duration"`
	Operators   []string      `yaml:"operators"` // allowed mobile money operator codes
}

type AdminConfig struct {
	APIKey        string        `yaml:"api_key"`       // service key for the site frontend
	JWTSecret     string        `yaml:"jwt_secret"`    // admin session signing key
	SessionTTL    time.Duration `yaml:"session_ttl"`   // admin session lifetime
	LoginPassword string        `yaml:"login_password"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Pass     PassConfig     `yaml:"pass"`
	Admin    AdminConfig    `yaml:"admin"`

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
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Gateway.Timeout <= 0 {
		cfg.Gateway.Timeout = 15 * time.Second
	}
	if cfg.Pass.PriceAmount <= 0 {
		cfg.Pass.PriceAmount = 5000
	}
	if cfg.Pass.Currency == "" {
		cfg.Pass.Currency = "XOF"
	}
	if cfg.Pass.Duration <= 0 {
		cfg.Pass.Duration = time.Hour
	}
	if len(cfg.Pass.Operators) == 0 {
		cfg.Pass.Operators = []string{"OM", "MOMO", "MOOV", "WAVE"}
	}
	for i, op := range cfg.Pass.Operators {
		cfg.Pass.Operators[i] = strings.ToUpper(strings.TrimSpace(op))
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if !cfg.Gateway.Noop && cfg.Gateway.BaseURL == "" {
		return nil, errors.New("gateway.base_url is required unless gateway.noop is set")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// OperatorAllowed reports whether the operator code is in the configured set.
func (c *PassConfig) OperatorAllowed(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, op := range c.Operators {
		if op == code {
			return true
		}
	}
	return false
}
