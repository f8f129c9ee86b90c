// Package config loads console configuration from defaults, an optional
// YAML file and MEDICONNECT_ environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. Nested keys are joined
// with "__", e.g. MEDICONNECT_SESSION__SECRET_KEY.
const EnvPrefix = "MEDICONNECT_"

// Session store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the full console configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
	Backend BackendConfig `koanf:"backend"`
	Session SessionConfig `koanf:"session"`
	Cookie  CookieConfig  `koanf:"cookie"`
	Redis   RedisConfig   `koanf:"redis"`
	Login   LoginConfig   `koanf:"login"`
}

// ServerConfig configures the HTTP listeners.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool `koanf:"trust_proxy"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// BackendConfig points at the hospital platform API.
type BackendConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the backend circuit breaker.
type BreakerConfig struct {
	MaxFailures      uint32        `koanf:"max_failures"`
	OpenTimeout      time.Duration `koanf:"open_timeout"`
	HalfOpenRequests uint32        `koanf:"half_open_requests"`
}

// SessionConfig configures UI sessions.
type SessionConfig struct {
	Store           string        `koanf:"store"`
	SecretKey       string        `koanf:"secret_key"`
	TTL             time.Duration `koanf:"ttl"`
	CookieName      string        `koanf:"cookie_name"`
	ResolveInterval time.Duration `koanf:"resolve_interval"`
	SweepInterval   time.Duration `koanf:"sweep_interval"`
}

// CookieConfig sets attributes of the session cookie.
type CookieConfig struct {
	Secure bool   `koanf:"secure"`
	Domain string `koanf:"domain"`
}

// RedisConfig configures the redis session store.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// LoginConfig sets the per-client login rate limit.
type LoginConfig struct {
	RateLimit float64 `koanf:"rate_limit"` // attempts per minute
	Burst     int     `koanf:"burst"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:5000/api",
			Timeout: 10 * time.Second,
			Breaker: BreakerConfig{
				MaxFailures:      5,
				OpenTimeout:      30 * time.Second,
				HalfOpenRequests: 1,
			},
		},
		Session: SessionConfig{
			Store:         StoreMemory,
			TTL:           12 * time.Hour,
			CookieName:    "mediconnect_session",
			SweepInterval: time.Minute,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Login: LoginConfig{
			RateLimit: 10,
			Burst:     5,
		},
	}
}

// Load reads configuration. path may be empty to skip the YAML file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps MEDICONNECT_SESSION__SECRET_KEY to session.secret_key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate rejects configurations the console cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Session.SecretKey == "" {
		errs = append(errs, errors.New("session.secret_key is required"))
	}

	switch c.Session.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("session.store %q is not one of %s, %s", c.Session.Store, StoreMemory, StoreRedis))
	}

	if c.Backend.BaseURL == "" {
		errs = append(errs, errors.New("backend.base_url is required"))
	} else if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend.base_url %q is not an absolute URL", c.Backend.BaseURL))
	}

	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
