// Package config loads fixoo-api settings from flags, FIXOO_* environment
// variables and optional .env files. Flags win over the environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/fixoo-app/fixoo/internal/errs"
)

// Key-value backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the server configuration.
type Config struct {
	Addr    string
	Backend string

	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	FilePath      string

	JWTKey    string
	AccessTTL time.Duration

	BootstrapUser     string
	BootstrapPassword string

	RateLimit       float64
	RateBurst       int
	LoginMaxFails   int
	LoginWindow     time.Duration
	LoginBlock      time.Duration
	ShutdownTimeout time.Duration

	Dev bool
}

// LoadDotEnv loads each existing file into the process environment without
// overriding variables that are already set.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Parse builds a Config from args with defaults taken from getenv.
func Parse(args []string, getenv func(string) string, stderr io.Writer) (*Config, error) {
	env := envReader{get: getenv}
	fs := flag.NewFlagSet("fixoo-api", flag.ContinueOnError)
	fs.SetOutput(stderr)

	c := &Config{}
	fs.StringVar(&c.Addr, "addr", env.str("FIXOO_ADDR", ":8080"), "listen address")
	fs.StringVar(&c.Backend, "backend", env.str("FIXOO_BACKEND", BackendMemory), "key-value backend: memory|file|postgres|redis")
	fs.StringVar(&c.DSN, "dsn", env.str("FIXOO_DSN", ""), "PostgreSQL DSN (postgres backend)")
	fs.StringVar(&c.RedisAddr, "redis-addr", env.str("FIXOO_REDIS_ADDR", ""), "Redis address (redis backend)")
	fs.StringVar(&c.RedisPassword, "redis-password", env.str("FIXOO_REDIS_PASSWORD", ""), "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", env.int("FIXOO_REDIS_DB", 0), "Redis database")
	fs.StringVar(&c.RedisPrefix, "redis-prefix", env.str("FIXOO_REDIS_PREFIX", "fixoo:"), "Redis key prefix")
	fs.StringVar(&c.FilePath, "file", env.str("FIXOO_FILE", "fixoo-data.json"), "data file (file backend)")
	fs.StringVar(&c.JWTKey, "jwt-key", env.str("FIXOO_JWT_KEY", ""), "HS256 signing key (required)")
	fs.DurationVar(&c.AccessTTL, "access-ttl", env.dur("FIXOO_ACCESS_TTL", 12*time.Hour), "admin token TTL")
	fs.StringVar(&c.BootstrapUser, "bootstrap-user", env.str("FIXOO_BOOTSTRAP_USER", ""), "superadmin created when no admin exists")
	fs.StringVar(&c.BootstrapPassword, "bootstrap-password", env.str("FIXOO_BOOTSTRAP_PASSWORD", ""), "password for -bootstrap-user")
	fs.Float64Var(&c.RateLimit, "rate", env.float("FIXOO_RATE", 50), "API requests per second (0 disables)")
	fs.IntVar(&c.RateBurst, "burst", env.int("FIXOO_BURST", 100), "API burst size")
	fs.IntVar(&c.LoginMaxFails, "login-max-fails", env.int("FIXOO_LOGIN_MAX_FAILS", 5), "failed logins before lockout")
	fs.DurationVar(&c.LoginWindow, "login-window", env.dur("FIXOO_LOGIN_WINDOW", 15*time.Minute), "failed login counting window")
	fs.DurationVar(&c.LoginBlock, "login-block", env.dur("FIXOO_LOGIN_BLOCK", 15*time.Minute), "lockout duration")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", env.dur("FIXOO_SHUTDOWN_TIMEOUT", 5*time.Second), "graceful shutdown limit")
	fs.BoolVar(&c.Dev, "dev", env.bool("FIXOO_DEV", false), "development logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks required settings for the chosen backend.
func (c *Config) Validate() error {
	if c.JWTKey == "" {
		return fmt.Errorf("%w: missing jwt signing key (-jwt-key / FIXOO_JWT_KEY)", errs.ErrValidation)
	}
	switch c.Backend {
	case BackendMemory:
	case BackendFile:
		if c.FilePath == "" {
			return fmt.Errorf("%w: file backend needs -file", errs.ErrValidation)
		}
	case BackendPostgres:
		if c.DSN == "" {
			return fmt.Errorf("%w: postgres backend needs -dsn", errs.ErrValidation)
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis backend needs -redis-addr", errs.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", errs.ErrValidation, c.Backend)
	}
	if c.LoginMaxFails < 1 {
		return fmt.Errorf("%w: login-max-fails must be positive", errs.ErrValidation)
	}
	return nil
}

// envReader collects malformed values instead of failing on the first one.
type envReader struct {
	get  func(string) string
	errs []error
}

func (e *envReader) str(key, def string) string {
	if v := e.get(key); v != "" {
		return v
	}
	return def
}

func (e *envReader) int(key string, def int) int {
	v := e.get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *envReader) float(key string, def float64) float64 {
	v := e.get(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (e *envReader) dur(key string, def time.Duration) time.Duration {
	v := e.get(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e *envReader) bool(key string, def bool) bool {
	v := e.get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}
