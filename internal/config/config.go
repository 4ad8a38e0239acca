// Package config loads service settings from an optional .env file and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/report"
)

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Enabled reports whether a Postgres database was configured. Without one
// the service keeps reports in memory.
func (d DatabaseConfig) Enabled() bool { return d.Host != "" }

func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool { return r.Host != "" }

type GenerationConfig struct {
	APIKey       string
	Model        string
	Temperature  float64
	Timeout      time.Duration
	Concurrency  int
	TopK         int
	ReasonSource report.ReasonSource
	QueueSize    int
}

type AuthConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

func (a AuthConfig) Enabled() bool { return a.Secret != "" }

type Config struct {
	Env        string
	LogLevel   string
	Port       string
	OutputDir  string
	RateLimit  int
	RateWindow time.Duration

	Database   DatabaseConfig
	Redis      RedisConfig
	Generation GenerationConfig
	Auth       AuthConfig
}

// Load reads envFile when it exists, then the environment. Values already
// set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to read %s: %w", envFile, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("config: failed to load environment: %w", err)
	}

	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	p := parser{k: k}

	cfg := &Config{
		Env:        p.str("app_env", "development"),
		LogLevel:   p.str("log_level", "info"),
		Port:       p.str("port", "8080"),
		OutputDir:  p.str("output_dir", "outputs"),
		RateLimit:  p.int("rate_limit", 100),
		RateWindow: p.duration("rate_window", time.Minute),
		Database: DatabaseConfig{
			Driver:   p.str("db_driver", "pgx"),
			Host:     p.str("db_host", ""),
			Port:     p.str("db_port", "5432"),
			User:     p.str("db_user", ""),
			Password: p.str("db_password", ""),
			Name:     p.str("db_name", ""),
			SSLMode:  p.str("db_sslmode", "disable"),
		},
		Redis: RedisConfig{
			Host:     p.str("redis_host", ""),
			Port:     p.str("redis_port", "6379"),
			Password: p.str("redis_password", ""),
			DB:       p.int("redis_db", 0),
		},
		Generation: GenerationConfig{
			APIKey:      p.str("gemini_api_key", ""),
			Model:       p.str("gemini_model", "gemini-2.5-flash"),
			Temperature: p.float("generation_temperature", 0.7),
			Timeout:     p.duration("generation_timeout", 60*time.Second),
			Concurrency: p.int("batch_concurrency", 4),
			TopK:        p.int("top_k", report.DefaultTopK),
			QueueSize:   p.int("queue_size", 100),
		},
		Auth: AuthConfig{
			Secret: p.str("jwt_secret", ""),
			Issuer: p.str("jwt_issuer", "kanso-report-engine"),
			TTL:    p.duration("jwt_ttl", 24*time.Hour),
		},
	}

	source := p.str("reason_source", string(report.ReasonsComputed))
	rs, ok := report.ParseReasonSource(source)
	if !ok {
		p.errs = append(p.errs, fmt.Errorf("REASON_SOURCE: unknown value %q", source))
	}
	cfg.Generation.ReasonSource = rs

	if len(p.errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(p.errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "pgx", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be pgx or postgres, got %q", c.Database.Driver))
	}
	if c.Database.Enabled() && c.Database.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required when DB_HOST is set"))
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, fmt.Errorf("GENERATION_TEMPERATURE must be within [0, 2], got %v", c.Generation.Temperature))
	}
	if c.Generation.Timeout <= 0 {
		errs = append(errs, errors.New("GENERATION_TIMEOUT must be positive"))
	}
	if c.Generation.Concurrency <= 0 {
		errs = append(errs, errors.New("BATCH_CONCURRENCY must be positive"))
	}
	if c.Generation.TopK <= 0 {
		errs = append(errs, errors.New("TOP_K must be positive"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("RATE_LIMIT must not be negative"))
	}
	if c.RateLimit > 0 && c.RateWindow <= 0 {
		errs = append(errs, errors.New("RATE_WINDOW must be positive"))
	}
	if c.Auth.Enabled() && c.Auth.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// parser reads flat koanf keys, falling back to defaults for unset keys and
// collecting every malformed value instead of stopping at the first.
type parser struct {
	k    *koanf.Koanf
	errs []error
}

func (p *parser) raw(key string) (string, bool) {
	if !p.k.Exists(key) {
		return "", false
	}
	v := strings.TrimSpace(p.k.String(key))
	return v, v != ""
}

func (p *parser) str(key, def string) string {
	if v, ok := p.raw(key); ok {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", strings.ToUpper(key), v))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid number %q", strings.ToUpper(key), v))
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", strings.ToUpper(key), v))
		return def
	}
	return d
}
