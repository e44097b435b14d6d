// Package config loads edge settings from flags, CORNELLA_* environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// CORNELLA_CACHE_VERSION for cache.version.
const EnvPrefix = "CORNELLA"

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the complete edge configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Push     PushConfig     `mapstructure:"push"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type UpstreamConfig struct {
	// Origin is the app origin the edge fronts.
	Origin    string        `mapstructure:"origin"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	// Version suffixes the bucket names; bump it to evict old buckets.
	Version   string `mapstructure:"version"`
	Backend   string `mapstructure:"backend"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`
}

type SupabaseConfig struct {
	URL            string `mapstructure:"url"`
	AnonKey        string `mapstructure:"anon_key"`
	ServiceRoleKey string `mapstructure:"service_role_key"`
	Schema         string `mapstructure:"schema"`
}

type PushConfig struct {
	// URLs are shoutrrr service URLs notifications are delivered to.
	URLs []string `mapstructure:"urls"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

var defaults = map[string]any{
	"server.listen":             ":8080",
	"server.shutdown_timeout":   10 * time.Second,
	"upstream.origin":           "http://localhost:5173",
	"upstream.user_agent":       "cornella-edge/0.1.0",
	"upstream.timeout":          30 * time.Second,
	"cache.version":             "v1",
	"cache.backend":             BackendMemory,
	"cache.redis_addr":          "localhost:6379",
	"cache.redis_db":            0,
	"supabase.url":              "",
	"supabase.anon_key":         "",
	"supabase.service_role_key": "",
	"supabase.schema":           "public",
	"push.urls":                 []string{},
	"log.level":                 "info",
	"log.pretty":                false,
}

// New returns a viper instance with defaults and environment binding set.
// Callers may bind command flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// Load reads envFile into the environment when it exists, then decodes
// and validates v. Variables already set in the environment win over the
// file.
func Load(v *viper.Viper, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Push.URLs = splitList(cfg.Push.URLs)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen is required"))
	}
	if _, err := c.OriginURL(); err != nil {
		errs = append(errs, err)
	}
	if c.Cache.Version == "" {
		errs = append(errs, errors.New("cache.version is required"))
	}
	switch c.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be %q or %q, got %q", BackendMemory, BackendRedis, c.Cache.Backend))
	}
	if c.Supabase.URL != "" {
		if u, err := url.Parse(c.Supabase.URL); err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("supabase.url is not an absolute URL: %q", c.Supabase.URL))
		}
	}

	return errors.Join(errs...)
}

// OriginURL parses the upstream origin.
func (c *Config) OriginURL() (*url.URL, error) {
	u, err := url.Parse(c.Upstream.Origin)
	if err != nil {
		return nil, fmt.Errorf("upstream.origin: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("upstream.origin must be an absolute http(s) URL, got %q", c.Upstream.Origin)
	}
	return u, nil
}

// BackendHost returns the hosted backend host, empty when none is set.
func (c *Config) BackendHost() string {
	u, err := url.Parse(c.Supabase.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// String renders the configuration with secrets masked.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  Listen: %s\n", c.Server.Listen)
	fmt.Fprintf(&sb, "  Origin: %s\n", c.Upstream.Origin)
	fmt.Fprintf(&sb, "  CacheVersion: %s\n", c.Cache.Version)
	fmt.Fprintf(&sb, "  CacheBackend: %s\n", c.Cache.Backend)
	if c.Cache.Backend == BackendRedis {
		fmt.Fprintf(&sb, "  RedisAddr: %s (db %d)\n", c.Cache.RedisAddr, c.Cache.RedisDB)
	}
	fmt.Fprintf(&sb, "  SupabaseURL: %s\n", c.Supabase.URL)
	fmt.Fprintf(&sb, "  SupabaseAnonKey: %s\n", mask(c.Supabase.AnonKey))
	fmt.Fprintf(&sb, "  SupabaseServiceRoleKey: %s\n", mask(c.Supabase.ServiceRoleKey))
	fmt.Fprintf(&sb, "  PushTargets: %d\n", len(c.Push.URLs))
	fmt.Fprintf(&sb, "  LogLevel: %s\n", c.Log.Level)
	return sb.String()
}

func mask(secret string) string {
	if secret == "" {
		return "(empty)"
	}
	return "********"
}

// splitList expands whitespace separated entries, as they arrive from a
// single environment variable.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		out = append(out, strings.Fields(strings.ReplaceAll(item, ",", " "))...)
	}
	return out
}
