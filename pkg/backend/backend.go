// Package backend wraps the hosted Supabase project the directory reads
// from. It builds one configured client and probes the REST and Auth
// endpoints at startup so connectivity problems show up in the logs.
package backend

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/supabase-community/supabase-go"
)

// DefaultSchema is the Postgres schema the directory tables live in.
const DefaultSchema = "public"

// Config holds the hosted backend settings.
type Config struct {
	// URL is the project URL, e.g. https://abcd.supabase.co
	URL string

	// AnonKey is the public anonymous key
	AnonKey string

	// ServiceRoleKey is the privileged key used only by migrations
	ServiceRoleKey string

	// Schema selects the Postgres schema (default "public")
	Schema string
}

// Validate checks the settings needed for anonymous access.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("supabase url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid supabase url %q", c.URL)
	}
	if c.AnonKey == "" {
		return fmt.Errorf("supabase anon key is required")
	}
	return nil
}

// Host returns the project hostname, which the edge never intercepts.
func (c Config) Host() string {
	u, err := url.Parse(c.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Backend is the configured hosted-backend client.
type Backend struct {
	config     Config
	client     *supabase.Client
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates the anonymous client.
func New(cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.Schema == "" {
		cfg.Schema = DefaultSchema
	}

	sb, err := newClient(cfg, cfg.AnonKey)
	if err != nil {
		return nil, err
	}

	return &Backend{
		config:     cfg,
		client:     sb,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log.With().Str("component", "backend").Str("host", cfg.Host()).Logger(),
	}, nil
}

func newClient(cfg Config, key string) (*supabase.Client, error) {
	sb, err := supabase.NewClient(cfg.URL, key, &supabase.ClientOptions{
		Schema: cfg.Schema,
	})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return sb, nil
}

// Client returns the anonymous Supabase client.
func (b *Backend) Client() *supabase.Client {
	return b.client
}

// Admin returns a client authenticated with the service-role key.
func (b *Backend) Admin() (*supabase.Client, error) {
	if b.config.ServiceRoleKey == "" {
		return nil, fmt.Errorf("supabase service role key is required")
	}
	return newClient(b.config, b.config.ServiceRoleKey)
}

// Config returns the normalized configuration.
func (b *Backend) Config() Config {
	return b.config
}

// SetHTTPClient sets a custom HTTP client for probes (for testing).
func (b *Backend) SetHTTPClient(client *http.Client) {
	b.httpClient = client
}
