// Package worker drives the offline edge lifecycle: install populates the
// static bucket with the app shell, activate evicts buckets from earlier
// versions, and fetch routes intercepted requests through the caching
// strategies once the worker is active.
package worker

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/cornella-local/cornella-edge/pkg/cache"
	"github.com/cornella-local/cornella-edge/pkg/client"
	"github.com/cornella-local/cornella-edge/pkg/router"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Bucket name prefixes; the deployed version is appended.
const (
	StaticCachePrefix  = "cornella-static-"
	DynamicCachePrefix = "cornella-dynamic-"
)

// Fallback assets relied on by the strategies.
const (
	RootDocument     = "/"
	OfflinePage      = "/offline.html"
	PlaceholderImage = "/icons/placeholder.svg"
)

// DefaultShellAssets is the app shell populated at install time.
var DefaultShellAssets = []string{
	RootDocument,
	"/index.html",
	OfflinePage,
	"/manifest.json",
	PlaceholderImage,
}

// ErrNotInstalled is returned when Activate runs before Install.
var ErrNotInstalled = errors.New("worker not installed")

// State is the lifecycle state of a worker version.
type State int

const (
	StateNew State = iota
	StateInstalled
	StateActivated
)

func (s State) String() string {
	switch s {
	case StateInstalled:
		return "installed"
	case StateActivated:
		return "activated"
	default:
		return "new"
	}
}

// Config holds the worker configuration.
type Config struct {
	// Version suffixes both bucket names
	Version string

	// Origin is the app origin the shell assets are fetched from
	Origin *url.URL

	// BackendHost is never intercepted
	BackendHost string

	// ShellAssets are populated into the static bucket at install
	ShellAssets []string
}

// DefaultConfig returns the standard shell and fallbacks for version.
func DefaultConfig(version string, origin *url.URL, backendHost string) Config {
	assets := make([]string, len(DefaultShellAssets))
	copy(assets, DefaultShellAssets)
	return Config{
		Version:     version,
		Origin:      origin,
		BackendHost: backendHost,
		ShellAssets: assets,
	}
}

// StaticCacheName returns the static bucket name for version.
func StaticCacheName(version string) string {
	return StaticCachePrefix + version
}

// DynamicCacheName returns the dynamic bucket name for version.
func DynamicCacheName(version string) string {
	return DynamicCachePrefix + version
}

// Worker is one deployed version of the offline edge.
type Worker struct {
	config  Config
	storage cache.Storage
	fetcher client.Fetcher
	router  *router.Router
	logger  zerolog.Logger

	mu    sync.RWMutex
	state State
}

// New creates a worker in StateNew.
func New(cfg Config, storage cache.Storage, fetcher client.Fetcher) (*Worker, error) {
	if cfg.Version == "" {
		return nil, fmt.Errorf("version is required")
	}

	r, err := router.New(router.Config{
		StaticCache:      StaticCacheName(cfg.Version),
		DynamicCache:     DynamicCacheName(cfg.Version),
		Origin:           cfg.Origin,
		RootDocument:     RootDocument,
		OfflinePage:      OfflinePage,
		PlaceholderImage: PlaceholderImage,
	}, storage, fetcher)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	return &Worker{
		config:  cfg,
		storage: storage,
		fetcher: fetcher,
		router:  r,
		logger: log.With().
			Str("component", "worker").
			Str("version", cfg.Version).
			Logger(),
	}, nil
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// StaticCache returns the current static bucket name.
func (w *Worker) StaticCache() string {
	return StaticCacheName(w.config.Version)
}

// DynamicCache returns the current dynamic bucket name.
func (w *Worker) DynamicCache() string {
	return DynamicCacheName(w.config.Version)
}

// Fetch answers a request the way the page would see it. Requests that are
// not intercepted, or that arrive before activation, go straight to the
// network and their errors propagate.
func (w *Worker) Fetch(req *http.Request) (*http.Response, error) {
	if w.State() != StateActivated || !router.Intercepts(req, w.config.BackendHost) {
		passThroughTotal.Inc()
		return w.fetcher.Do(req)
	}
	return w.router.Handle(req), nil
}
