package router

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/cornella-local/cornella-edge/pkg/cache"
	"github.com/cornella-local/cornella-edge/pkg/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config names the buckets and fallback assets the strategies rely on.
type Config struct {
	// StaticCache is the current static bucket name
	StaticCache string

	// DynamicCache is the current dynamic bucket name
	DynamicCache string

	// Origin resolves the fallback asset paths below
	Origin *url.URL

	// RootDocument is the cached app shell ("/")
	RootDocument string

	// OfflinePage is served to failed navigations
	OfflinePage string

	// PlaceholderImage is served to failed image loads
	PlaceholderImage string
}

// Validate checks that every field needed by the strategies is set.
func (c Config) Validate() error {
	switch {
	case c.StaticCache == "":
		return fmt.Errorf("static cache name is required")
	case c.DynamicCache == "":
		return fmt.Errorf("dynamic cache name is required")
	case c.StaticCache == c.DynamicCache:
		return fmt.Errorf("static and dynamic cache names must differ (both %q)", c.StaticCache)
	case c.Origin == nil || c.Origin.Host == "":
		return fmt.Errorf("origin is required")
	case c.RootDocument == "" || c.OfflinePage == "" || c.PlaceholderImage == "":
		return fmt.Errorf("root document, offline page and placeholder image are required")
	}
	return nil
}

// Router dispatches classified requests to their caching strategy.
type Router struct {
	config  Config
	storage cache.Storage
	fetcher client.Fetcher
	logger  zerolog.Logger
}

// New creates a router over storage that reaches the network through fetcher.
func New(cfg Config, storage cache.Storage, fetcher client.Fetcher) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if storage == nil {
		return nil, fmt.Errorf("cache storage is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}

	return &Router{
		config:  cfg,
		storage: storage,
		fetcher: fetcher,
		logger:  log.With().Str("component", "router").Logger(),
	}, nil
}

// strategyFunc produces a response for req; it never fails.
type strategyFunc func(r *Router, req *http.Request, class Class) *http.Response

var strategies = map[Class]strategyFunc{
	ClassStatic:     (*Router).cacheFirst,
	ClassImage:      (*Router).cacheFirstImage,
	ClassNavigation: (*Router).networkFirstOffline,
	ClassOther:      (*Router).networkFirst,
}

// Handle classifies an intercepted request and runs its strategy. Callers
// must check Intercepts first; Handle always returns a response.
func (r *Router) Handle(req *http.Request) *http.Response {
	class := Classify(req)

	r.logger.Debug().
		Str("url", req.URL.String()).
		Str("class", class.String()).
		Msg("Routing request")

	return strategies[class](r, req, class)
}

// Config returns the router configuration.
func (r *Router) Config() Config {
	return r.config
}

// assetRequest builds a GET request for a fallback asset path on the origin.
func (r *Router) assetRequest(req *http.Request, assetPath string) *http.Request {
	ref, err := url.Parse(assetPath)
	if err != nil {
		ref = &url.URL{Path: assetPath}
	}
	u := r.config.Origin.ResolveReference(ref)

	fallback, err := http.NewRequestWithContext(req.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		return &http.Request{Method: http.MethodGet, URL: u, Header: http.Header{}}
	}
	return fallback
}
